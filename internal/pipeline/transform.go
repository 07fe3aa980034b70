package pipeline

import (
	"context"
	"log/slog"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
)

// TelemetryTransformer implements Transformer using the domain parse and
// enrichment functions, with grid tile assignment injected.
type TelemetryTransformer struct {
	cellID domain.CellFunc
	logger *slog.Logger
}

// NewTransformer creates a TelemetryTransformer. cellID maps a coordinate to
// its grid tile; pass nil to skip tile assignment.
func NewTransformer(cellID domain.CellFunc, logger *slog.Logger) *TelemetryTransformer {
	return &TelemetryTransformer{
		cellID: cellID,
		logger: logger,
	}
}

func (t *TelemetryTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.SensorEvent, error) {
	event, err := domain.ParseRawTelemetry(raw)
	if err != nil {
		return domain.SensorEvent{}, err
	}
	return domain.EnrichSensorEvent(event, t.cellID), nil
}
