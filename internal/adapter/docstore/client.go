// Package docstore reads raw city records from the DynamoDB document store.
// Tables are named "{prefix}-{city}-{type}"; a missing table means the city
// has no data yet and reads as empty, not as an error.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
)

// Record type segments used in table names.
const (
	TypeCongestion = "congestion"
	TypeDamage     = "damage"
)

// ScanAPI is the slice of the DynamoDB client the store uses.
type ScanAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Client scans city record tables.
type Client struct {
	api         ScanAPI
	tablePrefix string
	logger      *slog.Logger
}

// Config holds the document store settings.
type Config struct {
	TablePrefix string
	Region      string
	Endpoint    string // non-empty for local stacks
}

// NewClient builds a Client against real DynamoDB.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var opts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return NewClientWithAPI(dynamodb.NewFromConfig(awsCfg, opts...), cfg.TablePrefix, logger), nil
}

// NewClientWithAPI builds a Client around an existing DynamoDB API, real or mock.
func NewClientWithAPI(api ScanAPI, tablePrefix string, logger *slog.Logger) *Client {
	return &Client{api: api, tablePrefix: tablePrefix, logger: logger}
}

// CongestionRecords returns the normalized congestion records of one city.
func (c *Client) CongestionRecords(ctx context.Context, city string) ([]domain.CongestionRecord, error) {
	items, err := c.scanTable(ctx, c.tableName(city, TypeCongestion))
	if err != nil {
		return nil, err
	}
	recs := make([]domain.CongestionRecord, 0, len(items))
	for _, item := range items {
		recs = append(recs, domain.NormalizeCongestion(item))
	}
	return recs, nil
}

// DamageRecords returns the normalized damage records of one city.
func (c *Client) DamageRecords(ctx context.Context, city string) ([]domain.DamageRecord, error) {
	items, err := c.scanTable(ctx, c.tableName(city, TypeDamage))
	if err != nil {
		return nil, err
	}
	recs := make([]domain.DamageRecord, 0, len(items))
	for _, item := range items {
		recs = append(recs, domain.NormalizeDamage(item))
	}
	return recs, nil
}

// RawRecords returns the untyped items of one city/type table, for callers
// that serve the raw documents onward.
func (c *Client) RawRecords(ctx context.Context, city, recordType string) ([]map[string]any, error) {
	return c.scanTable(ctx, c.tableName(city, recordType))
}

func (c *Client) tableName(city, recordType string) string {
	return fmt.Sprintf("%s-%s-%s", c.tablePrefix, city, recordType)
}

// scanTable scans a full table, following pagination. A missing table reads
// as empty.
func (c *Client) scanTable(ctx context.Context, table string) ([]map[string]any, error) {
	var items []map[string]any
	var startKey map[string]types.AttributeValue

	for {
		out, err := c.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				c.logger.Debug("document store table missing, treating as empty", "table", table)
				return nil, nil
			}
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}

		for _, raw := range out.Items {
			var item map[string]any
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("decode item from %s: %w", table, err)
			}
			items = append(items, item)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}
