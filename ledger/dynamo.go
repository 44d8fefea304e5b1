package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoClient is the part of the DynamoDB API used by DynamoLedger.
// *dynamodb.Client implements it.
type DynamoClient interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoLedger stores entries and claims as items of one table. The table's
// partition key is the string attribute "pk". Entries use "entry#<input>",
// claims "claim#<input>", and the entry JSON is kept in "payload".
//
// Table schema:
//
//	pk       S  partition key
//	kind     S  "entry" or "claim"
//	payload  S  Entry as JSON (entries only)
//	run_id   S
//	ts       N  unix milliseconds
type DynamoLedger struct {
	client DynamoClient
	table  string
}

// NewDynamoLedger returns a ledger on table.
func NewDynamoLedger(client DynamoClient, table string) *DynamoLedger {
	return &DynamoLedger{client: client, table: table}
}

// OpenDynamoLedger loads the default AWS configuration and returns a ledger on
// table.
func OpenDynamoLedger(ctx context.Context, table string, optFns ...func(*config.LoadOptions) error) (*DynamoLedger, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("ledger: load aws config: %w", err)
	}
	return NewDynamoLedger(dynamodb.NewFromConfig(cfg), table), nil
}

const (
	entryPrefix = "entry#"
	claimPrefix = "claim#"
)

func pk(prefix, input string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: prefix + input},
	}
}

func (l *DynamoLedger) Get(ctx context.Context, input string) (*Entry, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(l.table),
		Key:            pk(entryPrefix, input),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: get %s: %w", input, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	return decodeItem(out.Item)
}

func decodeItem(item map[string]types.AttributeValue) (*Entry, error) {
	payload, ok := item["payload"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("ledger: item without payload")
	}
	var e Entry
	if err := json.Unmarshal([]byte(payload.Value), &e); err != nil {
		return nil, fmt.Errorf("ledger: decode entry: %w", err)
	}
	return &e, nil
}

func (l *DynamoLedger) Record(ctx context.Context, e *Entry) error {
	stamp(e)
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	item := pk(entryPrefix, e.Input)
	item["kind"] = &types.AttributeValueMemberS{Value: "entry"}
	item["payload"] = &types.AttributeValueMemberS{Value: string(payload)}
	item["run_id"] = &types.AttributeValueMemberS{Value: e.RunID}
	item["ts"] = &types.AttributeValueMemberN{Value: fmt.Sprint(e.CreatedAt.UnixMilli())}

	if _, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("ledger: record %s: %w", e.Input, err)
	}
	return nil
}

func (l *DynamoLedger) List(ctx context.Context) ([]*Entry, error) {
	var entries []*Entry

	paginator := dynamodb.NewScanPaginator(l.client, &dynamodb.ScanInput{
		TableName:                 aws.String(l.table),
		FilterExpression:          aws.String("kind = :kind"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":kind": &types.AttributeValueMemberS{Value: "entry"}},
		ConsistentRead:            aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ledger: scan: %w", err)
		}
		for _, item := range page.Items {
			key, ok := item["pk"].(*types.AttributeValueMemberS)
			if !ok || !strings.HasPrefix(key.Value, entryPrefix) {
				continue
			}
			e, err := decodeItem(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (l *DynamoLedger) Claim(ctx context.Context, input, runID string) error {
	item := pk(claimPrefix, input)
	item["kind"] = &types.AttributeValueMemberS{Value: "claim"}
	item["run_id"] = &types.AttributeValueMemberS{Value: runID}
	item["ts"] = &types.AttributeValueMemberN{Value: fmt.Sprint(time.Now().UnixMilli())}

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(l.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: %s", ErrClaimed, input)
		}
		return fmt.Errorf("ledger: claim %s: %w", input, err)
	}
	return nil
}

func (l *DynamoLedger) Release(ctx context.Context, input string) error {
	if _, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.table),
		Key:       pk(claimPrefix, input),
	}); err != nil {
		return fmt.Errorf("ledger: release %s: %w", input, err)
	}
	return nil
}

// Close is a no-op.
func (l *DynamoLedger) Close() error { return nil }
