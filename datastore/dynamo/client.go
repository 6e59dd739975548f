/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package dynamo

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
)

// NoneValue is stored in the partition attribute of records without a partition.
// DynamoDB requires a value for every key attribute.
const NoneValue = "#none"

// idAttribute is the sort key of every table.
const idAttribute = "id"

// tableReadyTimeout bounds the wait for a new table to become active.
const tableReadyTimeout = 5 * time.Minute

// API is the subset of the DynamoDB client the driver uses.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
	DeleteTable(ctx context.Context, params *sdk.DeleteTableInput, optFns ...func(*sdk.Options)) (*sdk.DeleteTableOutput, error)
	ListTables(ctx context.Context, params *sdk.ListTablesInput, optFns ...func(*sdk.Options)) (*sdk.ListTablesOutput, error)
	ExecuteStatement(ctx context.Context, params *sdk.ExecuteStatementInput, optFns ...func(*sdk.Options)) (*sdk.ExecuteStatementOutput, error)
}

// NewClient wraps a DynamoDB API. Databases are table name prefixes: table "orders"
// of database "app" is the DynamoDB table "app.orders".
func NewClient(api API) datastore.Client {
	return &client{api: api}
}

type client struct {
	api API
}

// CreateDatabaseIfNotExists is a no-op, databases are table name prefixes.
func (c *client) CreateDatabaseIfNotExists(ctx context.Context, id string) error {
	return nil
}

func (c *client) Database(id string) (datastore.Database, error) {
	if id == "" {
		return nil, errors.NewValidationError("database", "is required")
	}
	return &database{api: c.api, id: id}, nil
}

type database struct {
	api API
	id  string
}

// TableName returns the DynamoDB table backing table of database db.
func TableName(db, table string) string {
	return db + "." + table
}

func (d *database) Container(id string) (datastore.Container, error) {
	return &container{api: d.api, name: id, table: TableName(d.id, id)}, nil
}

func (d *database) CreateContainerIfNotExists(ctx context.Context, id, partitionKeyPath string) error {
	hash, err := partitionAttribute(partitionKeyPath)
	if err != nil {
		return err
	}
	table := TableName(d.id, id)

	input := &sdk.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(hash), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash},
		},
	}
	if hash != idAttribute {
		input.AttributeDefinitions = append(input.AttributeDefinitions,
			types.AttributeDefinition{AttributeName: aws.String(idAttribute), AttributeType: types.ScalarAttributeTypeS})
		input.KeySchema = append(input.KeySchema,
			types.KeySchemaElement{AttributeName: aws.String(idAttribute), KeyType: types.KeyTypeRange})
	}

	if _, err := d.api.CreateTable(ctx, input); err != nil {
		var inUse *types.ResourceInUseException
		if stderrors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("CreateTable %s failed: %w", table, err)
	}

	waiter := sdk.NewTableExistsWaiter(d.api)
	if err := waiter.Wait(ctx, &sdk.DescribeTableInput{TableName: aws.String(table)}, tableReadyTimeout); err != nil {
		return fmt.Errorf("table %s did not become active: %w", table, err)
	}
	return nil
}

func (d *database) DeleteContainer(ctx context.Context, id string) error {
	table := TableName(d.id, id)
	if _, err := d.api.DeleteTable(ctx, &sdk.DeleteTableInput{TableName: aws.String(table)}); err != nil {
		if isResourceNotFound(err) {
			return errors.NewNotFoundError("table", id)
		}
		return fmt.Errorf("DeleteTable %s failed: %w", table, err)
	}
	return nil
}

func (d *database) ListContainers(ctx context.Context) ([]string, error) {
	prefix := d.id + "."
	var names []string

	paginator := sdk.NewListTablesPaginator(d.api, &sdk.ListTablesInput{})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListTables failed: %w", err)
		}
		for _, name := range out.TableNames {
			if strings.HasPrefix(name, prefix) {
				names = append(names, strings.TrimPrefix(name, prefix))
			}
		}
	}
	return names, nil
}

type container struct {
	api   API
	name  string
	table string

	mu   sync.Mutex
	hash string
}

// hashAttribute reads the partition attribute from the table's key schema once.
func (c *container) hashAttribute(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hash != "" {
		return c.hash, nil
	}

	out, err := c.api.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: aws.String(c.table)})
	if err != nil {
		if isResourceNotFound(err) {
			return "", errors.NewNotFoundError("table", c.name)
		}
		return "", fmt.Errorf("DescribeTable %s failed: %w", c.table, err)
	}
	if out.Table != nil {
		for _, k := range out.Table.KeySchema {
			if k.KeyType == types.KeyTypeHash && k.AttributeName != nil {
				c.hash = *k.AttributeName
			}
		}
	}
	if c.hash == "" {
		return "", fmt.Errorf("table %s has no partition key", c.table)
	}
	return c.hash, nil
}

func (c *container) key(hash string, pk datastore.PartitionKey, id string) map[string]types.AttributeValue {
	if hash == idAttribute {
		return map[string]types.AttributeValue{idAttribute: &types.AttributeValueMemberS{Value: id}}
	}
	return map[string]types.AttributeValue{
		hash:        &types.AttributeValueMemberS{Value: partitionValue(pk)},
		idAttribute: &types.AttributeValueMemberS{Value: id},
	}
}

func (c *container) ReadItem(ctx context.Context, pk datastore.PartitionKey, id string) ([]byte, error) {
	hash, err := c.hashAttribute(ctx)
	if err != nil {
		return nil, err
	}
	out, err := c.api.GetItem(ctx, &sdk.GetItemInput{
		TableName: aws.String(c.table),
		Key:       c.key(hash, pk, id),
	})
	if err != nil {
		if isResourceNotFound(err) {
			return nil, errors.NewNotFoundError("table", c.name)
		}
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError("item", id)
	}
	return toJSON(out.Item, hash)
}

func (c *container) UpsertItem(ctx context.Context, pk datastore.PartitionKey, item []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(item, &doc); err != nil {
		return errors.NewValidationError("item", fmt.Sprintf("document is not a JSON object: %v", err))
	}
	id, _ := doc[idAttribute].(string)
	if id == "" {
		return errors.NewValidationError("id", "document has no string id")
	}

	hash, err := c.hashAttribute(ctx)
	if err != nil {
		return err
	}
	if hash != idAttribute {
		if v, ok := doc[hash]; ok && v != nil {
			if value, defined := pk.Value(); !defined || fmt.Sprint(v) != value {
				return errors.NewValidationError("partitionKey", fmt.Sprintf(
					"partition key %v extracted from document does not match %s", v, pk))
			}
		} else if !pk.IsNone() {
			return errors.NewValidationError("partitionKey", fmt.Sprintf(
				"document has no %s but partition key %s was given", hash, pk))
		}
		doc[hash] = partitionValue(pk)
	}

	av, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	if _, err := c.api.PutItem(ctx, &sdk.PutItemInput{TableName: aws.String(c.table), Item: av}); err != nil {
		if isResourceNotFound(err) {
			return errors.NewNotFoundError("table", c.name)
		}
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

func (c *container) DeleteItem(ctx context.Context, pk datastore.PartitionKey, id string) error {
	hash, err := c.hashAttribute(ctx)
	if err != nil {
		return err
	}
	out, err := c.api.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:    aws.String(c.table),
		Key:          c.key(hash, pk, id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		if isResourceNotFound(err) {
			return errors.NewNotFoundError("table", c.name)
		}
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	if len(out.Attributes) == 0 {
		return errors.NewNotFoundError("item", id)
	}
	return nil
}

func (c *container) NewQueryPager(query string, opts datastore.QueryOptions) datastore.Pager {
	return &pager{container: c, query: query, pageSize: opts.PageSize}
}

type pager struct {
	container *container
	query     string
	pageSize  int32

	started   bool
	statement string
	nextToken *string
}

func (p *pager) More() bool {
	return !p.started || p.nextToken != nil
}

func (p *pager) NextPage(ctx context.Context) ([][]byte, error) {
	if !p.started {
		stmt, err := Translate(p.query, p.container.table)
		if err != nil {
			return nil, err
		}
		p.statement = stmt
		p.started = true
	}

	hash, err := p.container.hashAttribute(ctx)
	if err != nil {
		return nil, err
	}

	input := &sdk.ExecuteStatementInput{
		Statement: aws.String(p.statement),
		NextToken: p.nextToken,
	}
	if p.pageSize > 0 {
		input.Limit = aws.Int32(p.pageSize)
	}
	out, err := p.container.api.ExecuteStatement(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ExecuteStatement error: %w", err)
	}
	p.nextToken = out.NextToken

	page := make([][]byte, 0, len(out.Items))
	for _, item := range out.Items {
		raw, err := toJSON(item, hash)
		if err != nil {
			return nil, err
		}
		page = append(page, raw)
	}
	return page, nil
}

// toJSON renders an item as the JSON document it was written from.
func toJSON(item map[string]types.AttributeValue, hash string) ([]byte, error) {
	var doc map[string]any
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	if v, ok := doc[hash].(string); ok && v == NoneValue {
		delete(doc, hash)
	}
	return json.Marshal(doc)
}

func partitionValue(pk datastore.PartitionKey) string {
	if v, ok := pk.Value(); ok {
		return v
	}
	return NoneValue
}

// partitionAttribute maps a partition key path to a top-level attribute name.
func partitionAttribute(path string) (string, error) {
	name := strings.TrimPrefix(path, "/")
	if name == "" || strings.Contains(name, "/") {
		return "", errors.NewValidationError("partitionKeyPath",
			fmt.Sprintf("%q must name a single top-level attribute", path))
	}
	return name, nil
}

func isResourceNotFound(err error) bool {
	var notFound *types.ResourceNotFoundException
	return stderrors.As(err, &notFound)
}
