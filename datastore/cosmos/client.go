/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
)

// NewClient wraps an azcosmos client.
func NewClient(c *azcosmos.Client) datastore.Client {
	return &client{client: c}
}

type client struct {
	client *azcosmos.Client
}

func (c *client) CreateDatabaseIfNotExists(ctx context.Context, id string) error {
	_, err := c.client.CreateDatabase(ctx, azcosmos.DatabaseProperties{ID: id}, nil)
	if err != nil && !hasStatus(err, http.StatusConflict) {
		return fmt.Errorf("CreateDatabase %s failed: %w", id, err)
	}
	return nil
}

func (c *client) Database(id string) (datastore.Database, error) {
	db, err := c.client.NewDatabase(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", id, err)
	}
	return &database{db: db, id: id}, nil
}

type database struct {
	db *azcosmos.DatabaseClient
	id string
}

func (d *database) Container(id string) (datastore.Container, error) {
	c, err := d.db.NewContainer(id)
	if err != nil {
		return nil, fmt.Errorf("failed to open container %s: %w", id, err)
	}
	return &container{container: c, name: id}, nil
}

func (d *database) CreateContainerIfNotExists(ctx context.Context, id, partitionKeyPath string) error {
	props := azcosmos.ContainerProperties{
		ID: id,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{partitionKeyPath},
		},
	}
	_, err := d.db.CreateContainer(ctx, props, nil)
	if err != nil && !hasStatus(err, http.StatusConflict) {
		return fmt.Errorf("CreateContainer %s failed: %w", id, err)
	}
	return nil
}

func (d *database) DeleteContainer(ctx context.Context, id string) error {
	c, err := d.db.NewContainer(id)
	if err != nil {
		return fmt.Errorf("failed to open container %s: %w", id, err)
	}
	if _, err := c.Delete(ctx, nil); err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return errors.NewNotFoundError("container", id)
		}
		return fmt.Errorf("DeleteContainer %s failed: %w", id, err)
	}
	return nil
}

func (d *database) ListContainers(ctx context.Context) ([]string, error) {
	var names []string
	pager := d.db.NewQueryContainersPager("SELECT * FROM c", nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if hasStatus(err, http.StatusNotFound) {
				return nil, errors.NewNotFoundError("database", d.id)
			}
			return nil, fmt.Errorf("failed to list containers of %s: %w", d.id, err)
		}
		for _, props := range page.Containers {
			names = append(names, props.ID)
		}
	}
	return names, nil
}

type container struct {
	container *azcosmos.ContainerClient
	name      string

	mu   sync.Mutex
	path string
}

// partitionPath reads the container's partition key path once.
func (c *container) partitionPath(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path != "" {
		return c.path, nil
	}
	resp, err := c.container.Read(ctx, nil)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return "", errors.NewNotFoundError("container", c.name)
		}
		return "", fmt.Errorf("failed to read container %s: %w", c.name, err)
	}
	if resp.ContainerProperties == nil || len(resp.ContainerProperties.PartitionKeyDefinition.Paths) == 0 {
		return "", fmt.Errorf("container %s has no partition key", c.name)
	}
	c.path = resp.ContainerProperties.PartitionKeyDefinition.Paths[0]
	return c.path, nil
}

func (c *container) ReadItem(ctx context.Context, pk datastore.PartitionKey, id string) ([]byte, error) {
	resp, err := c.container.ReadItem(ctx, partitionKey(pk), id, nil)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return nil, errors.NewNotFoundError("item", id)
		}
		return nil, fmt.Errorf("ReadItem error: %w", err)
	}
	return resp.Value, nil
}

func (c *container) UpsertItem(ctx context.Context, pk datastore.PartitionKey, item []byte) error {
	if pk.IsNone() {
		path, err := c.partitionPath(ctx)
		if err != nil {
			return err
		}
		if item, err = withNullPartition(item, path); err != nil {
			return err
		}
	}
	if _, err := c.container.UpsertItem(ctx, partitionKey(pk), item, nil); err != nil {
		if hasStatus(err, http.StatusBadRequest) {
			return errors.NewValidationError("partitionKey", err.Error())
		}
		if hasStatus(err, http.StatusNotFound) {
			return errors.NewNotFoundError("container", c.name)
		}
		return fmt.Errorf("UpsertItem failed: %w", err)
	}
	return nil
}

func (c *container) DeleteItem(ctx context.Context, pk datastore.PartitionKey, id string) error {
	if _, err := c.container.DeleteItem(ctx, partitionKey(pk), id, nil); err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return errors.NewNotFoundError("item", id)
		}
		return fmt.Errorf("DeleteItem failed: %w", err)
	}
	return nil
}

// NewQueryPager runs the query across all partitions.
func (c *container) NewQueryPager(query string, opts datastore.QueryOptions) datastore.Pager {
	var queryOpts *azcosmos.QueryOptions
	if opts.PageSize > 0 {
		queryOpts = &azcosmos.QueryOptions{PageSizeHint: opts.PageSize}
	}
	return &pager{
		name:  c.name,
		pager: c.container.NewQueryItemsPager(query, azcosmos.NewPartitionKey(), queryOpts),
	}
}

type pager struct {
	name  string
	pager *runtime.Pager[azcosmos.QueryItemsResponse]
}

func (p *pager) More() bool {
	return p.pager.More()
}

func (p *pager) NextPage(ctx context.Context) ([][]byte, error) {
	resp, err := p.pager.NextPage(ctx)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return nil, errors.NewNotFoundError("container", p.name)
		}
		return nil, fmt.Errorf("query page failed: %w", err)
	}
	return resp.Items, nil
}

// partitionKey maps a partition key onto the SDK's. The SDK has no "none"
// key, so records without a partition are stored under the null key.
func partitionKey(pk datastore.PartitionKey) azcosmos.PartitionKey {
	if v, ok := pk.Value(); ok {
		return azcosmos.NewPartitionKeyString(v)
	}
	return azcosmos.NullPartitionKey
}

// withNullPartition writes an explicit null at a top-level partition path so
// the document matches the null partition key. Nested paths are left as is.
func withNullPartition(item []byte, path string) ([]byte, error) {
	name := strings.TrimPrefix(path, "/")
	if name == "" || strings.Contains(name, "/") {
		return item, nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(item, &doc); err != nil {
		return nil, errors.NewValidationError("item", fmt.Sprintf("document is not a JSON object: %v", err))
	}
	if v, ok := doc[name]; ok && string(v) != "null" {
		return nil, errors.NewValidationError("partitionKey", fmt.Sprintf(
			"document has %s %s but no partition key was given", name, v))
	}
	doc[name] = json.RawMessage("null")
	return json.Marshal(doc)
}

func hasStatus(err error, code int) bool {
	var re *azcore.ResponseError
	return stderrors.As(err, &re) && re.StatusCode == code
}
