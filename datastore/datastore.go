/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"time"
)

// Connector builds a backing-store client from a connection string.
type Connector interface {
	Connect(ctx context.Context, connectionString string, opts ConnectOptions) (Client, error)
}

// ConnectOptions carries the client-side retry policy applied to throttled requests.
type ConnectOptions struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConnectOptions returns the fixed-interval throttling policy: 3 retries, 500ms apart.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Client is the account-level handle.
type Client interface {
	CreateDatabaseIfNotExists(ctx context.Context, id string) error

	Database(id string) (Database, error)
}

// Database manages the containers (tables) of one logical database.
type Database interface {
	Container(id string) (Container, error)

	// CreateContainerIfNotExists is a no-op when the container already exists.
	CreateContainerIfNotExists(ctx context.Context, id, partitionKeyPath string) error

	// DeleteContainer returns a NotFoundError when the container does not exist.
	DeleteContainer(ctx context.Context, id string) error

	ListContainers(ctx context.Context) ([]string, error)
}

// Container holds JSON documents addressed by (partition key, id).
type Container interface {
	// ReadItem returns the raw document or a NotFoundError.
	ReadItem(ctx context.Context, pk PartitionKey, id string) ([]byte, error)

	UpsertItem(ctx context.Context, pk PartitionKey, item []byte) error

	// DeleteItem returns a NotFoundError when nothing was deleted.
	DeleteItem(ctx context.Context, pk PartitionKey, id string) error

	// NewQueryPager runs a cross-partition SQL query. No request is made until NextPage.
	NewQueryPager(query string, opts QueryOptions) Pager
}

// QueryOptions configures a query pager.
type QueryOptions struct {
	// PageSize is the maximum number of documents per page; 0 lets the store decide.
	PageSize int32
}

// Pager walks the pages of a query result.
type Pager interface {
	More() bool

	NextPage(ctx context.Context) ([][]byte, error)
}
