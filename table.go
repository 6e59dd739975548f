/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"fmt"
	"iter"

	"github.com/suparena/tablestore/keys"
	"github.com/suparena/tablestore/registry"
	"github.com/suparena/tablestore/storagemodels"
)

// Table provides type-safe access to one table holding records of type T.
// P is *T, which carries the key accessors.
type Table[T any, P interface {
	*T
	storagemodels.TableItem
}] struct {
	storage *Storage
	name    string
	path    string
}

// NewTable binds T to a table of s. name may carry the partition field, "orders/CustomerId".
func NewTable[T any, P interface {
	*T
	storagemodels.TableItem
}](s *Storage, name string) (*Table[T, P], error) {
	table, path, err := keys.ParseTableName(name)
	if err != nil {
		return nil, err
	}
	return &Table[T, P]{storage: s, name: table, path: path}, nil
}

// TableOf binds T to the table registered for it with registry.RegisterTable.
func TableOf[T any, P interface {
	*T
	storagemodels.TableItem
}](s *Storage) (*Table[T, P], error) {
	b, ok := registry.Binding[T]()
	if !ok {
		var zero T
		return nil, fmt.Errorf("no table registered for %T", zero)
	}
	return &Table[T, P]{storage: s, name: b.Table, path: b.PartitionKeyPath}, nil
}

// Name is the table name without the partition field.
func (t *Table[T, P]) Name() string { return t.name }

// PartitionKeyPath is the path the table is partitioned on.
func (t *Table[T, P]) PartitionKeyPath() string { return t.path }

// Create creates the table if it does not exist.
func (t *Table[T, P]) Create(ctx context.Context) error {
	if t.path == keys.DefaultPartitionKeyPath {
		return t.storage.CreateTable(ctx, t.name)
	}
	return t.storage.CreateTable(ctx, t.name+t.path)
}

// Get returns the record under key, or nil when there is none.
func (t *Table[T, P]) Get(ctx context.Context, key string) (*T, error) {
	return Get[T](ctx, t.storage, t.name, key)
}

// Exists reports whether a record is stored under key.
func (t *Table[T, P]) Exists(ctx context.Context, key string) (bool, error) {
	return Exists(ctx, t.storage, t.name, key)
}

// Upsert creates or replaces record.
func (t *Table[T, P]) Upsert(ctx context.Context, record *T) error {
	return Upsert(ctx, t.storage, t.name, P(record))
}

// UpsertMany upserts records in parallel.
func (t *Table[T, P]) UpsertMany(ctx context.Context, records []*T, opts ...BatchOption) error {
	items := make([]P, len(records))
	for i, r := range records {
		items[i] = P(r)
	}
	return UpsertMany(ctx, t.storage, t.name, items, opts...)
}

// Delete removes the record under key.
func (t *Table[T, P]) Delete(ctx context.Context, key string) error {
	return Delete(ctx, t.storage, t.name, key)
}

// DeleteMany deletes keys in parallel.
func (t *Table[T, P]) DeleteMany(ctx context.Context, keys []string, opts ...BatchOption) error {
	return DeleteMany(ctx, t.storage, t.name, keys, opts...)
}

// Query returns the parameters for a query over this table.
func (t *Table[T, P]) Query(filter string, columns ...string) storagemodels.QueryParams {
	return storagemodels.QueryParams{Table: t.name, Filter: filter, Columns: columns}
}

// List iterates over the records matching filter.
func (t *Table[T, P]) List(ctx context.Context, filter string, opts ...storagemodels.StreamOption) iter.Seq2[T, error] {
	return List[T](ctx, t.storage, t.Query(filter), opts...)
}

// ForEach calls fn for every record matching filter.
func (t *Table[T, P]) ForEach(ctx context.Context, filter string, fn func(T) error, opts ...storagemodels.StreamOption) error {
	return ForEach(ctx, t.storage, t.Query(filter), fn, opts...)
}

// Stream sends the records matching filter on a channel.
func (t *Table[T, P]) Stream(ctx context.Context, filter string, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	return Stream[T](ctx, t.storage, t.Query(filter), opts...)
}

// Count returns the number of records matching filter.
func (t *Table[T, P]) Count(ctx context.Context, filter string) (int64, error) {
	return t.storage.Count(ctx, t.name, filter, nil)
}
