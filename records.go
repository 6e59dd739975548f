/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/keys"
	"github.com/suparena/tablestore/storagemodels"
	"go.uber.org/zap"
)

// Get reads the record stored under key, "<partition>/<id>" or "<id>".
// A missing record is not an error: Get returns nil, nil.
func Get[T any](ctx context.Context, s *Storage, table, key string) (*T, error) {
	started := time.Now()
	raw, err := s.read(ctx, table, key)
	if errors.IsNotFound(err) {
		s.metrics.observe("get", table, OutcomeNotFound, started)
		return nil, nil
	}
	if err != nil {
		s.metrics.observe("get", table, OutcomeError, started)
		return nil, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		s.metrics.observe("get", table, OutcomeError, started)
		return nil, fmt.Errorf("failed to decode record %s from %s: %w", key, table, err)
	}
	s.metrics.observe("get", table, OutcomeSuccess, started)
	return &out, nil
}

// Exists reports whether a record is stored under key.
func Exists(ctx context.Context, s *Storage, table, key string) (bool, error) {
	started := time.Now()
	_, err := s.read(ctx, table, key)
	switch {
	case errors.IsNotFound(err):
		s.metrics.observe("exists", table, OutcomeNotFound, started)
		return false, nil
	case err != nil:
		s.metrics.observe("exists", table, OutcomeError, started)
		return false, err
	}
	s.metrics.observe("exists", table, OutcomeSuccess, started)
	return true, nil
}

func (s *Storage) read(ctx context.Context, table, key string) ([]byte, error) {
	k, err := keys.Decode(key)
	if err != nil {
		return nil, err
	}
	c, err := s.container(ctx, table)
	if err != nil {
		return nil, err
	}
	return c.ReadItem(ctx, k.PartitionKey(), k.ID)
}

// Upsert creates or replaces record. The record's key is rewritten to its bare id
// before the record is serialised, so the stored document carries only the id.
func Upsert[T storagemodels.TableItem](ctx context.Context, s *Storage, table string, record T) (err error) {
	defer s.track("upsert", table, time.Now(), &err)

	c, err := s.container(ctx, table)
	if err != nil {
		return err
	}
	return upsertInto(ctx, c, record)
}

func upsertInto[T storagemodels.TableItem](ctx context.Context, c datastore.Container, record T) error {
	if isNil(record) {
		return errors.NewValidationError("record", "is nil")
	}
	k, err := keys.Decode(record.GetKey())
	if err != nil {
		return err
	}
	record.SetKey(k.ID)

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", k, err)
	}
	return c.UpsertItem(ctx, k.PartitionKey(), body)
}

// Delete removes the record stored under key. Deleting a missing record succeeds.
func Delete(ctx context.Context, s *Storage, table, key string) (err error) {
	defer s.track("delete", table, time.Now(), &err)

	c, err := s.container(ctx, table)
	if err != nil {
		return err
	}
	if err := deleteFrom(ctx, c, key); err != nil {
		s.logger.Debug("delete failed", zap.String("table", table), zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func deleteFrom(ctx context.Context, c datastore.Container, key string) error {
	k, err := keys.Decode(key)
	if err != nil {
		return err
	}
	if err := c.DeleteItem(ctx, k.PartitionKey(), k.ID); err != nil && !errors.IsNotFound(err) {
		return err
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
