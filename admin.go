/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/suparena/tablestore/keys"
	"github.com/suparena/tablestore/storagemodels"
	"go.uber.org/zap"
)

// ListTables returns the names of every table in the database, sorted.
func (s *Storage) ListTables(ctx context.Context) (names []string, err error) {
	defer s.track("list_tables", "", time.Now(), &err)

	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}
	names, err = db.ListContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", s.settings.DatabaseName, err)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// CreateTable creates a table if it does not exist. name may carry the partition
// field as "orders/CustomerId"; a bare name is partitioned on keys.DefaultPartitionKeyPath.
func (s *Storage) CreateTable(ctx context.Context, name string) (err error) {
	table, path, err := keys.ParseTableName(name)
	if err != nil {
		return err
	}
	defer s.track("create_table", table, time.Now(), &err)

	db, err := s.database(ctx)
	if err != nil {
		return err
	}
	if err := db.CreateContainerIfNotExists(ctx, table, path); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	s.logger.Info("table ready", zap.String("table", table), zap.String("partitionKeyPath", path))
	return nil
}

// DeleteTable deletes a table and everything in it. Deleting a missing table is
// reported as a not found error.
func (s *Storage) DeleteTable(ctx context.Context, table string) (err error) {
	defer s.track("delete_table", table, time.Now(), &err)

	db, err := s.database(ctx)
	if err != nil {
		return err
	}
	if err := db.DeleteContainer(ctx, table); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", table, err)
	}
	s.logger.Info("table deleted", zap.String("table", table))
	return nil
}

// TableExists reports whether table is one of ListTables.
func (s *Storage) TableExists(ctx context.Context, table string) (bool, error) {
	names, err := s.ListTables(ctx)
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearch(names, table)
	return found, nil
}

// Count returns the number of records in table matching filter. onIncrement, when
// set, is called with the running total after every page.
func (s *Storage) Count(ctx context.Context, table, filter string, onIncrement func(int64)) (total int64, err error) {
	defer s.track("count", table, time.Now(), &err)
	return s.count(ctx, table, storagemodels.CountQueryText(filter), onIncrement)
}

// CountContaining counts the records of table whose serialised form contains text.
func (s *Storage) CountContaining(ctx context.Context, table, text string) (total int64, err error) {
	defer s.track("count", table, time.Now(), &err)
	filter := fmt.Sprintf("CONTAINS(ToString(c), '%s')", storagemodels.EscapeString(text))
	return s.count(ctx, table, storagemodels.CountQueryText(filter), nil)
}

func (s *Storage) count(ctx context.Context, table, query string, onIncrement func(int64)) (int64, error) {
	var total int64
	var decodeErr error
	err := s.paginate(ctx, table, query, 0, func(page [][]byte, _ int) bool {
		for _, raw := range page {
			var item storagemodels.CountItem
			if err := json.Unmarshal(raw, &item); err != nil {
				decodeErr = fmt.Errorf("failed to decode count projection: %w", err)
				return false
			}
		}
		total += int64(len(page))
		if onIncrement != nil {
			onIncrement(total)
		}
		return true
	})
	if err != nil {
		return total, err
	}
	return total, decodeErr
}
