/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds the number of items a batch writes at once.
const DefaultBatchConcurrency = 10

type batchOptions struct {
	concurrency int
}

// BatchOption configures UpsertMany and DeleteMany
type BatchOption func(*batchOptions)

// WithConcurrency sets how many items are in flight at once. Values below 1 use the default.
func WithConcurrency(n int) BatchOption {
	return func(o *batchOptions) {
		o.concurrency = n
	}
}

// UpsertMany upserts every record in parallel. A failing record does not stop the
// others; when any record fails the error is an *errors.AggregateBatchError listing
// each failure. Records that succeeded stay written.
func UpsertMany[T storagemodels.TableItem](ctx context.Context, s *Storage, table string, records []T, opts ...BatchOption) error {
	keyOf := func(i int) string {
		if isNil(records[i]) {
			return ""
		}
		return records[i].GetKey()
	}
	return s.runBatch(ctx, "upsert", table, len(records), keyOf, opts, func(ctx context.Context, c datastore.Container, i int) error {
		return upsertInto(ctx, c, records[i])
	})
}

// DeleteMany deletes every key in parallel with the same failure semantics as UpsertMany.
func DeleteMany(ctx context.Context, s *Storage, table string, keys []string, opts ...BatchOption) error {
	keyOf := func(i int) string { return keys[i] }
	return s.runBatch(ctx, "delete", table, len(keys), keyOf, opts, func(ctx context.Context, c datastore.Container, i int) error {
		return deleteFrom(ctx, c, keys[i])
	})
}

func (s *Storage) runBatch(ctx context.Context, op, table string, total int, keyOf func(int) string,
	opts []BatchOption, work func(context.Context, datastore.Container, int) error) (err error) {

	defer s.track(op+"_many", table, time.Now(), &err)
	if total == 0 {
		return nil
	}

	o := batchOptions{concurrency: DefaultBatchConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = DefaultBatchConcurrency
	}

	c, err := s.container(ctx, table)
	if err != nil {
		return err
	}

	// Keys are captured before the work runs, upserts rewrite them.
	itemKeys := make([]string, total)
	for i := range itemKeys {
		itemKeys[i] = keyOf(i)
	}

	// Workers never return an error to the group so one failure cannot cancel the rest.
	results := make([]error, total)
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i := 0; i < total; i++ {
		g.Go(func() error {
			results[i] = work(ctx, c, i)
			return nil
		})
	}
	_ = g.Wait()

	var failures []errors.ItemError
	for i, itemErr := range results {
		if itemErr != nil {
			failures = append(failures, errors.ItemError{Index: i, Key: itemKeys[i], Err: itemErr})
		}
	}
	if len(failures) == 0 {
		return nil
	}

	s.logger.Warn("batch completed with failures",
		zap.String("op", op),
		zap.String("table", table),
		zap.Int("total", total),
		zap.Int("failed", len(failures)))
	return &errors.AggregateBatchError{Op: op, Table: table, Total: total, Failures: failures}
}

// BatchResult summarizes a batch operation
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []errors.ItemError
}

// AnalyzeBatchResults summarizes the error returned by UpsertMany or DeleteMany for
// a batch of total items. A nil error is a batch in which every item succeeded.
// Any other non-batch error failed the batch before an item was attempted.
func AnalyzeBatchResults(err error, total int) BatchResult {
	result := BatchResult{Total: total}
	if err == nil {
		result.Succeeded = total
		return result
	}

	var batchErr *errors.AggregateBatchError
	if !stderrors.As(err, &batchErr) {
		result.Failed = total
		return result
	}
	result.Failures = batchErr.Failures
	result.Failed = len(batchErr.Failures)
	result.Succeeded = total - result.Failed
	return result
}
