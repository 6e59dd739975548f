/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"time"

	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
	"go.uber.org/zap"
)

// paginate runs query against table and hands every fetched page to emit, in order.
//
// The context is checked before each fetch: once it is done paginate stops and
// returns nil. A fetch that has started is never interrupted, and every page that
// was fetched is handed to emit in full. emit returns false to stop early.
func (s *Storage) paginate(ctx context.Context, table, query string, pageSize int32, emit func(page [][]byte, number int) bool) error {
	c, err := s.container(ctx, table)
	if err != nil {
		return err
	}

	pager := c.NewQueryPager(query, datastore.QueryOptions{PageSize: pageSize})
	fetchCtx := context.WithoutCancel(ctx)
	for number := 1; pager.More(); number++ {
		if ctx.Err() != nil {
			s.logger.Debug("query cancelled", zap.String("table", table), zap.Int("page", number))
			return nil
		}

		page, err := pager.NextPage(fetchCtx)
		if err != nil {
			s.logger.Error("query failed", zap.String("table", table), zap.String("query", query), zap.Error(err))
			return &errors.QueryExecutionError{Table: table, Query: query, Err: err}
		}
		s.metrics.page(table)

		if !emit(page, number) {
			return nil
		}
	}
	return nil
}

func (s *Storage) streamOptions(opts []storagemodels.StreamOption) storagemodels.StreamOptions {
	o := storagemodels.DefaultStreamOptions()
	for _, opt := range s.streamDefaults {
		opt(&o)
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.BufferSize < 0 {
		o.BufferSize = 0
	}
	return o
}

func decode[T any](raw []byte) (T, error) {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, fmt.Errorf("failed to decode record: %w", err)
	}
	return item, nil
}

// ForEach calls fn for every record matching params. An error from fn stops the
// query and is returned. Only the page size of opts is used.
func ForEach[T any](ctx context.Context, s *Storage, params storagemodels.QueryParams, fn func(T) error, opts ...storagemodels.StreamOption) (err error) {
	defer s.track("foreach", params.Table, time.Now(), &err)

	o := s.streamOptions(opts)
	var stopErr error
	err = s.paginate(ctx, params.Table, params.QueryText(), o.PageSize, func(page [][]byte, _ int) bool {
		for _, raw := range page {
			item, err := decode[T](raw)
			if err != nil {
				stopErr = err
				return false
			}
			if err := fn(item); err != nil {
				stopErr = err
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	return stopErr
}

// Stream sends every record matching params on the returned channel, which is
// closed when the query is exhausted, fails or ctx is done.
//
// A record that cannot be decoded is delivered with Error set; the ErrorHandler
// option decides whether the stream goes on. A failed page fetch is delivered as
// a final result with Error set. Cancellation closes the channel without an error.
func Stream[T any](ctx context.Context, s *Storage, params storagemodels.QueryParams, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	o := s.streamOptions(opts)
	ch := make(chan storagemodels.StreamResult[T], o.BufferSize)
	go streamWorker(ctx, s, params, o, ch)
	return ch
}

func streamWorker[T any](ctx context.Context, s *Storage, params storagemodels.QueryParams,
	o storagemodels.StreamOptions, ch chan<- storagemodels.StreamResult[T]) {

	defer close(ch)
	started := time.Now()

	progress := storagemodels.StreamProgress{StartTime: started}
	report := func() {
		if o.ProgressHandler == nil {
			return
		}
		if elapsed := time.Since(started).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(progress.ItemsProcessed) / elapsed
		}
		o.ProgressHandler(progress)
	}

	send := func(r storagemodels.StreamResult[T]) bool {
		select {
		case ch <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	err := s.paginate(ctx, params.Table, params.QueryText(), o.PageSize, func(page [][]byte, number int) bool {
		for _, raw := range page {
			item, err := decode[T](raw)
			r := storagemodels.StreamResult[T]{
				Item:  item,
				Raw:   json.RawMessage(raw),
				Error: err,
				Meta: storagemodels.StreamMeta{
					Index:      progress.ItemsProcessed,
					PageNumber: number,
					Timestamp:  time.Now(),
				},
			}
			progress.ItemsProcessed++
			if !send(r) {
				return false
			}
			if err != nil {
				progress.Errors = append(progress.Errors, err)
				if o.ErrorHandler != nil && !o.ErrorHandler(err) {
					return false
				}
			}
		}
		progress.PagesProcessed = number
		report()
		return true
	})
	s.metrics.observe("stream", params.Table, outcomeOf(err), started)
	if err != nil {
		send(storagemodels.StreamResult[T]{
			Error: err,
			Meta: storagemodels.StreamMeta{
				Index:      progress.ItemsProcessed,
				PageNumber: progress.PagesProcessed,
				Timestamp:  time.Now(),
			},
		})
	}
}

// List returns an iterator over the records matching params. Every range over it
// runs the query afresh; breaking out of the loop stops paging. A failure is
// yielded once, with a zero record, and ends the iteration.
func List[T any](ctx context.Context, s *Storage, params storagemodels.QueryParams, opts ...storagemodels.StreamOption) iter.Seq2[T, error] {
	o := s.streamOptions(opts)
	return func(yield func(T, error) bool) {
		var stopped bool
		err := s.paginate(ctx, params.Table, params.QueryText(), o.PageSize, func(page [][]byte, _ int) bool {
			for _, raw := range page {
				item, err := decode[T](raw)
				if !yield(item, err) {
					stopped = true
					return false
				}
			}
			return true
		})
		if err != nil && !stopped {
			var zero T
			yield(zero, err)
		}
	}
}

// First returns the first record matching params, or nil when there is none.
func First[T any](ctx context.Context, s *Storage, params storagemodels.QueryParams) (*T, error) {
	items, err := Take[T](ctx, s, params, 1)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// maxTakePageSize is the largest page Take asks for; larger takes use the store's page size.
const maxTakePageSize = 100

// Take returns up to n records matching params. Paging stops once n are collected.
func Take[T any](ctx context.Context, s *Storage, params storagemodels.QueryParams, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	var opts []storagemodels.StreamOption
	if n <= maxTakePageSize {
		opts = append(opts, storagemodels.WithPageSize(int32(n)))
	}

	out := make([]T, 0, min(n, maxTakePageSize))
	for item, err := range List[T](ctx, s, params, opts...) {
		if err != nil {
			return out, err
		}
		out = append(out, item)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
