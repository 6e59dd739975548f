/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/datastore/memory"
	"github.com/suparena/tablestore/datastore/testmodels"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func allEntities() storagemodels.QueryParams {
	return storagemodels.QueryParams{Table: entitiesTable}
}

func TestForEach(t *testing.T) {
	mem := memory.New(memory.WithPageSize(2))
	s := newTestStorage(t, mem)
	seed(t, s, 5)

	var ids []string
	err := ForEach(context.Background(), s, allEntities(), func(e testmodels.SampleEntity) error {
		ids = append(ids, e.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	want := []string{"id1", "id2", "id3", "id4", "id5"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, ids)
			break
		}
	}
	if pages := mem.Calls().Pages; pages != 3 {
		t.Errorf("Expected 3 pages, got %d", pages)
	}
}

func TestForEachCallbackError(t *testing.T) {
	s := newTestStorage(t, memory.New(memory.WithPageSize(2)))
	seed(t, s, 5)

	stop := stderrors.New("stop")
	var seen int
	err := ForEach(context.Background(), s, allEntities(), func(testmodels.SampleEntity) error {
		seen++
		if seen == 3 {
			return stop
		}
		return nil
	})
	if !stderrors.Is(err, stop) {
		t.Fatalf("Expected callback error, got %v", err)
	}
	if seen != 3 {
		t.Errorf("Expected the stream to stop after 3 records, saw %d", seen)
	}
}

func TestForEachCancellation(t *testing.T) {
	mem := memory.New(memory.WithPageSize(2))
	s := newTestStorage(t, mem)
	seed(t, s, 5)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := map[string]int{}
	err := ForEach(ctx, s, allEntities(), func(e testmodels.SampleEntity) error {
		seen[e.ID]++
		cancel()
		return nil
	})
	if err != nil {
		t.Fatalf("Expected cancellation to end the stream without error, got %v", err)
	}

	// The page in hand is finished, no further page is fetched.
	if len(seen) != 2 {
		t.Errorf("Expected the 2 records of the first page, got %v", seen)
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("Record %s delivered %d times", id, n)
		}
	}
	if pages := mem.Calls().Pages; pages != 1 {
		t.Errorf("Expected 1 page fetched, got %d", pages)
	}
}

func TestForEachAlreadyCancelled(t *testing.T) {
	mem := memory.New()
	s := newTestStorage(t, mem)
	seed(t, s, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ForEach(ctx, s, allEntities(), func(testmodels.SampleEntity) error {
		t.Error("Expected no records")
		return nil
	})
	if err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
	if pages := mem.Calls().Pages; pages != 0 {
		t.Errorf("Expected no page fetch, got %d", pages)
	}
}

func TestQueryFailure(t *testing.T) {
	mem := memory.New(memory.WithPageSize(2))
	core, logs := observer.New(zap.ErrorLevel)
	s := newTestStorage(t, mem, WithLogger(zap.New(core)))
	seed(t, s, 5)

	cause := stderrors.New("service unavailable")
	mem.FailQuery = func(table, query string, page int) error {
		if page == 2 {
			return cause
		}
		return nil
	}

	var seen int
	err := ForEach(context.Background(), s, allEntities(), func(testmodels.SampleEntity) error {
		seen++
		return nil
	})
	if !errors.IsQueryExecution(err) {
		t.Fatalf("Expected query execution error, got %v", err)
	}
	if !stderrors.Is(err, cause) {
		t.Error("Expected the store error to be wrapped")
	}
	if seen != 2 {
		t.Errorf("Expected the first page to be delivered, saw %d records", seen)
	}

	entries := logs.FilterMessage("query failed").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 logged query failure, got %d", len(entries))
	}
	if entries[0].ContextMap()["table"] != entitiesTable {
		t.Errorf("Expected the table to be logged, got %v", entries[0].ContextMap())
	}
}

func TestStream(t *testing.T) {
	s := newTestStorage(t, memory.New())
	seed(t, s, 5)

	var progress []storagemodels.StreamProgress
	results := Stream[testmodels.SampleEntity](context.Background(), s, allEntities(),
		storagemodels.WithPageSize(2),
		storagemodels.WithBufferSize(1),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
			progress = append(progress, p)
		}))

	var got []storagemodels.StreamResult[testmodels.SampleEntity]
	for r := range results {
		if r.Error != nil {
			t.Fatalf("Unexpected error: %v", r.Error)
		}
		got = append(got, r)
	}

	if len(got) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(got))
	}
	for i, r := range got {
		if r.Meta.Index != int64(i) {
			t.Errorf("Result %d has index %d", i, r.Meta.Index)
		}
		if want := i/2 + 1; r.Meta.PageNumber != want {
			t.Errorf("Result %d: expected page %d, got %d", i, want, r.Meta.PageNumber)
		}
		if len(r.Raw) == 0 {
			t.Errorf("Result %d has no raw document", i)
		}
	}
	if got[4].Item.ID != "id5" {
		t.Errorf("Expected last record id5, got %q", got[4].Item.ID)
	}

	if len(progress) != 3 {
		t.Fatalf("Expected a progress report per page, got %d", len(progress))
	}
	last := progress[2]
	if last.ItemsProcessed != 5 || last.PagesProcessed != 3 {
		t.Errorf("Unexpected final progress %+v", last)
	}
}

func TestStreamCancellation(t *testing.T) {
	s := newTestStorage(t, memory.New())
	seed(t, s, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := Stream[testmodels.SampleEntity](ctx, s, allEntities(), storagemodels.WithPageSize(2))

	seen := map[string]int{}
	for r := range results {
		if r.Error != nil {
			t.Fatalf("Expected cancellation without error, got %v", r.Error)
		}
		seen[r.Item.ID]++
		cancel()
	}
	if len(seen) == 0 || len(seen) > 10 {
		t.Errorf("Unexpected number of records %d", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("Record %s delivered %d times", id, n)
		}
	}
}

func TestStreamQueryFailure(t *testing.T) {
	mem := memory.New()
	s := newTestStorage(t, mem)
	seed(t, s, 2)
	mem.FailQuery = func(string, string, int) error { return stderrors.New("boom") }

	var last storagemodels.StreamResult[testmodels.SampleEntity]
	var n int
	for r := range Stream[testmodels.SampleEntity](context.Background(), s, allEntities()) {
		last = r
		n++
	}
	if n != 1 || !errors.IsQueryExecution(last.Error) {
		t.Errorf("Expected a single terminal error, got %d results, last %v", n, last.Error)
	}
}

func TestStreamDecodeErrors(t *testing.T) {
	s := newTestStorage(t, memory.New())
	ctx := context.Background()
	if err := s.CreateTable(ctx, "raw"); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	c, err := s.container(ctx, "raw")
	if err != nil {
		t.Fatalf("container failed: %v", err)
	}
	for _, doc := range []string{
		`{"id":"a","OtherField3":true}`,
		`{"id":"b","OtherField3":"not a bool"}`,
		`{"id":"c","OtherField3":false}`,
	} {
		if err := c.UpsertItem(ctx, datastore.NonePartitionKey, []byte(doc)); err != nil {
			t.Fatalf("UpsertItem failed: %v", err)
		}
	}
	params := storagemodels.QueryParams{Table: "raw"}

	t.Run("Continue", func(t *testing.T) {
		var ok, failed int
		for r := range Stream[testmodels.SampleEntity](ctx, s, params) {
			if r.Error != nil {
				failed++
				continue
			}
			ok++
		}
		if ok != 2 || failed != 1 {
			t.Errorf("Expected 2 records and 1 decode error, got %d and %d", ok, failed)
		}
	})

	t.Run("Stop", func(t *testing.T) {
		var n int
		results := Stream[testmodels.SampleEntity](ctx, s, params,
			storagemodels.WithErrorHandler(func(error) bool { return false }))
		for range results {
			n++
		}
		if n != 2 {
			t.Errorf("Expected the stream to stop at the bad record, got %d results", n)
		}
	})
}

func TestList(t *testing.T) {
	mem := memory.New(memory.WithPageSize(2))
	s := newTestStorage(t, mem)
	seed(t, s, 5)
	ctx := context.Background()

	seq := List[testmodels.SampleEntity](ctx, s, allEntities())

	var count int
	for _, err := range seq {
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected 5 records, got %d", count)
	}

	// A second range runs the query again; breaking stops paging.
	before := mem.Calls().Pages
	for e, err := range seq {
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if e.ID != "id1" {
			t.Errorf("Expected id1 first, got %s", e.ID)
		}
		break
	}
	if pages := mem.Calls().Pages - before; pages != 1 {
		t.Errorf("Expected 1 page for an early break, got %d", pages)
	}
}

func TestTakeAndFirst(t *testing.T) {
	s := newTestStorage(t, memory.New())
	seed(t, s, 5)
	ctx := context.Background()

	items, err := Take[testmodels.SampleEntity](ctx, s, allEntities(), 3)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if len(items) != 3 || items[2].ID != "id3" {
		t.Errorf("Unexpected records %+v", items)
	}

	first, err := First[testmodels.SampleEntity](ctx, s, storagemodels.QueryParams{
		Table:  entitiesTable,
		Filter: storagemodels.Filter().Eq("OtherField", "value-4").Build(),
	})
	if err != nil {
		t.Fatalf("First failed: %v", err)
	}
	if first == nil || first.ID != "id4" {
		t.Errorf("Expected id4, got %+v", first)
	}

	none, err := First[testmodels.SampleEntity](ctx, s, storagemodels.QueryParams{
		Table:  entitiesTable,
		Filter: "c.OtherField = 'nothing'",
	})
	if err != nil || none != nil {
		t.Errorf("Expected nil, nil; got %+v, %v", none, err)
	}
}

func TestColumnProjection(t *testing.T) {
	s := newTestStorage(t, memory.New())
	seed(t, s, 2)

	items, err := Take[testmodels.SampleEntity](context.Background(), s, storagemodels.QueryParams{
		Table:   entitiesTable,
		Columns: []string{"Name", "OtherField"},
	}, 10)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(items))
	}
	for _, e := range items {
		if e.Name != "partA" || e.OtherField == "" {
			t.Errorf("Expected selected fields to be set, got %+v", e)
		}
		if e.ID != "" || e.Key != "" || e.OtherField2 != nil || e.OtherField3 {
			t.Errorf("Expected unselected fields to be zero, got %+v", e)
		}
	}
}

func TestStreamDefaults(t *testing.T) {
	mem := memory.New()
	s := newTestStorage(t, mem, WithStreamDefaults(storagemodels.WithPageSize(1)))
	seed(t, s, 3)

	for range Stream[testmodels.SampleEntity](context.Background(), s, allEntities()) {
	}
	if pages := mem.Calls().Pages; pages != 3 {
		t.Errorf("Expected the default page size of 1 to fetch 3 pages, got %d", pages)
	}
}
