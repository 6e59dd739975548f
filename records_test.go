/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/suparena/tablestore/datastore/memory"
	"github.com/suparena/tablestore/datastore/testmodels"
	"github.com/suparena/tablestore/errors"
)

func TestUpsertAndGet(t *testing.T) {
	mem := memory.New()
	s := newTestStorage(t, mem)
	ctx := context.Background()

	n := 7
	record := &testmodels.SampleEntity{
		Key:         "partA/id1",
		Name:        "partA",
		OtherField:  "some value",
		OtherField2: &n,
		OtherField3: true,
	}
	if err := Upsert(ctx, s, entitiesTable, record); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if record.Key != "id1" {
		t.Errorf("Expected the key to be rewritten to the bare id, got %q", record.Key)
	}

	got, err := Get[testmodels.SampleEntity](ctx, s, entitiesTable, "partA/id1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a record")
	}
	if got.ID != "id1" || got.Name != "partA" || got.OtherField != "some value" || !got.OtherField3 {
		t.Errorf("Unexpected record %+v", got)
	}
	if got.OtherField2 == nil || *got.OtherField2 != 7 {
		t.Errorf("Expected OtherField2 7, got %v", got.OtherField2)
	}

	var stored map[string]any
	if err := json.Unmarshal(mem.Items(testDatabase, entitiesTable)[0], &stored); err != nil {
		t.Fatalf("Stored document is not JSON: %v", err)
	}
	if stored["id"] != "id1" {
		t.Errorf("Expected stored id id1, got %v", stored["id"])
	}
}

func TestUpsertReplaces(t *testing.T) {
	mem := memory.New()
	s := newTestStorage(t, mem)
	ctx := context.Background()

	first := entity("partA", "id1")
	first.OtherField = "v1"
	second := entity("partA", "id1")
	second.OtherField = "v2"

	for _, r := range []*testmodels.SampleEntity{first, second} {
		if err := Upsert(ctx, s, entitiesTable, r); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	if n := len(mem.Items(testDatabase, entitiesTable)); n != 1 {
		t.Fatalf("Expected 1 stored record, got %d", n)
	}
	got, _ := Get[testmodels.SampleEntity](ctx, s, entitiesTable, "partA/id1")
	if got == nil || got.OtherField != "v2" {
		t.Errorf("Expected replaced record, got %+v", got)
	}
}

func TestRecordsWithoutPartition(t *testing.T) {
	s := newTestStorage(t, memory.New())
	ctx := context.Background()
	if err := s.CreateTable(ctx, "plain"); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	id := uuid.NewString()
	if err := Upsert(ctx, s, "plain", &testmodels.SampleEntity{Key: id, Name: "n"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	got, err := Get[testmodels.SampleEntity](ctx, s, "plain", id)
	if err != nil || got == nil {
		t.Fatalf("Expected record, got %v, %v", got, err)
	}
	if got.ID != id {
		t.Errorf("Expected id %s, got %s", id, got.ID)
	}
}

func TestNotFoundSemantics(t *testing.T) {
	s := newTestStorage(t, memory.New())
	ctx := context.Background()

	t.Run("Get", func(t *testing.T) {
		got, err := Get[testmodels.SampleEntity](ctx, s, entitiesTable, "partA/missing")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil record, got %+v", got)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := Exists(ctx, s, entitiesTable, "partA/missing")
		if err != nil || ok {
			t.Errorf("Expected false, nil; got %v, %v", ok, err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := Delete(ctx, s, entitiesTable, "partA/missing"); err != nil {
			t.Errorf("Expected deleting a missing record to succeed, got %v", err)
		}
	})
}

func TestExistsAndDelete(t *testing.T) {
	s := newTestStorage(t, memory.New())
	ctx := context.Background()
	seed(t, s, 1)

	ok, err := Exists(ctx, s, entitiesTable, "partA/id1")
	if err != nil || !ok {
		t.Fatalf("Expected record to exist, got %v, %v", ok, err)
	}

	// The partition is part of the key.
	ok, _ = Exists(ctx, s, entitiesTable, "partB/id1")
	if ok {
		t.Error("Expected record not to exist under another partition")
	}

	if err := Delete(ctx, s, entitiesTable, "partA/id1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	ok, _ = Exists(ctx, s, entitiesTable, "partA/id1")
	if ok {
		t.Error("Expected record to be gone after Delete")
	}
}

func TestMalformedKeys(t *testing.T) {
	s := newTestStorage(t, memory.New())
	ctx := context.Background()

	if _, err := Get[testmodels.SampleEntity](ctx, s, entitiesTable, "a/b/c"); !errors.IsMalformedKey(err) {
		t.Errorf("Get: expected malformed key error, got %v", err)
	}
	if _, err := Exists(ctx, s, entitiesTable, "a/b/c"); !errors.IsMalformedKey(err) {
		t.Errorf("Exists: expected malformed key error, got %v", err)
	}
	if err := Delete(ctx, s, entitiesTable, "a/b/c"); !errors.IsMalformedKey(err) {
		t.Errorf("Delete: expected malformed key error, got %v", err)
	}
	if err := Upsert(ctx, s, entitiesTable, &testmodels.SampleEntity{Key: "a/b/c", Name: "a"}); !errors.IsMalformedKey(err) {
		t.Errorf("Upsert: expected malformed key error, got %v", err)
	}
}

func TestUpsertPartitionMismatch(t *testing.T) {
	s := newTestStorage(t, memory.New())

	// The key names partA but the record's partition field says partB.
	record := &testmodels.SampleEntity{Key: "partA/id1", Name: "partB"}
	if err := Upsert(context.Background(), s, entitiesTable, record); err == nil {
		t.Fatal("Expected the store to reject a partition mismatch")
	}
}

func TestUpsertNilRecord(t *testing.T) {
	s := newTestStorage(t, memory.New())

	var record *testmodels.SampleEntity
	if err := Upsert(context.Background(), s, entitiesTable, record); !errors.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}
