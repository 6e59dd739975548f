/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"fmt"
	"testing"

	"github.com/suparena/tablestore/auth"
	"github.com/suparena/tablestore/config"
	"github.com/suparena/tablestore/datastore/memory"
	"github.com/suparena/tablestore/datastore/testmodels"
)

const (
	testDatabase = "testdb"
	// entities are partitioned on their Name, keys look like "<Name>/<id>".
	entitiesTable = "entities"
	entitiesName  = "entities/Name"
)

func connectionStringConfig() config.ConnectionString {
	return config.ConnectionString{
		Base: config.Base{
			DatabaseName:              testDatabase,
			CreateDatabaseIfNotExists: true,
		},
		Value: "AccountEndpoint=https://acct.documents.azure.com:443/;AccountKey=a2V5",
	}
}

// newTestStorage returns a Storage over mem with entitiesTable created.
func newTestStorage(t *testing.T, mem *memory.Store, opts ...Option) *Storage {
	t.Helper()

	base := []Option{WithResolver(auth.NewResolver(nil, auth.WithCache(auth.NewMemoryCache())))}
	s, err := New(connectionStringConfig(), mem, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.CreateTable(context.Background(), entitiesName); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	return s
}

func entity(partition, id string) *testmodels.SampleEntity {
	return &testmodels.SampleEntity{
		Key:  partition + "/" + id,
		Name: partition,
	}
}

// seed writes n entities "partA/id1".."partA/idN".
func seed(t *testing.T, s *Storage, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		e := entity("partA", fmt.Sprintf("id%d", i))
		e.OtherField = fmt.Sprintf("value-%d", i)
		if err := Upsert(context.Background(), s, entitiesTable, e); err != nil {
			t.Fatalf("Upsert %d failed: %v", i, err)
		}
	}
}
