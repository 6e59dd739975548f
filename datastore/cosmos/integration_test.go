//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cosmos

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
)

// integrationClient connects using COSMOS_CONNECTION_STRING, e.g. the emulator's
// AccountEndpoint=https://localhost:8081/;AccountKey=...
func integrationClient(t *testing.T) datastore.Client {
	t.Helper()
	_ = godotenv.Load()

	conn := os.Getenv("COSMOS_CONNECTION_STRING")
	if conn == "" {
		t.Skip("COSMOS_CONNECTION_STRING not set")
	}
	client, err := NewConnector().Connect(context.Background(), conn, datastore.DefaultConnectOptions())
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	return client
}

func TestIntegrationRoundTrip(t *testing.T) {
	client := integrationClient(t)
	ctx := context.Background()

	dbName := "it-" + uuid.NewString()[:8]
	if err := client.CreateDatabaseIfNotExists(ctx, dbName); err != nil {
		t.Fatalf("CreateDatabaseIfNotExists failed: %v", err)
	}
	db, err := client.Database(dbName)
	if err != nil {
		t.Fatalf("Database failed: %v", err)
	}
	for _, table := range []string{"entities", "plain"} {
		path := "/Name"
		if table == "plain" {
			path = "/_partitionKey"
		}
		if err := db.CreateContainerIfNotExists(ctx, table, path); err != nil {
			t.Fatalf("CreateContainerIfNotExists %s failed: %v", table, err)
		}
		if err := db.CreateContainerIfNotExists(ctx, table, path); err != nil {
			t.Errorf("Expected a second create of %s to succeed, got %v", table, err)
		}
		defer db.DeleteContainer(ctx, table)
	}

	c, _ := db.Container("entities")
	pk := datastore.NewPartitionKey("partA")
	for _, id := range []string{"id1", "id2", "id3"} {
		body, _ := json.Marshal(map[string]string{"id": id, "Name": "partA"})
		if err := c.UpsertItem(ctx, pk, body); err != nil {
			t.Fatalf("UpsertItem %s failed: %v", id, err)
		}
	}

	p := c.NewQueryPager("SELECT * FROM c", datastore.QueryOptions{PageSize: 2})
	count := 0
	for p.More() {
		page, err := p.NextPage(ctx)
		if err != nil {
			t.Fatalf("NextPage failed: %v", err)
		}
		count += len(page)
	}
	if count != 3 {
		t.Errorf("Expected 3 records, got %d", count)
	}

	plain, _ := db.Container("plain")
	if err := plain.UpsertItem(ctx, datastore.NonePartitionKey, []byte(`{"id":"x"}`)); err != nil {
		t.Fatalf("UpsertItem without partition failed: %v", err)
	}
	if _, err := plain.ReadItem(ctx, datastore.NonePartitionKey, "x"); err != nil {
		t.Errorf("ReadItem without partition failed: %v", err)
	}

	if err := c.DeleteItem(ctx, pk, "id1"); err != nil {
		t.Errorf("DeleteItem failed: %v", err)
	}
	if _, err := c.ReadItem(ctx, pk, "id1"); !errors.IsNotFound(err) {
		t.Errorf("Expected not found after delete, got %v", err)
	}
	if err := db.DeleteContainer(ctx, "missing"); !errors.IsNotFound(err) {
		t.Errorf("Expected not found deleting a missing container, got %v", err)
	}
}
