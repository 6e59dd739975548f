/*
Package tablestore provides typed access to tables of a partitioned document store
such as Azure Cosmos DB.

A Storage is one configured instance: an account, a database and the credentials
to reach it. The backing-store client is built on first use and rebuilt when the
credentials it was built from expire, so a Storage can live for the whole process.

Records are addressed by "<partition>/<id>" keys, or a bare "<id>" for tables
without a partition value. Tables may be named "<table>/<PartitionField>" when
created, which partitions them on that field.

Key Features:
  - Generic record operations: Get, Exists, Upsert, Delete
  - Parallel batch writes with per-item failure reporting
  - Paged queries consumed by callback, channel or iterator, with cancellation
  - Managed identity and service principal credentials resolved to connection strings
  - Drivers for Azure Cosmos DB, DynamoDB and an in-memory store

Basic Usage:

	cfg := config.ManagedIdentity{
	    Base:           config.Base{InstanceName: "acct", DatabaseName: "app"},
	    TenantID:       tenantID,
	    SubscriptionID: subscriptionID,
	}
	store, err := tablestore.New(cfg, cosmos.NewConnector(), tablestore.WithLogger(logger))

	order := &Order{Key: "customer-1/order-9", Total: 12}
	err = tablestore.Upsert(ctx, store, "orders", order)

	found, err := tablestore.Get[Order](ctx, store, "orders", "customer-1/order-9")

	for o, err := range tablestore.List[Order](ctx, store, storagemodels.QueryParams{Table: "orders"}) {
	    ...
	}
*/
package tablestore
