/*
Package datastore defines the backing-store capability surface the tablestore
access layer is written against.

A driver provides a Connector that turns a connection string into a Client:

	type Connector interface {
	    Connect(ctx context.Context, connectionString string, opts ConnectOptions) (Client, error)
	}

	Client    -> CreateDatabaseIfNotExists, Database
	Database  -> Container, CreateContainerIfNotExists, DeleteContainer, ListContainers
	Container -> ReadItem, UpsertItem, DeleteItem, NewQueryPager
	Pager     -> More, NextPage

Documents travel as raw JSON. Queries are Cosmos-style SQL text over the alias c
(SELECT * FROM c WHERE c.Name = 'x'); drivers for other stores translate it.

Drivers report missing items and containers with errors.NewNotFoundError.

Implementations:
  - cosmos: Azure Cosmos DB (azcosmos)
  - dynamo: Amazon DynamoDB, queries translated to PartiQL
  - memory: in-process store with SQL evaluation, used by tests and local runs
*/
package datastore
