/*
Package cosmos is the Azure Cosmos DB datastore driver, built on azcosmos.

Clients are created from AccountEndpoint/AccountKey connection strings with the
throttling policy of the connect options: only 429 responses are retried, at a
fixed interval.

	client, err := cosmos.NewConnector(cosmos.WithLogger(logger)).Connect(ctx,
	    "AccountEndpoint=https://acct.documents.azure.com:443/;AccountKey=...",
	    datastore.DefaultConnectOptions())

404 responses become NotFound errors and 409 responses on create mean the
database or container already exists. Queries run across all partitions.

The SDK talks to the gateway only; there is no direct connection mode. It also
has no "none" partition key, so records written without a partition carry an
explicit null partition field and are addressed with the null key.
*/
package cosmos
