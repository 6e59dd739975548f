/*
Package dynamo is a DynamoDB datastore driver.

Each database is a table name prefix: table "orders" of database "app" is the
DynamoDB table "app.orders". Tables are created on demand with the partition key
path as the hash key and id as the range key, billed per request:

	connector := dynamo.NewConnector(dynamo.WithLogger(logger))
	client, err := connector.Connect(ctx,
	    "Region=us-east-1;AccessKeyId=local;SecretAccessKey=local;Endpoint=http://localhost:8000",
	    datastore.DefaultConnectOptions())

Records stored without a partition value carry NoneValue in the hash attribute;
it is stripped again on read.

Queries are translated to PartiQL and run with ExecuteStatement. CONTAINS and
STARTSWITH map to contains and begins_with; ENDSWITH, ToString, IS_DEFINED,
IS_NULL, LOWER, UPPER and LENGTH have no PartiQL counterpart and are rejected
with a validation error, so CountContaining is unavailable on this driver.
*/
package dynamo
