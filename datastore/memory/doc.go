/*
Package memory is an in-process datastore driver.

It keeps containers keyed by (partition key, id), enforces that a document's
partition field matches the partition key it is written with, and evaluates
the SQL dialect the storage layer emits:

	SELECT * FROM c WHERE c.Name = 'x' AND (c.Total > 10 OR NOT c.Open)
	SELECT c['Name'], c['Key'] FROM c
	SELECT c.id FROM c WHERE CONTAINS(ToString(c), 'needle')

Supported predicates are = != <> < <= > >= IN, AND/OR/NOT, parentheses, and the
functions CONTAINS, STARTSWITH, ENDSWITH, IS_DEFINED, IS_NULL, ToString, LOWER,
UPPER and LENGTH. Comparisons between different JSON types, or against missing
fields, are false.

Tests inject failures through the Fail* hooks and inspect traffic with Calls:

	store := memory.New(memory.WithPageSize(2))
	store.FailUpsert = func(table, id string) error {
	    if id == "poison" {
	        return errors.New("boom")
	    }
	    return nil
	}
*/
package memory
