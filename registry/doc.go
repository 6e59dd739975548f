/*
Package registry binds record types to the tables they live in.

	registry.MustRegisterTable[Order]("orders/CustomerId")

	name, ok := registry.TableName[Order]() // "orders", true

Typed tables (tablestore.TableOf) look the binding up so callers do not repeat
table names, and storage bootstrapping can create every bound table with its
partition key path.

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
