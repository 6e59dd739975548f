/*
Package storagemodels defines the data structures shared by the storage layer and its drivers.

Key Types:

TableItem:
Implemented by every record type. The key is "<partition>/<id>" or a bare id:

	type Order struct {
	    Key        string `json:"id"`
	    CustomerId string `json:"CustomerId"`
	}

	func (o *Order) GetKey() string    { return o.Key }
	func (o *Order) SetKey(key string) { o.Key = key }

QueryParams:
Parameters for querying a table:

	params := QueryParams{
	    Table:   "orders",
	    Columns: []string{"Name", "Key"},
	    Filter:  Filter().Eq("Status", "open").GreaterThan("Total", 10).Build(),
	}
	params.QueryText() // SELECT c['Name'], c['Key'] FROM c WHERE c['Status'] = 'open' AND c['Total'] > 10

StreamResult:
Results from streaming operations with metadata:

	type StreamResult[T any] struct {
	    Item  T               // The typed record
	    Raw   json.RawMessage // Raw document
	    Error error           // Item-specific or terminal error, if any
	    Meta  StreamMeta      // Metadata about this item
	}

StreamOptions:
Configuration for streaming behavior:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithPageSize(25),
	    WithProgressHandler(progressFunc),
	}
*/
package storagemodels
