/*
Package errors provides semantic error types for the tablestore library.

Every failure the library raises can be checked with errors.Is against one
of the sentinels below, or with the Is* helpers.

Common Errors:

	var (
	    ErrNotFound        = errors.New("entity not found")
	    ErrInvalidConfig   = errors.New("invalid configuration")
	    ErrMalformedKey    = errors.New("malformed key")
	    ErrAuthentication  = errors.New("authentication failed")
	    ErrAccountNotFound = errors.New("storage account not found")
	    ErrConnection      = errors.New("connection failed")
	    ErrBatch           = errors.New("batch operation failed")
	    ErrQueryExecution  = errors.New("query execution failed")
	)

Usage:

	err := tablestore.UpsertMany(ctx, store, "orders", orders)
	if errors.IsBatch(err) {
	    var batchErr *errors.AggregateBatchError
	    stderrors.As(err, &batchErr)
	    for _, f := range batchErr.Failures {
	        log.Printf("item %d (%s): %v", f.Index, f.Key, f.Err)
	    }
	}

Drivers report missing records and tables as NotFoundError. The record
operations absorb it: Get returns nil, Exists returns false and Delete
succeeds.
*/
package errors
