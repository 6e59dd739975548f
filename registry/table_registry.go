/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/tablestore/keys"
)

// TableBinding is the table a record type is stored in.
type TableBinding struct {
	// Name is the table name as passed to RegisterTable, "orders" or "orders/CustomerId".
	Name string
	// Table is Name without the partition field.
	Table string
	// PartitionKeyPath is the partition key path derived from Name.
	PartitionKeyPath string
}

var (
	tableRegistry = make(map[reflect.Type]TableBinding)
	mu            sync.RWMutex
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterTable associates record type T with a table. The name may carry a partition
// field ("orders/CustomerId"). Registering a type twice with different tables is an error.
func RegisterTable[T any](name string) error {
	table, path, err := keys.ParseTableName(name)
	if err != nil {
		return err
	}
	t := typeOf[T]()

	mu.Lock()
	defer mu.Unlock()
	if existing, ok := tableRegistry[t]; ok && existing.Name != name {
		return fmt.Errorf("table registry: type %s already bound to %q", t, existing.Name)
	}
	tableRegistry[t] = TableBinding{Name: name, Table: table, PartitionKeyPath: path}
	return nil
}

// MustRegisterTable is RegisterTable for init functions; it panics on error.
func MustRegisterTable[T any](name string) {
	if err := RegisterTable[T](name); err != nil {
		panic(err)
	}
}

// TableName returns the table bound to T, without the partition field.
func TableName[T any]() (string, bool) {
	b, ok := Binding[T]()
	return b.Table, ok
}

// Binding returns the full binding of T.
func Binding[T any]() (TableBinding, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := tableRegistry[typeOf[T]()]
	return b, ok
}

// Bindings returns every registered binding, sorted by name.
func Bindings() []TableBinding {
	mu.RLock()
	out := make([]TableBinding, 0, len(tableRegistry))
	for _, b := range tableRegistry {
		out = append(out, b)
	}
	mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UnregisterTable removes the binding of T.
func UnregisterTable[T any]() {
	mu.Lock()
	defer mu.Unlock()
	delete(tableRegistry, typeOf[T]())
}
