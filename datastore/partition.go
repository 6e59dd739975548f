/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

// PartitionKey is the value a document is partitioned by. The zero value is the
// "none" key used for documents stored without a partition value.
type PartitionKey struct {
	value   string
	defined bool
}

// NonePartitionKey addresses documents that carry no partition value.
var NonePartitionKey = PartitionKey{}

// NewPartitionKey returns a defined partition key.
func NewPartitionKey(value string) PartitionKey {
	return PartitionKey{value: value, defined: true}
}

// IsNone reports whether the key is the "none" key.
func (p PartitionKey) IsNone() bool {
	return !p.defined
}

// Value returns the partition value and whether it is defined.
func (p PartitionKey) Value() (string, bool) {
	return p.value, p.defined
}

func (p PartitionKey) String() string {
	if !p.defined {
		return "<none>"
	}
	return p.value
}
