/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package keys encodes and decodes record keys of the form "<partition>/<id>"
// or a bare "<id>", and table names of the form "<table>/<partitionField>".
package keys

import (
	"strings"

	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
)

const (
	// Separator splits a partition value from a record id, and a table name from its partition field.
	Separator = "/"

	// DefaultPartitionKeyPath is used for tables created without an explicit partition field.
	DefaultPartitionKeyPath = "/_partitionKey"
)

// Key is a decoded record key.
type Key struct {
	Partition    string
	HasPartition bool
	ID           string
}

// New returns a key with a partition value.
func New(partition, id string) Key {
	return Key{Partition: partition, HasPartition: true, ID: id}
}

// NewID returns a key without a partition value.
func NewID(id string) Key {
	return Key{ID: id}
}

// Decode splits key on the separator. A key with more than one separator is rejected.
func Decode(key string) (Key, error) {
	n := strings.Count(key, Separator)
	switch n {
	case 0:
		return Key{ID: key}, nil
	case 1:
		partition, id, _ := strings.Cut(key, Separator)
		return Key{Partition: partition, HasPartition: true, ID: id}, nil
	default:
		return Key{}, errors.NewMalformedKeyError(key, n)
	}
}

// Encode is the inverse of Decode.
func Encode(k Key) string {
	if !k.HasPartition {
		return k.ID
	}
	return k.Partition + Separator + k.ID
}

func (k Key) String() string {
	return Encode(k)
}

// PartitionKey converts the key's partition value to the driver representation.
func (k Key) PartitionKey() datastore.PartitionKey {
	if !k.HasPartition {
		return datastore.NonePartitionKey
	}
	return datastore.NewPartitionKey(k.Partition)
}

// ParseTableName splits "table" or "table/Field" into the table name and its
// partition key path ("/_partitionKey" or "/Field").
func ParseTableName(name string) (table, partitionKeyPath string, err error) {
	n := strings.Count(name, Separator)
	switch n {
	case 0:
		return name, DefaultPartitionKeyPath, nil
	case 1:
		table, field, _ := strings.Cut(name, Separator)
		return table, Separator + field, nil
	default:
		return "", "", errors.NewMalformedKeyError(name, n)
	}
}
