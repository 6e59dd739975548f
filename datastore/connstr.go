/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"strings"
)

// ConnectionSettings holds the key=value segments of a ';' separated connection string.
// Lookups are case-insensitive.
type ConnectionSettings map[string]string

// ParseConnectionString splits a connection string into its settings. Values may
// themselves contain '=' (base64 account keys do); only the first '=' separates.
// Segments without '=' are ignored.
func ParseConnectionString(s string) ConnectionSettings {
	settings := ConnectionSettings{}
	for _, segment := range strings.Split(s, ";") {
		segment = strings.TrimSpace(segment)
		name, value, ok := strings.Cut(segment, "=")
		if !ok || name == "" {
			continue
		}
		settings[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return settings
}

// Get returns the named setting, or "" when absent.
func (c ConnectionSettings) Get(name string) string {
	return c[strings.ToLower(name)]
}

// Has reports whether the named setting is present.
func (c ConnectionSettings) Has(name string) bool {
	_, ok := c[strings.ToLower(name)]
	return ok
}
