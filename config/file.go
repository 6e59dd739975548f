/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"

	"github.com/suparena/tablestore/errors"
	"gopkg.in/yaml.v3"
)

// Auth discriminator values accepted in YAML files.
const (
	KindConnectionString = "connectionString"
	KindManagedIdentity  = "managedIdentity"
	KindServicePrincipal = "servicePrincipal"
)

// LoadFile reads a YAML document such as
//
//	auth: managedIdentity
//	instanceName: orders-account
//	databaseName: orders
//	tenantId: 00000000-0000-0000-0000-000000000000
//	subscriptionId: 00000000-0000-0000-0000-000000000000
//	createTables: [orders/CustomerId, audit]
func LoadFile(path string) (Auth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document with an auth discriminator into the matching variant.
func Parse(data []byte) (Auth, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var head struct {
		Auth string `yaml:"auth"`
	}
	if err := doc.Decode(&head); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	switch head.Auth {
	case KindConnectionString:
		var c ConnectionString
		if err := doc.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode %s config: %w", head.Auth, err)
		}
		return c, nil
	case KindManagedIdentity:
		var m ManagedIdentity
		if err := doc.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode %s config: %w", head.Auth, err)
		}
		return m, nil
	case KindServicePrincipal:
		var s ServicePrincipal
		if err := doc.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode %s config: %w", head.Auth, err)
		}
		return s, nil
	}

	return nil, errors.NewConfigurationError("file", []*errors.ValidationError{
		errors.NewValidationError("auth", fmt.Sprintf("unknown value %q, expected %s, %s or %s",
			head.Auth, KindConnectionString, KindManagedIdentity, KindServicePrincipal)),
	})
}
