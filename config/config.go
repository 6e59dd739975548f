/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"strings"

	"github.com/suparena/tablestore/errors"
)

// Auth is one of ConnectionString, ManagedIdentity or ServicePrincipal.
type Auth interface {
	// Instance is the logical storage account name.
	Instance() string

	// Settings returns the fields shared by every variant.
	Settings() Base

	// Validate lists every missing required field; an empty result means the config is usable.
	Validate() []*errors.ValidationError

	// Method names the variant in logs and errors.
	Method() string

	fmt.Stringer

	isAuth()
}

// Base holds the fields shared by every authentication variant.
type Base struct {
	InstanceName              string   `yaml:"instanceName"`
	DatabaseName              string   `yaml:"databaseName"`
	CreateDatabaseIfNotExists bool     `yaml:"createDatabaseIfNotExists"`
	CreateTables              []string `yaml:"createTables"`
}

// Settings returns b.
func (b Base) Settings() Base {
	return b
}

// ConnectionString authenticates with a static connection string.
type ConnectionString struct {
	Base  `yaml:",inline"`
	Value string `yaml:"connectionString"`
}

// ManagedIdentity authenticates with the host's managed identity and looks up the account keys.
type ManagedIdentity struct {
	Base           `yaml:",inline"`
	TenantID       string `yaml:"tenantId"`
	SubscriptionID string `yaml:"subscriptionId"`
}

// ServicePrincipal authenticates with an application id and secret and looks up the account keys.
type ServicePrincipal struct {
	Base           `yaml:",inline"`
	AppID          string `yaml:"appId"`
	AppSecret      string `yaml:"appSecret"`
	TenantID       string `yaml:"tenantId"`
	SubscriptionID string `yaml:"subscriptionId"`
}

func (ConnectionString) isAuth() {}
func (ManagedIdentity) isAuth()  {}
func (ServicePrincipal) isAuth() {}

const (
	endpointPrefix = "AccountEndpoint=https://"
	endpointSuffix = ".documents.azure.com:443/"
)

// Instance returns InstanceName when set, otherwise the account name taken from the
// AccountEndpoint segment. It is "" for a string with no ';' or no AccountEndpoint.
func (c ConnectionString) Instance() string {
	if c.InstanceName != "" {
		return c.InstanceName
	}
	if c.Value == "" {
		return ""
	}
	parts := strings.Split(c.Value, ";")
	if len(parts) <= 1 {
		return ""
	}
	for _, p := range parts {
		if strings.HasPrefix(p, endpointPrefix) {
			name := strings.TrimPrefix(p, endpointPrefix)
			name = strings.TrimSuffix(name, endpointSuffix)
			if i := strings.IndexAny(name, ".:/"); i >= 0 {
				name = name[:i]
			}
			return name
		}
	}
	return ""
}

func (c ConnectionString) Method() string { return "connection string" }

func (c ConnectionString) Validate() []*errors.ValidationError {
	var errs []*errors.ValidationError
	if c.Value == "" {
		errs = append(errs, required("ConnectionString"))
	}
	if c.DatabaseName == "" {
		errs = append(errs, required("DatabaseName"))
	}
	return errs
}

func (c ConnectionString) String() string {
	return fmt.Sprintf("Cosmos InstanceName: %s, Database: %s", c.Instance(), c.DatabaseName)
}

func (m ManagedIdentity) Instance() string { return m.InstanceName }

func (m ManagedIdentity) Method() string { return "managed identity" }

func (m ManagedIdentity) Validate() []*errors.ValidationError {
	var errs []*errors.ValidationError
	if m.InstanceName == "" {
		errs = append(errs, required("InstanceName"))
	}
	if m.TenantID == "" {
		errs = append(errs, required("TenantID"))
	}
	if m.DatabaseName == "" {
		errs = append(errs, required("DatabaseName"))
	}
	if m.SubscriptionID == "" {
		errs = append(errs, required("SubscriptionID"))
	}
	return errs
}

func (m ManagedIdentity) String() string {
	return fmt.Sprintf("Cosmos InstanceName: %s, Database: %s, TenantId: %s, SubscriptionId: %s",
		m.InstanceName, m.DatabaseName, m.TenantID, m.SubscriptionID)
}

func (s ServicePrincipal) Instance() string { return s.InstanceName }

func (s ServicePrincipal) Method() string { return "service principal" }

func (s ServicePrincipal) Validate() []*errors.ValidationError {
	var errs []*errors.ValidationError
	if s.InstanceName == "" {
		errs = append(errs, required("InstanceName"))
	}
	if s.AppID == "" {
		errs = append(errs, required("AppID"))
	}
	if s.AppSecret == "" {
		errs = append(errs, required("AppSecret"))
	}
	if s.TenantID == "" {
		errs = append(errs, required("TenantID"))
	}
	if s.DatabaseName == "" {
		errs = append(errs, required("DatabaseName"))
	}
	if s.SubscriptionID == "" {
		errs = append(errs, required("SubscriptionID"))
	}
	return errs
}

func (s ServicePrincipal) String() string {
	return fmt.Sprintf("Cosmos InstanceName: %s, Database: %s, AppId: %s, TenantId: %s, SubscriptionId: %s",
		s.InstanceName, s.DatabaseName, s.AppID, s.TenantID, s.SubscriptionID)
}

// Check runs cfg.Validate and folds the result into a single ConfigurationError.
func Check(cfg Auth) error {
	if cfg == nil {
		return errors.NewConfigurationError("storage", []*errors.ValidationError{
			errors.NewValidationError("", "no authentication configuration supplied"),
		})
	}
	return errors.NewConfigurationError(cfg.Method(), cfg.Validate())
}

func required(field string) *errors.ValidationError {
	return errors.NewValidationError(field, "is required")
}
