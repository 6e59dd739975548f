/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/suparena/tablestore/errors"
)

// DefaultEnvPrefix is used by FromEnv when no prefix is given.
const DefaultEnvPrefix = "TABLESTORE"

// LoadEnvFiles loads .env and .env.local into the process environment. Missing
// files are ignored and variables already set are never overridden.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// FromEnv builds an Auth from <PREFIX>_* environment variables after loading the
// env files. The variant is picked by which variables are present:
// CONNECTION_STRING selects ConnectionString, APP_ID selects ServicePrincipal,
// and TENANT_ID or SUBSCRIPTION_ID selects ManagedIdentity.
//
// The returned config is not validated.
func FromEnv(prefix string) (Auth, error) {
	LoadEnvFiles()
	return fromLookup(prefix, os.LookupEnv)
}

func fromLookup(prefix string, lookup func(string) (string, bool)) (Auth, error) {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	get := func(name string) string {
		v, _ := lookup(prefix + "_" + name)
		return strings.TrimSpace(v)
	}

	base := Base{
		InstanceName: get("INSTANCE_NAME"),
		DatabaseName: get("DATABASE_NAME"),
	}
	if v := get("CREATE_DATABASE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.NewConfigurationError("environment", []*errors.ValidationError{
				errors.NewValidationError(prefix+"_CREATE_DATABASE", fmt.Sprintf("%q is not a boolean", v)),
			})
		}
		base.CreateDatabaseIfNotExists = b
	}
	if v := get("CREATE_TABLES"); v != "" {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				base.CreateTables = append(base.CreateTables, t)
			}
		}
	}

	switch {
	case get("CONNECTION_STRING") != "":
		return ConnectionString{Base: base, Value: get("CONNECTION_STRING")}, nil
	case get("APP_ID") != "":
		return ServicePrincipal{
			Base:           base,
			AppID:          get("APP_ID"),
			AppSecret:      get("APP_SECRET"),
			TenantID:       get("TENANT_ID"),
			SubscriptionID: get("SUBSCRIPTION_ID"),
		}, nil
	case get("TENANT_ID") != "" || get("SUBSCRIPTION_ID") != "":
		return ManagedIdentity{
			Base:           base,
			TenantID:       get("TENANT_ID"),
			SubscriptionID: get("SUBSCRIPTION_ID"),
		}, nil
	}

	return nil, errors.NewConfigurationError("environment", []*errors.ValidationError{
		errors.NewValidationError("", fmt.Sprintf("none of %s_CONNECTION_STRING, %s_APP_ID, %s_TENANT_ID is set", prefix, prefix, prefix)),
	})
}
