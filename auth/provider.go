/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package auth

import (
	"context"
	"time"

	"github.com/suparena/tablestore/config"
)

// ManagementAudience is the token audience of the Azure management plane.
const ManagementAudience = "https://management.azure.com/"

// Token is a bearer token for the management plane.
type Token struct {
	Value     string
	ExpiresOn time.Time
}

// Account is a storage account visible to a subscription.
type Account struct {
	ID            string
	Name          string
	ResourceGroup string
	Endpoint      string
}

// Provider is the identity provider and account directory the resolver talks to.
type Provider interface {
	// Token acquires a token for audience using the identity described by cfg.
	Token(ctx context.Context, audience string, cfg config.Auth) (Token, error)

	// Accounts lists the storage accounts of a subscription.
	Accounts(ctx context.Context, subscriptionID string, token Token) ([]Account, error)

	// PrimaryKey returns the account's primary access key, or "" when it has none.
	PrimaryKey(ctx context.Context, subscriptionID string, account Account, token Token) (string, error)
}
