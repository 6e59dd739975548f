/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/cosmos/armcosmos/v3"
	"github.com/suparena/tablestore/config"
)

// AzureOptions configures the Azure provider.
type AzureOptions struct {
	// ClientOptions apply to identity and management-plane requests. When Retry is
	// left zero a fixed policy of 3 retries, 500ms apart, is used.
	ClientOptions policy.ClientOptions
}

// AzureProvider acquires tokens with azidentity and reads Cosmos DB accounts
// through the Azure Resource Manager.
type AzureProvider struct {
	clientOptions policy.ClientOptions
}

// NewAzureProvider creates a provider. opts may be nil.
func NewAzureProvider(opts *AzureOptions) *AzureProvider {
	var co policy.ClientOptions
	if opts != nil {
		co = opts.ClientOptions
	}
	if co.Retry.MaxRetries == 0 {
		co.Retry = policy.RetryOptions{
			MaxRetries:    3,
			RetryDelay:    500 * time.Millisecond,
			MaxRetryDelay: 500 * time.Millisecond,
		}
	}
	return &AzureProvider{clientOptions: co}
}

func (p *AzureProvider) credential(cfg config.Auth) (azcore.TokenCredential, error) {
	switch c := cfg.(type) {
	case config.ManagedIdentity:
		return azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
			ClientOptions: p.clientOptions,
		})
	case config.ServicePrincipal:
		return azidentity.NewClientSecretCredential(c.TenantID, c.AppID, c.AppSecret, &azidentity.ClientSecretCredentialOptions{
			ClientOptions: p.clientOptions,
		})
	}
	return nil, fmt.Errorf("%s configs do not use an identity provider", cfg.Method())
}

// Token implements Provider.
func (p *AzureProvider) Token(ctx context.Context, audience string, cfg config.Auth) (Token, error) {
	cred, err := p.credential(cfg)
	if err != nil {
		return Token{}, err
	}
	tok, err := cred.GetToken(ctx, tokenRequest(audience, cfg))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: tok.Token, ExpiresOn: tok.ExpiresOn}, nil
}

// tokenRequest scopes a request to audience. Managed identity requests name the
// configured tenant; client secret credentials are already bound to theirs.
func tokenRequest(audience string, cfg config.Auth) policy.TokenRequestOptions {
	opts := policy.TokenRequestOptions{Scopes: []string{scopeFor(audience)}}
	if mi, ok := cfg.(config.ManagedIdentity); ok {
		opts.TenantID = mi.TenantID
	}
	return opts
}

// Accounts implements Provider.
func (p *AzureProvider) Accounts(ctx context.Context, subscriptionID string, token Token) ([]Account, error) {
	client, err := p.accountsClient(subscriptionID, token)
	if err != nil {
		return nil, err
	}

	var accounts []Account
	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, a := range page.Value {
			if a == nil || a.Name == nil {
				continue
			}
			acct := Account{Name: *a.Name}
			if a.ID != nil {
				acct.ID = *a.ID
				if rid, err := arm.ParseResourceID(*a.ID); err == nil {
					acct.ResourceGroup = rid.ResourceGroupName
				}
			}
			if a.Properties != nil && a.Properties.DocumentEndpoint != nil {
				acct.Endpoint = *a.Properties.DocumentEndpoint
			}
			accounts = append(accounts, acct)
		}
	}
	return accounts, nil
}

// PrimaryKey implements Provider.
func (p *AzureProvider) PrimaryKey(ctx context.Context, subscriptionID string, account Account, token Token) (string, error) {
	client, err := p.accountsClient(subscriptionID, token)
	if err != nil {
		return "", err
	}
	resp, err := client.ListKeys(ctx, account.ResourceGroup, account.Name, nil)
	if err != nil {
		return "", err
	}
	if resp.PrimaryMasterKey == nil {
		return "", nil
	}
	return *resp.PrimaryMasterKey, nil
}

func (p *AzureProvider) accountsClient(subscriptionID string, token Token) (*armcosmos.DatabaseAccountsClient, error) {
	return armcosmos.NewDatabaseAccountsClient(subscriptionID, staticToken(token), &arm.ClientOptions{
		ClientOptions: p.clientOptions,
	})
}

// staticToken hands an already acquired token to management clients.
type staticToken Token

func (s staticToken) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: s.Value, ExpiresOn: s.ExpiresOn}, nil
}

func scopeFor(audience string) string {
	if strings.HasSuffix(audience, "/.default") {
		return audience
	}
	return strings.TrimSuffix(audience, "/") + "/.default"
}
