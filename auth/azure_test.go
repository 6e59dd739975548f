/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/suparena/tablestore/config"
)

func TestNewAzureProviderDefaults(t *testing.T) {
	p := NewAzureProvider(nil)
	if p.clientOptions.Retry.MaxRetries != 3 || p.clientOptions.Retry.RetryDelay != 500*time.Millisecond {
		t.Errorf("Unexpected retry policy %+v", p.clientOptions.Retry)
	}

	custom := NewAzureProvider(&AzureOptions{ClientOptions: policy.ClientOptions{
		Retry: policy.RetryOptions{MaxRetries: 7},
	}})
	if custom.clientOptions.Retry.MaxRetries != 7 {
		t.Errorf("Custom retry policy not kept: %+v", custom.clientOptions.Retry)
	}
}

func TestAzureProviderRejectsConnectionString(t *testing.T) {
	p := NewAzureProvider(nil)
	_, err := p.Token(context.Background(), ManagementAudience, config.ConnectionString{Value: "x"})
	if err == nil {
		t.Fatal("Expected an error for a connection string config")
	}
}

func TestStaticToken(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, err := staticToken(Token{Value: "abc", ExpiresOn: exp}).GetToken(context.Background(), policy.TokenRequestOptions{})
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if tok.Token != "abc" || !tok.ExpiresOn.Equal(exp) {
		t.Errorf("Unexpected token %+v", tok)
	}
}

func TestScopeFor(t *testing.T) {
	tests := map[string]string{
		"https://management.azure.com/":         "https://management.azure.com/.default",
		"https://management.azure.com":          "https://management.azure.com/.default",
		"https://management.azure.com/.default": "https://management.azure.com/.default",
	}
	for in, expected := range tests {
		if got := scopeFor(in); got != expected {
			t.Errorf("scopeFor(%q) = %q, expected %q", in, got, expected)
		}
	}
}

func TestTokenRequest(t *testing.T) {
	mi := config.ManagedIdentity{Base: config.Base{InstanceName: "acct", DatabaseName: "db"}, TenantID: "tid", SubscriptionID: "sub"}
	opts := tokenRequest(ManagementAudience, mi)
	if opts.TenantID != "tid" {
		t.Errorf("Expected tenant tid, got %q", opts.TenantID)
	}
	if len(opts.Scopes) != 1 || opts.Scopes[0] != scopeFor(ManagementAudience) {
		t.Errorf("Unexpected scopes %v", opts.Scopes)
	}

	sp := config.ServicePrincipal{Base: config.Base{InstanceName: "acct", DatabaseName: "db"},
		AppID: "app", AppSecret: "secret", TenantID: "tid", SubscriptionID: "sub"}
	if opts := tokenRequest(ManagementAudience, sp); opts.TenantID != "" {
		t.Errorf("Expected no tenant override for a service principal, got %q", opts.TenantID)
	}
}
