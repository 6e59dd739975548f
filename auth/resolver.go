/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/suparena/tablestore/config"
	"github.com/suparena/tablestore/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ManagedIdentityLifetime is how long a client built from a managed identity
// resolution is used before it is rebuilt.
const ManagedIdentityLifetime = 24 * time.Hour

// Where a connection string came from.
const (
	SourceStatic   = "static"
	SourceCache    = "cache"
	SourceProvider = "provider"
)

// Resolution is a usable connection string. A zero ExpiresOn never expires.
type Resolution struct {
	ConnectionString string
	ExpiresOn        time.Time
	Source           string
}

// Resolver turns an authentication config into a connection string.
type Resolver struct {
	provider Provider
	cache    Cache
	logger   *zap.Logger
	now      func() time.Time
	flights  singleflight.Group
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithCache replaces DefaultCache.
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a resolver. provider may be nil when only connection
// string configs will be resolved.
func NewResolver(provider Provider, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		provider: provider,
		cache:    DefaultCache,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the connection string for cfg.
//
// A connection string config is returned as is. Otherwise a cached value for the
// instance is returned with no expiry. On a miss the provider is asked for a
// token, the account and its primary key; concurrent misses for one instance
// share a single provider round trip, and the first value cached wins.
func (r *Resolver) Resolve(ctx context.Context, cfg config.Auth) (Resolution, error) {
	if err := config.Check(cfg); err != nil {
		return Resolution{}, err
	}

	if cs, ok := cfg.(config.ConnectionString); ok {
		return Resolution{ConnectionString: cs.Value, Source: SourceStatic}, nil
	}

	instance := cfg.Instance()
	if v, ok, err := r.cache.Get(ctx, instance); err != nil {
		return Resolution{}, err
	} else if ok {
		return Resolution{ConnectionString: v, Source: SourceCache}, nil
	}

	// The shared flight outlives any single caller; each caller waits on its own ctx.
	flight := r.flights.DoChan(instance, func() (interface{}, error) {
		return r.resolve(context.WithoutCancel(ctx), cfg)
	})
	select {
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return Resolution{}, res.Err
		}
		return res.Val.(Resolution), nil
	}
}

func (r *Resolver) resolve(ctx context.Context, cfg config.Auth) (Resolution, error) {
	instance := cfg.Instance()
	log := r.logger.With(zap.String("instance", instance), zap.String("method", cfg.Method()))

	// A flight that finished between the caller's miss and this one has already cached a value.
	if v, ok, err := r.cache.Get(ctx, instance); err != nil {
		return Resolution{}, err
	} else if ok {
		return Resolution{ConnectionString: v, Source: SourceCache}, nil
	}

	if r.provider == nil {
		return Resolution{}, &errors.AuthenticationError{Instance: instance, Method: cfg.Method(),
			Err: fmt.Errorf("no identity provider configured")}
	}

	var subscriptionID string
	switch c := cfg.(type) {
	case config.ManagedIdentity:
		subscriptionID = c.SubscriptionID
	case config.ServicePrincipal:
		subscriptionID = c.SubscriptionID
	}

	token, err := r.provider.Token(ctx, ManagementAudience, cfg)
	if err != nil {
		log.Error("token request failed", zap.Error(err))
		return Resolution{}, &errors.AuthenticationError{Instance: instance, Method: cfg.Method(), Err: err}
	}
	if token.Value == "" {
		log.Error("token request returned no token")
		return Resolution{}, &errors.AuthenticationError{Instance: instance, Method: cfg.Method()}
	}

	accounts, err := r.provider.Accounts(ctx, subscriptionID, token)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to list accounts of subscription %s: %w", subscriptionID, err)
	}
	var account *Account
	for i := range accounts {
		if accounts[i].Name == instance {
			account = &accounts[i]
			break
		}
	}
	if account == nil {
		log.Warn("account not found in subscription", zap.Int("accounts", len(accounts)))
		return Resolution{}, &errors.AccountNotFoundError{Instance: instance, What: "account"}
	}

	key, err := r.provider.PrimaryKey(ctx, subscriptionID, *account, token)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to list keys of account %s: %w", instance, err)
	}
	if key == "" {
		return Resolution{}, &errors.AccountNotFoundError{Instance: instance, What: "access keys"}
	}

	stored, err := r.cache.PutIfAbsent(ctx, instance, fmt.Sprintf("AccountEndpoint=%s;AccountKey=%s", account.Endpoint, key))
	if err != nil {
		return Resolution{}, err
	}

	expiresOn := token.ExpiresOn
	if _, ok := cfg.(config.ManagedIdentity); ok {
		expiresOn = r.now().Add(ManagedIdentityLifetime)
	}

	log.Info("resolved connection string", zap.Time("expiresOn", expiresOn))
	return Resolution{ConnectionString: stored, ExpiresOn: expiresOn, Source: SourceProvider}, nil
}
