/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/suparena/tablestore/auth"
	"github.com/suparena/tablestore/config"
	"github.com/suparena/tablestore/datastore/memory"
	"github.com/suparena/tablestore/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingProvider struct {
	tokens atomic.Int32
}

func (p *countingProvider) Token(ctx context.Context, audience string, cfg config.Auth) (auth.Token, error) {
	p.tokens.Add(1)
	return auth.Token{Value: "tok", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func (p *countingProvider) Accounts(ctx context.Context, subscriptionID string, token auth.Token) ([]auth.Account, error) {
	return []auth.Account{{Name: "acct", Endpoint: "https://acct.documents.azure.com:443/"}}, nil
}

func (p *countingProvider) PrimaryKey(ctx context.Context, subscriptionID string, account auth.Account, token auth.Token) (string, error) {
	return "a2V5", nil
}

// manualClock is a clock tests can move forward.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(config.ManagedIdentity{}, memory.New())
	if !errors.IsConfiguration(err) {
		t.Fatalf("Expected configuration error, got %v", err)
	}
	var cfgErr *errors.ConfigurationError
	if !stderrors.As(err, &cfgErr) || len(cfgErr.Errors) != 4 {
		t.Fatalf("Expected 4 field errors, got %v", err)
	}

	if _, err := New(connectionStringConfig(), nil); !errors.IsValidationError(err) {
		t.Errorf("Expected validation error for nil connector, got %v", err)
	}
}

func TestStorageName(t *testing.T) {
	s, err := New(connectionStringConfig(), memory.New())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.Name() != "acct" {
		t.Errorf("Expected name derived from the endpoint, got %q", s.Name())
	}
	if s.DatabaseName() != testDatabase {
		t.Errorf("Expected database %q, got %q", testDatabase, s.DatabaseName())
	}

	s, _ = New(connectionStringConfig(), memory.New(), WithName("orders-store"))
	if s.Name() != "orders-store" {
		t.Errorf("Expected overridden name, got %q", s.Name())
	}
}

func TestClientIsBuiltOnce(t *testing.T) {
	mem := memory.New()
	s := newTestStorage(t, mem)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Client(ctx); err != nil {
				t.Errorf("Client failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Concurrent first calls may race to build, later calls reuse the handle.
	before := mem.Calls().Connects
	for i := 0; i < 5; i++ {
		if _, err := s.Client(ctx); err != nil {
			t.Fatalf("Client failed: %v", err)
		}
	}
	if after := mem.Calls().Connects; after != before {
		t.Errorf("Expected no rebuild of a non-expiring client, connects went %d -> %d", before, after)
	}

	opts, ok := mem.LastConnectOptions()
	if !ok {
		t.Fatal("Expected Connect to have been called")
	}
	if opts.MaxRetries != 3 || opts.RetryDelay != 500*time.Millisecond {
		t.Errorf("Unexpected connect options %+v", opts)
	}
}

func TestClientRebuildsAfterExpiry(t *testing.T) {
	mem := memory.New()
	provider := &countingProvider{}
	clock := &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	resolver := auth.NewResolver(provider, auth.WithCache(auth.NewMemoryCache()), auth.WithClock(clock.Now))

	cfg := config.ManagedIdentity{
		Base:           config.Base{InstanceName: "acct", DatabaseName: testDatabase, CreateDatabaseIfNotExists: true},
		TenantID:       "tid",
		SubscriptionID: "sub",
	}
	s, err := New(cfg, mem, WithResolver(resolver), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Client(ctx); err != nil {
		t.Fatalf("Client failed: %v", err)
	}
	clock.Advance(23 * time.Hour)
	if _, err := s.Client(ctx); err != nil {
		t.Fatalf("Client failed: %v", err)
	}
	if got := mem.Calls().Connects; got != 1 {
		t.Fatalf("Expected 1 connect before expiry, got %d", got)
	}

	clock.Advance(2 * time.Hour)
	if _, err := s.Client(ctx); err != nil {
		t.Fatalf("Client failed: %v", err)
	}
	if got := mem.Calls().Connects; got != 2 {
		t.Fatalf("Expected a rebuild after expiry, got %d connects", got)
	}

	// The rebuilt client came from the cached connection string, which never expires.
	clock.Advance(48 * time.Hour)
	if _, err := s.Client(ctx); err != nil {
		t.Fatalf("Client failed: %v", err)
	}
	if got := mem.Calls().Connects; got != 2 {
		t.Errorf("Expected the cached client to be reused, got %d connects", got)
	}
	if got := provider.tokens.Load(); got != 1 {
		t.Errorf("Expected a single token request, got %d", got)
	}
}

func TestClientConnectionError(t *testing.T) {
	mem := memory.New()
	cause := stderrors.New("endpoint unreachable")
	mem.FailConnect = func(string) error { return cause }

	s, err := New(connectionStringConfig(), mem,
		WithResolver(auth.NewResolver(nil, auth.WithCache(auth.NewMemoryCache()))))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = s.Client(context.Background())
	if !errors.IsConnection(err) {
		t.Fatalf("Expected connection error, got %v", err)
	}
	if !stderrors.Is(err, cause) {
		t.Errorf("Expected connection error to wrap its cause, got %v", err)
	}

	_, err = Get[struct{}](context.Background(), s, entitiesTable, "p/1")
	if !errors.IsConnection(err) {
		t.Errorf("Expected record operations to surface the connection error, got %v", err)
	}
}

func TestClientCreatesConfiguredTables(t *testing.T) {
	cfg := connectionStringConfig()
	cfg.CreateTables = []string{"orders/CustomerId", "plain"}

	s, err := New(cfg, memory.New(),
		WithResolver(auth.NewResolver(nil, auth.WithCache(auth.NewMemoryCache()))))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	names, err := s.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables failed: %v", err)
	}
	if len(names) != 2 || names[0] != "orders" || names[1] != "plain" {
		t.Errorf("Expected [orders plain], got %v", names)
	}
}

func TestClientRejectsMalformedTableNames(t *testing.T) {
	cfg := connectionStringConfig()
	cfg.CreateTables = []string{"a/b/c"}

	s, err := New(cfg, memory.New(),
		WithResolver(auth.NewResolver(nil, auth.WithCache(auth.NewMemoryCache()))))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := s.Client(context.Background()); !errors.IsMalformedKey(err) {
		t.Errorf("Expected malformed key error, got %v", err)
	}
}

func TestStorageMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := newTestStorage(t, memory.New(), WithMetrics(m), WithName("metered"))
	ctx := context.Background()

	if _, err := Get[struct{}](ctx, s, entitiesTable, "partA/missing"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if err := Upsert(ctx, s, entitiesTable, entity("partA", "id1")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if got := testutil.ToFloat64(m.operations.WithLabelValues("get", entitiesTable, OutcomeNotFound)); got != 1 {
		t.Errorf("Expected 1 not found get, got %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("upsert", entitiesTable, OutcomeSuccess)); got != 1 {
		t.Errorf("Expected 1 successful upsert, got %v", got)
	}
	if got := testutil.ToFloat64(m.rebuilds.WithLabelValues("metered")); got != 1 {
		t.Errorf("Expected 1 client build, got %v", got)
	}
	if got := testutil.ToFloat64(m.resolutions.WithLabelValues(auth.SourceStatic)); got != 1 {
		t.Errorf("Expected 1 static resolution, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.observe("get", "t", OutcomeSuccess, time.Now())
	m.rebuilt("i")
	m.page("t")
	m.resolved(auth.SourceCache)
}

func TestStorageLogsClientBuild(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	newTestStorage(t, memory.New(), WithLogger(zap.New(core)))

	entries := logs.FilterMessage("client built").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 client built entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["instance"] != "acct" || fields["database"] != testDatabase {
		t.Errorf("Unexpected log fields %v", fields)
	}
	if fields["source"] != auth.SourceStatic {
		t.Errorf("Expected static source, got %v", fields["source"])
	}
	if fields["version"] != GetVersionInfo().String() {
		t.Errorf("Expected version %s, got %v", GetVersionInfo(), fields["version"])
	}
}
