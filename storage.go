/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/suparena/tablestore/auth"
	"github.com/suparena/tablestore/config"
	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/keys"
	"github.com/suparena/tablestore/storagemodels"
	"go.uber.org/zap"
)

// Storage is one configured storage instance. It builds its backing-store client
// lazily and rebuilds it when the credentials it was built from expire.
// A Storage is safe for concurrent use.
type Storage struct {
	cfg       config.Auth
	settings  config.Base
	name      string
	connector datastore.Connector
	resolver  *auth.Resolver
	logger    *zap.Logger
	metrics   *Metrics
	now       func() time.Time

	streamDefaults []storagemodels.StreamOption

	handle atomic.Pointer[clientHandle]
}

// clientHandle is published only once every build step has succeeded.
type clientHandle struct {
	client    datastore.Client
	database  datastore.Database
	expiresOn time.Time
}

func (h *clientHandle) expired(now time.Time) bool {
	return !h.expiresOn.IsZero() && !now.Before(h.expiresOn)
}

// Option configures a Storage
type Option func(*Storage)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

// WithMetrics records operations on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Storage) {
		s.metrics = m
	}
}

// WithResolver replaces the default Azure-backed credential resolver.
func WithResolver(r *auth.Resolver) Option {
	return func(s *Storage) {
		s.resolver = r
	}
}

// WithName overrides the instance name used for registration, logs and metrics.
func WithName(name string) Option {
	return func(s *Storage) {
		s.name = name
	}
}

// WithClock overrides time.Now for client expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

// WithStreamDefaults sets options applied to every Stream before the caller's own.
func WithStreamDefaults(opts ...storagemodels.StreamOption) Option {
	return func(s *Storage) {
		s.streamDefaults = append(s.streamDefaults, opts...)
	}
}

// New validates cfg and returns a Storage that connects through connector.
// No connection is made until the first operation.
func New(cfg config.Auth, connector datastore.Connector, opts ...Option) (*Storage, error) {
	if err := config.Check(cfg); err != nil {
		return nil, err
	}
	if connector == nil {
		return nil, errors.NewValidationError("connector", "is required")
	}

	s := &Storage{
		cfg:       cfg,
		settings:  cfg.Settings(),
		connector: connector,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.name == "" {
		s.name = cfg.Instance()
	}
	if s.name == "" {
		s.name = s.settings.DatabaseName
	}
	if s.resolver == nil {
		s.resolver = auth.NewResolver(auth.NewAzureProvider(nil),
			auth.WithLogger(s.logger), auth.WithClock(s.now))
	}
	s.logger = s.logger.With(zap.String("instance", s.name), zap.String("database", s.settings.DatabaseName))
	return s, nil
}

// Name is the instance name.
func (s *Storage) Name() string { return s.name }

// DatabaseName is the database every table of this instance lives in.
func (s *Storage) DatabaseName() string { return s.settings.DatabaseName }

// Config returns the configuration the instance was created with.
func (s *Storage) Config() config.Auth { return s.cfg }

// Client returns the backing-store client, building it on first use and after
// the credentials it was built from have expired.
func (s *Storage) Client(ctx context.Context) (datastore.Client, error) {
	h, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return h.client, nil
}

func (s *Storage) current(ctx context.Context) (*clientHandle, error) {
	if h := s.handle.Load(); h != nil && !h.expired(s.now()) {
		return h, nil
	}
	return s.rebuild(ctx)
}

// rebuild is not exclusive. Concurrent callers may each build a client; the last
// one published wins.
func (s *Storage) rebuild(ctx context.Context) (*clientHandle, error) {
	res, err := s.resolver.Resolve(ctx, s.cfg)
	if err != nil {
		s.logger.Error("failed to resolve connection string", zap.String("method", s.cfg.Method()), zap.Error(err))
		return nil, err
	}
	s.metrics.resolved(res.Source)

	client, err := s.connector.Connect(ctx, res.ConnectionString, datastore.DefaultConnectOptions())
	if err != nil || client == nil {
		s.logger.Error("failed to build client", zap.Error(err))
		return nil, &errors.ConnectionError{Instance: s.name, Err: err}
	}

	if s.settings.CreateDatabaseIfNotExists {
		if err := client.CreateDatabaseIfNotExists(ctx, s.settings.DatabaseName); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", s.settings.DatabaseName, err)
		}
	}

	db, err := client.Database(s.settings.DatabaseName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", s.settings.DatabaseName, err)
	}

	for _, name := range s.settings.CreateTables {
		table, path, err := keys.ParseTableName(name)
		if err != nil {
			return nil, err
		}
		if err := db.CreateContainerIfNotExists(ctx, table, path); err != nil {
			return nil, fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	h := &clientHandle{client: client, database: db, expiresOn: res.ExpiresOn}
	s.handle.Store(h)
	s.metrics.rebuilt(s.name)
	s.logger.Info("client built", zap.String("source", res.Source), zap.Time("expiresOn", res.ExpiresOn),
		zap.Stringer("version", GetVersionInfo()))
	return h, nil
}

func (s *Storage) database(ctx context.Context) (datastore.Database, error) {
	h, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return h.database, nil
}

func (s *Storage) container(ctx context.Context, table string) (datastore.Container, error) {
	db, err := s.database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Container(table)
}

// track records the outcome of one operation. Use it as
//
//	defer s.track("get", table, time.Now(), &err)
func (s *Storage) track(op, table string, started time.Time, errp *error) {
	outcome := OutcomeSuccess
	if errp != nil && *errp != nil {
		outcome = OutcomeError
	}
	s.metrics.observe(op, table, outcome, started)
}
