/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/suparena/tablestore/datastore"
	"github.com/suparena/tablestore/errors"
)

// DefaultPageSize is used when neither the store nor the query sets a page size.
const DefaultPageSize = 100

// Store is an in-process document store. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	databases map[string]*database
	pageSize  int

	// Fault injection. Hooks are read on every call, set them before use.
	FailConnect func(connectionString string) error
	FailUpsert  func(table, id string) error
	FailDelete  func(table, id string) error
	FailQuery   func(table, query string, page int) error

	connects atomic.Int64
	reads    atomic.Int64
	upserts  atomic.Int64
	deletes  atomic.Int64
	pages    atomic.Int64

	lastConnect atomic.Pointer[datastore.ConnectOptions]
}

type database struct {
	containers map[string]*container
}

type container struct {
	partitionKeyPath string
	items            map[itemKey]*entry
	seq              int64
}

type itemKey struct {
	partition datastore.PartitionKey
	id        string
}

type entry struct {
	seq  int64
	body []byte
}

// Option configures a Store
type Option func(*Store)

// WithPageSize sets the default number of documents per query page.
func WithPageSize(n int) Option {
	return func(s *Store) {
		s.pageSize = n
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		databases: make(map[string]*database),
		pageSize:  DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Counts is a snapshot of the calls a store has served.
type Counts struct {
	Connects int64
	Reads    int64
	Upserts  int64
	Deletes  int64
	Pages    int64
}

// Calls returns the call counters.
func (s *Store) Calls() Counts {
	return Counts{
		Connects: s.connects.Load(),
		Reads:    s.reads.Load(),
		Upserts:  s.upserts.Load(),
		Deletes:  s.deletes.Load(),
		Pages:    s.pages.Load(),
	}
}

// LastConnectOptions returns the options of the most recent Connect call.
func (s *Store) LastConnectOptions() (datastore.ConnectOptions, bool) {
	p := s.lastConnect.Load()
	if p == nil {
		return datastore.ConnectOptions{}, false
	}
	return *p, true
}

// Connect implements datastore.Connector. Every connection string reaches the same data.
func (s *Store) Connect(ctx context.Context, connectionString string, opts datastore.ConnectOptions) (datastore.Client, error) {
	s.connects.Add(1)
	s.lastConnect.Store(&opts)
	if s.FailConnect != nil {
		if err := s.FailConnect(connectionString); err != nil {
			return nil, err
		}
	}
	return &client{store: s}, nil
}

// Items returns the raw documents of a container, in insertion order.
func (s *Store) Items(db, table string) [][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.lookup(db, table)
	if c == nil {
		return nil
	}
	return c.snapshot()
}

func (s *Store) lookup(db, table string) *container {
	d, ok := s.databases[db]
	if !ok {
		return nil
	}
	return d.containers[table]
}

type client struct {
	store *Store
}

func (c *client) CreateDatabaseIfNotExists(ctx context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if _, ok := c.store.databases[id]; !ok {
		c.store.databases[id] = &database{containers: make(map[string]*container)}
	}
	return nil
}

func (c *client) Database(id string) (datastore.Database, error) {
	return &databaseHandle{store: c.store, id: id}, nil
}

type databaseHandle struct {
	store *Store
	id    string
}

func (d *databaseHandle) Container(id string) (datastore.Container, error) {
	return &containerHandle{store: d.store, db: d.id, id: id}, nil
}

func (d *databaseHandle) CreateContainerIfNotExists(ctx context.Context, id, partitionKeyPath string) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	db, ok := d.store.databases[d.id]
	if !ok {
		return errors.NewNotFoundError("database", d.id)
	}
	if _, ok := db.containers[id]; !ok {
		db.containers[id] = &container{
			partitionKeyPath: partitionKeyPath,
			items:            make(map[itemKey]*entry),
		}
	}
	return nil
}

func (d *databaseHandle) DeleteContainer(ctx context.Context, id string) error {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	db, ok := d.store.databases[d.id]
	if !ok {
		return errors.NewNotFoundError("database", d.id)
	}
	if _, ok := db.containers[id]; !ok {
		return errors.NewNotFoundError("container", id)
	}
	delete(db.containers, id)
	return nil
}

func (d *databaseHandle) ListContainers(ctx context.Context) ([]string, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	db, ok := d.store.databases[d.id]
	if !ok {
		return nil, errors.NewNotFoundError("database", d.id)
	}
	names := make([]string, 0, len(db.containers))
	for name := range db.containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type containerHandle struct {
	store *Store
	db    string
	id    string
}

func (c *containerHandle) get() (*container, error) {
	ct := c.store.lookup(c.db, c.id)
	if ct == nil {
		return nil, errors.NewNotFoundError("container", c.id)
	}
	return ct, nil
}

func (c *containerHandle) ReadItem(ctx context.Context, pk datastore.PartitionKey, id string) ([]byte, error) {
	c.store.reads.Add(1)
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	ct, err := c.get()
	if err != nil {
		return nil, err
	}
	e, ok := ct.items[itemKey{partition: pk, id: id}]
	if !ok {
		return nil, errors.NewNotFoundError("item", id)
	}
	return append([]byte(nil), e.body...), nil
}

func (c *containerHandle) UpsertItem(ctx context.Context, pk datastore.PartitionKey, item []byte) error {
	c.store.upserts.Add(1)

	var doc map[string]any
	if err := json.Unmarshal(item, &doc); err != nil {
		return errors.NewValidationError("item", fmt.Sprintf("document is not a JSON object: %v", err))
	}
	id, _ := doc["id"].(string)
	if id == "" {
		return errors.NewValidationError("id", "document has no string id")
	}

	if c.store.FailUpsert != nil {
		if err := c.store.FailUpsert(c.id, id); err != nil {
			return err
		}
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	ct, err := c.get()
	if err != nil {
		return err
	}
	if docPK := partitionOf(doc, ct.partitionKeyPath); docPK != pk {
		return errors.NewValidationError("partitionKey", fmt.Sprintf(
			"partition key %s extracted from document does not match %s", docPK, pk))
	}

	key := itemKey{partition: pk, id: id}
	body := append([]byte(nil), item...)
	if e, ok := ct.items[key]; ok {
		e.body = body
		return nil
	}
	ct.seq++
	ct.items[key] = &entry{seq: ct.seq, body: body}
	return nil
}

func (c *containerHandle) DeleteItem(ctx context.Context, pk datastore.PartitionKey, id string) error {
	c.store.deletes.Add(1)
	if c.store.FailDelete != nil {
		if err := c.store.FailDelete(c.id, id); err != nil {
			return err
		}
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	ct, err := c.get()
	if err != nil {
		return err
	}
	key := itemKey{partition: pk, id: id}
	if _, ok := ct.items[key]; !ok {
		return errors.NewNotFoundError("item", id)
	}
	delete(ct.items, key)
	return nil
}

func (c *containerHandle) NewQueryPager(query string, opts datastore.QueryOptions) datastore.Pager {
	size := int(opts.PageSize)
	if size <= 0 {
		size = c.store.pageSize
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return &pager{container: c, query: query, pageSize: size}
}

func (ct *container) snapshot() [][]byte {
	entries := make([]*entry, 0, len(ct.items))
	for _, e := range ct.items {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.body
	}
	return out
}

// partitionOf reads the value at a partition key path such as "/CustomerId".
// A missing value is the none key.
func partitionOf(doc map[string]any, path string) datastore.PartitionKey {
	var cur any = doc
	for _, part := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		m, ok := cur.(map[string]any)
		if !ok {
			return datastore.NonePartitionKey
		}
		if cur, ok = m[part]; !ok {
			return datastore.NonePartitionKey
		}
	}
	switch v := cur.(type) {
	case nil:
		return datastore.NonePartitionKey
	case string:
		return datastore.NewPartitionKey(v)
	default:
		return datastore.NewPartitionKey(fmt.Sprint(v))
	}
}

type pager struct {
	container *containerHandle
	query     string
	pageSize  int

	started bool
	results [][]byte
	offset  int
	page    int
}

func (p *pager) More() bool {
	return !p.started || p.offset < len(p.results)
}

func (p *pager) NextPage(ctx context.Context) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	store := p.container.store
	store.pages.Add(1)
	p.page++

	if store.FailQuery != nil {
		if err := store.FailQuery(p.container.id, p.query, p.page); err != nil {
			return nil, err
		}
	}

	if !p.started {
		q, err := compile(p.query)
		if err != nil {
			return nil, err
		}
		store.mu.RLock()
		ct, err := p.container.get()
		var docs [][]byte
		if err == nil {
			docs = ct.snapshot()
		}
		store.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		if p.results, err = q.run(docs); err != nil {
			return nil, err
		}
		p.started = true
	}

	end := p.offset + p.pageSize
	if end > len(p.results) {
		end = len(p.results)
	}
	page := p.results[p.offset:end]
	p.offset = end
	return page, nil
}
