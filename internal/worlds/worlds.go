// Package worlds loads and saves named lore collections on top of a blob
// store. Loads are cached until the world is written again; non-immediate
// saves are coalesced per world and written once after a quiet period.
package worlds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"lorekeeper/internal/lore"
	"lorekeeper/internal/store"
)

const (
	DefaultDebounce  = time.Second
	defaultCacheSize = 128
	writeTimeout     = 30 * time.Second
)

var (
	ErrExists   = errors.New("world already exists")
	ErrNilWorld = errors.New("world data is nil")
)

type Store struct {
	blobs  store.BlobStore
	cache  *lru.Cache[string, *lore.Collection]
	loads  singleflight.Group
	wait   time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	gen      map[string]uint64
	written  map[string]uint64
	locks    map[string]*sync.Mutex
	pending  map[string]*pendingSave
	failures []error
	writes   sync.WaitGroup
	hookID   int
	onDelete map[int]func(name string)
	onRename map[int]func(oldName, newName string)
}

type pendingSave struct {
	data    []byte
	seq     uint64
	timer   *time.Timer
	writing bool
}

type Option func(*Store)

func WithDebounce(wait time.Duration) Option {
	return func(s *Store) {
		if wait > 0 {
			s.wait = wait
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(blobs store.BlobStore, opts ...Option) (*Store, error) {
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	cache, err := lru.New[string, *lore.Collection](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating world cache: %w", err)
	}
	s := &Store{
		blobs:    blobs,
		cache:    cache,
		wait:     DefaultDebounce,
		logger:   zap.NewNop(),
		gen:      make(map[string]uint64),
		written:  make(map[string]uint64),
		locks:    make(map[string]*sync.Mutex),
		pending:  make(map[string]*pendingSave),
		onDelete: make(map[int]func(string)),
		onRename: make(map[int]func(string, string)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OnDelete registers fn to run after a world is deleted. The returned func
// unregisters it.
func (s *Store) OnDelete(fn func(name string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hookID++
	id := s.hookID
	s.onDelete[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onDelete, id)
	}
}

// OnRename registers fn to run after a world is renamed. The returned func
// unregisters it.
func (s *Store) OnRename(fn func(oldName, newName string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hookID++
	id := s.hookID
	s.onRename[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.onRename, id)
	}
}

// Load returns the named world, or nil when the store has no such world.
func (s *Store) Load(ctx context.Context, name string) (*lore.Collection, error) {
	if name == "" {
		return nil, nil
	}
	if c, ok := s.cache.Get(name); ok {
		return c, nil
	}

	s.mu.Lock()
	gen := s.gen[name]
	var pendingData []byte
	if p, ok := s.pending[name]; ok {
		pendingData = p.data
	}
	s.mu.Unlock()

	if pendingData != nil {
		c, err := decode(name, pendingData)
		if err != nil {
			return nil, err
		}
		s.remember(name, gen, c)
		return c, nil
	}

	value, err, _ := s.loads.Do(name, func() (any, error) {
		data, err := s.blobs.Get(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return (*lore.Collection)(nil), nil
		}
		if err != nil {
			return nil, fmt.Errorf("loading world %s: %w", name, err)
		}
		c, err := decode(name, data)
		if err != nil {
			return nil, err
		}
		s.remember(name, gen, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*lore.Collection), nil
}

// remember caches c unless the world was written since the load started.
func (s *Store) remember(name string, gen uint64, c *lore.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[name] != gen {
		return
	}
	s.cache.Add(name, c)
}

// Invalidate drops any cached copy of the world. Loads already in flight
// are not shared with later callers.
func (s *Store) Invalidate(name string) {
	s.bump(name)
}

// bump starts a new generation for name and returns it. Generations order
// both cache fills and writes.
func (s *Store) bump(name string) uint64 {
	s.mu.Lock()
	s.gen[name]++
	gen := s.gen[name]
	s.mu.Unlock()
	s.loads.Forget(name)
	s.cache.Remove(name)
	return gen
}

func (s *Store) writeLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Save persists c under name. Immediate saves are written before returning
// and report the store's error; other saves are written after the debounce
// window, last write wins.
func (s *Store) Save(ctx context.Context, name string, c *lore.Collection, immediate bool) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	if c == nil {
		return ErrNilWorld
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding world %s: %w", name, err)
	}

	seq := s.bump(name)

	if immediate {
		s.dropPending(name)
		return s.put(ctx, name, data, seq)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.pending[name]; ok && !old.writing {
		old.timer.Stop()
	}
	p := &pendingSave{data: data, seq: seq}
	p.timer = time.AfterFunc(s.wait, func() { s.fire(name, p) })
	s.pending[name] = p
	s.logger.Debug("world save scheduled", zap.String("world", name), zap.Duration("wait", s.wait))
	return nil
}

func (s *Store) fire(name string, p *pendingSave) {
	s.mu.Lock()
	if s.pending[name] != p || p.writing {
		s.mu.Unlock()
		return
	}
	p.writing = true
	s.writes.Add(1)
	s.mu.Unlock()
	defer s.writes.Done()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	s.finish(name, p, s.put(ctx, name, p.data, p.seq))
}

func (s *Store) finish(name string, p *pendingSave, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[name] == p {
		delete(s.pending, name)
	}
	if err != nil {
		s.logger.Error("debounced world save failed", zap.String("world", name), zap.Error(err))
		s.failures = append(s.failures, err)
	}
}

// Flush writes every pending save now and returns the failures of this and
// any earlier debounced writes.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	type job struct {
		name string
		p    *pendingSave
	}
	jobs := make([]job, 0, len(s.pending))
	for name, p := range s.pending {
		if p.writing {
			continue
		}
		p.timer.Stop()
		p.writing = true
		jobs = append(jobs, job{name: name, p: p})
	}
	s.mu.Unlock()

	for _, j := range jobs {
		s.finish(j.name, j.p, s.put(ctx, j.name, j.p.data, j.p.seq))
	}
	s.writes.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	err := errors.Join(s.failures...)
	s.failures = nil
	return err
}

func (s *Store) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	if err := s.blobs.Close(ctx); err != nil {
		return errors.Join(flushErr, fmt.Errorf("closing blob store: %w", err))
	}
	return flushErr
}

// put writes data unless a newer write or delete of the world has already
// been issued. Writes of one world never overlap.
func (s *Store) put(ctx context.Context, name string, data []byte, seq uint64) error {
	l := s.writeLock(name)
	l.Lock()
	defer l.Unlock()

	if !s.claim(name, seq) {
		s.logger.Debug("stale world save skipped", zap.String("world", name), zap.Uint64("seq", seq))
		return nil
	}
	if err := s.blobs.Put(ctx, name, data); err != nil {
		return fmt.Errorf("saving world %s: %w", name, err)
	}
	// loads that read the blob while the write was running may hold old data
	s.bump(name)
	s.logger.Debug("world saved", zap.String("world", name), zap.Int("bytes", len(data)))
	return nil
}

func (s *Store) claim(name string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.written[name] {
		return false
	}
	s.written[name] = seq
	return true
}

// remove deletes the stored world after any write in progress and keeps
// older writes from recreating it.
func (s *Store) remove(ctx context.Context, name string) (bool, error) {
	s.dropPending(name)
	seq := s.bump(name)

	l := s.writeLock(name)
	l.Lock()
	defer l.Unlock()
	s.claim(name, seq)
	deleted, err := s.blobs.Delete(ctx, name)
	s.bump(name)
	return deleted, err
}

func (s *Store) dropPending(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[name]; ok {
		if !p.writing {
			p.timer.Stop()
		}
		delete(s.pending, name)
	}
}

// Delete removes the world, discarding unsaved edits, and notifies the
// delete hooks when something was removed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	deleted, err := s.remove(ctx, name)
	if err != nil {
		return false, fmt.Errorf("deleting world %s: %w", name, err)
	}
	if !deleted {
		return false, nil
	}

	for _, hook := range s.deleteHooks() {
		hook(name)
	}
	s.logger.Info("world deleted", zap.String("world", name))
	return true, nil
}

// deleteHooks returns the registered delete hooks in registration order.
func (s *Store) deleteHooks() []func(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.onDelete))
	for id := range s.onDelete {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	hooks := make([]func(string), 0, len(ids))
	for _, id := range ids {
		hooks = append(hooks, s.onDelete[id])
	}
	return hooks
}

func (s *Store) renameHooks() []func(string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.onRename))
	for id := range s.onRename {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	hooks := make([]func(string, string), 0, len(ids))
	for _, id := range ids {
		hooks = append(hooks, s.onRename[id])
	}
	return hooks
}

// Create saves an empty world. It refuses to overwrite an existing one.
func (s *Store) Create(ctx context.Context, name string) (*lore.Collection, error) {
	existing, err := s.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, name)
	}
	c := lore.NewCollection()
	if err := s.Save(ctx, name, c, true); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename writes the world under newName, removes oldName and notifies the
// rename hooks. Renaming to the same or an empty name does nothing.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	if newName == "" || oldName == newName {
		return nil
	}
	c, err := s.Load(ctx, oldName)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("renaming %s: %w", oldName, store.ErrNotFound)
	}
	if err := s.Save(ctx, newName, c, true); err != nil {
		return err
	}

	if _, err := s.remove(ctx, oldName); err != nil {
		return fmt.Errorf("removing renamed world %s: %w", oldName, err)
	}

	for _, hook := range s.renameHooks() {
		hook(oldName, newName)
	}
	s.logger.Info("world renamed", zap.String("from", oldName), zap.String("to", newName))
	return nil
}

// List returns the stored world names plus worlds with unsaved edits.
func (s *Store) List(ctx context.Context) ([]string, error) {
	names, err := s.blobs.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		seen[name] = struct{}{}
	}
	s.mu.Lock()
	for name := range s.pending {
		if _, ok := seen[name]; !ok {
			names = append(names, name)
			seen[name] = struct{}{}
		}
	}
	s.mu.Unlock()
	sort.Strings(names)
	return names, nil
}

func decode(name string, data []byte) (*lore.Collection, error) {
	c := lore.NewCollection()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decoding world %s: %w", name, err)
	}
	return c, nil
}
