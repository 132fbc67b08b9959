// Package memstore is a goroutine-owned in-memory backend with an optional JSON snapshot on disk.
// It satisfies the catalog, order and auth repository contracts so the service runs without MongoDB.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage"
)

// DefaultQueueTimeout bounds how long a caller waits for the store goroutine.
const DefaultQueueTimeout = 2 * time.Second

const (
	commandQueued int32 = iota
	commandTaken
	commandAbandoned
)

// command runs against the state while the loop goroutine owns it. dirty asks for a snapshot.
// state decides once whether the loop runs it or the caller gives up on it.
type command struct {
	ctx   context.Context
	run   func(st *snapshot) (dirty bool)
	state *atomic.Int32
	reply chan struct{}
}

// Store keeps users, foods and orders guarded by a dedicated goroutine.
type Store struct {
	commands        chan command
	closed          chan struct{}
	persistRequests chan snapshot
	snapshotPath    string
	queueTimeout    time.Duration

	state snapshot

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option customizes a Store.
type Option func(*Store)

// WithQueueTimeout overrides DefaultQueueTimeout.
func WithQueueTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.queueTimeout = d
		}
	}
}

// Open loads the snapshot at path, if any, and starts the store goroutines. An empty path keeps
// everything in memory.
func Open(path string, opts ...Option) (*Store, error) {
	loaded, err := readSnapshot(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	s := &Store{
		commands:        make(chan command, 32),
		closed:          make(chan struct{}),
		persistRequests: make(chan snapshot, 1),
		snapshotPath:    path,
		queueTimeout:    DefaultQueueTimeout,
	}
	if loaded != nil {
		s.state = *loaded
	}
	for _, opt := range opts {
		opt(s)
	}
	s.wg.Add(2)
	go s.loop()
	go s.persistenceLoop()
	return s, nil
}

// Close stops the goroutines and writes a final snapshot.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.wg.Wait()
		if s.snapshotPath != "" {
			err = writeSnapshot(s.snapshotPath, s.state.clone())
		}
	})
	return err
}

// Ping reports whether the loop still accepts work.
func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, func(*snapshot) bool { return false })
}

func (s *Store) loop() {
	defer s.wg.Done()
	for {
		select {
		case cmd := <-s.commands:
			if cmd.ctx.Err() != nil || !cmd.state.CompareAndSwap(commandQueued, commandTaken) {
				continue
			}
			if cmd.run(&s.state) {
				s.queuePersist()
			}
			close(cmd.reply)
		case <-s.closed:
			return
		}
	}
}

func (s *Store) persistenceLoop() {
	defer s.wg.Done()
	for {
		select {
		case snap := <-s.persistRequests:
			_ = writeSnapshot(s.snapshotPath, snap)
		case <-s.closed:
			return
		}
	}
}

// queuePersist hands the latest snapshot to the writer, replacing one that is still waiting.
func (s *Store) queuePersist() {
	if s.snapshotPath == "" {
		return
	}
	snap := s.state.clone()
	select {
	case s.persistRequests <- snap:
	default:
		select {
		case <-s.persistRequests:
		default:
		}
		s.persistRequests <- snap
	}
}

// do queues fn and waits for the loop to run it. A command the caller gave up on never runs,
// and once the loop has taken a command the caller waits for its result.
func (s *Store) do(ctx context.Context, fn func(st *snapshot) bool) error {
	timer := time.NewTimer(s.queueTimeout)
	defer timer.Stop()

	cmd := command{ctx: ctx, run: fn, state: new(atomic.Int32), reply: make(chan struct{})}
	select {
	case s.commands <- cmd:
	case <-s.closed:
		return fmt.Errorf("%w: store closed", storage.ErrUnavailable)
	case <-timer.C:
		return fmt.Errorf("%w: store queue timeout", storage.ErrUnavailable)
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, ctx.Err())
	}

	var cause error
	select {
	case <-cmd.reply:
		return nil
	case <-s.closed:
		cause = errors.New("store closed")
	case <-timer.C:
		cause = errors.New("store reply timeout")
	case <-ctx.Done():
		cause = ctx.Err()
	}
	if cmd.state.CompareAndSwap(commandQueued, commandAbandoned) {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, cause)
	}
	<-cmd.reply
	return nil
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// InsertUser stores u under a fresh id. Emails are unique.
func (s *Store) InsertUser(ctx context.Context, u auth.User) (auth.User, error) {
	rec := userToRecord(u)
	rec.ID = newID()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var opErr error
	err := s.do(ctx, func(st *snapshot) bool {
		for _, existing := range st.Users {
			if strings.EqualFold(existing.Email, rec.Email) {
				opErr = fmt.Errorf("%w: email %s", storage.ErrDuplicate, rec.Email)
				return false
			}
		}
		st.Users = append(st.Users, rec)
		return true
	})
	if err != nil {
		return auth.User{}, err
	}
	if opErr != nil {
		return auth.User{}, opErr
	}
	return rec.user(), nil
}

// FindUserByEmail looks up an account, ignoring case.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	var (
		found userRecord
		ok    bool
	)
	err := s.do(ctx, func(st *snapshot) bool {
		for _, u := range st.Users {
			if strings.EqualFold(u.Email, email) {
				found, ok = u, true
				break
			}
		}
		return false
	})
	if err != nil {
		return auth.User{}, err
	}
	if !ok {
		return auth.User{}, fmt.Errorf("%w: user %s", storage.ErrNotFound, email)
	}
	return found.user(), nil
}

// ListFoods returns the catalog in insertion order.
func (s *Store) ListFoods(ctx context.Context) ([]catalog.FoodItem, error) {
	var records []foodRecord
	err := s.do(ctx, func(st *snapshot) bool {
		records = append([]foodRecord(nil), st.Foods...)
		return false
	})
	if err != nil {
		return nil, err
	}
	items := make([]catalog.FoodItem, 0, len(records))
	for _, r := range records {
		items = append(items, r.food())
	}
	return items, nil
}

// ReplaceFoods drops the catalog and stores items under fresh ids.
func (s *Store) ReplaceFoods(ctx context.Context, items []catalog.FoodItem) ([]catalog.FoodItem, error) {
	records := make([]foodRecord, 0, len(items))
	stored := make([]catalog.FoodItem, 0, len(items))
	for _, item := range items {
		item.ID = newID()
		records = append(records, foodToRecord(item))
		stored = append(stored, item)
	}
	err := s.do(ctx, func(st *snapshot) bool {
		st.Foods = records
		return true
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// InsertOrder stores o under a fresh id. Order numbers are unique.
func (s *Store) InsertOrder(ctx context.Context, o order.Order) (order.Order, error) {
	o.ID = newID()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	rec := orderToRecord(o)
	var opErr error
	err := s.do(ctx, func(st *snapshot) bool {
		for _, existing := range st.Orders {
			if existing.Number == rec.Number {
				opErr = fmt.Errorf("%w: order number %s", storage.ErrDuplicate, rec.Number)
				return false
			}
		}
		st.Orders = append(st.Orders, rec)
		return true
	})
	if err != nil {
		return order.Order{}, err
	}
	if opErr != nil {
		return order.Order{}, opErr
	}
	return rec.order(), nil
}

// FindOrder looks up one order. Unknown and malformed ids both report storage.ErrNotFound.
func (s *Store) FindOrder(ctx context.Context, id string) (order.Order, error) {
	if !primitive.IsValidObjectID(id) {
		return order.Order{}, fmt.Errorf("%w: order %q", storage.ErrNotFound, id)
	}
	var (
		found orderRecord
		ok    bool
	)
	err := s.do(ctx, func(st *snapshot) bool {
		for _, o := range st.Orders {
			if o.ID == id {
				found, ok = o, true
				break
			}
		}
		return false
	})
	if err != nil {
		return order.Order{}, err
	}
	if !ok {
		return order.Order{}, fmt.Errorf("%w: order %s", storage.ErrNotFound, id)
	}
	return found.order(), nil
}

// ListOrders returns every order, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]order.Order, error) {
	var records []orderRecord
	err := s.do(ctx, func(st *snapshot) bool {
		records = st.clone().Orders
		return false
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	orders := make([]order.Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, r.order())
	}
	return orders, nil
}

// UpdateOrderStatus sets the status to to only while it still equals from.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, from, to order.Status) (order.Order, error) {
	if !primitive.IsValidObjectID(id) {
		return order.Order{}, fmt.Errorf("%w: order %q", storage.ErrNotFound, id)
	}
	var (
		updated orderRecord
		opErr   error
	)
	err := s.do(ctx, func(st *snapshot) bool {
		for i := range st.Orders {
			if st.Orders[i].ID != id {
				continue
			}
			if st.Orders[i].Status != string(from) {
				opErr = fmt.Errorf("%w: order %s is %s, not %s", storage.ErrConflict, id, st.Orders[i].Status, from)
				return false
			}
			st.Orders[i].Status = string(to)
			updated = st.Orders[i]
			updated.Items = append([]lineRecord(nil), updated.Items...)
			return true
		}
		opErr = fmt.Errorf("%w: order %s", storage.ErrNotFound, id)
		return false
	})
	if err != nil {
		return order.Order{}, err
	}
	if opErr != nil {
		return order.Order{}, opErr
	}
	return updated.order(), nil
}

// readSnapshot returns nil when there is no snapshot to restore.
func readSnapshot(path string) (*snapshot, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap snapshot
	switch err := json.NewDecoder(f).Decode(&snap); {
	case errors.Is(err, io.EOF):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// writeSnapshot replaces the file at path with snap. Readers see the old or the new state, never
// a partial write.
func writeSnapshot(path string, snap snapshot) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".memstore-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
