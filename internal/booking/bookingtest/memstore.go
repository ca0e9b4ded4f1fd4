// Package bookingtest provides an in-memory booking.Store for tests.
package bookingtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/spacehire/internal/booking"
	"github.com/iliyamo/spacehire/internal/model"
)

// MemStore keeps listings and reservations in maps. Each space has its own
// mutex, taken for the whole of InSpaceTx, mirroring the row lock the MySQL
// store takes on the spaces table. Writes made inside a transaction are
// staged and only become visible when the callback returns nil.
type MemStore struct {
	mu           sync.Mutex
	listings     map[uint64]model.Listing
	reservations map[uint64]model.Reservation
	spaceLocks   map[uint64]*sync.Mutex
	nextID       uint64
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		listings:     make(map[uint64]model.Listing),
		reservations: make(map[uint64]model.Reservation),
		spaceLocks:   make(map[uint64]*sync.Mutex),
	}
}

// AddListing registers l, keyed by its ID.
func (m *MemStore) AddListing(l model.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
}

// Put stores r as-is, assigning an ID when r.ID is zero. It bypasses the
// engine and is meant for arranging fixtures.
func (m *MemStore) Put(r model.Reservation) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == 0 {
		m.nextID++
		r.ID = m.nextID
	} else if r.ID > m.nextID {
		m.nextID = r.ID
	}
	m.reservations[r.ID] = r
	return r.ID
}

// Reservations returns a snapshot of every committed reservation.
func (m *MemStore) Reservations() []model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Reservation, 0, len(m.reservations))
	for _, r := range m.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemStore) spaceLock(spaceID uint64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.spaceLocks[spaceID]
	if !ok {
		l = &sync.Mutex{}
		m.spaceLocks[spaceID] = l
	}
	return l
}

func (m *MemStore) listing(id uint64) *model.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil
	}
	return &l
}

// InSpaceTx implements booking.Store.
func (m *MemStore) InSpaceTx(ctx context.Context, spaceID uint64, fn func(tx booking.Tx, listing *model.Listing) error) error {
	lock := m.spaceLock(spaceID)
	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{store: m}
	if err := fn(tx, m.listing(spaceID)); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// InReservationTx implements booking.Store. It takes the lock of the
// reservation's space so status changes serialise with admissions.
func (m *MemStore) InReservationTx(ctx context.Context, id uint64, fn func(tx booking.Tx, r *model.Reservation, listing *model.Listing) error) error {
	m.mu.Lock()
	cur, ok := m.reservations[id]
	m.mu.Unlock()
	if !ok {
		return fn(&memTx{store: m}, nil, nil)
	}
	lock := m.spaceLock(cur.SpaceID)
	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	cur = m.reservations[id]
	m.mu.Unlock()
	tx := &memTx{store: m}
	if err := fn(tx, &cur, m.listing(cur.SpaceID)); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// GetReservation implements booking.Store. There is no accounts table, so
// the account summary of a registered requester is taken from its contact
// fields.
func (m *MemStore) GetReservation(_ context.Context, id uint64) (*model.Reservation, *model.Listing, error) {
	m.mu.Lock()
	r, ok := m.reservations[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil, nil
	}
	l := m.listing(r.SpaceID)
	if l != nil {
		r.Space = l.Summary()
	}
	if r.Requester.Kind == model.RequesterRegistered {
		r.Account = &model.AccountSummary{ID: r.Requester.AccountID, Name: r.Requester.Name, Email: r.Requester.Email}
	}
	return &r, l, nil
}

// ListReservations implements booking.Store.
func (m *MemStore) ListReservations(_ context.Context, f booking.ListFilter) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range m.reservations {
		if f.AccountID != 0 && !r.Requester.IsAccount(f.AccountID) {
			continue
		}
		if f.HostID != 0 && m.listings[r.SpaceID].HostID != f.HostID {
			continue
		}
		if f.SpaceID != 0 && r.SpaceID != f.SpaceID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ListCompletable implements booking.Store.
func (m *MemStore) ListCompletable(_ context.Context, before time.Time) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uint64
	for id, r := range m.reservations {
		if r.Status == model.StatusConfirmed && r.EndAt.Before(before) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type memTx struct {
	store  *MemStore
	staged []model.Reservation
}

func (t *memTx) FindOverlapping(_ context.Context, spaceID uint64, start, end time.Time, statuses []model.ReservationStatus) (*model.Reservation, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var hit *model.Reservation
	for _, r := range t.store.reservations {
		if r.SpaceID != spaceID || !contains(statuses, r.Status) {
			continue
		}
		if booking.Overlaps(r.StartAt, r.EndAt, start, end) && (hit == nil || r.ID < hit.ID) {
			r := r
			hit = &r
		}
	}
	return hit, nil
}

func (t *memTx) InsertReservation(_ context.Context, r *model.Reservation) error {
	t.store.mu.Lock()
	t.store.nextID++
	r.ID = t.store.nextID
	t.store.mu.Unlock()
	t.staged = append(t.staged, *r)
	return nil
}

func (t *memTx) UpdateReservationStatus(_ context.Context, r *model.Reservation) error {
	t.staged = append(t.staged, *r)
	return nil
}

func (t *memTx) commit() {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, r := range t.staged {
		t.store.reservations[r.ID] = r
	}
}

func contains(statuses []model.ReservationStatus, s model.ReservationStatus) bool {
	for _, x := range statuses {
		if x == s {
			return true
		}
	}
	return false
}
