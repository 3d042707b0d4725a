// Package memstore is an in-process Store used by tests and by deployments
// that funnel all admissions through a single writer. Per-date mutexes give
// WithinDate its serializability guarantee.
package memstore

import (
	"context"
	"sort"
	"sync"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra"
	"shuttle-booking/internal/usecase/shared"
)

type Store struct {
	mu     sync.RWMutex
	dates  map[string]struct{}
	ledger map[string][]*reservation.Reservation // insertion order per date

	lockMu    sync.Mutex
	dateLocks map[string]*sync.Mutex
}

func New() *Store {
	return &Store{
		dates:     make(map[string]struct{}),
		ledger:    make(map[string][]*reservation.Reservation),
		dateLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) ListDates(_ context.Context) ([]schedule.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.dates))
	for k := range s.dates {
		keys = append(keys, k)
	}
	// Lexical order of the 2006-01-02 layout is chronological order.
	sort.Strings(keys)

	dates := make([]schedule.Date, 0, len(keys))
	for _, k := range keys {
		d, err := schedule.ParseDate(k)
		if err != nil {
			return nil, infra.WrapRepoErr("corrupt date key in memstore", err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func (s *Store) AddDate(_ context.Context, d schedule.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := d.String()
	if _, ok := s.dates[key]; ok {
		return infra.WrapRepoErr("date already present", nil, infra.KindDuplicateKey)
	}
	s.dates[key] = struct{}{}
	return nil
}

func (s *Store) RemoveDate(_ context.Context, d schedule.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := d.String()
	if _, ok := s.dates[key]; !ok {
		return infra.WrapRepoErr("date not present", nil, infra.KindNotFound)
	}
	delete(s.dates, key)
	return nil
}

func (s *Store) HasDate(_ context.Context, d schedule.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.dates[d.String()]
	return ok, nil
}

func (s *Store) ListByDate(_ context.Context, d schedule.Date) ([]*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.ledger[d.String()]
	out := make([]*reservation.Reservation, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *Store) FindByPatientAndDate(_ context.Context, d schedule.Date, mrn string) (*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.ledger[d.String()] {
		if r.MRN().String() == mrn {
			return r, nil
		}
	}
	return nil, nil
}

func (s *Store) DeleteByCredential(_ context.Context, mrn, phone string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, rows := range s.ledger {
		kept := rows[:0]
		for _, r := range rows {
			if r.MatchesCredential(mrn, phone) {
				deleted++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(s.ledger, key)
		} else {
			s.ledger[key] = kept
		}
	}
	return deleted, nil
}

func (s *Store) WithinDate(ctx context.Context, d schedule.Date, fn func(ctx context.Context, tx shared.Tx) error) error {
	lock := s.lockForDate(d)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return infra.WrapRepoErr("context canceled before admission", err, infra.KindTimeout)
	}
	return fn(ctx, &memTx{store: s})
}

func (s *Store) lockForDate(d schedule.Date) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	key := d.String()
	lock, ok := s.dateLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.dateLocks[key] = lock
	}
	return lock
}

// memTx reuses the store's read methods; the per-date lock held by
// WithinDate is what makes the check-then-act sequence atomic.
type memTx struct {
	store *Store
}

func (t *memTx) HasDate(ctx context.Context, d schedule.Date) (bool, error) {
	return t.store.HasDate(ctx, d)
}

func (t *memTx) ListByDate(ctx context.Context, d schedule.Date) ([]*reservation.Reservation, error) {
	return t.store.ListByDate(ctx, d)
}

func (t *memTx) FindByPatientAndDate(ctx context.Context, d schedule.Date, mrn string) (*reservation.Reservation, error) {
	return t.store.FindByPatientAndDate(ctx, d, mrn)
}

func (t *memTx) Insert(_ context.Context, r *reservation.Reservation) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	key := r.Date().String()
	for _, existing := range t.store.ledger[key] {
		if existing.MRN().String() == r.MRN().String() {
			return infra.WrapRepoErr("reservation already present for patient and date", nil, infra.KindDuplicateKey)
		}
	}
	t.store.ledger[key] = append(t.store.ledger[key], r)
	return nil
}

var _ shared.Store = (*Store)(nil)
