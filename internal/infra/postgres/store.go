// Package postgres persists the date registry and reservation ledger in
// PostgreSQL. Admissions run inside serializable transactions with bounded
// retry, so two concurrent requests for the last seat cannot both commit.
package postgres

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra"
	"shuttle-booking/internal/pkg/config"
	"shuttle-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeUniqueViolation      = "23505"
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reservations (
    id            uuid PRIMARY KEY,
    seq           bigserial,
    reserve_date  date NOT NULL,
    mrn           text NOT NULL,
    patient_name  text NOT NULL,
    phone         text NOT NULL,
    family_count  int NOT NULL DEFAULT 0 CHECK (family_count IN (0, 1)),
    created_at    timestamptz NOT NULL,
    UNIQUE (reserve_date, mrn)
);

CREATE TABLE IF NOT EXISTS available_dates (
    date_value date PRIMARY KEY
);
`

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.BuildDSN())
	if err != nil {
		return nil, nil, infra.WrapRepoErr("open postgres pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, infra.WrapRepoErr("ping postgres", err)
	}
	return pool, pool.Close, nil
}

type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

func NewStore(pool *pgxpool.Pool, queryTimeout time.Duration) *Store {
	return &Store{pool: pool, queryTimeout: queryTimeout}
}

// EnsureSchema creates the two tables when absent, mirroring what the
// original app did on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return infra.WrapRepoErr("ensure schema", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *Store) ListDates(ctx context.Context) ([]schedule.Date, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT date_value FROM available_dates ORDER BY date_value`)
	if err != nil {
		return nil, wrapPgErr("list dates", err)
	}
	defer rows.Close()

	var dates []schedule.Date
	for rows.Next() {
		var value time.Time
		if err := rows.Scan(&value); err != nil {
			return nil, wrapPgErr("scan date row", err)
		}
		dates = append(dates, schedule.NewDate(value))
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgErr("iterate date rows", err)
	}
	return dates, nil
}

func (s *Store) AddDate(ctx context.Context, d schedule.Date) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO available_dates (date_value) VALUES ($1)`, d.Time())
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("date already present", err, infra.KindDuplicateKey)
		}
		return wrapPgErr("add date", err)
	}
	return nil
}

func (s *Store) RemoveDate(ctx context.Context, d schedule.Date) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM available_dates WHERE date_value = $1`, d.Time())
	if err != nil {
		return wrapPgErr("remove date", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("date not present", nil, infra.KindNotFound)
	}
	return nil
}

func (s *Store) HasDate(ctx context.Context, d schedule.Date) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return hasDate(ctx, s.pool, d)
}

func (s *Store) ListByDate(ctx context.Context, d schedule.Date) ([]*reservation.Reservation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return listByDate(ctx, s.pool, d)
}

func (s *Store) FindByPatientAndDate(ctx context.Context, d schedule.Date, mrn string) (*reservation.Reservation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return findByPatientAndDate(ctx, s.pool, d, mrn)
}

func (s *Store) DeleteByCredential(ctx context.Context, mrn, phone string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM reservations WHERE mrn = $1 AND phone = $2`, mrn, phone)
	if err != nil {
		return 0, wrapPgErr("delete by credential", err)
	}
	return tag.RowsAffected(), nil
}

// WithinDate runs fn inside a serializable transaction, retried a few times
// with jittered backoff when the database reports a serialization failure or
// deadlock. Avoids defer accumulation in the retry loop to prevent
// connection leaks.
func (s *Store) WithinDate(ctx context.Context, _ schedule.Date, fn func(ctx context.Context, tx shared.Tx) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	const maxRetries = 3
	base := 100 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return wrapPgErr("begin transaction", err)
		}

		err = fn(ctx, &pgTx{tx: pgxTx})
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !isRetryableError(err) {
			return err
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		waitTime := calculateBackoff(attempt, base)
		slog.Warn("retrying admission transaction",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return infra.WrapRepoErr("admission canceled during retry wait", ctx.Err(), infra.KindTimeout)
		case <-time.After(waitTime):
		}
	}

	return infra.WrapRepoErr("transaction failed after max retries", lastErr, infra.KindConflict)
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) HasDate(ctx context.Context, d schedule.Date) (bool, error) {
	return hasDate(ctx, t.tx, d)
}

func (t *pgTx) ListByDate(ctx context.Context, d schedule.Date) ([]*reservation.Reservation, error) {
	return listByDate(ctx, t.tx, d)
}

func (t *pgTx) FindByPatientAndDate(ctx context.Context, d schedule.Date, mrn string) (*reservation.Reservation, error) {
	return findByPatientAndDate(ctx, t.tx, d, mrn)
}

func (t *pgTx) Insert(ctx context.Context, r *reservation.Reservation) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO reservations (id, reserve_date, mrn, patient_name, phone, family_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID(),
		r.Date().Time(),
		r.MRN().String(),
		r.PatientName().String(),
		r.Phone().String(),
		r.FamilyCount().Int(),
		r.CreatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("reservation already present for patient and date", err, infra.KindDuplicateKey)
		}
		return err
	}
	return nil
}

func hasDate(ctx context.Context, db DBTX, d schedule.Date) (bool, error) {
	var one int
	err := db.QueryRow(ctx,
		`SELECT 1 FROM available_dates WHERE date_value = $1`, d.Time()).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapPgErr("check date membership", err)
	}
	return true, nil
}

func listByDate(ctx context.Context, db DBTX, d schedule.Date) ([]*reservation.Reservation, error) {
	rows, err := db.Query(ctx,
		`SELECT id, reserve_date, mrn, patient_name, phone, family_count, created_at
		 FROM reservations WHERE reserve_date = $1 ORDER BY seq`, d.Time())
	if err != nil {
		return nil, wrapPgErr("list reservations", err)
	}
	defer rows.Close()

	var out []*reservation.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgErr("iterate reservation rows", err)
	}
	return out, nil
}

func findByPatientAndDate(ctx context.Context, db DBTX, d schedule.Date, mrn string) (*reservation.Reservation, error) {
	rows, err := db.Query(ctx,
		`SELECT id, reserve_date, mrn, patient_name, phone, family_count, created_at
		 FROM reservations WHERE reserve_date = $1 AND mrn = $2 LIMIT 1`, d.Time(), mrn)
	if err != nil {
		return nil, wrapPgErr("find reservation", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, wrapPgErr("find reservation", err)
		}
		return nil, nil
	}
	return scanReservation(rows)
}

func scanReservation(rows pgx.Rows) (*reservation.Reservation, error) {
	var (
		id        uuid.UUID
		date      time.Time
		mrnStr    string
		nameStr   string
		phoneStr  string
		family    int
		createdAt time.Time
	)
	if err := rows.Scan(&id, &date, &mrnStr, &nameStr, &phoneStr, &family, &createdAt); err != nil {
		return nil, wrapPgErr("scan reservation row", err)
	}

	mrn, err := reservation.NewMRN(mrnStr)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt mrn in row "+id.String(), err)
	}
	name, err := reservation.NewPatientName(nameStr)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt patient_name in row "+id.String(), err)
	}
	phone, err := reservation.NewPhone(phoneStr)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt phone in row "+id.String(), err)
	}
	familyCount, err := reservation.NewFamilyCount(family)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt family_count in row "+id.String(), err)
	}

	return reservation.ReconstructReservation(id, schedule.NewDate(date), mrn, name, phone, familyCount, createdAt), nil
}

func wrapPgErr(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return infra.WrapRepoErr(msg, err, infra.KindTimeout)
	}
	return infra.WrapRepoErr(msg, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation
}

var _ shared.Store = (*Store)(nil)
