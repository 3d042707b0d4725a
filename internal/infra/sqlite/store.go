// Package sqlite persists the date registry and reservation ledger in a
// local SQLite file, the same shape the original shuttle.db used. Write
// transactions take the database lock up front, so an admission's
// check-then-act sequence cannot interleave with another writer.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"shuttle-booking/internal/domain/reservation"
	"shuttle-booking/internal/domain/schedule"
	"shuttle-booking/internal/infra"
	"shuttle-booking/internal/usecase/shared"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reservations (
    id            TEXT PRIMARY KEY,
    reserve_date  TEXT NOT NULL,
    mrn           TEXT NOT NULL,
    patient_name  TEXT NOT NULL,
    phone         TEXT NOT NULL,
    family_count  INTEGER NOT NULL DEFAULT 0 CHECK (family_count IN (0, 1)),
    created_at    INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_date_mrn
    ON reservations (reserve_date, mrn);

CREATE TABLE IF NOT EXISTS available_dates (
    date_value TEXT PRIMARY KEY
);
`

const busyRetries = 3

type Store struct {
	sqlDB        *sql.DB
	queryTimeout time.Duration
}

func Open(path string, queryTimeout time.Duration) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, infra.WrapRepoErr("storage path is required", nil)
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, infra.WrapRepoErr("open sqlite db", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, infra.WrapRepoErr("ping sqlite db", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, infra.WrapRepoErr("ensure schema", err)
	}
	return &Store{sqlDB: sqlDB, queryTimeout: queryTimeout}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
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

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT date_value FROM available_dates ORDER BY date_value`)
	if err != nil {
		return nil, wrapSQLiteErr("list dates", err)
	}
	defer func() { _ = rows.Close() }()

	var dates []schedule.Date
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, wrapSQLiteErr("scan date row", err)
		}
		d, err := schedule.ParseDate(value)
		if err != nil {
			return nil, infra.WrapRepoErr("corrupt date_value "+value, err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapSQLiteErr("iterate date rows", err)
	}
	return dates, nil
}

func (s *Store) AddDate(ctx context.Context, d schedule.Date) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO available_dates (date_value) VALUES (?)`, d.String())
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("date already present", err, infra.KindDuplicateKey)
		}
		return wrapSQLiteErr("add date", err)
	}
	return nil
}

func (s *Store) RemoveDate(ctx context.Context, d schedule.Date) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM available_dates WHERE date_value = ?`, d.String())
	if err != nil {
		return wrapSQLiteErr("remove date", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapSQLiteErr("remove date rows affected", err)
	}
	if affected == 0 {
		return infra.WrapRepoErr("date not present", nil, infra.KindNotFound)
	}
	return nil
}

func (s *Store) HasDate(ctx context.Context, d schedule.Date) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return hasDate(ctx, s.sqlDB, d)
}

func (s *Store) ListByDate(ctx context.Context, d schedule.Date) ([]*reservation.Reservation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return listByDate(ctx, s.sqlDB, d)
}

func (s *Store) FindByPatientAndDate(ctx context.Context, d schedule.Date, mrn string) (*reservation.Reservation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return findByPatientAndDate(ctx, s.sqlDB, d, mrn)
}

func (s *Store) DeleteByCredential(ctx context.Context, mrn, phone string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM reservations WHERE mrn = ? AND phone = ?`, mrn, phone)
	if err != nil {
		return 0, wrapSQLiteErr("delete by credential", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, wrapSQLiteErr("delete by credential rows affected", err)
	}
	return deleted, nil
}

// WithinDate runs fn inside an immediate write transaction. SQLite allows a
// single writer, so the transaction body observes a state no concurrent
// admission can invalidate. Busy errors are retried a few times before
// surfacing as a conflict.
func (s *Store) WithinDate(ctx context.Context, _ schedule.Date, fn func(ctx context.Context, tx shared.Tx) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
		if err != nil {
			if isBusy(err) {
				lastErr = err
				continue
			}
			return wrapSQLiteErr("begin transaction", err)
		}

		err = fn(ctx, &sqliteTx{tx: sqlTx})
		if err == nil {
			if commitErr := sqlTx.Commit(); commitErr == nil {
				return nil
			} else if isBusy(commitErr) {
				lastErr = commitErr
				continue
			} else {
				return wrapSQLiteErr("commit transaction", commitErr)
			}
		}

		if rollbackErr := sqlTx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			return wrapSQLiteErr("rollback transaction", rollbackErr)
		}
		if !isBusy(err) {
			return err
		}
		lastErr = err
	}

	return infra.WrapRepoErr("database busy after retries", lastErr, infra.KindConflict)
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) HasDate(ctx context.Context, d schedule.Date) (bool, error) {
	return hasDate(ctx, t.tx, d)
}

func (t *sqliteTx) ListByDate(ctx context.Context, d schedule.Date) ([]*reservation.Reservation, error) {
	return listByDate(ctx, t.tx, d)
}

func (t *sqliteTx) FindByPatientAndDate(ctx context.Context, d schedule.Date, mrn string) (*reservation.Reservation, error) {
	return findByPatientAndDate(ctx, t.tx, d, mrn)
}

func (t *sqliteTx) Insert(ctx context.Context, r *reservation.Reservation) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO reservations (id, reserve_date, mrn, patient_name, phone, family_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID().String(),
		r.Date().String(),
		r.MRN().String(),
		r.PatientName().String(),
		r.Phone().String(),
		r.FamilyCount().Int(),
		toMillis(r.CreatedAt()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("reservation already present for patient and date", err, infra.KindDuplicateKey)
		}
		return wrapSQLiteErr("insert reservation", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func hasDate(ctx context.Context, q querier, d schedule.Date) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM available_dates WHERE date_value = ?`, d.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapSQLiteErr("check date membership", err)
	}
	return true, nil
}

func listByDate(ctx context.Context, q querier, d schedule.Date) ([]*reservation.Reservation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, reserve_date, mrn, patient_name, phone, family_count, created_at
		 FROM reservations WHERE reserve_date = ? ORDER BY rowid`, d.String())
	if err != nil {
		return nil, wrapSQLiteErr("list reservations", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*reservation.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapSQLiteErr("iterate reservation rows", err)
	}
	return out, nil
}

func findByPatientAndDate(ctx context.Context, q querier, d schedule.Date, mrn string) (*reservation.Reservation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, reserve_date, mrn, patient_name, phone, family_count, created_at
		 FROM reservations WHERE reserve_date = ? AND mrn = ? LIMIT 1`, d.String(), mrn)
	if err != nil {
		return nil, wrapSQLiteErr("find reservation", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, wrapSQLiteErr("find reservation", err)
		}
		return nil, nil
	}
	return scanReservation(rows)
}

// scanReservation rehydrates one row, validating it at the adapter boundary
// instead of trusting whatever the file contains.
func scanReservation(rows *sql.Rows) (*reservation.Reservation, error) {
	var (
		idStr     string
		dateStr   string
		mrnStr    string
		nameStr   string
		phoneStr  string
		family    int
		createdAt int64
	)
	if err := rows.Scan(&idStr, &dateStr, &mrnStr, &nameStr, &phoneStr, &family, &createdAt); err != nil {
		return nil, wrapSQLiteErr("scan reservation row", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt reservation id "+idStr, err)
	}
	date, err := schedule.ParseDate(dateStr)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt reserve_date "+dateStr, err)
	}
	mrn, err := reservation.NewMRN(mrnStr)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt mrn in row "+idStr, err)
	}
	name, err := reservation.NewPatientName(nameStr)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt patient_name in row "+idStr, err)
	}
	phone, err := reservation.NewPhone(phoneStr)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt phone in row "+idStr, err)
	}
	familyCount, err := reservation.NewFamilyCount(family)
	if err != nil {
		return nil, infra.WrapRepoErr("corrupt family_count in row "+idStr, err)
	}

	return reservation.ReconstructReservation(id, date, mrn, name, phone, familyCount, fromMillis(createdAt)), nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func wrapSQLiteErr(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return infra.WrapRepoErr(msg, err, infra.KindTimeout)
	}
	return infra.WrapRepoErr(msg, err)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "database is locked")
}

var _ shared.Store = (*Store)(nil)
