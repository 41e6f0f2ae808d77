// Package postgres implements the storage contracts on PostgreSQL via
// pgx/v5. Request identifiers come from BIGSERIAL sequences, which keeps the
// monotonic-id guarantee across deletions and restarts.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage"
)

// Store is the PostgreSQL storage.Store implementation.
type Store struct {
	pool *pgxpool.Pool

	ledger        *ledgerStore
	deposits      *depositStore
	withdrawals   *withdrawalStore
	verifications *verificationStore
	staff         *staffStore
}

var _ storage.Store = (*Store)(nil)

// Open connects to the database and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{
		pool:          pool,
		ledger:        &ledgerStore{pool: pool},
		deposits:      &depositStore{pool: pool},
		withdrawals:   &withdrawalStore{pool: pool},
		verifications: &verificationStore{pool: pool},
		staff:         &staffStore{pool: pool},
	}, nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			full_name TEXT NOT NULL,
			passport TEXT NOT NULL DEFAULT '',
			balance NUMERIC NOT NULL DEFAULT 0,
			on_hold NUMERIC NOT NULL DEFAULT 0,
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			language TEXT NOT NULL DEFAULT 'ru'
		);
		CREATE TABLE IF NOT EXISTS deposit_requests (
			request_id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount NUMERIC NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS withdrawal_requests (
			request_id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount NUMERIC NOT NULL,
			details TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS verification_requests (
			request_id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			photo_file_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS staff (
			user_id BIGINT PRIMARY KEY,
			full_name TEXT NOT NULL
		);
	`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Ledger() storage.Ledger                      { return s.ledger }
func (s *Store) Deposits() storage.DepositRequests           { return s.deposits }
func (s *Store) Withdrawals() storage.WithdrawalRequests     { return s.withdrawals }
func (s *Store) Verifications() storage.VerificationRequests { return s.verifications }
func (s *Store) Staff() storage.Staff                        { return s.staff }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping probes database connectivity for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type ledgerStore struct {
	pool *pgxpool.Pool
}

func (s *ledgerStore) Get(ctx context.Context, userID int64) (*models.User, error) {
	const query = `
		SELECT user_id, full_name, passport, balance, on_hold, verified, language
		FROM users WHERE user_id = $1
	`
	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&user.ID, &user.FullName, &user.Passport,
		&user.Balance, &user.OnHold, &user.Verified, &user.Language,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *ledgerStore) Upsert(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (user_id, full_name, passport, balance, on_hold, verified, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			passport = EXCLUDED.passport,
			balance = EXCLUDED.balance,
			on_hold = EXCLUDED.on_hold,
			verified = EXCLUDED.verified,
			language = EXCLUDED.language
	`
	_, err := s.pool.Exec(ctx, query,
		user.ID, user.FullName, user.Passport,
		user.Balance, user.OnHold, user.Verified, user.Language,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *ledgerStore) List(ctx context.Context) ([]models.User, error) {
	const query = `
		SELECT user_id, full_name, passport, balance, on_hold, verified, language
		FROM users ORDER BY user_id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Passport, &u.Balance, &u.OnHold, &u.Verified, &u.Language); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type depositStore struct {
	pool *pgxpool.Pool
}

func (s *depositStore) Append(ctx context.Context, req *models.DepositRequest) error {
	const query = `
		INSERT INTO deposit_requests (user_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING request_id
	`
	err := s.pool.QueryRow(ctx, query, req.UserID, req.Amount, req.Status, req.CreatedAt).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("append deposit request: %w", err)
	}
	return nil
}

func (s *depositStore) Get(ctx context.Context, id int64) (*models.DepositRequest, error) {
	const query = `
		SELECT request_id, user_id, amount, status, created_at
		FROM deposit_requests WHERE request_id = $1
	`
	req := &models.DepositRequest{}
	err := s.pool.QueryRow(ctx, query, id).Scan(&req.ID, &req.UserID, &req.Amount, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get deposit request: %w", err)
	}
	return req, nil
}

func (s *depositStore) List(ctx context.Context, status domain.Status) ([]models.DepositRequest, error) {
	rows, err := listRequestRows(ctx, s.pool, "deposit_requests", "request_id, user_id, amount, status, created_at", status)
	if err != nil {
		return nil, fmt.Errorf("list deposit requests: %w", err)
	}
	defer rows.Close()

	var out []models.DepositRequest
	for rows.Next() {
		var r models.DepositRequest
		if err := rows.Scan(&r.ID, &r.UserID, &r.Amount, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deposit request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *depositStore) SetStatus(ctx context.Context, id int64, status domain.Status) error {
	return setRequestStatus(ctx, s.pool, "deposit_requests", id, status)
}

func (s *depositStore) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRequest(ctx, s.pool, "deposit_requests", id)
}

type withdrawalStore struct {
	pool *pgxpool.Pool
}

func (s *withdrawalStore) Append(ctx context.Context, req *models.WithdrawalRequest) error {
	const query = `
		INSERT INTO withdrawal_requests (user_id, amount, details, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING request_id
	`
	err := s.pool.QueryRow(ctx, query, req.UserID, req.Amount, req.Details, req.Status, req.CreatedAt).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("append withdrawal request: %w", err)
	}
	return nil
}

func (s *withdrawalStore) Get(ctx context.Context, id int64) (*models.WithdrawalRequest, error) {
	const query = `
		SELECT request_id, user_id, amount, details, status, created_at
		FROM withdrawal_requests WHERE request_id = $1
	`
	req := &models.WithdrawalRequest{}
	err := s.pool.QueryRow(ctx, query, id).Scan(&req.ID, &req.UserID, &req.Amount, &req.Details, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get withdrawal request: %w", err)
	}
	return req, nil
}

func (s *withdrawalStore) List(ctx context.Context, status domain.Status) ([]models.WithdrawalRequest, error) {
	rows, err := listRequestRows(ctx, s.pool, "withdrawal_requests", "request_id, user_id, amount, details, status, created_at", status)
	if err != nil {
		return nil, fmt.Errorf("list withdrawal requests: %w", err)
	}
	defer rows.Close()

	var out []models.WithdrawalRequest
	for rows.Next() {
		var r models.WithdrawalRequest
		if err := rows.Scan(&r.ID, &r.UserID, &r.Amount, &r.Details, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan withdrawal request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *withdrawalStore) SetStatus(ctx context.Context, id int64, status domain.Status) error {
	return setRequestStatus(ctx, s.pool, "withdrawal_requests", id, status)
}

func (s *withdrawalStore) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRequest(ctx, s.pool, "withdrawal_requests", id)
}

type verificationStore struct {
	pool *pgxpool.Pool
}

func (s *verificationStore) Append(ctx context.Context, req *models.VerificationRequest) error {
	const query = `
		INSERT INTO verification_requests (user_id, photo_file_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING request_id
	`
	err := s.pool.QueryRow(ctx, query, req.UserID, req.PhotoRef, req.Status, req.CreatedAt).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("append verification request: %w", err)
	}
	return nil
}

func (s *verificationStore) Get(ctx context.Context, id int64) (*models.VerificationRequest, error) {
	const query = `
		SELECT request_id, user_id, photo_file_id, status, created_at
		FROM verification_requests WHERE request_id = $1
	`
	req := &models.VerificationRequest{}
	err := s.pool.QueryRow(ctx, query, id).Scan(&req.ID, &req.UserID, &req.PhotoRef, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get verification request: %w", err)
	}
	return req, nil
}

func (s *verificationStore) List(ctx context.Context, status domain.Status) ([]models.VerificationRequest, error) {
	rows, err := listRequestRows(ctx, s.pool, "verification_requests", "request_id, user_id, photo_file_id, status, created_at", status)
	if err != nil {
		return nil, fmt.Errorf("list verification requests: %w", err)
	}
	defer rows.Close()

	var out []models.VerificationRequest
	for rows.Next() {
		var r models.VerificationRequest
		if err := rows.Scan(&r.ID, &r.UserID, &r.PhotoRef, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verification request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *verificationStore) SetStatus(ctx context.Context, id int64, status domain.Status) error {
	return setRequestStatus(ctx, s.pool, "verification_requests", id, status)
}

func (s *verificationStore) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteRequest(ctx, s.pool, "verification_requests", id)
}

type staffStore struct {
	pool *pgxpool.Pool
}

func (s *staffStore) IsMember(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM staff WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check staff membership: %w", err)
	}
	return exists, nil
}

func (s *staffStore) Add(ctx context.Context, member *models.StaffMember) error {
	const query = `
		INSERT INTO staff (user_id, full_name) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, query, member.UserID, member.FullName); err != nil {
		return fmt.Errorf("add staff member: %w", err)
	}
	return nil
}

func (s *staffStore) List(ctx context.Context) ([]models.StaffMember, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id, full_name FROM staff ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var out []models.StaffMember
	for rows.Next() {
		var m models.StaffMember
		if err := rows.Scan(&m.UserID, &m.FullName); err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func listRequestRows(ctx context.Context, pool *pgxpool.Pool, table, columns string, status domain.Status) (pgx.Rows, error) {
	if status == "" {
		return pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY request_id`, columns, table))
	}
	return pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE status = $1 ORDER BY request_id`, columns, table), status)
}

func setRequestStatus(ctx context.Context, pool *pgxpool.Pool, table string, id int64, status domain.Status) error {
	tag, err := pool.Exec(ctx, fmt.Sprintf(`UPDATE %s SET status = $1 WHERE request_id = $2`, table), status, id)
	if err != nil {
		return fmt.Errorf("update %s status: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func deleteRequest(ctx context.Context, pool *pgxpool.Pool, table string, id int64) (bool, error) {
	tag, err := pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE request_id = $1`, table), id)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}
