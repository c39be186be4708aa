// Package pg implementa store.Store sobre PostgreSQL usando pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/damont/track/internal/domain/repository"
	"github.com/damont/track/internal/store"
)

func init() {
	store.Register(driver{})
}

type driver struct{}

func (driver) Name() string { return "postgres" }

func (driver) Open(ctx context.Context, cfg store.Config) (store.Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Store implementa store.Store sobre un pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
}

func (s *Store) Clients() repository.ClientRepository             { return &clientRepo{pool: s.pool} }
func (s *Store) Codes() repository.CodeRepository                 { return &codeRepo{pool: s.pool} }
func (s *Store) AccessTokens() repository.AccessTokenRepository   { return &accessTokenRepo{pool: s.pool} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return &refreshTokenRepo{pool: s.pool} }
func (s *Store) Users() repository.UserRepository                 { return &userRepo{pool: s.pool} }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isUniqueViolation detecta duplicados (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scopesToText(scopes []repository.Scope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = string(s)
	}
	return out
}

func textToScopes(raw []string) []repository.Scope {
	out := make([]repository.Scope, len(raw))
	for i, s := range raw {
		out[i] = repository.Scope(s)
	}
	return out
}

// ---- clients ----

type clientRepo struct {
	pool *pgxpool.Pool
}

func (r *clientRepo) Create(ctx context.Context, c *repository.Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO oauth_clients (id, secret_hash, name, description, redirect_uris, allowed_scopes, active, first_party, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.SecretHash, c.Name, c.Description, c.RedirectURIs, scopesToText(c.AllowedScopes),
		c.Active, c.FirstParty, c.OwnerID, c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *clientRepo) GetByID(ctx context.Context, id string) (*repository.Client, error) {
	var c repository.Client
	var scopes []string
	err := r.pool.QueryRow(ctx, `
		SELECT id, secret_hash, name, description, redirect_uris, allowed_scopes, active, first_party, owner_id, created_at, updated_at
		FROM oauth_clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.SecretHash, &c.Name, &c.Description, &c.RedirectURIs, &scopes,
		&c.Active, &c.FirstParty, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.AllowedScopes = textToScopes(scopes)
	return &c, nil
}

// ---- authorization codes ----

type codeRepo struct {
	pool *pgxpool.Pool
}

func (r *codeRepo) Create(ctx context.Context, c *repository.AuthorizationCode) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO oauth_codes (id, code_hash, client_id, user_id, redirect_uri, scopes, state,
			code_challenge, code_challenge_method, used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.CodeHash, c.ClientID, c.UserID, c.RedirectURI, scopesToText(c.Scopes), c.State,
		c.CodeChallenge, c.CodeChallengeMethod, c.Used, c.ExpiresAt, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

const codeColumns = `id, code_hash, client_id, user_id, redirect_uri, scopes, state,
	code_challenge, code_challenge_method, used, expires_at, created_at`

func scanCode(row pgx.Row) (*repository.AuthorizationCode, error) {
	var c repository.AuthorizationCode
	var scopes []string
	err := row.Scan(&c.ID, &c.CodeHash, &c.ClientID, &c.UserID, &c.RedirectURI, &scopes, &c.State,
		&c.CodeChallenge, &c.CodeChallengeMethod, &c.Used, &c.ExpiresAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Scopes = textToScopes(scopes)
	return &c, nil
}

func (r *codeRepo) GetByHash(ctx context.Context, codeHash string) (*repository.AuthorizationCode, error) {
	return scanCode(r.pool.QueryRow(ctx,
		`SELECT `+codeColumns+` FROM oauth_codes WHERE code_hash = $1`, codeHash))
}

// Consume usa un UPDATE condicional: la fila solo se actualiza si used=FALSE
// y no expiró, así el unique winner lo decide Postgres.
func (r *codeRepo) Consume(ctx context.Context, codeHash string, now time.Time) (*repository.AuthorizationCode, error) {
	c, err := scanCode(r.pool.QueryRow(ctx, `
		UPDATE oauth_codes SET used = TRUE
		WHERE code_hash = $1 AND used = FALSE AND expires_at > $2
		RETURNING `+codeColumns, codeHash, now))
	if err == nil {
		return c, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}
	// Cero filas: clasificar el motivo con una lectura.
	existing, gerr := r.GetByHash(ctx, codeHash)
	if gerr != nil {
		return nil, gerr
	}
	if existing.Used {
		return nil, repository.ErrCodeUsed
	}
	return nil, repository.ErrExpired
}

// ---- access tokens ----

type accessTokenRepo struct {
	pool *pgxpool.Pool
}

func (r *accessTokenRepo) Create(ctx context.Context, t *repository.AccessToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO oauth_access_tokens (id, token_hash, client_id, user_id, scopes, revoked, expires_at, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.TokenHash, t.ClientID, t.UserID, scopesToText(t.Scopes), t.Revoked, t.ExpiresAt, t.CreatedAt, t.LastUsedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *accessTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.AccessToken, error) {
	var t repository.AccessToken
	var scopes []string
	err := r.pool.QueryRow(ctx, `
		SELECT id, token_hash, client_id, user_id, scopes, revoked, expires_at, created_at, last_used_at
		FROM oauth_access_tokens WHERE token_hash = $1`, tokenHash,
	).Scan(&t.ID, &t.TokenHash, &t.ClientID, &t.UserID, &scopes, &t.Revoked, &t.ExpiresAt, &t.CreatedAt, &t.LastUsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Scopes = textToScopes(scopes)
	return &t, nil
}

func (r *accessTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE oauth_access_tokens SET revoked = TRUE WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *accessTokenRepo) RevokeByID(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE oauth_access_tokens SET revoked = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *accessTokenRepo) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE oauth_access_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

// ---- refresh tokens ----

type refreshTokenRepo struct {
	pool *pgxpool.Pool
}

func (r *refreshTokenRepo) Create(ctx context.Context, t *repository.RefreshToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO oauth_refresh_tokens (id, token_hash, client_id, user_id, scopes, access_token_id, revoked, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.TokenHash, t.ClientID, t.UserID, scopesToText(t.Scopes), t.AccessTokenID, t.Revoked, t.ExpiresAt, t.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *refreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	var t repository.RefreshToken
	var scopes []string
	err := r.pool.QueryRow(ctx, `
		SELECT id, token_hash, client_id, user_id, scopes, access_token_id, revoked, expires_at, created_at
		FROM oauth_refresh_tokens WHERE token_hash = $1`, tokenHash,
	).Scan(&t.ID, &t.TokenHash, &t.ClientID, &t.UserID, &scopes, &t.AccessTokenID, &t.Revoked, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Scopes = textToScopes(scopes)
	return &t, nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE oauth_refresh_tokens SET revoked = TRUE WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *refreshTokenRepo) SetAccessTokenID(ctx context.Context, id, accessTokenID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE oauth_refresh_tokens SET access_token_id = $2 WHERE id = $1`, id, accessTokenID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ---- users ----

type userRepo struct {
	pool *pgxpool.Pool
}

func (r *userRepo) Create(ctx context.Context, u *repository.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO oauth_users (id, email, password_hash, display_name, active, created_at)
		VALUES ($1, lower($2), $3, $4, $5, $6)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.Active, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, active, created_at
		FROM oauth_users WHERE id = $1`, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, active, created_at
		FROM oauth_users WHERE email = lower($1)`, email))
}

func (r *userRepo) scanOne(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Active, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
