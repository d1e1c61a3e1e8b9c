package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type tokenRow struct {
	ID        string `db:"id"`
	Service   string `db:"service"`
	Token     string `db:"token"`
	Secret    string `db:"secret"`
	CreatedAt int64  `db:"created_at"`
}

// SQLRepository keeps pending tokens in Postgres or SQLite.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository wraps an open connection; the schema comes from db.Migrate.
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Insert(ctx context.Context, t PendingRequestToken) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO pending_request_tokens (id, service, token, secret, created_at)
		 VALUES (:id, :service, :token, :secret, :created_at)`,
		tokenRow{
			ID:        t.ID.String(),
			Service:   t.Service,
			Token:     t.Token,
			Secret:    t.Secret,
			CreatedAt: t.CreatedAt.Unix(),
		})
	if apperrors.IsUniqueViolation(err) {
		return apperrors.ErrDuplicateToken
	}
	return err
}

func (r *SQLRepository) FindActive(ctx context.Context, service, token string, notBefore time.Time) (*PendingRequestToken, error) {
	var row tokenRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(
		`SELECT id, service, token, secret, created_at
		   FROM pending_request_tokens
		  WHERE service = ? AND token = ? AND created_at > ?
		  ORDER BY created_at DESC
		  LIMIT 1`), service, token, notBefore.Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	return &PendingRequestToken{
		ID:        id,
		Service:   row.Service,
		Token:     row.Token,
		Secret:    row.Secret,
		CreatedAt: time.Unix(row.CreatedAt, 0),
	}, nil
}

func (r *SQLRepository) Delete(ctx context.Context, service, token string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM pending_request_tokens WHERE service = ? AND token = ?`), service, token)
	return err
}

func (r *SQLRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`DELETE FROM pending_request_tokens WHERE created_at <= ?`), cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
