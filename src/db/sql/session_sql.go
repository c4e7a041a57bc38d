package db

import (
	"context"
	"time"

	"finlink-server/src/errs"
	"finlink-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateSession(ctx context.Context, pool *pgxpool.Pool, userID int64, secretDigest string, expiresAt time.Time) error {
	query := `INSERT INTO sessions (user_id, secret_digest, expires_at) VALUES ($1, $2, $3)`
	_, err := pool.Exec(ctx, query, userID, secretDigest, expiresAt)
	if err != nil {
		return errs.E(errs.KindPersistence, "db.CreateSession", err)
	}
	return nil
}

// GetSessionUser resolves a session secret digest to its user. Expired or
// unknown sessions come back as an auth error, not a nil user.
func GetSessionUser(ctx context.Context, pool *pgxpool.Pool, secretDigest string) (*models.User, error) {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name, u.address, u.city, u.state, u.postal_code,
			u.date_of_birth, u.identity_last4, u.password_hash, u.dwolla_customer_id, u.dwolla_customer_url, u.created_at::text
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.secret_digest = $1 AND s.expires_at > NOW()
	`
	user, err := scanUser(pool.QueryRow(ctx, query, secretDigest))
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return nil, errs.Errorf(errs.KindAuth, "db.GetSessionUser", "session missing or expired")
		}
		return nil, err
	}
	return user, nil
}

func DeleteSession(ctx context.Context, pool *pgxpool.Pool, secretDigest string) error {
	_, err := pool.Exec(ctx, `DELETE FROM sessions WHERE secret_digest = $1`, secretDigest)
	if err != nil {
		return errs.E(errs.KindPersistence, "db.DeleteSession", err)
	}
	return nil
}

func DeleteUserSessions(ctx context.Context, pool *pgxpool.Pool, userID int64) error {
	_, err := pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return errs.E(errs.KindPersistence, "db.DeleteUserSessions", err)
	}
	return nil
}

func DeleteExpiredSessions(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	tag, err := pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, errs.E(errs.KindPersistence, "db.DeleteExpiredSessions", err)
	}
	return tag.RowsAffected(), nil
}
