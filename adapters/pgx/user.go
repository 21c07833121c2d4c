package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lborres/studysync/core"
)

const uniqueViolation = "23505"

func (a *Adapter) CreateUser(ctx context.Context, user *core.User) error {
	pool, err := a.pool(ctx)
	if err != nil {
		return err
	}

	q := `INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	err = pool.QueryRow(ctx, q, user.Email, user.Name, user.PasswordHash).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (a *Adapter) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return a.getUser(ctx, `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE id = $1`, uid)
}

func (a *Adapter) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return a.getUser(ctx, `SELECT id, email, name, password_hash, created_at, updated_at FROM users WHERE email = $1`, email)
}

func (a *Adapter) getUser(ctx context.Context, q string, arg any) (*core.User, error) {
	pool, err := a.pool(ctx)
	if err != nil {
		return nil, err
	}

	user := &core.User{}
	err = pool.QueryRow(ctx, q, arg).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
