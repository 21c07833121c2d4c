package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lborres/studysync/core"
)

const materialColumns = `id, user_id, title, subject, content, tags, ai_summary, created_at, updated_at`

func scanMaterial(row pgx.Row) (*core.Material, error) {
	m := &core.Material{}
	err := row.Scan(&m.ID, &m.UserID, &m.Title, &m.Subject, &m.Content, &m.Tags, &m.AISummary, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m, nil
}

func (a *Adapter) CreateMaterial(ctx context.Context, m *core.Material) error {
	owner, ok := parseID(m.UserID)
	if !ok {
		return fmt.Errorf("failed to create material: invalid owner id %q", m.UserID)
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return err
	}

	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}

	q := `INSERT INTO materials (user_id, title, subject, content, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	if err := pool.QueryRow(ctx, q, owner, m.Title, m.Subject, m.Content, tags).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create material: %w", err)
	}
	return nil
}

func (a *Adapter) GetMaterial(ctx context.Context, ownerID, id string) (*core.Material, error) {
	owner, ok1 := parseID(ownerID)
	mid, ok2 := parseID(id)
	if !ok1 || !ok2 {
		return nil, core.ErrNotFound
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return nil, err
	}

	q := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1 AND user_id = $2`
	m, err := scanMaterial(pool.QueryRow(ctx, q, mid, owner))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return m, nil
}

// ListMaterials matches search case-insensitively against title, content
// and tags. LIKE metacharacters in search are matched literally.
func (a *Adapter) ListMaterials(ctx context.Context, ownerID string, filter core.MaterialFilter) ([]*core.Material, error) {
	owner, ok := parseID(ownerID)
	if !ok {
		return []*core.Material{}, nil
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return nil, err
	}

	q := `SELECT ` + materialColumns + ` FROM materials
		WHERE user_id = $1
		  AND ($2 = '' OR subject = $2)
		  AND ($3 = '' OR title ILIKE $3 OR content ILIKE $3 OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $3))
		ORDER BY created_at DESC`
	rows, err := pool.Query(ctx, q, owner, filter.Subject, containsPattern(filter.Search))
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	defer rows.Close()

	materials := []*core.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	return materials, nil
}

func (a *Adapter) UpdateMaterial(ctx context.Context, m *core.Material) error {
	owner, ok1 := parseID(m.UserID)
	mid, ok2 := parseID(m.ID)
	if !ok1 || !ok2 {
		return core.ErrNotFound
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return err
	}

	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}

	q := `UPDATE materials SET title = $1, subject = $2, content = $3, tags = $4, updated_at = now()
		WHERE id = $5 AND user_id = $6
		RETURNING updated_at`
	if err := pool.QueryRow(ctx, q, m.Title, m.Subject, m.Content, tags, mid, owner).Scan(&m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.ErrNotFound
		}
		return fmt.Errorf("failed to update material: %w", err)
	}
	return nil
}

func (a *Adapter) SetMaterialSummary(ctx context.Context, ownerID, id, summary string) error {
	owner, ok1 := parseID(ownerID)
	mid, ok2 := parseID(id)
	if !ok1 || !ok2 {
		return core.ErrNotFound
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return err
	}

	tag, err := pool.Exec(ctx, `UPDATE materials SET ai_summary = $1, updated_at = now() WHERE id = $2 AND user_id = $3`, summary, mid, owner)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (a *Adapter) DeleteMaterial(ctx context.Context, ownerID, id string) error {
	owner, ok1 := parseID(ownerID)
	mid, ok2 := parseID(id)
	if !ok1 || !ok2 {
		return core.ErrNotFound
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return err
	}

	tag, err := pool.Exec(ctx, `DELETE FROM materials WHERE id = $1 AND user_id = $2`, mid, owner)
	if err != nil {
		return fmt.Errorf("failed to delete material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (a *Adapter) CountMaterials(ctx context.Context, ownerID string) (int, error) {
	owner, ok := parseID(ownerID)
	if !ok {
		return 0, nil
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM materials WHERE user_id = $1`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count materials: %w", err)
	}
	return n, nil
}
