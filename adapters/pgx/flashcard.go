package pgx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lborres/studysync/core"
)

const flashcardColumns = `id, user_id, material_id, question, answer, subject, difficulty, is_ai_generated,
	last_reviewed, next_review, review_count, created_at, updated_at`

func scanFlashcard(row pgx.Row) (*core.Flashcard, error) {
	f := &core.Flashcard{}
	var difficulty string
	err := row.Scan(&f.ID, &f.UserID, &f.MaterialID, &f.Question, &f.Answer, &f.Subject, &difficulty, &f.IsAIGenerated,
		&f.LastReviewed, &f.NextReview, &f.ReviewCount, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.Difficulty = core.Difficulty(difficulty)
	return f, nil
}

func (a *Adapter) CreateFlashcard(ctx context.Context, f *core.Flashcard) error {
	owner, ok := parseID(f.UserID)
	if !ok {
		return fmt.Errorf("failed to create flashcard: invalid owner id %q", f.UserID)
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return err
	}

	q := `INSERT INTO flashcards (user_id, material_id, question, answer, subject, difficulty, is_ai_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err = pool.QueryRow(ctx, q, owner, f.MaterialID, f.Question, f.Answer, f.Subject, string(f.Difficulty), f.IsAIGenerated).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create flashcard: %w", err)
	}
	return nil
}

// CreateFlashcards inserts cards with one COPY. Ids and timestamps are
// assigned here since COPY returns nothing.
func (a *Adapter) CreateFlashcards(ctx context.Context, cards []*core.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}

	owners := make([]uuid.UUID, len(cards))
	for i, f := range cards {
		owner, ok := parseID(f.UserID)
		if !ok {
			return fmt.Errorf("failed to create flashcards: invalid owner id %q", f.UserID)
		}
		owners[i] = owner
	}

	pool, err := a.pool(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ids := make([]uuid.UUID, len(cards))
	for i := range cards {
		ids[i] = uuid.New()
	}

	columns := []string{"id", "user_id", "material_id", "question", "answer", "subject", "difficulty", "is_ai_generated", "created_at", "updated_at"}
	_, err = pool.CopyFrom(ctx, pgx.Identifier{"flashcards"}, columns, pgx.CopyFromSlice(len(cards), func(i int) ([]any, error) {
		f := cards[i]
		return []any{ids[i], owners[i], f.MaterialID, f.Question, f.Answer, f.Subject, string(f.Difficulty), f.IsAIGenerated, now, now}, nil
	}))
	if err != nil {
		return fmt.Errorf("failed to create flashcards: %w", err)
	}

	for i, f := range cards {
		f.ID = ids[i].String()
		f.CreatedAt = now
		f.UpdatedAt = now
	}
	return nil
}

func (a *Adapter) ListFlashcards(ctx context.Context, ownerID string, filter core.FlashcardFilter) ([]*core.Flashcard, error) {
	owner, ok := parseID(ownerID)
	if !ok {
		return []*core.Flashcard{}, nil
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return nil, err
	}

	q := `SELECT ` + flashcardColumns + ` FROM flashcards
		WHERE user_id = $1
		  AND ($2 = '' OR subject = $2)
		  AND ($3 = '' OR material_id = $3)
		ORDER BY created_at DESC`
	rows, err := pool.Query(ctx, q, owner, filter.Subject, filter.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}
	defer rows.Close()

	cards := []*core.Flashcard{}
	for rows.Next() {
		f, err := scanFlashcard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard: %w", err)
		}
		cards = append(cards, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}
	return cards, nil
}

// UpdateFlashcard replaces the editable fields; material_id is never written
func (a *Adapter) UpdateFlashcard(ctx context.Context, f *core.Flashcard) error {
	owner, ok1 := parseID(f.UserID)
	fid, ok2 := parseID(f.ID)
	if !ok1 || !ok2 {
		return core.ErrNotFound
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return err
	}

	q := `UPDATE flashcards SET question = $1, answer = $2, subject = $3, difficulty = $4, updated_at = now()
		WHERE id = $5 AND user_id = $6
		RETURNING updated_at`
	if err := pool.QueryRow(ctx, q, f.Question, f.Answer, f.Subject, string(f.Difficulty), fid, owner).Scan(&f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.ErrNotFound
		}
		return fmt.Errorf("failed to update flashcard: %w", err)
	}
	return nil
}

func (a *Adapter) DeleteFlashcard(ctx context.Context, ownerID, id string) error {
	owner, ok1 := parseID(ownerID)
	fid, ok2 := parseID(id)
	if !ok1 || !ok2 {
		return core.ErrNotFound
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return err
	}

	tag, err := pool.Exec(ctx, `DELETE FROM flashcards WHERE id = $1 AND user_id = $2`, fid, owner)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (a *Adapter) CountFlashcards(ctx context.Context, ownerID string) (int, error) {
	owner, ok := parseID(ownerID)
	if !ok {
		return 0, nil
	}
	pool, err := a.pool(ctx)
	if err != nil {
		return 0, err
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM flashcards WHERE user_id = $1`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count flashcards: %w", err)
	}
	return n, nil
}
