package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"aisnippets/internal/domain"

	"github.com/google/uuid"
)

const snippetColumns = "id, text, summary, created_at, updated_at"

func (d *Database) Create(ctx context.Context, data domain.CreateSnippet) (*domain.Snippet, error) {
	now := time.Now().UTC()

	snippet := domain.Snippet{
		ID:        uuid.NewString(),
		Text:      data.Text,
		Summary:   data.Summary,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `insert into snippets (id, text, summary, created_at, updated_at)
	values (?, ?, ?, ?, ?)`

	_, err := d.db.ExecContext(ctx, query,
		snippet.ID, snippet.Text, snippet.Summary, snippet.CreatedAt, snippet.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert snippet: %w", err)
	}

	return &snippet, nil
}

func (d *Database) FindByID(ctx context.Context, id string) (*domain.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	query := "select " + snippetColumns + " from snippets where id = ?"

	var s domain.Snippet
	err := d.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.Text, &s.Summary, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &s, nil
}

func (d *Database) FindAll(ctx context.Context) ([]domain.Snippet, error) {
	query := "select " + snippetColumns + " from snippets order by created_at desc, rowid desc"

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "FindAll")
		}
	}()

	snippets := []domain.Snippet{}
	for rows.Next() {
		var s domain.Snippet
		if err = rows.Scan(&s.ID, &s.Text, &s.Summary, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		snippets = append(snippets, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return snippets, nil
}

func (d *Database) Update(
	ctx context.Context,
	id string,
	data domain.UpdateSnippet,
) (*domain.Snippet, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if data.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *data.Text)
	}
	if data.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, *data.Summary)
	}
	args = append(args, id)

	query := "update snippets set " + strings.Join(sets, ", ") + " where id = ?"

	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update snippet: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return d.FindByID(ctx, id)
}

func (d *Database) Delete(ctx context.Context, id string) (bool, error) {
	query := "delete from snippets where id = ?"

	res, err := d.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete snippet: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected == 1, nil
}
