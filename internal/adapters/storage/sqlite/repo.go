package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores boards, columns and cards in SQLite.
type Repository struct {
	db *sql.DB
}

var _ app.Repository = (*Repository)(nil)

// Open opens or creates a database file and applies migrations.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping reports whether the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS board_columns (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			title TEXT NOT NULL,
			sort_order INTEGER NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			column_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL,
			assignee TEXT NOT NULL DEFAULT '',
			tags_json TEXT NOT NULL DEFAULT '[]',
			due_date TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE,
			FOREIGN KEY(column_id) REFERENCES board_columns(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_board_columns_board_order ON board_columns(board_id, sort_order);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_column_position ON cards(column_id, position);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateBoard inserts a board.
func (r *Repository) CreateBoard(ctx context.Context, b domain.Board) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO boards(id, slug, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.Slug, b.Name, b.Description, ts(b.CreatedAt), ts(b.UpdatedAt))
	return err
}

// UpdateBoard updates a board.
func (r *Repository) UpdateBoard(ctx context.Context, b domain.Board) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE boards SET slug = ?, name = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, b.Slug, b.Name, b.Description, ts(b.UpdatedAt), b.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetBoard returns one board.
func (r *Repository) GetBoard(ctx context.Context, id string) (domain.Board, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, description, created_at, updated_at
		FROM boards WHERE id = ?
	`, id)
	return scanBoard(row)
}

// ListBoards lists boards oldest first.
func (r *Repository) ListBoards(ctx context.Context) ([]domain.Board, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, slug, name, description, created_at, updated_at
		FROM boards ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateColumn inserts a column.
func (r *Repository) CreateColumn(ctx context.Context, c domain.Column) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO board_columns(id, board_id, title, sort_order, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.BoardID, c.Title, c.Order, c.Color, ts(c.CreatedAt), ts(c.UpdatedAt))
	return err
}

// UpdateColumn updates a column.
func (r *Repository) UpdateColumn(ctx context.Context, c domain.Column) error {
	return updateColumn(ctx, r.db, c)
}

// UpdateColumns updates several columns in one transaction.
func (r *Repository) UpdateColumns(ctx context.Context, cols []domain.Column) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, c := range cols {
		if err = updateColumn(ctx, tx, c); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// GetColumn returns one column.
func (r *Repository) GetColumn(ctx context.Context, id string) (domain.Column, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, board_id, title, sort_order, color, created_at, updated_at
		FROM board_columns WHERE id = ?
	`, id)
	return scanColumn(row)
}

// ListColumns lists a board's columns by order.
func (r *Repository) ListColumns(ctx context.Context, boardID string) ([]domain.Column, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, title, sort_order, color, created_at, updated_at
		FROM board_columns WHERE board_id = ?
		ORDER BY sort_order ASC, id ASC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Column{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCard inserts a card.
func (r *Repository) CreateCard(ctx context.Context, c domain.Card) error {
	tagsJSON, err := json.Marshal(nonNilTags(c.Tags))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cards(
			id, board_id, column_id, position, title, description, priority, assignee, tags_json, due_date, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.BoardID,
		c.ColumnID,
		c.Position,
		c.Title,
		c.Description,
		string(c.Priority),
		c.Assignee,
		string(tagsJSON),
		nullableTS(c.DueDate),
		ts(c.CreatedAt),
		ts(c.UpdatedAt),
	)
	return err
}

// UpdateCard updates a card.
func (r *Repository) UpdateCard(ctx context.Context, c domain.Card) error {
	return updateCard(ctx, r.db, c)
}

// UpdateCards updates several cards in one transaction.
func (r *Repository) UpdateCards(ctx context.Context, cards []domain.Card) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, c := range cards {
		if err = updateCard(ctx, tx, c); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// GetCard returns one card.
func (r *Repository) GetCard(ctx context.Context, id string) (domain.Card, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, board_id, column_id, position, title, description, priority, assignee, tags_json, due_date, created_at, updated_at
		FROM cards WHERE id = ?
	`, id)
	return scanCard(row)
}

// ListCards lists a board's cards by column, then position.
func (r *Repository) ListCards(ctx context.Context, boardID string) ([]domain.Card, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, column_id, position, title, description, priority, assignee, tags_json, due_date, created_at, updated_at
		FROM cards WHERE board_id = ?
		ORDER BY column_id ASC, position ASC, created_at ASC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCard removes a card.
func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

type execerContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func updateColumn(ctx context.Context, execer execerContext, c domain.Column) error {
	res, err := execer.ExecContext(ctx, `
		UPDATE board_columns SET title = ?, sort_order = ?, color = ?, updated_at = ?
		WHERE id = ?
	`, c.Title, c.Order, c.Color, ts(c.UpdatedAt), c.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

func updateCard(ctx context.Context, execer execerContext, c domain.Card) error {
	tagsJSON, err := json.Marshal(nonNilTags(c.Tags))
	if err != nil {
		return err
	}
	res, err := execer.ExecContext(ctx, `
		UPDATE cards
		SET column_id = ?, position = ?, title = ?, description = ?, priority = ?, assignee = ?, tags_json = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`,
		c.ColumnID,
		c.Position,
		c.Title,
		c.Description,
		string(c.Priority),
		c.Assignee,
		string(tagsJSON),
		nullableTS(c.DueDate),
		ts(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

func scanBoard(s scanner) (domain.Board, error) {
	var (
		b          domain.Board
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&b.ID, &b.Slug, &b.Name, &b.Description, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Board{}, app.ErrNotFound
		}
		return domain.Board{}, err
	}
	b.CreatedAt = parseTS(createdRaw)
	b.UpdatedAt = parseTS(updatedRaw)
	return b, nil
}

func scanColumn(s scanner) (domain.Column, error) {
	var (
		c          domain.Column
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&c.ID, &c.BoardID, &c.Title, &c.Order, &c.Color, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Column{}, app.ErrNotFound
		}
		return domain.Column{}, err
	}
	c.CreatedAt = parseTS(createdRaw)
	c.UpdatedAt = parseTS(updatedRaw)
	return c, nil
}

func scanCard(s scanner) (domain.Card, error) {
	var (
		c          domain.Card
		priority   string
		tagsRaw    string
		dueRaw     sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(
		&c.ID,
		&c.BoardID,
		&c.ColumnID,
		&c.Position,
		&c.Title,
		&c.Description,
		&priority,
		&c.Assignee,
		&tagsRaw,
		&dueRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Card{}, app.ErrNotFound
		}
		return domain.Card{}, err
	}
	c.Priority = domain.Priority(priority)
	c.DueDate = parseNullTS(dueRaw)
	c.CreatedAt = parseTS(createdRaw)
	c.UpdatedAt = parseTS(updatedRaw)
	if strings.TrimSpace(tagsRaw) == "" {
		tagsRaw = "[]"
	}
	if err := json.Unmarshal([]byte(tagsRaw), &c.Tags); err != nil {
		return domain.Card{}, fmt.Errorf("decode tags_json: %w", err)
	}
	return c, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
