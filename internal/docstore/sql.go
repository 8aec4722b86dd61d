package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mailcanvas/internal/domain"
)

// dialect captures what differs between the SQL drivers.
type dialect struct {
	driverName   string
	schema       string // CREATE TABLE with a %s for the table name
	numberedArgs bool   // $1, $2 placeholders instead of ?
}

// rebind rewrites ? placeholders for drivers that number their arguments.
func (d dialect) rebind(query string) string {
	if !d.numberedArgs {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sqlStore is the shared TemplateStore for MySQL, Postgres and SQLite.
type sqlStore struct {
	d     dialect
	db    *sql.DB
	table string
	log   *zap.Logger
}

func openSQL(ctx context.Context, d dialect, dsn, table string, log *zap.Logger) (*sqlStore, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driverName, err)
	}
	if d.driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(10 * time.Minute)
	}

	s := &sqlStore{d: d, db: db, table: table, log: log}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("document store ready", zap.String("table", table))
	return s, nil
}

func (s *sqlStore) ensureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(s.d.schema, s.table)); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

func (s *sqlStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.d.rebind(fmt.Sprintf(query, s.table)), args...)
}

func (s *sqlStore) SaveTemplate(ctx context.Context, name string, content []domain.CanvasBlock, templateID string) (*domain.SaveResult, error) {
	if content == nil {
		content = []domain.CanvasBlock{}
	}
	data, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	now := time.Now().UTC()

	if templateID != "" {
		res, err := s.exec(ctx, `UPDATE %s SET name = ?, content = ?, updated_at = ? WHERE id = ?`,
			name, string(data), now, templateID)
		if err != nil {
			return nil, fmt.Errorf("update template: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return &domain.SaveResult{ID: templateID, UpdatedAt: now}, nil
		}
	} else {
		templateID = uuid.NewString()
	}

	_, err = s.exec(ctx, `INSERT INTO %s (id, name, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		templateID, name, string(data), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	s.log.Debug("template inserted", zap.String("id", templateID))
	return &domain.SaveResult{ID: templateID, UpdatedAt: now}, nil
}

func (s *sqlStore) LoadTemplate(ctx context.Context, id string) (*domain.Template, error) {
	t := &domain.Template{}
	var content string
	err := s.db.QueryRowContext(ctx,
		s.d.rebind(fmt.Sprintf(`SELECT id, name, content, created_at, updated_at FROM %s WHERE id = ?`, s.table)), id,
	).Scan(&t.ID, &t.Name, &content, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load template %s: %w", id, domain.ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if err := json.Unmarshal([]byte(content), &t.Content); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", id, err)
	}
	if t.Content == nil {
		t.Content = []domain.CanvasBlock{}
	}
	return t, nil
}

func (s *sqlStore) ListTemplates(ctx context.Context) ([]domain.TemplateSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, name, updated_at FROM %s ORDER BY updated_at DESC`, s.table))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.TemplateSummary
	for rows.Next() {
		var t domain.TemplateSummary
		if err := rows.Scan(&t.ID, &t.Name, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *sqlStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM %s WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete template %s: %w", id, domain.ErrTemplateNotFound)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
