package sessionstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resume-platform/internal/runtime/session"
)

// PGStore PostgreSQL 会话存储：gob 字节为权威内容（bytea），
// JSON 镜像存 jsonb 供 SQL 侧检查，摘要字段单列存储供列表查询。
type PGStore struct {
	pool *pgxpool.Pool
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS resume_sessions (
	session_id  TEXT PRIMARY KEY,
	record      BYTEA NOT NULL,
	record_json JSONB NOT NULL,
	name        TEXT,
	mode        TEXT NOT NULL,
	turn_count  INT NOT NULL,
	model       TEXT,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

// NewPGStore 连接数据库并确保表存在
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Close 关闭连接池
func (s *PGStore) Close() {
	s.pool.Close()
}

// Save 实现 Store.Save，存在即覆盖
func (s *PGStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.SessionID == "" {
		return fmt.Errorf("record must have a session id")
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(record); err != nil {
		return fmt.Errorf("encode session %s: %w", record.SessionID, err)
	}
	mirror, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session mirror %s: %w", record.SessionID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO resume_sessions
			(session_id, record, record_json, name, mode, turn_count, model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO UPDATE SET
			record = EXCLUDED.record,
			record_json = EXCLUDED.record_json,
			name = EXCLUDED.name,
			mode = EXCLUDED.mode,
			turn_count = EXCLUDED.turn_count,
			model = EXCLUDED.model,
			updated_at = EXCLUDED.updated_at`,
		record.SessionID, buf.Bytes(), mirror, record.Name, record.Mode,
		len(record.History), record.ModelConfig.Model, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session %s: %w", record.SessionID, err)
	}
	return nil
}

// Load 实现 Store.Load，不存在返回 (nil, nil)
func (s *PGStore) Load(ctx context.Context, sessionID string) (*session.Record, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM resume_sessions WHERE session_id = $1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var record session.Record
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &record, nil
}

// List 实现 Store.List，按更新时间倒序
func (s *PGStore) List(ctx context.Context) ([]session.Summary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, COALESCE(name, ''), mode, turn_count, COALESCE(model, ''), created_at, updated_at
		FROM resume_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []session.Summary
	for rows.Next() {
		var sum session.Summary
		if err := rows.Scan(&sum.SessionID, &sum.Name, &sum.Mode, &sum.TurnCount,
			&sum.Model, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete 实现 Store.Delete
func (s *PGStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM resume_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return tag.RowsAffected() > 0, nil
}
