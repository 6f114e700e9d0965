package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const initSchema = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	id         BIGSERIAL PRIMARY KEY,
	user_id    TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversation_turns_user_created_idx
	ON conversation_turns (user_id, created_at);
`

// PostgresStore persists conversation history in a single turns table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}
	if _, err := pool.Exec(ctx, initSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to init conversation schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Append(ctx context.Context, userID, role, content string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_turns (user_id, role, content) VALUES ($1, $2, $3)`,
		userID, role, content)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentContext(ctx context.Context, userID string, window int) (string, error) {
	records, err := s.tail(ctx, userID, window)
	if err != nil {
		return "", err
	}
	return Transcript(records), nil
}

func (s *PostgresStore) Summary(ctx context.Context, userID string, window int) (string, error) {
	records, err := s.tail(ctx, userID, window)
	if err != nil {
		return "", err
	}
	return Transcript(records), nil
}

func (s *PostgresStore) tail(ctx context.Context, userID string, window int) ([]TurnRecord, error) {
	if window <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT role, content, created_at FROM conversation_turns
		 WHERE user_id = $1 ORDER BY id DESC LIMIT $2`,
		userID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		r := TurnRecord{UserID: userID}
		if err := rows.Scan(&r.Role, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}

	// Query returned newest first; restore chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *PostgresStore) SweepByAge(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_turns WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("age sweep failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) SweepByCapacity(ctx context.Context, maxSessions int) (int, error) {
	if maxSessions <= 0 {
		return 0, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM conversation_turns
		 GROUP BY user_id ORDER BY min(id) DESC OFFSET $1`,
		maxSessions)
	if err != nil {
		return 0, fmt.Errorf("capacity sweep failed: %w", err)
	}
	defer rows.Close()

	var evict []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("capacity sweep scan failed: %w", err)
		}
		evict = append(evict, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("capacity sweep read failed: %w", err)
	}
	if len(evict) == 0 {
		return 0, nil
	}

	if _, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_turns WHERE user_id = ANY($1)`, evict); err != nil {
		return 0, fmt.Errorf("capacity sweep delete failed: %w", err)
	}
	return len(evict), nil
}

func (s *PostgresStore) ClearUser(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_turns WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear user history: %w", err)
	}
	return nil
}

func (s *PostgresStore) SessionCount(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(DISTINCT user_id) FROM conversation_turns`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
