package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.StateRepo = (*Store)(nil)

// DefaultName is the row used when several instances do not share a database.
const DefaultName = "default"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sitewatch_state (
  name       TEXT PRIMARY KEY,
  snapshot   JSONB NOT NULL,
  last_check TIMESTAMPTZ NULL,
  saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store keeps each snapshot as one JSONB row keyed by name.
type Store struct {
	pool *pgxpool.Pool
	name string
	log  *zap.Logger
}

func New(ctx context.Context, dsn, name string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if name == "" {
		name = DefaultName
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, name: name, log: log}, nil
}

// EnsureSchema creates the state table on a fresh database.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM sitewatch_state WHERE name = $1`, s.name,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewSnapshot(), nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("select snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap.Clone(), nil
}

func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	var lastCheck *time.Time
	if !snap.Meta.LastCheck.IsZero() {
		lc := snap.Meta.LastCheck.UTC()
		lastCheck = &lc
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sitewatch_state (name, snapshot, last_check, saved_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (name) DO UPDATE
		   SET snapshot = EXCLUDED.snapshot,
		       last_check = EXCLUDED.last_check,
		       saved_at = EXCLUDED.saved_at`,
		s.name, raw, lastCheck,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	s.log.Debug("state_saved", zap.String("name", s.name), zap.Int("targets", len(snap.Targets)))
	return nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
