package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roleready/internal/app/db"
	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/randx"
)

// maxCreateAttempts bounds id regeneration when another instance took the same id.
const maxCreateAttempts = 3

const (
	insertRecordSQL = `
INSERT INTO records (id, owner_id, kind, body, created_at)
VALUES ($1, $2, $3, $4, $5)`

	listRecordsSQL = `
SELECT id, owner_id, kind, body, created_at
FROM records
WHERE owner_id = $1 AND kind = $2
ORDER BY created_at, id`
)

// PostgresStore keeps records in the records table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a store backed by pool. Migrations are applied by db.NewPool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, ownerID string, kind Kind, body json.RawMessage) (Record, error) {
	if !kind.Valid() {
		return Record{}, ErrInvalidKind
	}

	for attempt := 1; ; attempt++ {
		rec := Record{
			ID:        randx.TimestampID(),
			OwnerID:   ownerID,
			Kind:      kind,
			Body:      body,
			CreatedAt: time.Now().UTC(),
		}

		_, err := s.pool.Exec(ctx, insertRecordSQL, rec.ID, rec.OwnerID, string(rec.Kind), []byte(rec.Body), rec.CreatedAt)
		if err == nil {
			return rec, nil
		}

		if db.IsUniqueViolation(err) && attempt < maxCreateAttempts {
			logx.Warn("Record id collision, retrying.", "record_id", rec.ID, "attempt", attempt)
			continue
		}
		return Record{}, fmt.Errorf("insert %s record: %w", kind, err)
	}
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, ownerID string, kind Kind) ([]Record, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	rows, err := s.pool.Query(ctx, listRecordsSQL, ownerID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query %s records: %w", kind, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var (
			rec     Record
			rawKind string
			body    []byte
		)
		if err := row.Scan(&rec.ID, &rec.OwnerID, &rawKind, &body, &rec.CreatedAt); err != nil {
			return Record{}, err
		}
		rec.Kind = Kind(rawKind)
		rec.Body = body
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s records: %w", kind, err)
	}

	if out == nil {
		out = []Record{}
	}
	return out, nil
}
