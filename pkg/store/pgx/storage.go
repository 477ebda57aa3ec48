package pgx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

// EvidenceDBStore implements the store.EvidenceStore interface using
// PostgreSQL with pgvector for vector similarity search. The underlying
// tables are written by the ingestion pipeline; this store only reads
// them, so no transaction or locking management is needed.
type EvidenceDBStore struct {
	conn pgxIConn
}

// NewEvidenceStore creates an EvidenceDBStore on top of an existing
// connection or pool. Vector types must already be registered on the
// connection (see pgvector-go's RegisterTypes).
func NewEvidenceStore(conn pgxIConn) *EvidenceDBStore {
	return &EvidenceDBStore{conn: conn}
}
