package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the subset of pgxpool.Pool used by PostgresStore.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

// PostgresStore stores leads in the relational database. Rows are ordered by
// a serial column so concurrent writers from several instances keep a single
// insertion order.
type PostgresStore struct {
	db pgxQuerier
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithQuerier(db pgxQuerier) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts a new row.
func (s *PostgresStore) Append(ctx context.Context, lead Lead) error {
	ctx, span := storeTracer.Start(ctx, "leads.postgres.append")
	defer span.End()

	query := `
		INSERT INTO leads (id, name, email, phone, company, service, category, message, source, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.Exec(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Service,
		lead.Category,
		lead.Message,
		lead.Source,
		string(lead.Status),
		lead.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateLead
		}
		span.RecordError(err)
		return fmt.Errorf("leads: insert failed: %w", err)
	}
	return nil
}

// LoadAll returns every lead in insertion order.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]Lead, error) {
	ctx, span := storeTracer.Start(ctx, "leads.postgres.load_all")
	defer span.End()

	query := `
		SELECT id, name, email, phone, company, service, category, message, source, status, created_at
		FROM leads
		ORDER BY seq
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	defer rows.Close()

	out := []Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate rows: %w", err)
	}
	return out, nil
}

// GetByID fetches a single lead.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `
		SELECT id, name, email, phone, company, service, category, message, source, status, created_at
		FROM leads
		WHERE id = $1
	`
	lead, err := scanLead(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	var status string
	if err := row.Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.Service,
		&lead.Category,
		&lead.Message,
		&lead.Source,
		&status,
		&lead.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, err
		}
		return Lead{}, fmt.Errorf("leads: scan failed: %w", err)
	}
	lead.Status = Status(status)
	lead.CreatedAt = lead.CreatedAt.UTC()
	return lead, nil
}
