package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
)

// PostgresStore persists field policy rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed policy store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, entityType models.EntityType, fieldName string) (*models.FieldPolicy, error) {
	query := `
		SELECT entity_type, field_name, field_kind,
		       public_level, officer_level, manager_level, admin_level, break_glass_level,
		       created_at, updated_at
		FROM field_policies
		WHERE entity_type = $1 AND field_name = $2
	`
	row, err := scanPolicy(s.db.QueryRowContext(ctx, query, string(entityType), fieldName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get field policy: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) List(ctx context.Context, entityType models.EntityType) ([]*models.FieldPolicy, error) {
	query := `
		SELECT entity_type, field_name, field_kind,
		       public_level, officer_level, manager_level, admin_level, break_glass_level,
		       created_at, updated_at
		FROM field_policies
		WHERE entity_type = $1
		ORDER BY field_name
	`
	rows, err := s.db.QueryContext(ctx, query, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("list field policies: %w", err)
	}
	defer rows.Close()

	var policies []*models.FieldPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field policy: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field policies: %w", err)
	}
	return policies, nil
}

// Upsert replaces the whole row in a single statement so the five role
// columns are never visible partially applied.
func (s *PostgresStore) Upsert(ctx context.Context, policy *models.FieldPolicy) error {
	if policy == nil {
		return fmt.Errorf("field policy is required")
	}
	query := `
		INSERT INTO field_policies (
			entity_type, field_name, field_kind,
			public_level, officer_level, manager_level, admin_level, break_glass_level,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (entity_type, field_name) DO UPDATE SET
			field_kind        = EXCLUDED.field_kind,
			public_level      = EXCLUDED.public_level,
			officer_level     = EXCLUDED.officer_level,
			manager_level     = EXCLUDED.manager_level,
			admin_level       = EXCLUDED.admin_level,
			break_glass_level = EXCLUDED.break_glass_level,
			updated_at        = now()
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		string(policy.EntityType),
		policy.FieldName,
		string(policy.FieldKind),
		string(policy.Public),
		string(policy.Officer),
		string(policy.Manager),
		string(policy.Admin),
		string(policy.BreakGlass),
	).Scan(&policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert field policy: %w", err)
	}
	return nil
}

type policyRow interface {
	Scan(dest ...any) error
}

func scanPolicy(row policyRow) (*models.FieldPolicy, error) {
	var (
		p          models.FieldPolicy
		entityType string
		fieldKind  string
		levels     [5]string
	)
	if err := row.Scan(
		&entityType,
		&p.FieldName,
		&fieldKind,
		&levels[0], &levels[1], &levels[2], &levels[3], &levels[4],
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.EntityType = models.EntityType(entityType)
	p.FieldKind = models.FieldKind(fieldKind)
	p.Public = models.AccessLevel(levels[0])
	p.Officer = models.AccessLevel(levels[1])
	p.Manager = models.AccessLevel(levels[2])
	p.Admin = models.AccessLevel(levels[3])
	p.BreakGlass = models.AccessLevel(levels[4])
	return &p, nil
}

var _ Store = (*PostgresStore)(nil)
