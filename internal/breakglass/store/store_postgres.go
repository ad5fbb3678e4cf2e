package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/models"
	policymodels "github.com/Vumbi2018/lgis-sub001/internal/policy/models"
)

// PostgresStore persists break-glass requests in PostgreSQL. Transition
// guards are enforced by the database through conditional UPDATEs checking
// the expected pre-state, not by application locks, so multiple server
// processes can race safely.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed break-glass store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `
	id, user_id, incident_ref, justification,
	scope_entities, scope_permissions, duration_seconds,
	status, created_at,
	authorizer_id, approved_at, expires_at,
	denied_at, denial_reason,
	revoked_at, revocation_reason
`

func (s *PostgresStore) Create(ctx context.Context, req *models.Request) error {
	if req == nil {
		return fmt.Errorf("break-glass request is required")
	}
	entities, err := json.Marshal(req.Scope.Entities)
	if err != nil {
		return fmt.Errorf("marshal scope entities: %w", err)
	}
	permissions, err := json.Marshal(req.Scope.Permissions)
	if err != nil {
		return fmt.Errorf("marshal scope permissions: %w", err)
	}
	query := `
		INSERT INTO breakglass_requests (
			id, user_id, incident_ref, justification,
			scope_entities, scope_permissions, duration_seconds,
			status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		req.ID,
		req.UserID,
		req.IncidentRef,
		req.Justification,
		entities,
		permissions,
		int64(req.Duration/time.Second),
		string(req.Status),
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create break-glass request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM breakglass_requests WHERE id = $1`
	req, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get break-glass request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM breakglass_requests WHERE user_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list break-glass requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan break-glass request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate break-glass requests: %w", err)
	}
	return requests, nil
}

func (s *PostgresStore) Approve(ctx context.Context, id, authorizerID string, approvedAt, expiresAt time.Time) error {
	query := `
		UPDATE breakglass_requests
		SET status = $3, authorizer_id = $4, approved_at = $5, expires_at = $6
		WHERE id = $1 AND status = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		id, string(models.StatusPending),
		string(models.StatusApproved), authorizerID, approvedAt, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("approve break-glass request: %w", err)
	}
	return s.checkTransition(ctx, res, id)
}

func (s *PostgresStore) Deny(ctx context.Context, id, authorizerID string, deniedAt time.Time, reason string) error {
	query := `
		UPDATE breakglass_requests
		SET status = $3, authorizer_id = $4, denied_at = $5, denial_reason = $6
		WHERE id = $1 AND status = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		id, string(models.StatusPending),
		string(models.StatusDenied), authorizerID, deniedAt, reason,
	)
	if err != nil {
		return fmt.Errorf("deny break-glass request: %w", err)
	}
	return s.checkTransition(ctx, res, id)
}

func (s *PostgresStore) Revoke(ctx context.Context, id, actorID string, revokedAt time.Time, reason string) error {
	// expires_at stays untouched; revocation only stops enforcement early.
	query := `
		UPDATE breakglass_requests
		SET status = $3, revoked_at = $4, revocation_reason = $5
		WHERE id = $1 AND status = $2 AND expires_at > $4
	`
	res, err := s.db.ExecContext(ctx, query,
		id, string(models.StatusApproved),
		string(models.StatusRevoked), revokedAt, reason,
	)
	if err != nil {
		return fmt.Errorf("revoke break-glass request: %w", err)
	}
	_ = actorID // recorded in the audit trail, not on the row
	return s.checkTransition(ctx, res, id)
}

func (s *PostgresStore) Expire(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE breakglass_requests
		SET status = $3
		WHERE id = $1 AND status = $2 AND expires_at <= $4
	`
	res, err := s.db.ExecContext(ctx, query,
		id, string(models.StatusApproved),
		string(models.StatusExpired), now,
	)
	if err != nil {
		return false, fmt.Errorf("expire break-glass request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("expire break-glass request rows: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if current.Status == models.StatusExpired {
		// Idempotent: already expired, nothing to do.
		return false, nil
	}
	return false, ErrConflict
}

func (s *PostgresStore) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		UPDATE breakglass_requests
		SET status = $2
		WHERE status = $1 AND expires_at <= $3
		RETURNING id
	`
	rows, err := s.db.QueryContext(ctx, query,
		string(models.StatusApproved), string(models.StatusExpired), now,
	)
	if err != nil {
		return nil, fmt.Errorf("expire due break-glass requests: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired request id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired request ids: %w", err)
	}
	return ids, nil
}

// checkTransition distinguishes a missing row from a lost CAS race after a
// zero-row conditional update.
func (s *PostgresStore) checkTransition(ctx context.Context, res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

type requestRow interface {
	Scan(dest ...any) error
}

func scanRequest(row requestRow) (*models.Request, error) {
	var (
		req              models.Request
		status           string
		entitiesJSON     []byte
		permissionsJSON  []byte
		durationSeconds  int64
		authorizerID     sql.NullString
		approvedAt       sql.NullTime
		expiresAt        sql.NullTime
		deniedAt         sql.NullTime
		revokedAt        sql.NullTime
		denialReason     sql.NullString
		revocationReason sql.NullString
	)
	if err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.IncidentRef,
		&req.Justification,
		&entitiesJSON,
		&permissionsJSON,
		&durationSeconds,
		&status,
		&req.CreatedAt,
		&authorizerID,
		&approvedAt,
		&expiresAt,
		&deniedAt,
		&denialReason,
		&revokedAt,
		&revocationReason,
	); err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		req.ApprovedAt = &approvedAt.Time
	}
	if expiresAt.Valid {
		req.ExpiresAt = &expiresAt.Time
	}
	if deniedAt.Valid {
		req.DeniedAt = &deniedAt.Time
	}
	if revokedAt.Valid {
		req.RevokedAt = &revokedAt.Time
	}

	var entities []policymodels.EntityType
	if len(entitiesJSON) > 0 {
		if err := json.Unmarshal(entitiesJSON, &entities); err != nil {
			return nil, fmt.Errorf("unmarshal scope entities: %w", err)
		}
	}
	var permissions []string
	if len(permissionsJSON) > 0 {
		if err := json.Unmarshal(permissionsJSON, &permissions); err != nil {
			return nil, fmt.Errorf("unmarshal scope permissions: %w", err)
		}
	}

	req.Scope = models.Scope{Entities: entities, Permissions: permissions}
	req.Duration = time.Duration(durationSeconds) * time.Second
	req.Status = models.Status(status)
	req.AuthorizerID = authorizerID.String
	req.DenialReason = denialReason.String
	req.RevocationReason = revocationReason.String
	return &req, nil
}

var _ Store = (*PostgresStore)(nil)
