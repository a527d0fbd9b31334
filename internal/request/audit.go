// internal/request/audit.go
//
// Submission audit log.
//
// Context
//   Every Submit call leaves one row in donation_request_audit: who asked
//   which donor, how it ended, and from what kind of client.  The backend
//   owns the requests themselves; this table only answers support
//   questions such as "did my request go through?" and spots clients that
//   hammer the submit button.
//
// Notes
//   •  AuditLog with a nil DB is a no-op, so the portal runs without MySQL.
//   •  Failure detail is stored truncated.  It is never shown to users.
//
//------------------------------------------------------------------------------

package request

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/plasmapioneers/portal/internal/requestinfo"
)

// Migrations creates the audit table.  Idempotent.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS donation_request_audit (
		id           CHAR(36)     NOT NULL PRIMARY KEY,
		donor_id     VARCHAR(64)  NOT NULL,
		requester_id VARCHAR(64)  NOT NULL,
		result       VARCHAR(16)  NOT NULL,
		detail       VARCHAR(255) NOT NULL DEFAULT '',
		device       VARCHAR(16)  NOT NULL DEFAULT '',
		country      CHAR(2)      NOT NULL DEFAULT '',
		created_at   DATETIME(3)  NOT NULL,
		KEY idx_requester (requester_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Attempt is one audit row.
type Attempt struct {
	ID          string    `db:"id"`
	DonorID     string    `db:"donor_id"`
	RequesterID string    `db:"requester_id"`
	Result      Result    `db:"result"`
	Detail      string    `db:"detail"`
	Device      string    `db:"device"`
	Country     string    `db:"country"`
	CreatedAt   time.Time `db:"created_at"`
}

// Auditor records attempts.
type Auditor interface {
	Record(ctx context.Context, a Attempt) error
}

// now is swapped in tests.
var now = time.Now

const maxDetail = 255

// NewAttempt builds an Attempt, pulling client device and country from
// the request context when requestinfo.Enrich ran.
func NewAttempt(ctx context.Context, donorID, requesterID string, res Result, cause error) Attempt {
	a := Attempt{
		ID:          uuid.NewString(),
		DonorID:     donorID,
		RequesterID: requesterID,
		Result:      res,
		CreatedAt:   now().UTC(),
	}
	if cause != nil {
		a.Detail = cause.Error()
		if r := []rune(a.Detail); len(r) > maxDetail {
			a.Detail = string(r[:maxDetail])
		}
	}
	if info := requestinfo.FromContext(ctx); info != nil {
		a.Device = info.UA.Device
		a.Country = info.Geo.CountryISO
	}
	return a
}

// AuditLog writes attempts to MySQL.
type AuditLog struct {
	db *sqlx.DB
}

// NewAuditLog returns an AuditLog on db.  db may be nil.
func NewAuditLog(db *sqlx.DB) *AuditLog { return &AuditLog{db: db} }

// Record inserts a.
func (l *AuditLog) Record(ctx context.Context, a Attempt) error {
	if l == nil || l.db == nil {
		return nil
	}
	const q = `INSERT INTO donation_request_audit
		(id, donor_id, requester_id, result, detail, device, country, created_at)
		VALUES (:id, :donor_id, :requester_id, :result, :detail, :device, :country, :created_at)`
	_, err := l.db.NamedExecContext(ctx, q, a)
	return err
}

// Recent returns requesterID's latest attempts, newest first.
func (l *AuditLog) Recent(ctx context.Context, requesterID string, limit int) ([]Attempt, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []Attempt
	err := l.db.SelectContext(ctx, &out,
		`SELECT id, donor_id, requester_id, result, detail, device, country, created_at
		   FROM donation_request_audit
		  WHERE requester_id = ?
		  ORDER BY created_at DESC
		  LIMIT ?`, requesterID, limit)
	return out, err
}
