// internal/component/services.go
package component

import (
	"github.com/jmoiron/sqlx"

	"github.com/plasmapioneers/portal/internal/acl"
	"github.com/plasmapioneers/portal/internal/backend"
	"github.com/plasmapioneers/portal/internal/config"
	"github.com/plasmapioneers/portal/internal/donor"
	"github.com/plasmapioneers/portal/internal/notify"
	"github.com/plasmapioneers/portal/internal/request"
)

// Services exposes process-wide resources to Components during Init.
type Services interface {
	GetConfig() *config.Config
	GetDB() *sqlx.DB // nil when auditing is disabled
	GetBackend() *backend.Client
	GetDonors() *donor.Cache
	GetDrafts() *request.Drafts
	GetFeed() *notify.Feed
	GetAudit() *request.AuditLog
	GetPolicy() acl.Policy
}

// Bundle is the plain Services implementation built by main.
type Bundle struct {
	Config  *config.Config
	DB      *sqlx.DB
	Backend *backend.Client
	Donors  *donor.Cache
	Drafts  *request.Drafts
	Feed    *notify.Feed
	Audit   *request.AuditLog
	Policy  acl.Policy
}

var _ Services = (*Bundle)(nil)

func (b *Bundle) GetConfig() *config.Config   { return b.Config }
func (b *Bundle) GetDB() *sqlx.DB             { return b.DB }
func (b *Bundle) GetBackend() *backend.Client { return b.Backend }
func (b *Bundle) GetDonors() *donor.Cache     { return b.Donors }
func (b *Bundle) GetDrafts() *request.Drafts  { return b.Drafts }
func (b *Bundle) GetFeed() *notify.Feed       { return b.Feed }
func (b *Bundle) GetAudit() *request.AuditLog { return b.Audit }
func (b *Bundle) GetPolicy() acl.Policy       { return b.Policy }
