package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/craftledger/backend/internal/domain/shared"
)

// TenantStatus represents the lifecycle status of a tenant
type TenantStatus string

const (
	TenantStatusTrial    TenantStatus = "trial"
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// IsValid returns true if the status is one of the known statuses
func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantStatusTrial, TenantStatusActive, TenantStatusInactive:
		return true
	}
	return false
}

var tenantSlugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Tenant represents one customer organization. It is the isolation
// boundary for every catalog and ledger row. Tenants are never hard
// deleted; deactivation is a status change only.
type Tenant struct {
	shared.BaseAggregateRoot
	Slug     string       `gorm:"type:varchar(63);not null;uniqueIndex"`
	Name     string       `gorm:"type:varchar(200);not null"`
	Status   TenantStatus `gorm:"type:varchar(20);not null;default:'trial'"`
	Settings string       `gorm:"type:text;not null;default:'{}'"` // free-form JSON settings map
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new tenant in trial status
func NewTenant(slug, name string) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if err := validateTenantSlug(slug); err != nil {
		return nil, err
	}
	if err := validateTenantName(name); err != nil {
		return nil, err
	}

	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Slug:              slug,
		Name:              name,
		Status:            TenantStatusTrial,
		Settings:          "{}",
	}, nil
}

// Rename updates the tenant's display name
func (t *Tenant) Rename(name string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}
	t.Name = name
	t.UpdatedAt = time.Now()
	return nil
}

// Activate transitions the tenant out of trial
func (t *Tenant) Activate() {
	t.Status = TenantStatusActive
	t.UpdatedAt = time.Now()
}

// Deactivate soft-disables the tenant. All writes for the tenant are
// rejected while inactive; historical data stays in place.
func (t *Tenant) Deactivate() {
	t.Status = TenantStatusInactive
	t.UpdatedAt = time.Now()
}

// IsWritable returns true if ledger and catalog writes are allowed
func (t *Tenant) IsWritable() bool {
	return t.Status == TenantStatusTrial || t.Status == TenantStatusActive
}

// UpdateSettings replaces the free-form settings document
func (t *Tenant) UpdateSettings(settings string) error {
	if settings == "" {
		settings = "{}"
	}
	if len(settings) > 65535 {
		return shared.NewDomainError("INVALID_SETTINGS", "Settings document too large")
	}
	t.Settings = settings
	t.UpdatedAt = time.Now()
	return nil
}

func validateTenantSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Tenant slug cannot be empty")
	}
	if len(slug) > 63 {
		return shared.NewDomainError("INVALID_SLUG", "Tenant slug cannot exceed 63 characters")
	}
	if !tenantSlugPattern.MatchString(slug) {
		return shared.NewDomainError("INVALID_SLUG", "Tenant slug must be lowercase alphanumeric with hyphens")
	}
	return nil
}

func validateTenantName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}
