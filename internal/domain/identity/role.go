package identity

// Role is the single authorization input for all ledger and catalog
// operations. A membership binds exactly one role per (tenant, user).
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
)

// IsValid returns true if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleOperator:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Operation identifies a guarded action on tenant-scoped resources
type Operation string

const (
	OpReadInventory  Operation = "inventory:read"
	OpCreateItem     Operation = "item:create"
	OpUpdateItem     Operation = "item:update"
	OpRetireItem     Operation = "item:retire"
	OpAppendLedger   Operation = "ledger:append"
	OpVoidLedger     Operation = "ledger:void"
	OpRecomputeStock Operation = "stock:recompute"
	OpInviteMember   Operation = "member:invite"
	OpManageMembers  Operation = "member:manage"
)

// rolePolicy is the authorization table. A role maps to the set of
// operations it may perform within its own tenant. Tenant isolation is
// enforced separately and runs regardless of role.
var rolePolicy = map[Role]map[Operation]bool{
	RoleOperator: {
		OpReadInventory: true,
		OpCreateItem:    true,
		OpAppendLedger:  true,
	},
	RoleManager: {
		OpReadInventory:  true,
		OpCreateItem:     true,
		OpUpdateItem:     true,
		OpAppendLedger:   true,
		OpVoidLedger:     true,
		OpRecomputeStock: true,
		OpInviteMember:   true,
	},
	RoleAdmin: {
		OpReadInventory:  true,
		OpCreateItem:     true,
		OpUpdateItem:     true,
		OpRetireItem:     true,
		OpAppendLedger:   true,
		OpVoidLedger:     true,
		OpRecomputeStock: true,
		OpInviteMember:   true,
		OpManageMembers:  true,
	},
}

// Can reports whether the role is allowed to perform the operation.
// Unknown roles and unknown operations are always denied.
func (r Role) Can(op Operation) bool {
	perms, ok := rolePolicy[r]
	if !ok {
		return false
	}
	return perms[op]
}
