package engine

import "github.com/roach88/timelockidx/internal/ir"

// Role names a permission the engine checks before a state change.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleProposer  Role = "proposer"
	RoleExecutor  Role = "executor"
	RoleCanceller Role = "canceller"
)

// Roles lists the initial members of each role.
// Including ir.ZeroAddress in a list opens that role to every caller.
type Roles struct {
	Admin      []ir.Address
	Proposers  []ir.Address
	Executors  []ir.Address
	Cancellers []ir.Address
}

type roleTable map[Role]map[ir.Address]struct{}

func newRoleTable(r Roles) roleTable {
	t := roleTable{
		RoleAdmin:     {},
		RoleProposer:  {},
		RoleExecutor:  {},
		RoleCanceller: {},
	}
	for role, members := range map[Role][]ir.Address{
		RoleAdmin:     r.Admin,
		RoleProposer:  r.Proposers,
		RoleExecutor:  r.Executors,
		RoleCanceller: r.Cancellers,
	} {
		for _, m := range members {
			t[role][m] = struct{}{}
		}
	}
	return t
}

// has reports whether account holds role, directly or because the role is open.
func (t roleTable) has(role Role, account ir.Address) bool {
	members := t[role]
	if _, ok := members[account]; ok {
		return true
	}
	_, open := members[ir.ZeroAddress]
	return open
}

func (t roleTable) grant(role Role, account ir.Address) bool {
	if _, ok := t[role][account]; ok {
		return false
	}
	t[role][account] = struct{}{}
	return true
}

func (t roleTable) revoke(role Role, account ir.Address) bool {
	if _, ok := t[role][account]; !ok {
		return false
	}
	delete(t[role], account)
	return true
}

func validRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleProposer, RoleExecutor, RoleCanceller:
		return true
	}
	return false
}
