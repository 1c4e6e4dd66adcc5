package security

import (
	"errors"
	"fmt"

	"github.com/abs-valuers/abs_backend/models"
)

// ErrPermissionDenied is returned (wrapped) whenever an access rule rejects a read or write.
var ErrPermissionDenied = errors.New("permission denied")

// ErrProtectedRecord marks edits that no role may perform on a super_admin record.
var ErrProtectedRecord = errors.New("super_admin records cannot be changed or deleted")

type Capability string

const (
	ReadWorkLogs        Capability = "work_logs:read"
	CreateWorkLog       Capability = "work_logs:create"
	ManageWorkLogs      Capability = "work_logs:manage"
	ReadAllMarket       Capability = "market:read_all"
	ReadOwnMarket       Capability = "market:read_own"
	CreateMarketRecord  Capability = "market:create"
	ManageMarketRecords Capability = "market:manage"
	ReadApps            Capability = "apps:read"
	ManageApps          Capability = "apps:manage"
	ReadPermissions     Capability = "permissions:read"
	ManagePermissions   Capability = "permissions:manage"
	EditSiteConfig      Capability = "site_config:edit"
)

// Decision is the answer of a capability check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Err converts a denial into an error wrapping ErrPermissionDenied.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPermissionDenied, d.Reason)
}

type rule struct {
	check  func(models.Role) bool
	reason string
}

func anyRole(r models.Role) bool { return r.Valid() }
func staff(r models.Role) bool   { return r.IsStaff() }
func admin(r models.Role) bool   { return r.IsAdmin() }

var rules = map[Capability]rule{
	ReadWorkLogs:        {admin, "Administrator access is required to view the staff work history ledger."},
	CreateWorkLog:       {anyRole, "Sign in to record work activity."},
	ManageWorkLogs:      {admin, "Administrator access is required to modify the activity ledger."},
	ReadAllMarket:       {staff, "Staff role required to view every survey record."},
	ReadOwnMarket:       {anyRole, "Sign in to view your survey records."},
	CreateMarketRecord:  {anyRole, "Sign in to log survey data."},
	ManageMarketRecords: {admin, "Verified admin status required for survey data access."},
	ReadApps:            {anyRole, "Sign in to view the app directory."},
	ManageApps:          {admin, "Administrative privileges required to modify external connections."},
	ReadPermissions:     {anyRole, "Sign in to view permission records."},
	ManagePermissions:   {admin, "Administrative privileges required to manage staff roles."},
	EditSiteConfig:      {admin, "Administrative privileges required to edit the site."},
}

// Check is the single place where roles are mapped to what they may do.
func Check(role models.Role, c Capability) Decision {
	r, ok := rules[c]
	if !ok {
		return Decision{Allowed: false, Reason: "unknown capability " + string(c)}
	}
	if !r.check(role) {
		return Decision{Allowed: false, Reason: r.reason}
	}
	return Decision{Allowed: true, Reason: "role " + string(role) + " grants " + string(c)}
}

// CheckRoleChange decides whether actor may set target's role to newRole.
func CheckRoleChange(actor models.Role, target *models.UserPermission, newRole models.Role) error {
	if err := Check(actor, ManagePermissions).Err(); err != nil {
		return err
	}
	if target.Role == models.RoleSuperAdmin {
		return ErrProtectedRecord
	}
	for _, r := range models.AssignableRoles {
		if r == newRole {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q cannot be assigned", ErrPermissionDenied, newRole)
}

// CheckPermissionDelete decides whether actor may delete target's permission record.
func CheckPermissionDelete(actor models.Role, target *models.UserPermission) error {
	if err := Check(actor, ManagePermissions).Err(); err != nil {
		return err
	}
	if target.Role == models.RoleSuperAdmin {
		return ErrProtectedRecord
	}
	return nil
}

// Matrix lists every capability with the decision for each role.
func Matrix() map[Capability]map[models.Role]Decision {
	roles := []models.Role{models.RoleClient, models.RoleEmployee, models.RoleAdmin, models.RoleSuperAdmin}
	out := make(map[Capability]map[models.Role]Decision, len(rules))
	for c := range rules {
		out[c] = make(map[models.Role]Decision, len(roles))
		for _, r := range roles {
			out[c][r] = Check(r, c)
		}
	}
	return out
}
