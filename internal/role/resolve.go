package role

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Profile carries the role-relevant raw fields of a directory record.
type Profile struct {
	RoleType   string   `json:"roleType"`
	OrgID      string   `json:"orgId"`
	CustomerID string   `json:"customerId,omitempty"`
	ProjectIDs []string `json:"assignedProjectIds,omitempty"`
}

// Resolve maps raw profile fields to exactly one Role variant. It is total:
// an unknown or missing roleType fails closed to PublicVisitor instead of
// inferring privilege from absent data. Escalation is an administrative
// action, never a default.
func Resolve(p Profile) Role {
	switch Kind(strings.ToLower(strings.TrimSpace(p.RoleType))) {
	case KindAdmin:
		return Admin(p.OrgID)
	case KindTechnician:
		return Technician(p.OrgID, p.ProjectIDs...)
	case KindApprover:
		return Approver(p.OrgID)
	case KindSalesLead:
		return SalesLead(p.OrgID)
	case KindCustomerOwner:
		return CustomerOwner(p.OrgID, p.CustomerID)
	case KindCustomerViewer:
		return CustomerViewer(p.OrgID, p.CustomerID, p.ProjectIDs...)
	case KindSuperAdmin:
		return SuperAdmin(p.OrgID)
	case KindPublicVisitor:
		return PublicVisitor(p.OrgID)
	default:
		log.Warn().Str("role_type", p.RoleType).Str("org", p.OrgID).
			Msg("unknown role type, resolving to public_visitor")
		return PublicVisitor(p.OrgID)
	}
}
