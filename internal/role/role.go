// Package role defines the closed set of tenant-scoped roles and the rules
// that gate every protected portal view.
package role

import (
	"errors"
	"fmt"
)

// Kind tags one capability class. The set is closed; anything else coming
// out of a profile resolves to the lowest privilege.
type Kind string

const (
	KindAdmin          Kind = "admin"
	KindTechnician     Kind = "technician"
	KindApprover       Kind = "approver"
	KindSalesLead      Kind = "sales_lead"
	KindCustomerOwner  Kind = "customer_owner"
	KindCustomerViewer Kind = "customer_viewer"
	KindPublicVisitor  Kind = "public_visitor"
	KindSuperAdmin     Kind = "super_admin"
)

// Role is one variant of the closed union. Every role carries exactly one
// org; customer-class roles additionally carry the customer they belong to,
// and project-scoped roles carry their assignment set.
type Role struct {
	Kind       Kind     `json:"type"`
	OrgID      string   `json:"orgId"`
	CustomerID string   `json:"customerId,omitempty"`
	ProjectIDs []string `json:"assignedProjectIds,omitempty"`
}

// Constructors for each variant keep field combinations legal by shape.

func Admin(orgID string) Role      { return Role{Kind: KindAdmin, OrgID: orgID} }
func Approver(orgID string) Role   { return Role{Kind: KindApprover, OrgID: orgID} }
func SalesLead(orgID string) Role  { return Role{Kind: KindSalesLead, OrgID: orgID} }
func SuperAdmin(orgID string) Role { return Role{Kind: KindSuperAdmin, OrgID: orgID} }

func PublicVisitor(orgID string) Role { return Role{Kind: KindPublicVisitor, OrgID: orgID} }

func Technician(orgID string, projectIDs ...string) Role {
	return Role{Kind: KindTechnician, OrgID: orgID, ProjectIDs: projectIDs}
}

func CustomerOwner(orgID, customerID string) Role {
	return Role{Kind: KindCustomerOwner, OrgID: orgID, CustomerID: customerID}
}

func CustomerViewer(orgID, customerID string, projectIDs ...string) Role {
	return Role{Kind: KindCustomerViewer, OrgID: orgID, CustomerID: customerID, ProjectIDs: projectIDs}
}

// IsCustomer reports whether the role is customer-class.
func (r Role) IsCustomer() bool {
	return r.Kind == KindCustomerOwner || r.Kind == KindCustomerViewer
}

// HasProject reports whether a project belongs to the role's assignment set.
func (r Role) HasProject(projectID string) bool {
	for _, id := range r.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// Validate enforces the union's invariants.
func (r Role) Validate() error {
	switch r.Kind {
	case KindAdmin, KindTechnician, KindApprover, KindSalesLead,
		KindCustomerOwner, KindCustomerViewer, KindPublicVisitor, KindSuperAdmin:
	default:
		return fmt.Errorf("unknown role kind %q", r.Kind)
	}
	if r.OrgID == "" {
		return errors.New("role requires an org id")
	}
	if r.IsCustomer() && r.CustomerID == "" {
		return fmt.Errorf("%s requires a customer id", r.Kind)
	}
	if !r.IsCustomer() && r.CustomerID != "" {
		return fmt.Errorf("%s must not carry a customer id", r.Kind)
	}
	if len(r.ProjectIDs) > 0 && r.Kind != KindTechnician && r.Kind != KindCustomerViewer {
		return fmt.Errorf("%s must not carry project assignments", r.Kind)
	}
	return nil
}
