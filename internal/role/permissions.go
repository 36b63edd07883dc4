package role

// Action is a fine-grained capability, named resource.verb.
type Action string

const (
	ActionProjectView   Action = "project.view"
	ActionProjectEdit   Action = "project.edit"
	ActionAssetDownload Action = "asset.download"
	ActionQuoteApprove  Action = "quote.approve"
	ActionLeadManage    Action = "lead.manage"
	ActionUserManage    Action = "user.manage"
	ActionOrgManage     Action = "org.manage"
)

// Resource identifies what an action targets. Zero fields mean the action is
// not scoped to that boundary.
type Resource struct {
	OrgID      string
	CustomerID string
	ProjectID  string
}

// HasPermission is the single permission check the portal uses. It is pure:
// same role, action and resource always produce the same answer.
func HasPermission(r Role, action Action, res Resource) bool {
	// Super admins cross org boundaries; everyone else is pinned to one org.
	if r.Kind == KindSuperAdmin {
		return true
	}
	if res.OrgID != "" && res.OrgID != r.OrgID {
		return false
	}
	// Customer-class roles never see other customers' resources.
	if r.IsCustomer() && res.CustomerID != "" && res.CustomerID != r.CustomerID {
		return false
	}

	switch r.Kind {
	case KindAdmin:
		return true
	case KindTechnician:
		switch action {
		case ActionProjectView, ActionProjectEdit, ActionAssetDownload:
			return res.ProjectID == "" || r.HasProject(res.ProjectID)
		}
		return false
	case KindApprover:
		return action == ActionProjectView || action == ActionQuoteApprove
	case KindSalesLead:
		return action == ActionProjectView || action == ActionLeadManage
	case KindCustomerOwner:
		switch action {
		case ActionProjectView, ActionAssetDownload, ActionQuoteApprove:
			return true
		}
		return false
	case KindCustomerViewer:
		switch action {
		case ActionProjectView, ActionAssetDownload:
			return res.ProjectID == "" || r.HasProject(res.ProjectID)
		}
		return false
	case KindPublicVisitor:
		return false
	}
	return false
}
