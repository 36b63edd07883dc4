package role

import "testing"

func TestHasPermissionMatrix(t *testing.T) {
	org := Resource{OrgID: "org-1"}
	otherOrg := Resource{OrgID: "org-2"}
	ownProject := Resource{OrgID: "org-1", CustomerID: "cust-1", ProjectID: "p1"}
	otherProject := Resource{OrgID: "org-1", CustomerID: "cust-1", ProjectID: "p9"}
	otherCustomer := Resource{OrgID: "org-1", CustomerID: "cust-2", ProjectID: "p1"}

	cases := []struct {
		name   string
		role   Role
		action Action
		res    Resource
		want   bool
	}{
		{"admin manages users in org", Admin("org-1"), ActionUserManage, org, true},
		{"admin denied cross-org", Admin("org-1"), ActionUserManage, otherOrg, false},
		{"super admin crosses orgs", SuperAdmin("org-1"), ActionOrgManage, otherOrg, true},

		{"technician edits assigned project", Technician("org-1", "p1"), ActionProjectEdit, ownProject, true},
		{"technician denied unassigned project", Technician("org-1", "p1"), ActionProjectEdit, otherProject, false},
		{"technician denied user management", Technician("org-1", "p1"), ActionUserManage, org, false},

		{"approver approves quotes", Approver("org-1"), ActionQuoteApprove, org, true},
		{"approver denied edits", Approver("org-1"), ActionProjectEdit, org, false},

		{"sales lead manages leads", SalesLead("org-1"), ActionLeadManage, org, true},
		{"sales lead denied downloads", SalesLead("org-1"), ActionAssetDownload, org, false},

		{"owner downloads own customer assets", CustomerOwner("org-1", "cust-1"), ActionAssetDownload, ownProject, true},
		{"owner denied other customer", CustomerOwner("org-1", "cust-1"), ActionAssetDownload, otherCustomer, false},
		{"owner denied edits", CustomerOwner("org-1", "cust-1"), ActionProjectEdit, ownProject, false},

		{"viewer sees assigned project", CustomerViewer("org-1", "cust-1", "p1"), ActionProjectView, ownProject, true},
		{"viewer denied unassigned project", CustomerViewer("org-1", "cust-1", "p1"), ActionProjectView, otherProject, false},
		{"viewer denied approvals", CustomerViewer("org-1", "cust-1", "p1"), ActionQuoteApprove, ownProject, false},

		{"visitor denied everything", PublicVisitor("org-1"), ActionProjectView, org, false},
	}

	for _, tc := range cases {
		if got := HasPermission(tc.role, tc.action, tc.res); got != tc.want {
			t.Errorf("%s: HasPermission = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHasPermissionIsPure(t *testing.T) {
	r := Technician("org-1", "p1")
	res := Resource{OrgID: "org-1", ProjectID: "p1"}
	for i := 0; i < 3; i++ {
		if !HasPermission(r, ActionProjectView, res) {
			t.Fatal("answer changed between identical calls")
		}
	}
}
