package role

import (
	"reflect"
	"testing"
)

func TestResolveCoversEveryKind(t *testing.T) {
	cases := []struct {
		roleType string
		want     Kind
	}{
		{"admin", KindAdmin},
		{"technician", KindTechnician},
		{"approver", KindApprover},
		{"sales_lead", KindSalesLead},
		{"customer_owner", KindCustomerOwner},
		{"customer_viewer", KindCustomerViewer},
		{"public_visitor", KindPublicVisitor},
		{"super_admin", KindSuperAdmin},
		{"  Admin  ", KindAdmin},
		{"ADMIN", KindAdmin},
	}

	for _, tc := range cases {
		got := Resolve(Profile{RoleType: tc.roleType, OrgID: "org-1", CustomerID: "cust-1"})
		if got.Kind != tc.want {
			t.Fatalf("Resolve(%q).Kind = %s, want %s", tc.roleType, got.Kind, tc.want)
		}
		if got.OrgID != "org-1" {
			t.Fatalf("Resolve(%q) lost org scope", tc.roleType)
		}
	}
}

func TestResolveFailsClosed(t *testing.T) {
	for _, roleType := range []string{"", "owner", "superuser", "ADMIN ROLE", "root"} {
		got := Resolve(Profile{RoleType: roleType, OrgID: "org-1"})
		if got.Kind != KindPublicVisitor {
			t.Fatalf("Resolve(%q).Kind = %s, want public_visitor", roleType, got.Kind)
		}
	}
}

func TestResolveIsPure(t *testing.T) {
	p := Profile{RoleType: "customer_viewer", OrgID: "org-1", CustomerID: "cust-9", ProjectIDs: []string{"p1", "p2"}}

	first := Resolve(p)
	second := Resolve(p)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Resolve not deterministic: %+v vs %+v", first, second)
	}
}

func TestResolveCarriesScopes(t *testing.T) {
	got := Resolve(Profile{RoleType: "customer_viewer", OrgID: "org-1", CustomerID: "cust-9", ProjectIDs: []string{"p1"}})
	if got.CustomerID != "cust-9" {
		t.Fatalf("customer scope lost: %+v", got)
	}
	if !got.HasProject("p1") || got.HasProject("p2") {
		t.Fatalf("project assignments wrong: %+v", got)
	}
}

func TestValidate(t *testing.T) {
	valid := []Role{
		Admin("org-1"),
		Technician("org-1", "p1"),
		Technician("org-1"),
		Approver("org-1"),
		SalesLead("org-1"),
		CustomerOwner("org-1", "cust-1"),
		CustomerViewer("org-1", "cust-1", "p1"),
		PublicVisitor("org-1"),
		SuperAdmin("org-1"),
	}
	for _, r := range valid {
		if err := r.Validate(); err != nil {
			t.Fatalf("Validate(%+v) = %v, want nil", r, err)
		}
	}

	invalid := []Role{
		{Kind: "owner", OrgID: "org-1"},
		{Kind: KindAdmin},
		{Kind: KindCustomerOwner, OrgID: "org-1"},
		{Kind: KindAdmin, OrgID: "org-1", CustomerID: "cust-1"},
		{Kind: KindApprover, OrgID: "org-1", ProjectIDs: []string{"p1"}},
	}
	for _, r := range invalid {
		if err := r.Validate(); err == nil {
			t.Fatalf("Validate(%+v) = nil, want error", r)
		}
	}
}
