package directory

import (
	"errors"
	"testing"

	"github.com/captura3d/portal-api/internal/role"
)

func TestMockSeedsAreDeterministic(t *testing.T) {
	dir, err := NewMock()
	if err != nil {
		t.Fatal(err)
	}

	admin, err := dir.GetByEmail("admin@company.com")
	if err != nil {
		t.Fatal(err)
	}
	if admin.ID != "usr-admin" {
		t.Fatalf("admin id = %q", admin.ID)
	}
	if admin.Role.Kind != role.KindAdmin || admin.Role.OrgID != DefaultOrg {
		t.Fatalf("admin role = %+v", admin.Role)
	}
	if !admin.Active() {
		t.Fatal("seeded admin not active")
	}

	viewer, err := dir.GetByEmail("viewer@aurora.example")
	if err != nil {
		t.Fatal(err)
	}
	if viewer.Role.Kind != role.KindCustomerViewer || viewer.Role.CustomerID != "cust-aurora" {
		t.Fatalf("viewer role = %+v", viewer.Role)
	}
	if !viewer.Role.HasProject("proj-101") {
		t.Fatal("viewer missing project assignment")
	}
}

func TestMockGetByEmailIsCaseInsensitive(t *testing.T) {
	dir, _ := NewMock()

	if _, err := dir.GetByEmail("  Admin@Company.COM "); err != nil {
		t.Fatalf("case-insensitive lookup failed: %v", err)
	}
	if _, err := dir.GetByEmail("nobody@company.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown email err = %v, want ErrNotFound", err)
	}
}

func TestMockAuthenticateBookkeeping(t *testing.T) {
	dir, _ := NewMock()

	if _, err := dir.Authenticate("admin@company.com", "wrong-password"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("err = %v, want ErrInvalidPassword", err)
	}

	admin, _ := dir.GetByEmail("admin@company.com")
	if admin.FailedLogins != 1 {
		t.Fatalf("failed logins = %d, want 1", admin.FailedLogins)
	}

	user, err := dir.Authenticate("admin@company.com", SeedPassword)
	if err != nil {
		t.Fatal(err)
	}
	if user.FailedLogins != 0 {
		t.Fatalf("counter not reset: %d", user.FailedLogins)
	}
}

func TestMockCreateDelete(t *testing.T) {
	dir, _ := NewMock()

	created, err := dir.Create(NewUser{
		Email:       "new@company.com",
		DisplayName: "New Tech",
		Password:    "long-enough-password",
		Profile:     role.Profile{RoleType: "technician", OrgID: DefaultOrg, ProjectIDs: []string{"proj-7"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.Role.Kind != role.KindTechnician {
		t.Fatalf("created role = %+v", created.Role)
	}

	if _, err := dir.Authenticate("new@company.com", "long-enough-password"); err != nil {
		t.Fatalf("fresh account cannot log in: %v", err)
	}

	if _, err := dir.Create(NewUser{Email: "new@company.com", Password: "whatever-else"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate err = %v, want ErrDuplicate", err)
	}

	if err := dir.Delete(created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := dir.GetByID(created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted user still present: %v", err)
	}
	if err := dir.Delete(created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestMockUnknownRoleFailsClosed(t *testing.T) {
	dir, _ := NewMock()

	created, err := dir.Create(NewUser{
		Email:    "odd@company.com",
		Password: "long-enough-password",
		Profile:  role.Profile{RoleType: "director", OrgID: DefaultOrg},
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.Role.Kind != role.KindPublicVisitor {
		t.Fatalf("unknown role resolved to %s, want public_visitor", created.Role.Kind)
	}
}
