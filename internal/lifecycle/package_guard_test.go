package lifecycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/lifecycle"
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newPackageGuard() *lifecycle.PackageGuard {
	return lifecycle.NewPackageGuard(lifecycle.DefaultPolicy(), func() time.Time { return fixedNow })
}

func pkgWith(status domain.PackageStatus, scenarioStatuses ...domain.ScenarioStatus) domain.TestPackage {
	pkg := domain.TestPackage{ID: "pkg-1", ProjectID: "proj-1", Status: status}
	for i, st := range scenarioStatuses {
		pkg.Scenarios = append(pkg.Scenarios, domain.TestScenario{
			ID: string(rune('a' + i)), PackageID: "pkg-1", ProjectID: "proj-1", Status: st,
		})
	}
	return pkg
}

var allPackageStatuses = []domain.PackageStatus{
	domain.PackageCreated, domain.PackageEmTeste, domain.PackageAprovado,
	domain.PackageReprovado, domain.PackageConcluido,
}

func TestApprove_NoScenariosIsPreconditionRegardlessOfStatus(t *testing.T) {
	g := newPackageGuard()
	for _, st := range allPackageStatuses {
		_, err := g.Approve(pkgWith(st), "user-1", domain.RoleOwner)
		assert.IsType(t, &apperror.PreconditionFailedError{}, err, "status %s", st)
		assert.Contains(t, err.Error(), "não possui cenários")
	}
}

func TestApprove_SucceedsOnlyWhenEmTesteAndAllApproved(t *testing.T) {
	g := newPackageGuard()

	tr, err := g.Approve(pkgWith(domain.PackageEmTeste, domain.ScenarioApproved, domain.ScenarioApproved), "user-1", domain.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageEmTeste, tr.From)
	assert.Equal(t, domain.PackageAprovado, tr.To)
	require.NotNil(t, tr.ApprovedByID)
	assert.Equal(t, "user-1", *tr.ApprovedByID)
	require.NotNil(t, tr.ApprovedAt)
	assert.Equal(t, fixedNow, *tr.ApprovedAt)

	for _, st := range allPackageStatuses {
		if st == domain.PackageEmTeste {
			continue
		}
		_, err := g.Approve(pkgWith(st, domain.ScenarioApproved), "user-1", domain.RoleOwner)
		assert.IsType(t, &apperror.InvalidTransitionError{}, err, "status %s", st)
		assert.Contains(t, err.Error(), "EM_TESTE")
	}

	_, err = g.Approve(pkgWith(domain.PackageEmTeste, domain.ScenarioApproved, domain.ScenarioPassed), "user-1", domain.RoleOwner)
	assert.IsType(t, &apperror.PreconditionFailedError{}, err)
	assert.Contains(t, err.Error(), "todos os cenários devem estar aprovados")
}

func TestApprove_AlreadyApprovedFails(t *testing.T) {
	_, err := newPackageGuard().Approve(pkgWith(domain.PackageAprovado, domain.ScenarioApproved), "user-1", domain.RoleOwner)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
}

func TestApprove_RoleCheck(t *testing.T) {
	g := newPackageGuard()
	pkg := pkgWith(domain.PackageEmTeste, domain.ScenarioApproved)

	for _, role := range []domain.Role{domain.RoleTester, domain.RoleApprover, domain.RoleViewer, domain.Role("")} {
		_, err := g.Approve(pkg, "user-1", role)
		assert.IsType(t, &apperror.ForbiddenError{}, err, "role %q", role)
	}
	for _, role := range []domain.Role{domain.RoleOwner, domain.RoleManager} {
		_, err := g.Approve(pkg, "user-1", role)
		assert.NoError(t, err, "role %q", role)
	}
}

func TestApprove_ScenarioFromOtherProjectIsNotFound(t *testing.T) {
	pkg := pkgWith(domain.PackageEmTeste, domain.ScenarioApproved)
	pkg.Scenarios[0].ProjectID = "proj-2"

	_, err := newPackageGuard().Approve(pkg, "user-1", domain.RoleOwner)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestReject(t *testing.T) {
	g := newPackageGuard()

	tr, err := g.Reject(pkgWith(domain.PackageEmTeste), "  cenário 3 quebrado  ", domain.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageReprovado, tr.To)
	require.NotNil(t, tr.RejectionReason)
	assert.Equal(t, "cenário 3 quebrado", *tr.RejectionReason)

	for _, st := range allPackageStatuses {
		_, err := g.Reject(pkgWith(st), "", domain.RoleOwner)
		assert.IsType(t, &apperror.ValidationError{}, err, "status %s", st)
		_, err = g.Reject(pkgWith(st), " \t\n", domain.RoleOwner)
		assert.IsType(t, &apperror.ValidationError{}, err, "status %s", st)

		if st != domain.PackageEmTeste {
			_, err = g.Reject(pkgWith(st), "motivo", domain.RoleOwner)
			assert.IsType(t, &apperror.InvalidTransitionError{}, err, "status %s", st)
		}
	}

	_, err = g.Reject(pkgWith(domain.PackageEmTeste), "motivo", domain.RoleTester)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

func TestReject_ApprovedCannotGoToReprovado(t *testing.T) {
	_, err := newPackageGuard().Reject(pkgWith(domain.PackageAprovado, domain.ScenarioApproved), "regressão", domain.RoleOwner)
	require.Error(t, err)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	assert.Contains(t, err.Error(), "EM_TESTE")
}

func TestSendToTestAndSubmit(t *testing.T) {
	g := newPackageGuard()

	tr, err := g.SendToTest(pkgWith(domain.PackageReprovado), domain.RoleTester)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageEmTeste, tr.To)

	for _, st := range allPackageStatuses {
		if st == domain.PackageReprovado {
			continue
		}
		_, err := g.SendToTest(pkgWith(st), domain.RoleOwner)
		assert.IsType(t, &apperror.InvalidTransitionError{}, err, "status %s", st)
	}

	tr, err = g.Submit(pkgWith(domain.PackageCreated), domain.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageCreated, tr.From)
	assert.Equal(t, domain.PackageEmTeste, tr.To)

	_, err = g.Submit(pkgWith(domain.PackageReprovado), domain.RoleManager)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)

	_, err = g.Submit(pkgWith(domain.PackageCreated), domain.RoleViewer)
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

func TestReprovadoCannotBeApprovedDirectly(t *testing.T) {
	_, err := newPackageGuard().Approve(pkgWith(domain.PackageReprovado, domain.ScenarioApproved), "user-1", domain.RoleOwner)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
}

func TestAssertPackageOpen(t *testing.T) {
	for _, st := range []domain.PackageStatus{domain.PackageCreated, domain.PackageEmTeste, domain.PackageReprovado} {
		assert.NoError(t, lifecycle.AssertPackageOpen(st), st)
	}
	for _, st := range []domain.PackageStatus{domain.PackageAprovado, domain.PackageConcluido} {
		assert.IsType(t, &apperror.InvalidTransitionError{}, lifecycle.AssertPackageOpen(st), st)
	}
}
