package packageservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gotestcase/internal/domain"
	apperror "gotestcase/internal/errors"
	"gotestcase/internal/lifecycle"
	"gotestcase/internal/metrics"
	"gotestcase/internal/pkg/cache"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/service/packageservice"
)

const (
	projectID = "11111111-1111-1111-1111-111111111111"
	packageID = "22222222-2222-2222-2222-222222222222"
	actorID   = "33333333-3333-3333-3333-333333333333"
)

// MockPackageRepository é uma implementação mock da interface PackageRepository.
type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) Save(ctx context.Context, pkg domain.TestPackage) (domain.TestPackage, error) {
	args := m.Called(ctx, pkg)
	return args.Get(0).(domain.TestPackage), args.Error(1)
}

func (m *MockPackageRepository) FindPackage(ctx context.Context, projectID, packageID string) (domain.TestPackage, error) {
	args := m.Called(ctx, projectID, packageID)
	return args.Get(0).(domain.TestPackage), args.Error(1)
}

func (m *MockPackageRepository) SaveStatus(ctx context.Context, t lifecycle.PackageTransition, expectedVersion int) error {
	args := m.Called(ctx, t, expectedVersion)
	return args.Error(0)
}

func (m *MockPackageRepository) AddStep(ctx context.Context, packageID string, step domain.Step) (domain.Step, error) {
	args := m.Called(ctx, packageID, step)
	return args.Get(0).(domain.Step), args.Error(1)
}

// MockRoles resolve papéis de projeto.
type MockRoles struct {
	mock.Mock
}

func (m *MockRoles) RoleOf(ctx context.Context, userID, projectID string) (domain.Role, bool, error) {
	args := m.Called(ctx, userID, projectID)
	return args.Get(0).(domain.Role), args.Bool(1), args.Error(2)
}

// memCache é um cache.Client em memória.
type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value.(string)
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) Incr(ctx context.Context, key string) (int64, error) { return 1, nil }
func (c *memCache) Expire(ctx context.Context, key string, _ time.Duration) error {
	return nil
}

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newService(repo *MockPackageRepository, roles *MockRoles, c cache.Client) *packageservice.Service {
	guard := lifecycle.NewPackageGuard(lifecycle.DefaultPolicy(), func() time.Time { return fixedNow })
	return packageservice.NewService(repo, roles, guard, c, time.Minute, logger.NewLogger("debug"))
}

func scenario(id string, status domain.ScenarioStatus) domain.TestScenario {
	return domain.TestScenario{ID: id, PackageID: packageID, ProjectID: projectID, Status: status}
}

func pkgIn(status domain.PackageStatus, scenarios ...domain.TestScenario) domain.TestPackage {
	return domain.TestPackage{
		ID: packageID, ProjectID: projectID, Title: "Release de maio", Release: "2024-05",
		Status: status, Version: 3, Scenarios: scenarios,
	}
}

func TestApprove_Success(t *testing.T) {
	repo, roles := new(MockPackageRepository), new(MockRoles)
	c := newMemCache()
	c.data[metrics.CacheKey(projectID, packageID)] = "{}"
	svc := newService(repo, roles, c)

	roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.RoleManager, true, nil)
	repo.On("FindPackage", mock.Anything, projectID, packageID).
		Return(pkgIn(domain.PackageEmTeste, scenario("s1", domain.ScenarioApproved), scenario("s2", domain.ScenarioApproved)), nil)
	repo.On("SaveStatus", mock.Anything, mock.MatchedBy(func(tr lifecycle.PackageTransition) bool {
		return tr.From == domain.PackageEmTeste && tr.To == domain.PackageAprovado &&
			tr.ApprovedByID != nil && *tr.ApprovedByID == actorID
	}), 3).Return(nil)

	pkg, err := svc.Approve(context.Background(), actorID, projectID, packageID)

	require.NoError(t, err)
	assert.Equal(t, domain.PackageAprovado, pkg.Status)
	assert.Equal(t, actorID, *pkg.ApprovedByID)
	assert.Equal(t, fixedNow, *pkg.ApprovedAt)
	assert.Equal(t, 4, pkg.Version)
	assert.NotContains(t, c.data, metrics.CacheKey(projectID, packageID), "a transição deve invalidar o cache de métricas")
	repo.AssertExpectations(t)
}

func TestApprove_Refusals(t *testing.T) {
	cases := []struct {
		name string
		role domain.Role
		pkg  domain.TestPackage
		want interface{}
	}{
		{"sem cenários", domain.RoleOwner, pkgIn(domain.PackageEmTeste), &apperror.PreconditionFailedError{}},
		{"cenário pendente", domain.RoleOwner, pkgIn(domain.PackageEmTeste, scenario("s1", domain.ScenarioApproved), scenario("s2", domain.ScenarioPassed)), &apperror.PreconditionFailedError{}},
		{"fora de EM_TESTE", domain.RoleOwner, pkgIn(domain.PackageCreated, scenario("s1", domain.ScenarioApproved)), &apperror.InvalidTransitionError{}},
		{"já aprovado", domain.RoleOwner, pkgIn(domain.PackageAprovado, scenario("s1", domain.ScenarioApproved)), &apperror.InvalidTransitionError{}},
		{"tester", domain.RoleTester, pkgIn(domain.PackageEmTeste, scenario("s1", domain.ScenarioApproved)), &apperror.ForbiddenError{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, roles := new(MockPackageRepository), new(MockRoles)
			svc := newService(repo, roles, nil)
			roles.On("RoleOf", mock.Anything, actorID, projectID).Return(tc.role, true, nil)
			repo.On("FindPackage", mock.Anything, projectID, packageID).Return(tc.pkg, nil)

			_, err := svc.Approve(context.Background(), actorID, projectID, packageID)

			require.Error(t, err)
			assert.IsType(t, tc.want, err)
			repo.AssertNotCalled(t, "SaveStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestApprove_NonMemberIsNotFound(t *testing.T) {
	repo, roles := new(MockPackageRepository), new(MockRoles)
	svc := newService(repo, roles, nil)
	roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.Role(""), false, nil)

	_, err := svc.Approve(context.Background(), actorID, projectID, packageID)

	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
	repo.AssertNotCalled(t, "FindPackage", mock.Anything, mock.Anything, mock.Anything)
}

func TestApprove_ConcurrentWriteConflicts(t *testing.T) {
	repo, roles := new(MockPackageRepository), new(MockRoles)
	svc := newService(repo, roles, nil)
	roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.RoleOwner, true, nil)
	repo.On("FindPackage", mock.Anything, projectID, packageID).
		Return(pkgIn(domain.PackageEmTeste, scenario("s1", domain.ScenarioApproved)), nil)
	repo.On("SaveStatus", mock.Anything, mock.Anything, 3).
		Return(apperror.NewConflictError("O pacote foi modificado por outra operação."))

	_, err := svc.Approve(context.Background(), actorID, projectID, packageID)

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestApprove_UntypedRepositoryErrorBecomesInternal(t *testing.T) {
	repo, roles := new(MockPackageRepository), new(MockRoles)
	svc := newService(repo, roles, nil)
	roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.RoleOwner, true, nil)
	repo.On("FindPackage", mock.Anything, projectID, packageID).
		Return(domain.TestPackage{}, errors.New("driver: bad connection"))

	_, err := svc.Approve(context.Background(), actorID, projectID, packageID)

	var internal *apperror.InternalError
	require.ErrorAs(t, err, &internal)
	assert.NotContains(t, err.Error(), "driver")
}

func TestReject(t *testing.T) {
	t.Run("motivo em branco", func(t *testing.T) {
		repo, roles := new(MockPackageRepository), new(MockRoles)
		svc := newService(repo, roles, nil)
		roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.RoleOwner, true, nil)
		repo.On("FindPackage", mock.Anything, projectID, packageID).Return(pkgIn(domain.PackageEmTeste), nil)

		_, err := svc.Reject(context.Background(), actorID, projectID, packageID, "   ")

		assert.IsType(t, &apperror.ValidationError{}, err)
	})

	t.Run("sucesso grava o motivo", func(t *testing.T) {
		repo, roles := new(MockPackageRepository), new(MockRoles)
		svc := newService(repo, roles, nil)
		roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.RoleManager, true, nil)
		repo.On("FindPackage", mock.Anything, projectID, packageID).Return(pkgIn(domain.PackageEmTeste), nil)
		repo.On("SaveStatus", mock.Anything, mock.MatchedBy(func(tr lifecycle.PackageTransition) bool {
			return tr.To == domain.PackageReprovado && *tr.RejectionReason == "Login quebrado"
		}), 3).Return(nil)

		pkg, err := svc.Reject(context.Background(), actorID, projectID, packageID, " Login quebrado ")

		require.NoError(t, err)
		assert.Equal(t, domain.PackageReprovado, pkg.Status)
		assert.Equal(t, "Login quebrado", *pkg.RejectionReason)
	})
}

func TestSubmitAndSendToTest(t *testing.T) {
	repo, roles := new(MockPackageRepository), new(MockRoles)
	svc := newService(repo, roles, nil)
	roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.RoleTester, true, nil)
	repo.On("FindPackage", mock.Anything, projectID, packageID).Return(pkgIn(domain.PackageCreated), nil).Once()
	repo.On("SaveStatus", mock.Anything, mock.Anything, 3).Return(nil).Once()

	pkg, err := svc.Submit(context.Background(), actorID, projectID, packageID)
	require.NoError(t, err)
	assert.Equal(t, domain.PackageEmTeste, pkg.Status)

	// SendToTest só vale a partir de REPROVADO.
	repo.On("FindPackage", mock.Anything, projectID, packageID).Return(pkgIn(domain.PackageCreated), nil).Once()
	_, err = svc.SendToTest(context.Background(), actorID, projectID, packageID)
	assert.IsType(t, &apperror.InvalidTransitionError{}, err)
	repo.AssertNumberOfCalls(t, "SaveStatus", 1)
}

func TestCreatePackage_Validation(t *testing.T) {
	repo, roles := new(MockPackageRepository), new(MockRoles)
	svc := newService(repo, roles, nil)
	roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.RoleOwner, true, nil)

	for _, release := range []string{"2024-13", "2024-00", "24-05", "2024/05", ""} {
		_, err := svc.CreatePackage(context.Background(), actorID, projectID, domain.NewPackage{Title: "Pacote", Release: release})
		assert.IsType(t, &apperror.ValidationError{}, err, release)
	}
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	repo.On("Save", mock.Anything, mock.MatchedBy(func(p domain.TestPackage) bool {
		return p.ProjectID == projectID && p.Release == "2024-12" && p.Title == "Pacote"
	})).Return(domain.TestPackage{ID: packageID, Status: domain.PackageCreated}, nil)

	pkg, err := svc.CreatePackage(context.Background(), actorID, projectID, domain.NewPackage{Title: " Pacote ", Release: "2024-12"})
	require.NoError(t, err)
	assert.Equal(t, domain.PackageCreated, pkg.Status)
}

func TestMetrics_CacheAside(t *testing.T) {
	repo, roles := new(MockPackageRepository), new(MockRoles)
	c := newMemCache()
	svc := newService(repo, roles, c)
	roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.RoleViewer, true, nil)

	pkg := pkgIn(domain.PackageEmTeste, scenario("s1", domain.ScenarioPassed), scenario("s2", domain.ScenarioFailed))
	pkg.Steps = []domain.Step{{ID: "p1"}}
	repo.On("FindPackage", mock.Anything, projectID, packageID).Return(pkg, nil).Once()

	first, err := svc.Metrics(context.Background(), actorID, projectID, packageID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Scenarios.Total)
	assert.Equal(t, 100.0, first.Scenarios.ExecutionRate)
	assert.Equal(t, 50.0, first.Scenarios.SuccessRate)
	assert.Contains(t, c.data, metrics.CacheKey(projectID, packageID))

	second, err := svc.Metrics(context.Background(), actorID, projectID, packageID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "FindPackage", 1)
}

func TestMetrics_RejectsForeignScenario(t *testing.T) {
	repo, roles := new(MockPackageRepository), new(MockRoles)
	svc := newService(repo, roles, nil)
	roles.On("RoleOf", mock.Anything, actorID, projectID).Return(domain.RoleOwner, true, nil)

	foreign := scenario("s1", domain.ScenarioPassed)
	foreign.ProjectID = "99999999-9999-9999-9999-999999999999"
	repo.On("FindPackage", mock.Anything, projectID, packageID).Return(pkgIn(domain.PackageEmTeste, foreign), nil)

	_, err := svc.Metrics(context.Background(), actorID, projectID, packageID)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}
