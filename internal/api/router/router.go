package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "gotestcase/docs" // registra o doc.json servido em /swagger/
	"gotestcase/internal/api/project"
	"gotestcase/internal/api/scenario"
	"gotestcase/internal/api/testpackage"
	"gotestcase/internal/api/user"
	"gotestcase/internal/pkg/cache"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/pkg/middleware"
)

// Handlers agrupa os handlers já inicializados por injeção de dependências.
type Handlers struct {
	User     *user.Handler
	Project  *project.Handler
	Package  *testpackage.Handler
	Scenario *scenario.Handler
}

// Options configura os middlewares do roteador.
type Options struct {
	TokenService    middleware.TokenService
	Cache           cache.Client // nil desliga o rate limit
	RateLimitMax    int
	RateLimitPeriod time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- 1. Health check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// --- 2. Rotas públicas ---
	mux.HandleFunc("POST /v1/register", h.User.RegisterUserHandler)
	mux.HandleFunc("POST /v1/login", h.User.LoginUserHandler)

	// --- 3. Rotas autenticadas ---
	auth := middleware.NewAuthMiddleware(opts.TokenService)
	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth(fn))
	}

	protected("GET /v1/users/me", h.User.MeHandler)
	protected("PATCH /v1/users/{id}", h.User.UpdateUserHandler)

	protected("POST /v1/projects", h.Project.CreateProjectHandler)
	protected("GET /v1/projects/{projectId}", h.Project.GetProjectHandler)
	protected("POST /v1/projects/{projectId}/members", h.Project.AddMemberHandler)

	const pkgPath = "/v1/projects/{projectId}/packages/{packageId}"
	protected("POST /v1/projects/{projectId}/packages", h.Package.CreatePackageHandler)
	protected("GET "+pkgPath, h.Package.GetPackageHandler)
	protected("POST "+pkgPath+"/steps", h.Package.AddStepHandler)
	protected("POST "+pkgPath+"/submit", h.Package.SubmitHandler)
	protected("POST "+pkgPath+"/send-to-test", h.Package.SendToTestHandler)
	protected("POST "+pkgPath+"/approve", h.Package.ApproveHandler)
	protected("POST "+pkgPath+"/reject", h.Package.RejectHandler)
	protected("GET "+pkgPath+"/metrics", h.Package.MetricsHandler)
	protected("POST "+pkgPath+"/scenarios", h.Scenario.CreateScenarioHandler)

	const scPath = "/v1/projects/{projectId}/scenarios/{scenarioId}"
	protected("GET "+scPath, h.Scenario.GetScenarioHandler)
	protected("POST "+scPath+"/steps", h.Scenario.AddStepHandler)
	protected("PATCH "+scPath+"/steps/{stepId}", h.Scenario.UpdateStepStatusHandler)
	protected("POST "+scPath+"/review", h.Scenario.ReviewHandler)
	protected("POST "+scPath+"/executions", h.Scenario.RecordExecutionHandler)
	protected("POST "+scPath+"/bugs", h.Scenario.RecordBugHandler)
	protected("GET "+scPath+"/report", h.Scenario.ReportHandler)

	// --- 4. Middlewares globais ---
	var handler http.Handler = mux
	if opts.Cache != nil && opts.RateLimitMax > 0 {
		handler = middleware.RateLimiter(opts.Cache, opts.RateLimitMax, opts.RateLimitPeriod, log)(handler)
	}
	return handler
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
