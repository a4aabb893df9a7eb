package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Infraestrutura e utilitários
	"gotestcase/config"
	"gotestcase/internal/lifecycle"
	"gotestcase/internal/pkg/cache"
	"gotestcase/internal/pkg/database"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"gotestcase/internal/api/project"
	"gotestcase/internal/api/router"
	"gotestcase/internal/api/scenario"
	"gotestcase/internal/api/testpackage"
	"gotestcase/internal/api/user"
	"gotestcase/internal/repository/packagerepo"
	"gotestcase/internal/repository/projectrepo"
	"gotestcase/internal/repository/scenariorepo"
	"gotestcase/internal/repository/userrepo"
	"gotestcase/internal/service/packageservice"
	"gotestcase/internal/service/projectservice"
	"gotestcase/internal/service/scenarioservice"
	"gotestcase/internal/service/userservice"
)

// @title GoTestCase API
// @version 1.0
// @description Gestão de casos de teste: projetos, pacotes, cenários, execuções e bugs.
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Sem .env seguimos com o ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Inicialização
	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer zl.Sync()
	}
	log.Info("⚡ Inicializando serviço GoTestCase...", map[string]interface{}{"env": cfg.Environment})

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatal("Falha ao carregar a política de permissões.", err)
	}

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL, database.DefaultPoolOptions(), log)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis). Sem Redis o serviço sobe sem cache de métricas e sem rate limit.
	var cacheClient cache.Client
	redisClient, err := cache.NewRedisClient(cfg.RedisAddr, cfg.CacheTimeout)
	if err != nil {
		log.Warn("Redis indisponível; seguindo sem cache.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		redisClient.Close()
	} else {
		defer redisClient.Close()
		cacheClient = redisClient
		log.Info("Conexão Redis estabelecida.", nil)
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	projectRepo := projectrepo.NewProjectRepository(db, cfg.DBTimeout, log)
	packageRepo := packagerepo.NewPackageRepository(db, cfg.DBTimeout, log)
	scenarioRepo := scenariorepo.NewScenarioRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	packageGuard := lifecycle.NewPackageGuard(policy, nil)
	scenarioGuard := lifecycle.NewScenarioGuard(policy)

	userSvc := userservice.NewService(userRepo, tokenSvc, userservice.Options{
		EnforcePasswordComplexity: cfg.PasswordComplexityEnforced,
	}, log)
	projectSvc := projectservice.NewService(projectRepo, userRepo, policy, log)
	packageSvc := packageservice.NewService(packageRepo, projectRepo, packageGuard, cacheClient, cfg.MetricsCacheTTL, log)
	scenarioSvc := scenarioservice.NewService(scenarioRepo, packageRepo, projectRepo, scenarioGuard, cacheClient, log)
	log.Debug("Serviços inicializados.", nil)

	handlers := router.Handlers{
		User:     user.NewHandler(userSvc, log),
		Project:  project.NewHandler(projectSvc, log),
		Package:  testpackage.NewHandler(packageSvc, log),
		Scenario: scenario.NewHandler(scenarioSvc, log),
	}

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(handlers, router.Options{
		TokenService:    tokenSvc,
		Cache:           cacheClient,
		RateLimitMax:    cfg.RateLimitMaxRequests,
		RateLimitPeriod: cfg.RateLimitPeriod,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoTestCase ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
