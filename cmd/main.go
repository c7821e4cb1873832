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
	"goerp/config"
	"goerp/internal/pkg/cache"
	"goerp/internal/pkg/database"
	"goerp/internal/pkg/logger"
	"goerp/internal/pkg/token"
	"goerp/internal/stockcache"

	// Camadas para Injeção de Dependências
	"goerp/internal/api/form"
	"goerp/internal/api/location"
	"goerp/internal/api/router"
	"goerp/internal/api/stock"
	"goerp/internal/repository/catalogrepo"
	"goerp/internal/repository/recordrepo"
	"goerp/internal/repository/stockrepo"
	"goerp/internal/service/catalogservice"
	"goerp/internal/service/formservice"
	"goerp/internal/service/stockservice"
)

// @title           GoERP Forms API
// @version         1.0
// @description     Sessões de formulário de entrega e venda com checagem de estoque.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço GoERP...")
	if err := godotenv.Load(); err != nil {
		// As variáveis essenciais podem vir do ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	pool := database.DefaultPool
	pool.MaxOpenConns = cfg.DBMaxOpenConns
	pool.MaxIdleConns = cfg.DBMaxIdleConns
	db, err := database.NewPostgresDB(cfg.DatabaseURL, pool, cfg.DBTimeout)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr, cfg.CacheTimeout)
	if err != nil {
		log.Fatal("Falha ao conectar ao Redis.", err)
	}
	defer cacheClient.Close()
	log.Info("Conexão Redis estabelecida.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios
	stockRepo := stockrepo.NewStockRepository(db, cfg.DBTimeout, log)
	recordRepo := recordrepo.NewRecordRepository(db, cfg.DBTimeout, log)
	catalogRepo := catalogrepo.NewCatalogRepository(db, cacheClient, cfg.DBTimeout, cfg.CatalogCacheTTL, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços
	stockSvc := stockservice.NewService(stockRepo, log)
	catalogSvc := catalogservice.NewService(catalogRepo, log)
	formSvc := formservice.NewService(recordRepo, catalogSvc, stockSvc, log, formservice.Options{
		SessionTTL: cfg.FormSessionTTL,
		Stock: stockcache.Options{
			FetchTimeout: cfg.StockFetchTimeout,
			Concurrency:  cfg.StockFetchConcurrency,
		},
	})
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers
	handlers := router.Handlers{
		Form:     form.NewHandler(formSvc, log),
		Stock:    stock.NewHandler(stockSvc, log),
		Location: location.NewHandler(catalogSvc, log),
	}

	// D. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// 4. Roteador e Servidor
	r := router.NewRouter(handlers, tokenSvc, cacheClient, router.RateLimit{
		MaxRequests: cfg.RateLimitMaxRequests,
		Period:      cfg.RateLimitPeriod,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Limpeza periódica das sessões de formulário abandonadas
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		interval := cfg.FormSweepInterval
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case now := <-ticker.C:
				if n := formSvc.Sweep(now); n > 0 {
					log.Info("Sessões de formulário expiradas removidas.", map[string]interface{}{"count": n})
				}
			}
		}
	}()

	// 6. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoERP ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
