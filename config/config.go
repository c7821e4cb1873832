package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config armazena todas as configurações do serviço GoERP.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL    string
	DBTimeout      time.Duration
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Cache (Redis)
	RedisAddr       string
	CacheTimeout    time.Duration
	CatalogCacheTTL time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Sessões de formulário
	FormSessionTTL        time.Duration
	FormSweepInterval     time.Duration
	StockFetchTimeout     time.Duration
	StockFetchConcurrency int
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL:    mustGetEnv("DATABASE_URL"),
		DBTimeout:      getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,
		DBMaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 10),

		// 3. Cache (Redis)
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout:    getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,
		CatalogCacheTTL: getDurationEnv("CATALOG_CACHE_TTL_MIN", 10) * time.Minute,

		// 4. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Sessões de formulário e consultas de estoque
		FormSessionTTL:        getDurationEnv("FORM_SESSION_TTL_MIN", 30) * time.Minute,
		FormSweepInterval:     getDurationEnv("FORM_SWEEP_INTERVAL_SEC", 60) * time.Second,
		StockFetchTimeout:     getDurationEnv("STOCK_FETCH_TIMEOUT_SEC", 5) * time.Second,
		StockFetchConcurrency: getIntEnv("STOCK_FETCH_CONCURRENCY", 4),
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável numérica; o chamador multiplica pela unidade.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
// Valores inválidos ou negativos caem no padrão.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
