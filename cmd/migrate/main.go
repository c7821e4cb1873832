package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"goerp/config"
	"goerp/internal/pkg/database"
)

// Executa as migrações de sql/ com goose: go run ./cmd/migrate [-dir ./sql] [up|down|status|...]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema: %v", err)
	}

	cfg := config.LoadConfig()

	var migrationsDir string
	var verbose bool
	flag.StringVar(&migrationsDir, "dir", "./sql", "diretório com os arquivos de migração")
	flag.BoolVar(&verbose, "v", false, "exibe o log do goose")
	flag.Parse()

	db, err := database.NewPostgresDB(cfg.DatabaseURL, database.PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1}, cfg.DBTimeout)
	if err != nil {
		log.Fatalf("goose: falha ao conectar ao DB: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("goose: falha ao fechar o DB: %v", err)
		}
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose: dialeto inválido: %v", err)
	}
	if !verbose {
		goose.SetLogger(goose.NopLogger())
	}

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}
	command, args := arguments[0], arguments[1:]

	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}

	log.Printf("goose %s concluído.", command)
}
