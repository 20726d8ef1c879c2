// Command seed applies the schema and inserts the demo users the service
// expects during local development. Users are created externally in
// production; nothing in the service itself writes user rows.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"BasketStore/internal/config"
	"BasketStore/pkg/kit"
)

type seedUser struct {
	id      int
	name    string
	balance string
}

var seedUsers = []seedUser{
	{1, "Max Mustermann", "100.00"},
	{2, "Erika Musterfrau", "250.00"},
	{3, "John Doe", "42.50"},
	{4, "Jane Roe", "1000.00"},
}

func main() {
	schemaPath := flag.String("schema", "db/schema.sql", "path to the schema file")
	flag.Parse()

	log := kit.NewLogger("seed")
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	schema, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatal("read schema", zap.Error(err))
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		log.Fatal("apply schema", zap.Error(err))
	}

	for _, u := range seedUsers {
		_, err := db.ExecContext(ctx, `
			INSERT INTO users (id, name, balance)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, balance = EXCLUDED.balance
		`, u.id, u.name, u.balance)
		if err != nil {
			log.Fatal("seed user", zap.Error(err), zap.Int("user_id", u.id))
		}
	}

	log.Info("seed complete", zap.Int("users", len(seedUsers)))
}
