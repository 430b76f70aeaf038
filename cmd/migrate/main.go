package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Standalone migration runner for environments where the server binary is not
// available (CI, one-off admin shells). The server's "migrate" subcommand is
// the normal path.
func main() {
	ctx := context.Background()

	connStr := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		connStr = os.Args[1]
	}
	if connStr == "" {
		log.Fatal("Usage: migrate <connection-string> (or set DATABASE_URL)")
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping: %v", err)
	}

	fmt.Println("Connected to database")

	migrations := []string{
		"internal/store/postgres/migrations/001_initial_schema.up.sql",
	}

	for _, migFile := range migrations {
		fmt.Printf("Running %s...\n", migFile)

		content, err := os.ReadFile(migFile)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", migFile, err)
		}

		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			log.Fatalf("Failed to execute %s: %v", migFile, err)
		}

		fmt.Printf("%s completed\n", migFile)
	}

	fmt.Println("All migrations completed successfully")
}
