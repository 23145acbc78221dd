package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/wanderly/travel-agency-backend/internal/config"
	"github.com/wanderly/travel-agency-backend/internal/database"
)

// ledgerTables are truncated children first; commission rules survive unless -rules is set
var ledgerTables = []string{
	"payment_audits",
	"payments",
	"tour_details",
	"bookings",
}

func main() {
	var (
		dbURLFlag    string
		includeRules bool
		confirm      bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&includeRules, "rules", false, "also clear commission_rules")
	flag.BoolVar(&confirm, "yes", false, "confirm destructive truncate")
	flag.Parse()

	_ = godotenv.Load()

	if os.Getenv("ENVIRONMENT") == "production" {
		log.Fatal("refusing to clear ledger data in production")
	}
	if !confirm {
		log.Fatal("this truncates every booking and payment; re-run with -yes")
	}

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	tables := ledgerTables
	if includeRules {
		tables = append(tables, "commission_rules")
	}

	fmt.Println("Connected to database. Truncating ledger tables...")
	for _, t := range tables {
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", t)); err != nil {
			log.Fatalf("failed to truncate %s: %v", t, err)
		}
	}

	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
