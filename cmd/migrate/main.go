// Command migrate runs schema operations for the backend.
package main

import (
	"flag"
	"fmt"
	"log"
	"slices"
	"strings"

	"crwn/internal/config"
	"crwn/internal/database"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status|reset>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("schema applied")
	case "status":
		missing := status(db)
		log.Printf("env=%s driver=%s tables=%d missing=%d",
			cfg.Env, cfg.DBDriver, len(database.PersistentModels()), len(missing))
		for _, name := range missing {
			log.Printf("missing: %s", name)
		}
	case "reset":
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to reset a production database")
		}
		models := database.PersistentModels()
		slices.Reverse(models)
		if err := db.Migrator().DropTable(models...); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("database reset")
	default:
		return usage()
	}

	return nil
}

// status returns the tables that do not exist yet.
func status(db *gorm.DB) []string {
	var missing []string
	for _, m := range database.PersistentModels() {
		if db.Migrator().HasTable(m) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			missing = append(missing, fmt.Sprintf("%T", m))
			continue
		}
		missing = append(missing, stmt.Schema.Table)
	}
	return missing
}
