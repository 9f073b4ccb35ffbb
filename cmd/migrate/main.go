package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tailorshop/internal/config"
	"tailorshop/internal/db"

	"github.com/jmoiron/sqlx"
)

const downMarker = "-- +migrate Down"

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.sql migrations")
	dryRun := flag.Bool("dry-run", false, "list pending migrations without applying them")
	flag.Parse()

	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		log.Fatalf("failed to ensure schema_migrations: %v", err)
	}
	var applied []string
	if err := database.Select(&applied, `SELECT filename FROM schema_migrations`); err != nil {
		log.Fatalf("failed to read migration state: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		log.Fatalf("failed to read migrations: %v", err)
	}
	pending := pendingFiles(files, applied)
	if len(pending) == 0 {
		log.Printf("schema is up to date")
		return
	}

	ctx := context.Background()
	for _, file := range pending {
		name := filepath.Base(file)
		if *dryRun {
			fmt.Printf("pending %s\n", name)
			continue
		}
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", name, err)
		}
		err = db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
			for _, stmt := range splitStatements(upSection(string(content))) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			log.Fatalf("failed to apply %s: %v", name, err)
		}
		fmt.Printf("applied %s\n", name)
	}
}

// pendingFiles returns the not yet applied migrations in filename order.
func pendingFiles(files, applied []string) []string {
	done := make(map[string]struct{}, len(applied))
	for _, name := range applied {
		done[name] = struct{}{}
	}
	var pending []string
	for _, file := range files {
		if _, ok := done[filepath.Base(file)]; !ok {
			pending = append(pending, file)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return filepath.Base(pending[i]) < filepath.Base(pending[j]) })
	return pending
}

func upSection(content string) string {
	up, _, _ := strings.Cut(content, downMarker)
	return up
}

// splitStatements breaks a script on lines ending a statement with ';'.
// Comment lines are dropped.
func splitStatements(script string) []string {
	var (
		statements []string
		current    strings.Builder
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}
	scanner := bufio.NewScanner(strings.NewReader(script))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()
	return statements
}
