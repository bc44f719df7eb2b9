// Command migrate manages the blog schema: it applies or rolls back the SQL
// history and verifies the tables, indexes and constraints the blog relies on.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"yatube/internal/config"
	"yatube/internal/database"

	"gorm.io/gorm"
)

type command struct {
	usage string
	run   func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up":     {"up", migrateUp},
	"auto":   {"auto", migrateAuto},
	"status": {"status", showStatus},
	"check":  {"check", checkSchema},
	"down":   {"down <version>", migrateDown},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.usage)
	}
	sort.Strings(names)
	return fmt.Errorf("usage: migrate <%s>", strings.Join(names, "|"))
}

func run() error {
	flag.Parse()
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(flag.Arg(0)))]
	if !ok {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return cmd.run(context.Background(), db, cfg, flag.Args()[1:])
}

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("sql migrations failed: %w", err)
	}
	log.Println("sql migrations applied")
	return nil
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("auto schema apply failed: %w", err)
	}
	log.Println("blog tables migrated from models")
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: migrate down <version>")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	log.Printf("rolled back migration %06d", version)
	return nil
}

func showStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	fmt.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
		status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
		len(status.AppliedVersions), len(status.PendingMigrations))
	for _, m := range status.PendingMigrations {
		fmt.Printf("pending: %s\n", m)
	}
	printChecks(status.Checks)
	return nil
}

// checkSchema exits non-zero when any blog guarantee is missing from the schema.
func checkSchema(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	checks := database.CheckSchema(ctx, db)
	printChecks(checks)
	failed := 0
	for _, c := range checks {
		if !c.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d schema check(s) failed", failed)
	}
	return nil
}

func printChecks(checks []database.SchemaCheck) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tSTATE\tGUARDS\tDETAIL")
	for _, c := range checks {
		state := "ok"
		if !c.OK {
			state = "FAIL"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, state, c.Guards, c.Detail)
	}
	_ = w.Flush()
}
