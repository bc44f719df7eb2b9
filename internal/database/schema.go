package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"yatube/internal/config"
	"yatube/internal/middleware"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	// SchemaModeHybrid runs the SQL history, then AutoMigrate outside production.
	SchemaModeHybrid = "hybrid"
	// SchemaModeSQL runs only the embedded SQL history.
	SchemaModeSQL = "sql"
	// SchemaModeAuto builds tables from the model tags only.
	SchemaModeAuto = "auto"
)

// schemaPlan is what ApplySchema will do for a configuration.
type schemaPlan struct {
	mode    string
	sql     bool
	autoMig bool
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.mode == "" {
		plan.mode = SchemaModeHybrid
	}

	switch plan.mode {
	case SchemaModeSQL:
		plan.sql = true
	case SchemaModeAuto:
		if cfg.IsProduction() {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		plan.autoMig = true
	case SchemaModeHybrid:
		plan.sql = true
		plan.autoMig = !cfg.IsProduction()
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.mode)
	}
	return plan, nil
}

// AutoMigrate creates or updates the blog tables from the model tags.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the blog tables up to date and warns about any
// guarantee the resulting schema does not provide.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.autoMig {
		middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate",
			slog.String("mode", plan.mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	for _, check := range CheckSchema(ctx, db) {
		if !check.OK {
			middleware.Logger.WarnContext(ctx, "Schema check failed",
				slog.String("check", check.Name), slog.String("guards", check.Guards), slog.String("detail", check.Detail))
		}
	}
	return nil
}

// SchemaCheck reports one structural guarantee the blog relies on.
type SchemaCheck struct {
	Name   string
	Guards string
	OK     bool
	Detail string
}

type schemaObjectKind int

const (
	schemaIndex schemaObjectKind = iota
	schemaConstraint
)

var blogSchemaObjects = []struct {
	model  any
	kind   schemaObjectKind
	name   string
	guards string
}{
	{&models.User{}, schemaIndex, "idx_users_username", "one profile per username"},
	{&models.Group{}, schemaIndex, "idx_groups_slug", "one group page per slug"},
	{&models.Post{}, schemaIndex, "idx_posts_pub_date", "newest-first listings"},
	{&models.Post{}, schemaConstraint, "fk_posts_author", "deleting an author deletes their posts"},
	{&models.Post{}, schemaConstraint, "fk_posts_group", "deleting a group keeps its posts ungrouped"},
	{&models.Comment{}, schemaConstraint, "fk_comments_post", "deleting a post deletes its comments"},
	{&models.Comment{}, schemaConstraint, "fk_comments_author", "deleting an author deletes their comments"},
	{&models.Follow{}, schemaIndex, "idx_follow_user_author", "a reader follows an author at most once"},
	{&models.Follow{}, schemaConstraint, "chk_follows_not_self", "nobody follows themselves"},
}

// CheckSchema inspects the live schema: every blog table exists with the
// nullability its model declares, and the indexes and constraints behind the
// uniqueness and cascade rules are in place.
func CheckSchema(ctx context.Context, db *gorm.DB) []SchemaCheck {
	db = db.WithContext(ctx)
	m := db.Migrator()

	var checks []SchemaCheck
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			checks = append(checks, SchemaCheck{Name: fmt.Sprintf("%T", model), Guards: "model mapping", Detail: err.Error()})
			continue
		}
		table := stmt.Schema.Table

		if !m.HasTable(model) {
			checks = append(checks, SchemaCheck{Name: "table " + table, Guards: "storage", Detail: "missing"})
			continue
		}
		drift, err := columnDrift(db, stmt, model)
		check := SchemaCheck{Name: "columns " + table, Guards: "AutoMigrate finds nothing to alter", OK: err == nil && len(drift) == 0}
		switch {
		case err != nil:
			check.Detail = err.Error()
		case len(drift) > 0:
			check.Detail = strings.Join(drift, "; ")
		}
		checks = append(checks, check)
	}

	for _, obj := range blogSchemaObjects {
		var ok bool
		if obj.kind == schemaIndex {
			ok = m.HasIndex(obj.model, obj.name)
		} else {
			ok = m.HasConstraint(obj.model, obj.name)
		}
		check := SchemaCheck{Name: obj.name, Guards: obj.guards, OK: ok}
		if !ok {
			check.Detail = "missing"
		}
		checks = append(checks, check)
	}
	return checks
}

// columnDrift lists columns whose NULL-ability differs from the model. These
// are the columns AutoMigrate would alter.
func columnDrift(db *gorm.DB, stmt *gorm.Statement, model any) ([]string, error) {
	cols, err := db.Migrator().ColumnTypes(model)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", stmt.Schema.Table, err)
	}
	byName := make(map[string]gorm.ColumnType, len(cols))
	for _, c := range cols {
		byName[c.Name()] = c
	}

	var drift []string
	for _, name := range stmt.Schema.DBNames {
		field := stmt.Schema.LookUpField(name)
		if field == nil || field.PrimaryKey {
			continue
		}
		col, ok := byName[name]
		if !ok {
			drift = append(drift, name+" missing")
			continue
		}
		if nullable, known := col.Nullable(); known && nullable == field.NotNull {
			drift = append(drift, fmt.Sprintf("%s nullable=%t but model not null=%t", name, nullable, field.NotNull))
		}
	}
	return drift, nil
}

// SchemaStatus describes the schema plan, the SQL history and the checks.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  Migrations
	Checks             []SchemaCheck
}

// Healthy reports whether every schema check passed.
func (s *SchemaStatus) Healthy() bool {
	for _, c := range s.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// GetSchemaStatus reports what ApplySchema would do and how the live schema looks.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.autoMig,
	}
	if plan.sql {
		applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
		if err != nil {
			return nil, err
		}
		status.AppliedVersions = applied
		status.PendingMigrations = blogMigrations.Pending(applied)
	}
	status.Checks = CheckSchema(ctx, db)
	return status, nil
}
