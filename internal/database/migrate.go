package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Migration is one numbered change to the blog schema and its rollback.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Migrations is a schema history ordered by version.
type Migrations []Migration

// Find returns the migration with the given version.
func (ms Migrations) Find(version int) (Migration, bool) {
	i := slices.IndexFunc(ms, func(m Migration) bool { return m.Version == version })
	if i < 0 {
		return Migration{}, false
	}
	return ms[i], true
}

// Pending lists the migrations whose versions are not in applied.
func (ms Migrations) Pending(applied []int) Migrations {
	var out Migrations
	for _, m := range ms {
		if !slices.Contains(applied, m.Version) {
			out = append(out, m)
		}
	}
	return out
}

// Unknown returns applied versions this binary has no script for, sorted.
// A non-empty result means the database is ahead of the code.
func (ms Migrations) Unknown(applied []int) []int {
	var out []int
	for _, v := range applied {
		if _, ok := ms.Find(v); !ok {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

//go:embed migrations/*.sql
var migrationFiles embed.FS

var blogMigrations = mustLoadMigrations(migrationFiles, "migrations")

// EmbeddedMigrations returns the schema history shipped in the binary.
func EmbeddedMigrations() Migrations {
	return blogMigrations
}

var migrationFileName = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

// LoadMigrations reads NNNNNN_name.up.sql and NNNNNN_name.down.sql pairs from
// dir. Every version needs both halves.
func LoadMigrations(fsys fs.FS, dir string) (Migrations, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		parts := migrationFileName.FindStringSubmatch(entry.Name())
		if parts == nil {
			return nil, fmt.Errorf("unexpected file %q in %s", entry.Name(), dir)
		}
		version, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", entry.Name(), err)
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: parts[2]}
			byVersion[version] = m
		} else if m.Name != parts[2] {
			return nil, fmt.Errorf("version %06d is used by %q and %q", version, m.Name, parts[2])
		}
		if parts[3] == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make(Migrations, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.Up) == "" || strings.TrimSpace(m.Down) == "" {
			return nil, fmt.Errorf("migration %s needs both an up and a down script", m)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func mustLoadMigrations(fsys fs.FS, dir string) Migrations {
	ms, err := LoadMigrations(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return ms
}
