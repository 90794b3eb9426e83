package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var skeletons = template.Must(template.New("").Parse(`
{{- define "up"}}-- Migration: {{.Name}}
-- Created: {{.Timestamp}}
-- Description: {{.Description}}

{{end}}
{{- define "down"}}-- Migration: {{.Name}} (Rollback)
-- Created: {{.Timestamp}}

{{end}}`))

// MigrationFile describes one generated up/down pair
type MigrationFile struct {
	Driver      string
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes empty up/down skeletons under baseDir/<driver>,
// postgres and sqlite by default. Every driver gets the same version, one
// past the highest found in any of them.
func CreateMigration(baseDir, name, description string, drivers ...string) ([]MigrationFile, error) {
	if len(drivers) == 0 {
		drivers = []string{DriverPostgres, DriverSQLite}
	}
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	latest := 0
	for _, d := range drivers {
		v, err := latestVersion(filepath.Join(baseDir, d))
		if err != nil {
			return nil, err
		}
		latest = max(latest, v)
	}
	version := fmt.Sprintf("%06d", latest+1)
	created := time.Now().Format(time.RFC3339)

	var files []MigrationFile
	for _, d := range drivers {
		dir := filepath.Join(baseDir, d)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
		stem := filepath.Join(dir, version+"_"+slug)
		mf := MigrationFile{
			Driver:      d,
			Version:     version,
			Name:        name,
			Description: description,
			Timestamp:   created,
			UpPath:      stem + ".up.sql",
			DownPath:    stem + ".down.sql",
		}
		if err := writeSkeleton(mf.UpPath, "up", mf); err != nil {
			return nil, err
		}
		if err := writeSkeleton(mf.DownPath, "down", mf); err != nil {
			return nil, errors.Join(err, os.Remove(mf.UpPath))
		}
		files = append(files, mf)
	}
	return files, nil
}

// writeSkeleton never overwrites an existing file
func writeSkeleton(path, kind string, mf MigrationFile) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if err := skeletons.ExecuteTemplate(f, kind, mf); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func latestVersion(dir string) (int, error) {
	names, err := ListMigrations(os.DirFS(dir))
	if err != nil {
		return 0, err
	}
	v := 0
	for _, n := range names {
		prefix, _, _ := strings.Cut(n, "_")
		if n, err := strconv.Atoi(prefix); err == nil {
			v = max(v, n)
		}
	}
	return v, nil
}

// sanitizeName lowercases name into snake_case, dropping anything outside
// [a-z0-9]
func sanitizeName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	kept := words[:0]
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, "_")
}

// ListMigrations returns the sorted version_name stems of the *.up.sql
// files in fsys. A missing directory is empty.
func ListMigrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	stems := []string{}
	for _, e := range entries {
		if stem, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok && stem != "" && !e.IsDir() {
			stems = append(stems, stem)
		}
	}
	slices.Sort(stems)
	return stems, nil
}
