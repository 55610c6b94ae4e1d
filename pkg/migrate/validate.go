package migrate

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateFS checks every dialect directory under root: filenames follow the
// goose version pattern, each file declares Up and Down sections, and all
// dialects carry the same set of migration names.
func ValidateFS(fsys fs.FS, root string) error {
	var reference []string
	var referenceDialect string

	for _, dialect := range Dialects {
		names, err := validateDir(fsys, path.Join(root, dialect))
		if err != nil {
			return err
		}
		if referenceDialect == "" {
			reference, referenceDialect = names, dialect
			continue
		}
		if strings.Join(names, ",") != strings.Join(reference, ",") {
			return fmt.Errorf("migration sets differ between %s %v and %s %v", referenceDialect, reference, dialect, names)
		}
	}
	return nil
}

func validateDir(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	names := []string{}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}

		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}
