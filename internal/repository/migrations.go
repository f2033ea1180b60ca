package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
)

// RunMigrations applies every *.up.sql file in dir in lexical order. Files
// that fail because their objects already exist are skipped.
func RunMigrations(ctx context.Context, db DBTX, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return 0, fmt.Errorf("failed to glob migration files: %w", err)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no migration files found in %s", dir)
	}

	sort.Strings(files)

	applied := 0
	for _, file := range files {
		glog.Infof("Running migration: %s", file)
		content, err := os.ReadFile(file)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		_, err = db.Exec(ctx, string(content))
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				glog.Warningf("Migration %s already run or partially run: %v", file, err)
				continue
			}
			return applied, fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
		applied++
	}

	return applied, nil
}
