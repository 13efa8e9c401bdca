package storage

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed migrations/*
var migrationsFS embed.FS

// Migrate runs every embedded .up.sql file in name order.
func (p *ProviderSQL) Migrate() error {
	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		p.logger.Error("Failed to get embedded migrations directory;", "error", err)
		return err
	}
	files, err := fs.ReadDir(migrationsDir, ".")
	if err != nil {
		p.logger.Error("Failed to read migrations directory;", "error", err)
		return err
	}
	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".up.sql") {
			continue
		}
		if err := p.executeMigration(migrationsDir, file.Name()); err != nil {
			p.logger.Error("Failed to execute migration", "file", file.Name(), "error", err)
			return err
		}
	}
	p.logger.Debug("All migrations executed successfully!")
	return nil
}

func (p *ProviderSQL) executeMigration(migrationsDir fs.FS, fileName string) error {
	migrationContent, err := fs.ReadFile(migrationsDir, fileName)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", fileName, err)
	}
	return p.executeSQL(migrationContent)
}

func (p *ProviderSQL) executeSQL(sqlContent []byte) error {
	_, err := p.db.Exec(string(sqlContent))
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}
