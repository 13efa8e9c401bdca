package storage

import (
	"charapng/models"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

type FullRepo interface {
	PersonaStore
	CardCache
	Close() error
}

type PersonaStore interface {
	ListPersonas() ([]models.PersonaRecord, error)
	GetPersona(aiName string) (*models.PersonaRecord, error)
	GetPersonaByID(id uint32) (*models.PersonaRecord, error)
	UpsertPersona(p *models.PersonaRecord) (*models.PersonaRecord, error)
	RemovePersona(id uint32) error
}

type ProviderSQL struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func (p ProviderSQL) ListPersonas() ([]models.PersonaRecord, error) {
	resp := []models.PersonaRecord{}
	err := p.db.Select(&resp, "SELECT * FROM personas ORDER BY ai_name;")
	return resp, err
}

func (p ProviderSQL) GetPersona(aiName string) (*models.PersonaRecord, error) {
	resp := models.PersonaRecord{}
	err := p.db.Get(&resp, "SELECT * FROM personas WHERE ai_name=$1;", aiName)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p ProviderSQL) GetPersonaByID(id uint32) (*models.PersonaRecord, error) {
	resp := models.PersonaRecord{}
	err := p.db.Get(&resp, "SELECT * FROM personas WHERE id=$1;", id)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpsertPersona inserts the persona or replaces the one with the same name.
func (p ProviderSQL) UpsertPersona(persona *models.PersonaRecord) (*models.PersonaRecord, error) {
	now := time.Now()
	row := *persona
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	query := `
        INSERT INTO personas (ai_name, persona_description, greeting, stored_scenario,
            stored_examples, profile_image, file_path, created_at, updated_at)
        VALUES (:ai_name, :persona_description, :greeting, :stored_scenario,
            :stored_examples, :profile_image, :file_path, :created_at, :updated_at)
        ON CONFLICT(ai_name) DO UPDATE SET
            persona_description = excluded.persona_description,
            greeting = excluded.greeting,
            stored_scenario = excluded.stored_scenario,
            stored_examples = excluded.stored_examples,
            profile_image = excluded.profile_image,
            file_path = excluded.file_path,
            updated_at = excluded.updated_at
        RETURNING id;`
	stmt, err := p.db.PrepareNamed(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	var id uint32
	if err := stmt.Get(&id, row); err != nil {
		return nil, err
	}
	// reselect so timestamp columns come back typed
	return p.GetPersonaByID(id)
}

func (p ProviderSQL) RemovePersona(id uint32) error {
	query := "DELETE FROM personas WHERE id = $1;"
	_, err := p.db.Exec(query, id)
	return err
}

func (p ProviderSQL) Close() error {
	return p.db.Close()
}

// NewProviderSQL opens the sqlite database at dbPath and applies migrations.
func NewProviderSQL(dbPath string, logger *slog.Logger) (FullRepo, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// a second connection would see a different :memory: database
	db.SetMaxOpenConns(1)
	var version string
	if err := db.Get(&version, "select sqlite_version()"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	logger.Debug("opened sqlite", "path", dbPath, "version", version)
	p := &ProviderSQL{db: db, logger: logger}
	if err := p.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}
