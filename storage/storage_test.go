package storage

import (
	"charapng/models"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func newTestRepo(t *testing.T) FullRepo {
	t.Helper()
	repo, err := NewProviderSQL(":memory:", slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Failed to open SQLite in-memory database: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestPersonas(t *testing.T) {
	repo := newTestRepo(t)
	cases := []struct {
		persona *models.PersonaRecord
	}{
		{persona: &models.PersonaRecord{AIName: "Alice", PersonaDescription: "kind\n\ncurious", Greeting: "Hi there!", ProfileImage: []byte{1, 2, 3}}},
		{persona: &models.PersonaRecord{AIName: "Bob", StoredScenario: "{{user}} at sea", StoredExamples: "<START>"}},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			saved, err := repo.UpsertPersona(tc.persona)
			if err != nil {
				t.Fatalf("Failed to upsert persona: %v", err)
			}
			if saved.ID == 0 {
				t.Fatalf("Expected an id to be assigned")
			}
			got, err := repo.GetPersona(tc.persona.AIName)
			if err != nil {
				t.Fatalf("Failed to get persona: %v", err)
			}
			if got.ID != saved.ID || got.PersonaDescription != tc.persona.PersonaDescription ||
				got.Greeting != tc.persona.Greeting || got.StoredScenario != tc.persona.StoredScenario ||
				got.StoredExamples != tc.persona.StoredExamples || string(got.ProfileImage) != string(tc.persona.ProfileImage) {
				t.Errorf("Expected %+v, got %+v", tc.persona, got)
			}
		})
	}
	list, err := repo.ListPersonas()
	if err != nil {
		t.Fatalf("Failed to list personas: %v", err)
	}
	if len(list) != 2 || list[0].AIName != "Alice" {
		t.Fatalf("Expected Alice and Bob, got %v", list)
	}
	// same name updates in place
	updated, err := repo.UpsertPersona(&models.PersonaRecord{AIName: "Alice", Greeting: "Hello again"})
	if err != nil {
		t.Fatalf("Failed to update persona: %v", err)
	}
	if updated.ID != list[0].ID || updated.Greeting != "Hello again" {
		t.Errorf("Expected update of id %d, got %+v", list[0].ID, updated)
	}
	if err := repo.RemovePersona(updated.ID); err != nil {
		t.Fatalf("Failed to remove persona: %v", err)
	}
	if _, err := repo.GetPersonaByID(updated.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected no rows after removal, got %v", err)
	}
}

func TestCardCache(t *testing.T) {
	repo := newTestRepo(t)
	hash := HashBytes([]byte("png bytes"))
	if len(hash) != 64 {
		t.Fatalf("Expected hex sha256, got %q", hash)
	}
	if _, err := repo.GetCachedCard(hash); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Expected a miss, got %v", err)
	}
	card := models.CardFromPersona(&models.PersonaRecord{AIName: "Alice", Greeting: "Hi <there>"}, "")
	if err := repo.PutCachedCard(hash, card); err != nil {
		t.Fatalf("Failed to cache card: %v", err)
	}
	got, err := repo.GetCachedCard(hash)
	if err != nil {
		t.Fatalf("Failed to read cached card: %v", err)
	}
	if got.Data.Name != "Alice" || got.Data.FirstMes != "Hi <there>" || got.Spec != models.SpecV2 {
		t.Errorf("Unexpected cached card %+v", got)
	}
}
