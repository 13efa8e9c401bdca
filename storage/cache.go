package storage

import (
	"charapng/models"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// CardCache remembers decoded cards by the SHA-256 of the image bytes so
// rescanning an unchanged directory skips the codec.
type CardCache interface {
	GetCachedCard(hash string) (*models.CardPayload, error)
	PutCachedCard(hash string, card *models.CardPayload) error
}

type cachedCard struct {
	Hash      string    `db:"hash"`
	CardJSON  string    `db:"card_json"`
	CreatedAt time.Time `db:"created_at"`
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GetCachedCard returns sql.ErrNoRows on a miss.
func (p ProviderSQL) GetCachedCard(hash string) (*models.CardPayload, error) {
	var row cachedCard
	if err := p.db.Get(&row, "SELECT * FROM card_cache WHERE hash=$1;", hash); err != nil {
		return nil, err
	}
	card := &models.CardPayload{}
	if err := json.Unmarshal([]byte(row.CardJSON), card); err != nil {
		p.logger.Warn("dropping unreadable cache entry", "hash", hash, "error", err)
		if _, derr := p.db.Exec("DELETE FROM card_cache WHERE hash=$1;", hash); derr != nil {
			p.logger.Error("failed to drop cache entry", "hash", hash, "error", derr)
		}
		return nil, err
	}
	return card, nil
}

func (p ProviderSQL) PutCachedCard(hash string, card *models.CardPayload) error {
	data, err := models.MarshalNoEscape(card)
	if err != nil {
		return err
	}
	query := "INSERT OR REPLACE INTO card_cache (hash, card_json, created_at) VALUES (:hash, :card_json, :created_at);"
	_, err = p.db.NamedExec(query, cachedCard{Hash: hash, CardJSON: string(data), CreatedAt: time.Now()})
	return err
}
