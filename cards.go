package main

import (
	"charapng/models"
	"charapng/pngmeta"
	"charapng/preview"
	"charapng/storage"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// importCard decodes the card in fpath, going through the cache and saving
// the persona when a store is configured.
func importCard(fpath string) (*models.PersonaRecord, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	if err := pngmeta.CheckPNG(data); err != nil {
		return nil, fmt.Errorf("%s: %w", fpath, err)
	}
	card, err := cachedExtract(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fpath, err)
	}
	persona := card.ToPersona()
	persona.ProfileImage = data
	persona.FilePath = fpath
	if store == nil {
		return persona, nil
	}
	saved, err := store.UpsertPersona(persona)
	if err != nil {
		return nil, fmt.Errorf("failed to save persona %q: %w", persona.AIName, err)
	}
	logger.Info("imported card", "name", saved.AIName, "id", saved.ID, "file", fpath)
	return saved, nil
}

func cachedExtract(data []byte) (*models.CardPayload, error) {
	if store == nil || !cfg.CacheEnabled {
		return pngmeta.ExtractCard(data)
	}
	hash := storage.HashBytes(data)
	card, err := store.GetCachedCard(hash)
	switch {
	case err == nil:
		logger.Debug("card cache hit", "hash", hash)
		return card, nil
	case !errors.Is(err, sql.ErrNoRows):
		logger.Warn("card cache lookup failed", "hash", hash, "error", err)
	}
	card, err = pngmeta.ExtractCard(data)
	if err != nil {
		return nil, err
	}
	if err := store.PutCachedCard(hash, card); err != nil {
		logger.Warn("failed to cache card", "hash", hash, "error", err)
	}
	return card, nil
}

// loadPersona finds a persona by stored name or, failing that, reads it
// from a JSON file.
func loadPersona(nameOrFile string) (*models.PersonaRecord, error) {
	if store != nil {
		p, err := store.GetPersona(nameOrFile)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	data, err := os.ReadFile(nameOrFile)
	if err != nil {
		return nil, fmt.Errorf("no stored persona or file named %q: %w", nameOrFile, err)
	}
	p := &models.PersonaRecord{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%s: %w", nameOrFile, err)
	}
	return p, nil
}

// exportCard writes persona as a card png to outfile. The carrier image is
// basePath, else the persona's profile image, else a generated one.
func exportCard(p *models.PersonaRecord, basePath, outfile string) error {
	if err := pngmeta.WriteToPng(p, basePath, outfile, exportOptions()); err != nil {
		return err
	}
	logger.Info("exported card", "name", p.AIName, "file", outfile)
	return nil
}

func exportOptions() pngmeta.ExportOptions {
	return pngmeta.ExportOptions{
		Creator:     cfg.CreatorName,
		ImageWidth:  cfg.DefaultImageWidth,
		ImageHeight: cfg.DefaultImageHeight,
		ImageColor:  cfg.DefaultImageColor,
	}
}

func previewCard(fpath, outfile string) error {
	persona, err := importCard(fpath)
	if err != nil {
		return err
	}
	page, err := preview.Render(persona.Resolve(cfg.UserRole))
	if err != nil {
		return err
	}
	return os.WriteFile(outfile, []byte(page), 0666)
}
