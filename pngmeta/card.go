package pngmeta

import (
	"bytes"
	"charapng/models"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// cKey is the text chunk keyword Tavern-compatible tools store cards under.
const cKey = "chara"

// FindCardText returns the first text chunk keyed "chara" and its index.
// Later duplicates are ignored. Malformed text chunks under other keywords
// are skipped; a malformed "chara" chunk is an error.
func FindCardText(chunks []Chunk) (TextChunk, int, error) {
	for i, c := range chunks {
		tc, ok, err := DecodeText(c)
		if !ok {
			continue
		}
		if err != nil {
			if hasCardKeyword(c) {
				return TextChunk{}, i, err
			}
			continue
		}
		if tc.Keyword == cKey {
			return tc, i, nil
		}
	}
	return TextChunk{}, -1, ErrMissingCard
}

func hasCardKeyword(c Chunk) bool {
	if c.Type != tEXt && c.Type != iTXt {
		return false
	}
	return bytes.HasPrefix(c.Data, []byte(cKey+"\x00"))
}

// DecodeCard turns the base64 text of a card chunk into a validated card.
// Version 1 cards, which keep their fields at the top level, are lifted
// into the v2 layout and marked as v2 so they can be written back.
func DecodeCard(text string) (*models.CardPayload, error) {
	raw, err := decodeBase64(text)
	if err != nil {
		return nil, &InvalidBase64Error{Err: err}
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		var se *json.SyntaxError
		if errors.As(err, &se) || !json.Valid(raw) {
			return nil, &InvalidJSONError{Err: err}
		}
		top = nil
	}
	if top == nil {
		return nil, &SchemaValidationError{Fields: []string{"spec", "data", "data.name"}}
	}
	_, hasData := top["data"]
	_, hasSpec := top["spec"]
	if !hasData && !hasSpec {
		if _, ok := top["name"]; ok {
			return decodeV1(raw, top)
		}
	}
	if missing := checkV2(top); len(missing) > 0 {
		return nil, &SchemaValidationError{Fields: missing}
	}
	card := &models.CardPayload{}
	if err := json.Unmarshal(raw, card); err != nil {
		return nil, schemaOrJSONError(err)
	}
	return card, nil
}

func decodeV1(raw []byte, top map[string]json.RawMessage) (*models.CardPayload, error) {
	if _, ok := jsonString(top["name"]); !ok {
		return nil, &SchemaValidationError{Fields: []string{"name"}}
	}
	card := &models.CardPayload{Spec: models.SpecV2, SpecVersion: models.SpecVersion}
	if err := json.Unmarshal(raw, &card.Data); err != nil {
		return nil, schemaOrJSONError(err)
	}
	return card, nil
}

func checkV2(top map[string]json.RawMessage) []string {
	var missing []string
	if spec, ok := jsonString(top["spec"]); !ok || !knownSpec(spec) {
		missing = append(missing, "spec")
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(top["data"], &data); err != nil || data == nil {
		return append(missing, "data", "data.name")
	}
	if _, ok := jsonString(data["name"]); !ok {
		missing = append(missing, "data.name")
	}
	return missing
}

// jsonString treats absent, null and non-string values alike.
func jsonString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func knownSpec(spec string) bool {
	switch spec {
	case models.SpecV2, models.SpecV3:
		return true
	}
	return false
}

func schemaOrJSONError(err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		field := te.Field
		if field == "" {
			field = "data"
		}
		return &SchemaValidationError{Fields: []string{field}}
	}
	return &InvalidJSONError{Err: err}
}

// decodeBase64 accepts padded or unpadded standard base64 and ignores
// line breaks some writers insert.
func decodeBase64(text string) ([]byte, error) {
	compact := strings.Join(strings.Fields(text), "")
	raw, err := base64.StdEncoding.DecodeString(compact)
	if err == nil {
		return raw, nil
	}
	if !strings.Contains(compact, "=") {
		if raw, rerr := base64.RawStdEncoding.DecodeString(compact); rerr == nil {
			return raw, nil
		}
	}
	return nil, err
}

// EncodeCard serialises the card (spec, spec_version, data, then any
// retained extras) and returns it base64 encoded.
func EncodeCard(card *models.CardPayload) (string, error) {
	jsonData, err := models.MarshalNoEscape(card)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(jsonData), nil
}

// InsertCardChunk drops every existing "chara" text chunk and places
// cardChunk right after IHDR. Without IHDR it goes before the first IDAT,
// then before IEND.
func InsertCardChunk(chunks []Chunk, cardChunk Chunk) []Chunk {
	kept := make([]Chunk, 0, len(chunks)+1)
	for _, c := range chunks {
		if !hasCardKeyword(c) {
			kept = append(kept, c)
		}
	}
	at := insertPosition(kept)
	out := make([]Chunk, 0, len(kept)+1)
	out = append(out, kept[:at]...)
	out = append(out, cardChunk)
	return append(out, kept[at:]...)
}

func insertPosition(chunks []Chunk) int {
	for i, c := range chunks {
		if c.Type == IHDR {
			return i + 1
		}
	}
	for _, typ := range []string{IDAT, IEND} {
		for i, c := range chunks {
			if c.Type == typ {
				return i
			}
		}
	}
	return len(chunks)
}

// ExtractCard reads the card embedded in a PNG byte stream.
func ExtractCard(data []byte) (*models.CardPayload, error) {
	chunks, err := Parse(data)
	if err != nil {
		return nil, err
	}
	tc, _, err := FindCardText(chunks)
	if err != nil {
		return nil, err
	}
	return DecodeCard(tc.Text)
}

// EmbedCard returns a copy of the PNG with the card stored in a tEXt chunk.
// Pixel data and unrelated chunks pass through untouched.
func EmbedCard(data []byte, card *models.CardPayload) ([]byte, error) {
	chunks, err := Parse(data)
	if err != nil {
		return nil, err
	}
	payload, err := EncodeCard(card)
	if err != nil {
		return nil, err
	}
	cardChunk, err := EncodeText(TextChunk{Form: FormPlain, Keyword: cKey, Text: payload})
	if err != nil {
		return nil, err
	}
	return Write(InsertCardChunk(chunks, cardChunk))
}

// ImportPersona extracts the card and maps it to a persona. The image
// bytes are kept as the persona's profile image.
func ImportPersona(data []byte) (*models.CardPayload, *models.PersonaRecord, error) {
	card, err := ExtractCard(data)
	if err != nil {
		return nil, nil, err
	}
	persona := card.ToPersona()
	persona.ProfileImage = bytes.Clone(data)
	return card, persona, nil
}

// ExportPersona embeds the persona into base, falling back to the
// persona's profile image and then to a placeholder rendered from opts.
func ExportPersona(p *models.PersonaRecord, base []byte, opts ExportOptions) ([]byte, error) {
	opts = opts.withDefaults()
	if len(base) == 0 {
		base = p.ProfileImage
	}
	if len(base) == 0 {
		var err error
		base, err = DefaultImage(opts.ImageWidth, opts.ImageHeight, opts.ImageColor)
		if err != nil {
			return nil, err
		}
	}
	return EmbedCard(base, models.CardFromPersona(p, opts.Creator))
}
