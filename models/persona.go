package models

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

var (
	charPlaceholderRE = regexp.MustCompile(`(?i)\{\{char\}\}`)
	userPlaceholderRE = regexp.MustCompile(`(?i)\{\{user\}\}`)
)

// PersonaRecord is the application side view of a character.
type PersonaRecord struct {
	ID                 uint32    `db:"id" json:"id"`
	AIName             string    `db:"ai_name" json:"ai_name"`
	PersonaDescription string    `db:"persona_description" json:"persona_description"`
	Greeting           string    `db:"greeting" json:"greeting"`
	StoredScenario     string    `db:"stored_scenario" json:"stored_scenario"`
	StoredExamples     string    `db:"stored_examples" json:"stored_examples"`
	ProfileImage       []byte    `db:"profile_image" json:"-"`
	FilePath           string    `db:"file_path" json:"filepath"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ToPersona maps the card onto a persona record. Text is copied verbatim;
// placeholders are left for Resolve.
func (c *CardPayload) ToPersona() *PersonaRecord {
	d := c.Data
	return &PersonaRecord{
		AIName:             d.Name,
		PersonaDescription: joinNonEmpty(DescriptionSeparator, d.Description, d.Personality),
		Greeting:           d.greeting(),
		StoredScenario:     d.Scenario,
		StoredExamples:     d.MesExample,
	}
}

// greeting falls back to the pre-v2 "greeting" field some tools still write.
func (d *CardData) greeting() string {
	if d.FirstMes != "" {
		return d.FirstMes
	}
	raw, ok := d.Extra["greeting"]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// CardFromPersona builds a v2 card for export. Personality stays empty:
// a combined description is not split back apart. An empty creator is
// written as Producer.
func CardFromPersona(p *PersonaRecord, creator string) *CardPayload {
	if creator == "" {
		creator = Producer
	}
	return &CardPayload{
		Spec:        SpecV2,
		SpecVersion: SpecVersion,
		Data: CardData{
			Name:               p.AIName,
			Description:        p.PersonaDescription,
			FirstMes:           p.Greeting,
			Scenario:           p.StoredScenario,
			MesExample:         p.StoredExamples,
			CreatorNotes:       ProducerNotes,
			AlternateGreetings: []string{},
			Tags:               []string{},
			Creator:            creator,
			CharacterVersion:   ProducerCharVersion,
		},
	}
}

// Resolve returns a copy with {{char}} and {{user}} substituted in the
// description and greeting. Scenario and examples are kept as stored.
func (p *PersonaRecord) Resolve(userName string) *PersonaRecord {
	if userName == "" {
		userName = DefaultUserName
	}
	resolved := *p
	resolved.PersonaDescription = replacePlaceholders(p.PersonaDescription, p.AIName, userName)
	resolved.Greeting = replacePlaceholders(p.Greeting, p.AIName, userName)
	return &resolved
}

func replacePlaceholders(text, charName, userName string) string {
	if text == "" {
		return text
	}
	text = charPlaceholderRE.ReplaceAllLiteralString(text, charName)
	return userPlaceholderRE.ReplaceAllLiteralString(text, userName)
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
