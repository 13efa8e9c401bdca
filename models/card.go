package models

import (
	"bytes"
	"encoding/json"
	"slices"
)

// https://github.com/malfoyslastname/character-card-spec-v2/blob/main/spec_v2.md
type CardPayload struct {
	Spec        string   `json:"spec"`
	SpecVersion string   `json:"spec_version"`
	Data        CardData `json:"data"`

	// Extra keeps top-level fields we do not model so re-export does not lose them.
	Extra map[string]json.RawMessage `json:"-"`
}

type CardData struct {
	Name                    string          `json:"name"`
	Description             string          `json:"description"`
	Personality             string          `json:"personality"`
	FirstMes                string          `json:"first_mes"`
	Scenario                string          `json:"scenario"`
	MesExample              string          `json:"mes_example"`
	CreatorNotes            string          `json:"creator_notes"`
	SystemPrompt            string          `json:"system_prompt"`
	PostHistoryInstructions string          `json:"post_history_instructions"`
	AlternateGreetings      []string        `json:"alternate_greetings"`
	Tags                    []string        `json:"tags"`
	Creator                 string          `json:"creator"`
	CharacterVersion        string          `json:"character_version"`
	Extensions              json.RawMessage `json:"extensions,omitempty"`
	CharacterBook           json.RawMessage `json:"character_book,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var (
	payloadKeys  = []string{"spec", "spec_version", "data"}
	cardDataKeys = []string{
		"name", "description", "personality", "first_mes", "scenario",
		"mes_example", "creator_notes", "system_prompt",
		"post_history_instructions", "alternate_greetings", "tags", "creator",
		"character_version", "extensions", "character_book",
	}
)

func (c CardPayload) MarshalJSON() ([]byte, error) {
	type plain CardPayload
	known, err := MarshalNoEscape(plain(c))
	if err != nil {
		return nil, err
	}
	return appendExtra(known, c.Extra)
}

func (c *CardPayload) UnmarshalJSON(b []byte) error {
	type plain CardPayload
	var p plain
	extra, err := splitKnown(b, payloadKeys, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*c = CardPayload(p)
	return nil
}

// MarshalJSON writes missing greetings and tags as empty arrays, which
// is what v2 readers expect.
func (d CardData) MarshalJSON() ([]byte, error) {
	type plain CardData
	d.normalize()
	known, err := MarshalNoEscape(plain(d))
	if err != nil {
		return nil, err
	}
	return appendExtra(known, d.Extra)
}

func (d *CardData) UnmarshalJSON(b []byte) error {
	type plain CardData
	var p plain
	extra, err := splitKnown(b, cardDataKeys, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*d = CardData(p)
	d.normalize()
	return nil
}

func (d *CardData) normalize() {
	if d.AlternateGreetings == nil {
		d.AlternateGreetings = []string{}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
}

// MarshalNoEscape is json.Marshal without HTML escaping; card text is
// full of <START> markers and the like that should stay readable.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// splitKnown decodes the exact-case known keys of the object b into v and
// returns everything else. encoding/json folds case when matching struct
// fields, so "Name" would otherwise overwrite "name".
func splitKnown(b []byte, known []string, v any) (map[string]json.RawMessage, error) {
	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	picked := make(map[string]json.RawMessage, len(known))
	for _, k := range known {
		if raw, ok := all[k]; ok {
			picked[k] = raw
			delete(all, k)
		}
	}
	sub, err := json.Marshal(picked)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sub, v); err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// appendExtra splices extra fields, sorted by key, after the known ones.
func appendExtra(known []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return known, nil
	}
	out := bytes.NewBuffer(nil)
	out.Write(known[:len(known)-1])
	first := len(known) == 2
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		key, err := MarshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		if !first {
			out.WriteByte(',')
		}
		first = false
		out.Write(key)
		out.WriteByte(':')
		if len(extra[k]) == 0 {
			out.WriteString("null")
			continue
		}
		out.Write(extra[k])
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}
