// Package preview renders a persona as a standalone HTML page. Card text
// is usually markdown-ish, so each section goes through goldmark.
package preview

import (
	"bytes"
	"charapng/models"
	"encoding/base64"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var page = template.Must(template.New("persona").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Name}}</title></head>
<body>
<article class="persona">
{{if .Image}}<img class="avatar" alt="{{.Name}}" src="{{.Image}}">{{end}}
<h1 class="name">{{.Name}}</h1>
{{range .Sections}}<section class="{{.Class}}">
<h2>{{.Title}}</h2>
{{.Body}}
</section>
{{end}}</article>
</body>
</html>
`))

type section struct {
	Class string
	Title string
	Body  template.HTML
}

// Render produces the preview page. Empty fields get no section.
func Render(p *models.PersonaRecord) (string, error) {
	fields := []struct{ class, title, text string }{
		{"description", "Description", p.PersonaDescription},
		{"greeting", "Greeting", p.Greeting},
		{"scenario", "Scenario", p.StoredScenario},
		{"examples", "Example messages", p.StoredExamples},
	}
	data := struct {
		Name     string
		Image    template.URL
		Sections []section
	}{Name: p.AIName}
	if len(p.ProfileImage) > 0 {
		data.Image = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(p.ProfileImage))
	}
	for _, f := range fields {
		if f.text == "" {
			continue
		}
		var body bytes.Buffer
		if err := md.Convert([]byte(f.text), &body); err != nil {
			return "", err
		}
		data.Sections = append(data.Sections, section{Class: f.class, Title: f.title, Body: template.HTML(body.String())})
	}
	var out bytes.Buffer
	if err := page.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}
