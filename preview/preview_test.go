package preview

import (
	"charapng/models"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestRender(t *testing.T) {
	p := &models.PersonaRecord{
		AIName:             "Alice <3",
		PersonaDescription: "A **friendly** assistant\n\n- likes tea",
		Greeting:           "Hi there!",
		ProfileImage:       []byte{0x89, 'P', 'N', 'G'},
	}
	html, err := Render(p)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}
	if got := doc.Find("h1.name").Text(); got != "Alice <3" {
		t.Errorf("name: got %q", got)
	}
	if got := doc.Find("section.description strong").Text(); got != "friendly" {
		t.Errorf("markdown not rendered, strong=%q", got)
	}
	if n := doc.Find("section.description li").Length(); n != 1 {
		t.Errorf("want 1 list item, got %d", n)
	}
	if got := strings.TrimSpace(doc.Find("section.greeting p").Text()); got != "Hi there!" {
		t.Errorf("greeting: got %q", got)
	}
	if doc.Find("section.scenario").Length() != 0 {
		t.Errorf("empty scenario should not render")
	}
	src, ok := doc.Find("img.avatar").Attr("src")
	if !ok || !strings.HasPrefix(src, "data:image/png;base64,") {
		t.Errorf("avatar src: %q", src)
	}
}
