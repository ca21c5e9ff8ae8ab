package seo

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/maht0rz/spartans-club-web/internal/i18n"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

func TestAbsolute(t *testing.T) {
	cases := map[[2]string]string{
		{"https://spartans.sk/", "/sk"}:                "https://spartans.sk/sk",
		{"https://spartans.sk", "logo.svg"}:            "https://spartans.sk/logo.svg",
		{"https://spartans.sk", ""}:                    "https://spartans.sk",
		{"https://spartans.sk", "https://cdn.x/y.png"}: "https://cdn.x/y.png",
	}
	for in, want := range cases {
		if got := Absolute(in[0], in[1]); got != want {
			t.Errorf("Absolute(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestAlternatesIncludeXDefault(t *testing.T) {
	got := Alternates(sections.Default(), "https://spartans.sk", sections.Sessions)
	want := []Alternate{
		{Hreflang: "sk", Href: "https://spartans.sk/sk/rozvrh"},
		{Hreflang: "en", Href: "https://spartans.sk/en/sessions"},
		{Hreflang: "x-default", Href: "https://spartans.sk/sk/rozvrh"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("alternates (-want +got):\n%s", diff)
	}
}

func TestBuild(t *testing.T) {
	m := Build(sections.Default(), Page{
		BaseURL:  "https://spartans.sk",
		Locale:   i18n.EN,
		Section:  sections.About,
		Title:    "About",
		Image:    "/vincent.png",
		SiteName: "Spartans Club",
	})
	if m.Canonical != "https://spartans.sk/en/about" || m.OG.URL != m.Canonical {
		t.Fatalf("canonical = %q og.url = %q", m.Canonical, m.OG.URL)
	}
	if m.OG.Image != "https://spartans.sk/vincent.png" || m.Twitter.Image != m.OG.Image {
		t.Fatalf("image = %q", m.OG.Image)
	}
	if m.OG.Locale != "en_GB" {
		t.Fatalf("og locale = %q", m.OG.Locale)
	}
	if diff := cmp.Diff([]string{"sk_SK"}, m.OG.AltLocales); diff != "" {
		t.Fatalf("alt locales (-want +got):\n%s", diff)
	}
	if len(m.Alternates) != 3 {
		t.Fatalf("alternates = %d", len(m.Alternates))
	}
}

func TestSportsActivityLocation(t *testing.T) {
	out := JSON(SportsActivityLocation(Place{
		Name:       "Spartans Club Bratislava",
		Phone:      "+421 911 712 109",
		Street:     "Mlynské nivy 54",
		City:       "Ružinov, Bratislava",
		PostalCode: "821 09",
		Country:    "SK",
		PriceRange: "$$",
		AreaServed: "Bratislava",
		SameAs:     []string{"https://instagram.com/spartansclubbratislava"},
	}))
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got["@type"] != "SportsActivityLocation" || got["telephone"] != "+421 911 712 109" {
		t.Fatalf("payload = %s", out)
	}
	addr := got["address"].(map[string]any)
	if addr["postalCode"] != "821 09" {
		t.Fatalf("address = %v", addr)
	}
	if _, ok := got["geo"]; ok {
		t.Fatal("geo should be omitted without coordinates")
	}
	if _, ok := got["email"]; ok {
		t.Fatal("empty email should be omitted")
	}
}

func TestFAQPage(t *testing.T) {
	if FAQPage(nil) != nil {
		t.Fatal("want nil for no entries")
	}
	m := FAQPage([]QA{{Question: "Is Muay Thai safe?", Answer: "Safety comes first."}})
	entities := m["mainEntity"].([]map[string]any)
	want := map[string]any{"@type": "Answer", "text": "Safety comes first."}
	if diff := cmp.Diff(want, entities[0]["acceptedAnswer"]); diff != "" {
		t.Fatalf("answer (-want +got):\n%s", diff)
	}
}

func TestBreadcrumbListPositions(t *testing.T) {
	m := BreadcrumbList([]BreadcrumbItem{{Name: "Home", Item: "https://spartans.sk/en"}, {Name: "About", Item: "https://spartans.sk/en/about"}})
	el := m["itemListElement"].([]map[string]any)
	if el[1]["position"] != 2 {
		t.Fatalf("position = %v", el[1]["position"])
	}
}
