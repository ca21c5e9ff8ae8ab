package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string, sameAs []string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	if len(sameAs) > 0 {
		m["sameAs"] = sameAs
	}
	return m
}

// WebSite returns a minimal WebSite schema with its language.
func WebSite(name, url, lang string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if lang != "" {
		m["inLanguage"] = lang
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Place is the gym as a schema.org SportsActivityLocation.
type Place struct {
	Name        string
	Description string
	URL         string
	Image       string
	Logo        string
	Phone       string
	Email       string
	Street      string
	City        string
	PostalCode  string
	Country     string
	Lat, Lng    float64
	PriceRange  string
	AreaServed  string
	SameAs      []string
	Sport       string
}

// SportsActivityLocation renders p, omitting empty fields.
func SportsActivityLocation(p Place) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "SportsActivityLocation",
		"name":     p.Name,
	}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("description", p.Description)
	set("url", p.URL)
	set("image", p.Image)
	set("logo", p.Logo)
	set("telephone", p.Phone)
	set("email", p.Email)
	set("priceRange", p.PriceRange)
	set("sport", p.Sport)
	if p.Street != "" || p.City != "" {
		m["address"] = map[string]any{
			"@type":           "PostalAddress",
			"streetAddress":   p.Street,
			"addressLocality": p.City,
			"postalCode":      p.PostalCode,
			"addressCountry":  p.Country,
		}
	}
	if p.Lat != 0 || p.Lng != 0 {
		m["geo"] = map[string]any{"@type": "GeoCoordinates", "latitude": p.Lat, "longitude": p.Lng}
	}
	if p.AreaServed != "" {
		m["areaServed"] = map[string]any{"@type": "City", "name": p.AreaServed}
	}
	if len(p.SameAs) > 0 {
		m["sameAs"] = p.SameAs
	}
	return m
}

// QA is one FAQ entry in plain text.
type QA struct {
	Question string
	Answer   string
}

// FAQPage builds schema.org FAQPage. It returns nil for no entries.
func FAQPage(items []QA) map[string]any {
	if len(items) == 0 {
		return nil
	}
	el := make([]map[string]any, 0, len(items))
	for _, it := range items {
		el = append(el, map[string]any{
			"@type": "Question",
			"name":  it.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  it.Answer,
			},
		})
	}
	return map[string]any{
		"@context":   "https://schema.org",
		"@type":      "FAQPage",
		"mainEntity": el,
	}
}
