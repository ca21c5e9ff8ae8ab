package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported site language.
type Locale string

const (
	SK Locale = "sk"
	EN Locale = "en"

	// Default is used when nothing else resolves.
	Default = SK
)

// All lists supported locales in display order.
var All = []Locale{SK, EN}

// ParseLocale accepts "sk" or "en" in any case.
func ParseLocale(s string) (Locale, bool) {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case SK:
		return SK, true
	case EN:
		return EN, true
	}
	return "", false
}

func (l Locale) String() string { return string(l) }

// OGLocale returns the Open Graph territory form, e.g. "sk_SK".
func (l Locale) OGLocale() string {
	switch l {
	case EN:
		return "en_GB"
	default:
		return "sk_SK"
	}
}

// Bundle holds translation dictionaries. It is built once at startup and passed to
// whoever needs translations or locale resolution.
type Bundle struct {
	dict      map[Locale]map[string]string
	fallback  Locale
	supported []Locale
}

// Load reads <dir>/<locale>.json for each supported locale. The fallback dictionary is required.
func Load(dir string, fallback Locale, supported []Locale) (*Bundle, error) {
	if len(supported) == 0 {
		supported = All
	}
	b := &Bundle{
		dict:      map[Locale]map[string]string{},
		fallback:  fallback,
		supported: append([]Locale(nil), supported...),
	}
	for _, l := range supported {
		path := filepath.Join(dir, string(l)+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			// allow missing file for non-default locales
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}
	return b, nil
}

// New builds a bundle from in-memory dictionaries.
func New(fallback Locale, dict map[Locale]map[string]string) *Bundle {
	b := &Bundle{dict: map[Locale]map[string]string{}, fallback: fallback}
	for _, l := range All {
		if m, ok := dict[l]; ok {
			b.dict[l] = m
			b.supported = append(b.supported, l)
		}
	}
	return b
}

func (b *Bundle) Supported() []Locale {
	return append([]Locale(nil), b.supported...)
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() Locale { return b.fallback }

// IsSupported reports whether l has a dictionary or was declared supported.
func (b *Bundle) IsSupported(l Locale) bool {
	for _, s := range b.supported {
		if s == l {
			return true
		}
	}
	return false
}

// Keys returns the keys defined for l.
func (b *Bundle) Keys(l Locale) []string {
	m := b.dict[l]
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang Locale, key string) string {
	if lang != "" {
		if m, ok := b.dict[lang]; ok {
			if v, ok := m[key]; ok {
				return v
			}
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Resolve chooses the first supported language from an Accept-Language header.
// Entries are taken in header order; q-values are ignored.
func (b *Bundle) Resolve(acceptLang string) Locale {
	for _, raw := range strings.Split(acceptLang, ",") {
		code := strings.TrimSpace(raw)
		if sc := strings.IndexByte(code, ';'); sc != -1 {
			code = strings.TrimSpace(code[:sc])
		}
		if code == "" || code == "*" {
			continue
		}
		if l, ok := primaryLocale(code); ok && b.IsSupported(l) {
			return l
		}
	}
	return b.fallback
}

// primaryLocale maps a language tag to a Locale by its primary subtag.
func primaryLocale(code string) (Locale, bool) {
	if tag, err := language.Parse(code); err == nil {
		base, _ := tag.Base()
		return ParseLocale(base.String())
	}
	// malformed tags still carry a usable primary subtag, e.g. "en_US.UTF-8"
	if dash := strings.IndexAny(code, "-_."); dash != -1 {
		code = code[:dash]
	}
	return ParseLocale(code)
}
