package i18n

import "strings"

// Detect picks the browser-side starting language: the first path segment, then the
// remembered choice, then the browser language, then Default. Each candidate is
// accepted only when it is one of All.
func Detect(path, stored, browser string) Locale {
	seg := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(seg, '/'); i != -1 {
		seg = seg[:i]
	}
	if l, ok := ParseLocale(seg); ok && strings.TrimSpace(seg) == seg {
		return l
	}
	if l, ok := ParseLocale(stored); ok {
		return l
	}
	code := browser
	if i := strings.IndexAny(code, "-_"); i != -1 {
		code = code[:i]
	}
	if l, ok := ParseLocale(code); ok {
		return l
	}
	return Default
}
