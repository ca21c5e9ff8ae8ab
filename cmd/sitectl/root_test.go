package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoutes(t *testing.T) {
	out, _, err := execute(t, "routes")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, []string{"SECTION", "SK", "EN"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"sessions", "/sk/rozvrh", "/en/sessions"}, strings.Fields(lines[3]))
}

func TestSitemap(t *testing.T) {
	out, _, err := execute(t, "sitemap", "--base", "https://example.test")
	require.NoError(t, err)
	assert.Equal(t, 14, strings.Count(out, "<url>"))
	assert.Contains(t, out, "<loc>https://example.test/en/about</loc>")

	pub := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(pub, "gallery"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pub, "gallery", "ring.jpg"), nil, 0o644))
	out, _, err = execute(t, "sitemap", "--images", "--base", "https://example.test", "--public", pub, "--hero", "")
	require.NoError(t, err)
	assert.Contains(t, out, "<image:loc>https://example.test/gallery/ring.jpg</image:loc>")
	assert.Equal(t, 1, strings.Count(out, "<url>"))
}

func TestCheckRepositoryFiles(t *testing.T) {
	out, _, err := execute(t, "check", "--locales", "../../locales", "--content", "../../content")
	require.NoError(t, err)
	assert.Contains(t, out, "2 locales, 4 sessions")
}

func TestCheckReportsDrift(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sk.json"), []byte(`{"a":"A","b":"B"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"a":"A"}`), 0o644))
	_, errOut, err := execute(t, "check", "--locales", dir, "--content", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, errOut, `locales/en.json: missing key "b"`)
	assert.Contains(t, errOut, "content: not found")
}
