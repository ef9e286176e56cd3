package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := newRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Local</title>
<item><title>First story</title><link>https://news.test/1</link><pubDate>Mon, 04 Mar 2024 10:00:00 GMT</pubDate></item>
<item><title>Second story</title><link>https://news.test/2</link><pubDate>Sun, 03 Mar 2024 10:00:00 GMT</pubDate></item>
</channel></rss>`

func feedConfig(url string) string {
	return fmt.Sprintf(`
[[feeds]]
name = "Local"
url = %q

[database]
path = ""

[feed]
allow_private_hosts = true
`, url)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "newsbox dev")
	assert.Contains(t, out, "terminal news inbox")
	assert.Contains(t, out, "github.com/pders01/newsbox")

	out, _, err = run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "newsbox dev\n", out)
}

func TestConfigGenerateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := run(t, "config", "generate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Generated default configuration at: "+path)
	assert.FileExists(t, path)

	_, _, err = run(t, "config", "generate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = run(t, "config", "generate", "--config", path, "--force")
	require.NoError(t, err)
}

func TestConfigPathCommand(t *testing.T) {
	out, _, err := run(t, "config", "path", "--config", "/tmp/custom.toml")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.toml\n", out)

	out, _, err = run(t, "config", "path")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), filepath.Join(".config", "newsbox", "config.toml")), out)
}

func TestFeedsCommand(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
name = "BBC"
url = "https://feeds.bbci.co.uk/news/rss.xml"

[[feeds]]
name = "Guardian"
url = "theguardian.com/uk/rss"
`)

	out, _, err := run(t, "feeds", "--config", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "BBC")
	assert.Contains(t, lines[2], "https://theguardian.com/uk/rss")
	assert.Contains(t, lines[1], "never")
}

func TestFeedsCommand_CacheState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssBody))
	}))
	defer srv.Close()

	path := writeConfig(t, feedConfig(srv.URL))
	db := filepath.Join(t.TempDir(), "cache.db")

	out, _, err := run(t, "feeds", "--config", path, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "never")
	assert.NotContains(t, out, "Last refresh")

	_, _, err = run(t, "fetch", "--config", path, "--db", db)
	require.NoError(t, err)

	out, _, err = run(t, "feeds", "--config", path, "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[0], "FETCHED")
	assert.NotContains(t, lines[1], "never")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), "2"), lines[1])
	assert.Contains(t, out, "Last refresh: ")
}

func TestInvalidConfigIsFatal(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
name = "Broken"
url = "ftp://example.com/feed"
`)

	for _, args := range [][]string{
		{"feeds", "--config", path},
		{"fetch", "--config", path},
		{"--config", path},
	} {
		_, _, err := run(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "invalid configuration")
	}
}

func TestFetchCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody))
	}))
	defer srv.Close()

	path := writeConfig(t, feedConfig(srv.URL))

	out, _, err := run(t, "fetch", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "First story")
	assert.Contains(t, out, "Second story")
	assert.Contains(t, out, "https://news.test/1")
	assert.Less(t, strings.Index(out, "First story"), strings.Index(out, "Second story"), "newest first")

	out, _, err = run(t, "fetch", "--config", path, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "First story")
	assert.NotContains(t, out, "Second story")
}

func TestFetchCommand_WithCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssBody))
	}))
	defer srv.Close()

	path := writeConfig(t, feedConfig(srv.URL))
	db := filepath.Join(t.TempDir(), "cache.db")

	out, _, err := run(t, "fetch", "--config", path, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "First story")
	assert.FileExists(t, db)
}

func TestFetchCommand_AllFeedsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := run(t, "fetch", "--config", writeConfig(t, feedConfig(srv.URL)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch failed")
	assert.Contains(t, err.Error(), "all feeds failed")
}

func TestViewersCommand(t *testing.T) {
	out, _, err := run(t, "viewers")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	for _, name := range []string{"w3m", "lynx", "elinks", "browsh"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "text-mode browser")

	path := writeConfig(t, `
[launch]
viewer = "sh -c"
`)
	out, _, err = run(t, "viewers", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Using: sh")

	path = writeConfig(t, `
[launch]
viewer = "no-such-viewer-newsbox"
`)
	out, _, err = run(t, "viewers", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No viewer available")
}

func TestRootRejectsArgs(t *testing.T) {
	_, _, err := run(t, "unexpected")
	assert.Error(t, err)
}
