package settings

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rootWorktree string

func (w rootWorktree) RootPath() string                 { return string(w) }
func (w rootWorktree) ShellEnv() map[string]string      { return nil }
func (w rootWorktree) Which(name string) (string, bool) { return "", false }

const userSettings = `// Zed settings
//
// For information on how to configure Zed, see the Zed documentation.
{
  "theme": "One Dark", /* inline */
  "lsp": {
    "sftp-server": {
      "settings": {
        "host": "example.com",
        "url": "sftp://example.com//srv", // not a comment inside strings
        "ignore": [".git", "node_modules",],
      },
    },
  },
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStore_JSONWithComments(t *testing.T) {
	tests := []struct {
		name     string
		settings string
		expected string
	}{
		{name: "plain_json", settings: `{"a": 1}`, expected: `{"a": 1}`},
		{name: "line_comment", settings: "{\"a\": 1 // one\n}", expected: `{"a": 1}`},
		{name: "block_comment", settings: `{/* x */"a": 1}`, expected: `{"a": 1}`},
		{name: "trailing_comma", settings: `{"list": [1, 2, ], }`, expected: `{"list": [1, 2]}`},
		{name: "slashes_in_string", settings: `{"u": "a//b/*c*/"}`, expected: `{"u": "a//b/*c*/"}`},
		{name: "escaped_quote", settings: `{"q": "say \"//hi\""}`, expected: `{"q": "say \"//hi\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userPath := filepath.Join(t.TempDir(), "settings.json")
			writeFile(t, userPath, `{"lsp": {"sftp-server": {"settings": `+tt.settings+`}}}`)

			raw, err := NewStore(userPath, nil).LanguageServerSettings("sftp-server", rootWorktree(""))
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(raw))
		})
	}
}

func TestStore_LanguageServerSettings(t *testing.T) {
	userPath := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, userPath, userSettings)

	store := NewStore(userPath, nil)
	raw, err := store.LanguageServerSettings("sftp-server", rootWorktree(t.TempDir()))
	require.NoError(t, err)

	var settings map[string]any
	require.NoError(t, json.Unmarshal(raw, &settings))
	assert.Equal(t, "example.com", settings["host"])
	assert.Equal(t, "sftp://example.com//srv", settings["url"])
	assert.Equal(t, []any{".git", "node_modules"}, settings["ignore"])
}

func TestStore_ProjectSettingsTakePrecedence(t *testing.T) {
	userPath := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, userPath, userSettings)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".zed", "settings.json"), `{"lsp": {"sftp-server": {"settings": {"host": "project"}}}}`)

	raw, err := NewStore(userPath, nil).LanguageServerSettings("sftp-server", rootWorktree(root))
	require.NoError(t, err)
	assert.JSONEq(t, `{"host": "project"}`, string(raw))
}

func TestStore_MissingSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no_file"},
		{name: "no_lsp_key", content: `{"theme": "One Light"}`},
		{name: "other_server", content: `{"lsp": {"rust-analyzer": {"settings": {}}}}`},
		{name: "null_settings", content: `{"lsp": {"sftp-server": {"settings": null}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userPath := filepath.Join(t.TempDir(), "settings.json")
			if tt.content != "" {
				writeFile(t, userPath, tt.content)
			}

			raw, err := NewStore(userPath, nil).LanguageServerSettings("sftp-server", rootWorktree(""))
			require.NoError(t, err)
			assert.Nil(t, raw)
		})
	}
}

func TestStore_InvalidJSON(t *testing.T) {
	userPath := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, userPath, `{"lsp": `)

	_, err := NewStore(userPath, nil).LanguageServerSettings("sftp-server", rootWorktree(""))
	assert.Error(t, err)
}

func TestStore_Watch(t *testing.T) {
	userPath := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, userPath, `{"lsp": {"sftp-server": {"settings": {"host": "before"}}}}`)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updates := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- NewStore(userPath, nil).Watch(ctx, "sftp-server", rootWorktree(""), func(raw json.RawMessage) {
			updates <- string(raw)
		})
	}()

	select {
	case first := <-updates:
		assert.JSONEq(t, `{"host": "before"}`, first)
	case <-ctx.Done():
		t.Fatal("timed out waiting for initial settings")
	}

	writeFile(t, userPath, `{"lsp": {"sftp-server": {"settings": {"host": "after"}}}}`)

	select {
	case next := <-updates:
		assert.JSONEq(t, `{"host": "after"}`, next)
	case <-ctx.Done():
		t.Fatal("timed out waiting for settings change")
	}

	cancel()
	assert.NoError(t, <-done)
}
