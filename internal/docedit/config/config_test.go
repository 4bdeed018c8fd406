package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, ":2112", cfg.MetricsAddr)
	assert.Equal(t, "docedit.db", cfg.DatabaseDSN)
	assert.Equal(t, 30, cfg.SessionTTL)
	assert.Equal(t, "@every 1m", cfg.EvictionSchedule)
	assert.False(t, cfg.SanitizeDisabled)
}

func TestParseEnvironment(t *testing.T) {
	cfg, err := parse(env.Options{Environment: map[string]string{
		"LISTEN_ADDR":       ":9000",
		"DATABASE_URL":      "postgres://u:p@localhost/docs",
		"SESSION_TTL":       "-5",
		"SANITIZE_DISABLED": "true",
	}})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "postgres://u:p@localhost/docs", cfg.DatabaseDSN)
	assert.Equal(t, 30, cfg.SessionTTL)
	assert.True(t, cfg.SanitizeDisabled)

	_, err = parse(env.Options{Environment: map[string]string{"SESSION_TTL": "abc"}})
	assert.Error(t, err)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "s****t", maskSecret("ExternalLimiterToken", "secret"))
	assert.Equal(t, "**", maskSecret("ExternalLimiterToken", "ab"))
	assert.Equal(t, ":8080", maskSecret("ListenAddr", ":8080"))
}

func TestNormalizeNamed(t *testing.T) {
	var configured []NamedOption
	require.NoError(t, json.Unmarshal([]byte(`["front", {"name":"back","title":"Under"}, "middle", {"name":"top","className":"z-top"}, {"name":"front","isDefault":false}]`), &configured))

	got := NormalizeNamed("zindex", configured, BuiltinZIndexes)
	require.Len(t, got, 5)
	assert.Equal(t, BuiltinZIndexes["front"], got[0])
	assert.Equal(t, NamedOption{Name: "back", Title: "Under", Icon: "object-right", ClassName: "image-zindex-back"}, got[1])
	assert.Equal(t, NamedOption{Name: "middle"}, got[2])
	assert.Equal(t, NamedOption{Name: "top", ClassName: "z-top"}, got[3])
	// Явно заданное значение не перекрывается встроенным.
	assert.False(t, got[4].IsDefault)
	assert.Equal(t, "Above Text", got[4].Title)

	assert.Equal(t, "front", DefaultName(got))
	assert.Equal(t, "", DefaultName(got[1:]))
}

func TestEditorOptionsValidate(t *testing.T) {
	opts := DefaultEditorOptions()
	require.NoError(t, opts.Validate())

	opts.Resize.MaxWidth = 10
	assert.Error(t, opts.Validate())

	opts = DefaultEditorOptions()
	opts.PlaceholderTypes = []string{"date", ""}
	assert.Error(t, opts.Validate())

	opts = DefaultEditorOptions()
	opts.ZIndexes = []NamedOption{{}}
	assert.Error(t, opts.Validate())

	lo, hi := 100.0, 10.0
	opts = DefaultEditorOptions()
	opts.Position = PositionOptions{MinLeft: &lo, MaxLeft: &hi}
	assert.Error(t, opts.Validate())
}

func TestLoadEditorOptions(t *testing.T) {
	opts, err := LoadEditorOptions("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEditorOptions(), opts)

	path := filepath.Join(t.TempDir(), "editor.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"zindexes":["front",{"name":"back","className":"image-zindex-back"}],"placeholderTypes":["city"],"resize":{"minWidth":20,"maxWidth":800}}`), 0o600))

	opts, err = LoadEditorOptions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"city"}, opts.PlaceholderTypes)
	assert.Equal(t, ResizeOptions{MinWidth: 20, MaxWidth: 800}, opts.Resize)
	require.Len(t, opts.ZIndexes, 2)
	assert.Equal(t, "image-zindex-back", opts.ZIndexes[1].ClassName)
	assert.Len(t, opts.ImageStyles, 6)

	require.NoError(t, os.WriteFile(path, []byte(`{"resize":{"minWidth":-1}}`), 0o600))
	_, err = LoadEditorOptions(path)
	assert.Error(t, err)

	_, err = LoadEditorOptions(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
