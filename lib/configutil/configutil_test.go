package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseURL string            `json:"base_url"`
	Limit   int               `json:"limit"`
	Headers map[string]string `json:"headers"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "suite.json5"), []byte(`{
		// comments are allowed
		base_url: "https://example.test",
		limit: 10,
		headers: { "A": "1" },
	}`), 0600)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(dir, "suite.local.json5"), []byte(`{ limit: 3 }`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "suite.json5"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "https://example.test", cfg.BaseURL)
	require.Equal(t, 3, cfg.Limit)
	require.Equal(t, map[string]string{"A": "1"}, cfg.Headers)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "suite.local.json5"), []byte(`{ base_url: "x" }`), 0600)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "suite.json5"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "x", cfg.BaseURL)
}

func TestLocalOverridePath(t *testing.T) {
	require.Equal(t, filepath.Join("a", "b.local.json5"), LocalOverridePath(filepath.Join("a", "b.json5")))
	require.Equal(t, filepath.Join("a", "b.local"), LocalOverridePath(filepath.Join("a", "b")))
}
