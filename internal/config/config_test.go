package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
}

func TestLoadWithNoFileReturnsValidatedDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corefib.yaml")
	body := []byte("walk:\n  max_walk_depth: 20\n  max_prefix_len: 32\n  max_recursion_depth: 4\nlogging:\n  level: debug\n  format: json\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.Walk.MaxWalkDepth)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsZeroWalkDepth(t *testing.T) {
	cfg := Default()
	cfg.Walk.MaxWalkDepth = 0
	require.Error(t, Validate(cfg))
}

func TestValidateRequiresAddrWhenMetricsEnabled(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = ""
	require.Error(t, Validate(cfg))
}

func TestValidateRequiresDSNWhenAuditEnabled(t *testing.T) {
	cfg := Default()
	cfg.Audit.Enabled = true
	cfg.Audit.DSN = ""
	require.Error(t, Validate(cfg))
}
