package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/memtest/pkg/memtest"
)

func boolPtr(b bool) *bool { return &b }

func TestLoadConfigFileMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfigFile(filepath.Join(t.TempDir(), "does-not-exist.hujson"))
	require.Nil(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoadConfigFileParsesJSONCWithComments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memtest.hujson")
	contents := `{
		// region size, in MiB
		"megabytes": 128,
		"lock_mode": "resizable",
		"allow_multithread": true,
	}`
	require.Nil(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := loadConfigFile(path)
	require.Nil(t, err)
	assert.Equal(t, 128, cfg.Megabytes)
	assert.Equal(t, "resizable", cfg.LockMode)
	require.NotNil(t, cfg.AllowMultithread)
	assert.True(t, *cfg.AllowMultithread)
}

func TestLoadConfigFileRejectsInvalidJSONC(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memtest.hujson")
	require.Nil(t, os.WriteFile(path, []byte(`{not valid`), 0o600))

	_, err := loadConfigFile(path)
	require.NotNil(t, err)
}

func TestMergeOverlaysOnlyNonZeroFields(t *testing.T) {
	t.Parallel()

	base := Config{Megabytes: 64, TimeoutMS: 60_000, LockMode: "disabled"}
	override := Config{LockMode: "resizable", AllowMultithread: boolPtr(true)}

	got := merge(base, override)
	assert.Equal(t, 64, got.Megabytes)
	assert.Equal(t, 60_000, got.TimeoutMS)
	assert.Equal(t, "resizable", got.LockMode)
	require.NotNil(t, got.AllowMultithread)
	assert.True(t, *got.AllowMultithread)
}

func TestMergePrecedenceDefaultFileCLI(t *testing.T) {
	t.Parallel()

	fileCfg := Config{Megabytes: 128}
	cliCfg := Config{Megabytes: 256}

	got := merge(merge(DefaultConfig(), fileCfg), cliCfg)
	assert.Equal(t, 256, got.Megabytes, "CLI flags must win over the config file, which must win over defaults")
}

func TestParseLockMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want memtest.LockMode
	}{
		{"resizable", memtest.Resizable},
		{"fixedsize", memtest.FixedSize},
		{"disabled", memtest.Disabled},
		{"", memtest.Disabled},
	}

	for _, c := range cases {
		got, err := parseLockMode(c.in)
		require.Nil(t, err)
		assert.Equal(t, c.want, got)
	}

	_, err := parseLockMode("bogus")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, errUnknownLockMode)
}

func TestConfigTimeout(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, int(Config{}.timeout()))
	assert.Equal(t, int64(60_000_000_000), Config{TimeoutMS: 60_000}.timeout().Nanoseconds())
}

func TestBoolOr(t *testing.T) {
	t.Parallel()

	assert.True(t, boolOr(nil, true))
	assert.False(t, boolOr(nil, false))
	assert.False(t, boolOr(boolPtr(false), true))
	assert.True(t, boolOr(boolPtr(true), false))
}
