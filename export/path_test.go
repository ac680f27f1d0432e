package export

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	require := require.New(t)

	t.Run("plain names pass through", func(t *testing.T) {
		for _, name := range []string{"test.csv", "waveform_ch1.csv", "stats-2026.json", "IMG_0001.png"} {
			got, err := SanitizeFilename(name)
			require.NoError(err)
			require.Equal(name, got)
		}
	})

	t.Run("directory components stripped", func(t *testing.T) {
		got, err := SanitizeFilename("data/output.csv")
		require.NoError(err)
		require.Equal("output.csv", got)

		got, err = SanitizeFilename(`exports\output.csv`)
		require.NoError(err)
		require.Equal("output.csv", got)
	})

	t.Run("rejections", func(t *testing.T) {
		invalid := []struct {
			name string
			in   string
		}{
			{"empty", ""},
			{"traversal", "../../etc/passwd"},
			{"nul", "file\x00.csv"},
			{"pipe", "a|b.csv"},
			{"semicolon", "a;rm.csv"},
			{"backtick", "a`id`.csv"},
			{"newline", "a\nb.csv"},
			{"quote", `a"b.csv`},
			{"redirect", "a>b.csv"},
		}
		for _, tt := range invalid {
			t.Run(tt.name, func(t *testing.T) {
				_, err := SanitizeFilename(tt.in)
				require.ErrorIs(err, ErrInvalidFilename)
			})
		}
	})
}

func TestResolveInBase(t *testing.T) {
	require := require.New(t)

	base := t.TempDir()

	path, err := ResolveInBase(base, "output.csv")
	require.NoError(err)
	require.Equal(filepath.Join(base, "output.csv"), path)
	require.True(strings.HasPrefix(path, base))

	// Traversal fails at the sanitization stage already.
	_, err = ResolveInBase(base, "../../outside.csv")
	require.ErrorIs(err, ErrInvalidFilename)

	// Directory components collapse to the bare filename inside base.
	path, err = ResolveInBase(base, "/etc/passwd")
	require.NoError(err)
	require.Equal(filepath.Join(base, "passwd"), path)
}

func TestTimestampedName(t *testing.T) {
	require := require.New(t)

	name := TimestampedName("dmm_series", "csv")
	require.True(strings.HasPrefix(name, "dmm_series_"))
	require.True(strings.HasSuffix(name, ".csv"))

	// The generated name is itself a valid export filename.
	_, err := SanitizeFilename(name)
	require.NoError(err)
}
