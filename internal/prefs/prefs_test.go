package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdDefault(t *testing.T) {
	p := New(NewMemoryStore(), -1)
	assert.Equal(t, 210, p.Threshold())

	p = New(NewMemoryStore(), 150)
	assert.Equal(t, 150, p.Threshold())

	_, ok := p.StoredThreshold()
	assert.False(t, ok)
}

func TestSetThreshold(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		applied bool
		want    int
	}{
		{"integer", "100", true, 100},
		{"padded", " 240 ", true, 240},
		{"decimal truncates", "99.7", true, 99},
		{"zero ignored", "0", false, 180},
		{"fraction below one ignored", "0.5", false, 180},
		{"text ignored", "abc", false, 180},
		{"empty ignored", "", false, 180},
		{"negative ignored", "-5", false, 180},
		{"infinity ignored", "Inf", false, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(NewMemoryStore(), 210)
			_, err := p.SetThreshold("180")
			require.NoError(t, err)

			applied, err := p.SetThreshold(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.applied, applied)
			assert.Equal(t, tt.want, p.Threshold())
		})
	}
}

func TestThresholdInvalidStoredValue(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(KeyThreshold, "not-a-number"))

	p := New(store, -1)
	assert.Equal(t, 210, p.Threshold())
}

func TestToggleDarkMode(t *testing.T) {
	p := New(NewMemoryStore(), -1)
	assert.False(t, p.DarkMode())

	on, err := p.ToggleDarkMode()
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, p.DarkMode())

	off, err := p.ToggleDarkMode()
	require.NoError(t, err)
	assert.False(t, off)
	assert.False(t, p.DarkMode())
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")

	store, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())

	p := New(store, -1)
	_, err = p.SetThreshold("120")
	require.NoError(t, err)
	_, err = p.ToggleDarkMode()
	require.NoError(t, err)
	_, err = p.SetThreshold("90")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	p = New(reopened, -1)
	assert.Equal(t, 90, p.Threshold())
	assert.True(t, p.DarkMode())

	_, ok, err := reopened.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "rotacheck", "prefs.db"), DefaultPath())
}
