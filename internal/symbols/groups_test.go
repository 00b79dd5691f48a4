package symbols

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/marketsnap/internal/domain"
)

const groupsYAML = `
groups:
  group_10: [NVDA]
  group_2: [msft, " xom "]
  group_1: [AAPL, MSFT, AAPL]
  watchlist: [TSLA]
`

func writeGroups(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	g, err := Load(writeGroups(t, groupsYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"group_1", "group_2", "group_10", "watchlist"}, g.Names())
	assert.Equal(t, []string{"AAPL", "MSFT", "XOM", "NVDA", "TSLA"}, g.All())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeGroups(t, "groups: [not, a, map]"))
	assert.Error(t, err)

	g, err := Load(writeGroups(t, "# empty\n"))
	require.NoError(t, err)
	assert.Empty(t, g.All())
}

func TestResolve(t *testing.T) {
	g, err := Load(writeGroups(t, groupsYAML))
	require.NoError(t, err)

	got, err := Resolve(g, []string{"aapl", "tsla", "AAPL"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "TSLA"}, got)

	got, err = Resolve(g, []string{"IGNORED"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "XOM"}, got, "group wins over args")

	got, err = Resolve(g, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)
}

func TestResolve_Errors(t *testing.T) {
	g, err := Load(writeGroups(t, groupsYAML))
	require.NoError(t, err)

	_, err = Resolve(g, nil, 7)
	assert.True(t, errors.Is(err, domain.ErrUnknownGroup))
	assert.Contains(t, err.Error(), "group_10")

	_, err = Resolve(nil, nil, 1)
	assert.True(t, errors.Is(err, domain.ErrUnknownGroup))

	_, err = Resolve(g, nil, 0)
	assert.True(t, errors.Is(err, domain.ErrNoSymbols))

	_, err = Resolve(nil, []string{" ", ""}, 0)
	assert.True(t, errors.Is(err, domain.ErrNoSymbols))
}
