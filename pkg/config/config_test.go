package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/sourcevault/pkg/namespace"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo, err := scpath.NewRepositoryPath(dir)
	require.NoError(t, err)

	cfg := Config{
		Namespace: namespace.Config{UidMap: namespace.Map{{InsideStart: 0, OutsideStart: 100000, Count: 65536}}},
		Remotes:   []Remote{{Name: "origin", URL: "/srv/repo"}},
	}
	require.NoError(t, Save(repo, cfg))

	got, err := Load(repo)
	require.NoError(t, err)
	assert.Equal(t, cfg.Remotes, got.Remotes)
	assert.Equal(t, cfg.Namespace.UidMap, got.Namespace.UidMap)
}

func TestFindRemote_NotFound(t *testing.T) {
	cfg := Config{}
	_, err := cfg.FindRemote("origin")
	assert.Error(t, err)
}

func TestWithRemote_UpsertsByName(t *testing.T) {
	cfg := Config{Remotes: []Remote{{Name: "origin", URL: "a"}}}
	cfg = cfg.WithRemote(Remote{Name: "origin", URL: "b"})
	require.Len(t, cfg.Remotes, 1)
	assert.Equal(t, "b", cfg.Remotes[0].URL)

	cfg = cfg.WithRemote(Remote{Name: "upstream", URL: "c"})
	assert.Len(t, cfg.Remotes, 2)
}
