package commitmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

func newTestRepo(t *testing.T) *sourcerepo.Repository {
	t.Helper()
	path, err := scpath.NewRepositoryPath(t.TempDir())
	require.NoError(t, err)
	repo, err := sourcerepo.Init(path)
	require.NoError(t, err)
	return repo
}

func TestCommit_WalksAndWritesTree(t *testing.T) {
	repo := newTestRepo(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("world"), 0o644))

	m := New(repo)
	hash, err := m.Commit(src, Options{Ref: "heads/main", Author: "alice", Message: "initial"})
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	got, err := repo.Refs.Read("heads/main")
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	c, err := repo.Store.ReadCommit(hash)
	require.NoError(t, err)
	assert.True(t, c.IsRoot())
	assert.Equal(t, "alice", c.Author)

	tr, err := repo.Store.ReadTree(c.Tree)
	require.NoError(t, err)
	assert.NotNil(t, tr.Find("a.txt"))
	assert.NotNil(t, tr.Find("sub"))
}

func TestCommit_SecondCommitHasParent(t *testing.T) {
	repo := newTestRepo(t)
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("v1"), 0o644))

	m := New(repo)
	first, err := m.Commit(src, Options{Ref: "heads/main", Author: "alice", Message: "v1"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("v2"), 0o644))
	second, err := m.Commit(src, Options{Ref: "heads/main", Author: "alice", Message: "v2"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	c, err := repo.Store.ReadCommit(second)
	require.NoError(t, err)
	require.Len(t, c.Parents, 1)
	assert.Equal(t, first, c.Parents[0])
}
