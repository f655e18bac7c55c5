package sourcerepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

func newTestPath(t *testing.T) scpath.RepositoryPath {
	t.Helper()
	path, err := scpath.NewRepositoryPath(t.TempDir())
	require.NoError(t, err)
	return path
}

func TestInit_CreatesLayoutAndConfig(t *testing.T) {
	path := newTestPath(t)

	repo, err := Init(path)
	require.NoError(t, err)
	require.NotNil(t, repo.Store)
	require.NotNil(t, repo.Refs)

	exists, err := Exists(path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInit_RejectsExistingRepo(t *testing.T) {
	path := newTestPath(t)
	_, err := Init(path)
	require.NoError(t, err)

	_, err = Init(path)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeRepoExist, appErr.Code)
}

func TestOpen_RequiresExistingRepo(t *testing.T) {
	path := newTestPath(t)
	_, err := Open(path)
	require.Error(t, err)

	_, err = Init(path)
	require.NoError(t, err)

	repo, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, repo.Path)
}

func TestLock_ExclusiveAndTryLockContention(t *testing.T) {
	path := newTestPath(t)
	repo, err := Init(path)
	require.NoError(t, err)

	lock, err := repo.Lock()
	require.NoError(t, err)

	_, err = repo.TryLock()
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.CodeLockContention, appErr.Code)

	require.NoError(t, lock.Release())

	lock2, err := repo.TryLock()
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}
