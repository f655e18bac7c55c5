// Package sourcerepo ties together the object store, ref store, and config
// for a single repository rooted at a directory on disk, and provides the
// advisory locking every write operation must hold.
package sourcerepo

import (
	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/config"
	"github.com/utkarsh5026/sourcevault/pkg/repository/refs"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

const pkgName = "sourcerepo"

// Repository is an open handle onto a repository's directory layout.
type Repository struct {
	Path   scpath.RepositoryPath
	Store  *store.Store
	Refs   *refs.Store
	Config config.Config
}

// Exists reports whether path already contains a repository, identified by
// the presence of config.toml.
func Exists(path scpath.RepositoryPath) (bool, error) {
	return fileops.Exists(path.ConfigPath())
}

// Init creates the directory layout at path and writes a default config
// whose namespace mapping comes from the current process's
// /proc/self/{uid,gid}_map (or identity if unreadable). Fails with
// RepoExists if path already contains a repository.
func Init(path scpath.RepositoryPath) (*Repository, error) {
	exists, err := Exists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.New(pkgName, apperr.CodeRepoExist, "init", path.String(), nil)
	}

	if err := fileops.EnsureDir(scpath.AbsolutePath(path)); err != nil {
		return nil, err
	}

	objectStore := store.New(path)
	if err := objectStore.Initialize(); err != nil {
		return nil, err
	}

	refStore := refs.New(path)
	if err := refStore.Initialize(); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if err := config.Save(path, cfg); err != nil {
		return nil, err
	}

	return &Repository{Path: path, Store: objectStore, Refs: refStore, Config: cfg}, nil
}

// Open loads an existing repository at path. Fails with NoRepo if path does
// not contain a repository.
func Open(path scpath.RepositoryPath) (*Repository, error) {
	exists, err := Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.New(pkgName, apperr.CodeNoRepo, "open", path.String(), nil)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return &Repository{
		Path:   path,
		Store:  store.New(path),
		Refs:   refs.New(path),
		Config: cfg,
	}, nil
}

// SaveConfig persists r.Config back to config.toml.
func (r *Repository) SaveConfig() error {
	return config.Save(r.Path, r.Config)
}
