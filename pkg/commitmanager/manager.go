// Package commitmanager implements the commit pipeline: a depth-first,
// post-order walk of a source directory that builds trees and blobs bottom
// up, then a commit object pointing at the root tree, with an atomic ref
// update to publish it.
package commitmanager

import (
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

// Options configures a single commit operation.
type Options struct {
	// Ref is the ref name to update after the commit is written, e.g.
	// "heads/main". If it already resolves to a commit, that commit becomes
	// the new commit's sole parent.
	Ref string

	Author    string
	Message   string
	Metadata  map[string]string
	Timestamp int64
}

// Manager drives commit operations against a single open repository.
type Manager struct {
	repo *sourcerepo.Repository
}

// New returns a Manager for repo.
func New(repo *sourcerepo.Repository) *Manager {
	return &Manager{repo: repo}
}

// Commit walks sourcePath and records it as a new commit, updating opts.Ref
// to point at it. The tree hash depends only on the walked content, so
// committing unchanged content yields the same tree hash as before; a new
// commit object is still written, with the ref's previous commit as its
// parent, and the ref is moved to it.
func (m *Manager) Commit(sourcePath string, opts Options) (objects.ObjectHash, error) {
	w := &walker{
		store:     m.repo.Store,
		ns:        m.repo.Config.Namespace,
		hardlinks: make(map[hardlinkKey]string),
	}

	treeHash, err := w.walkDirectory(sourcePath, "")
	if err != nil {
		return "", err
	}

	var parents []objects.ObjectHash
	if existing, err := m.repo.Refs.Read(opts.Ref); err == nil {
		parents = []objects.ObjectHash{existing}
	}

	c, err := commit.New(treeHash, parents, opts.Author, opts.Timestamp, opts.Message, opts.Metadata)
	if err != nil {
		return "", err
	}

	commitHash, err := m.repo.Store.WriteCommit(c)
	if err != nil {
		return "", err
	}

	if err := m.repo.Refs.Update(opts.Ref, commitHash); err != nil {
		return "", err
	}

	return commitHash, nil
}
