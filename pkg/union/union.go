// Package union implements the N-way tree merge engine: given several
// trees, it produces one merged tree, resolving conflicts per a configured
// policy and either recording the result as a new commit (union_trees) or
// streaming it straight into a checkout (union_checkout).
package union

import (
	"sort"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
	"github.com/utkarsh5026/sourcevault/pkg/workdir"
)

const pkgName = "union"

// ConflictPolicy selects how a union resolves entries that are present in
// two or more input trees but are not all equal.
type ConflictPolicy string

const (
	// Error rejects the union outright on any unresolved conflict.
	Error ConflictPolicy = "error"
	// First takes the entry from the earliest tree in the input order.
	First ConflictPolicy = "first"
	// Last takes the entry from the latest tree in the input order.
	Last ConflictPolicy = "last"
)

// Engine drives merges against a single open repository's object store.
type Engine struct {
	repo *sourcerepo.Repository
}

// New returns an Engine for repo.
func New(repo *sourcerepo.Repository) *Engine {
	return &Engine{repo: repo}
}

// Merge merges the given trees (in order) under policy, returning the
// resulting tree's hash (already written to the store).
func (e *Engine) Merge(trees []objects.ObjectHash, policy ConflictPolicy) (objects.ObjectHash, error) {
	m := &merger{repo: e.repo, policy: policy}
	return m.mergeLevel(trees)
}

// UnionTrees merges the trees resolved by refs, writes the merged tree, and
// records it as a new commit whose parents are the commits referenced by
// refs, in order.
func (e *Engine) UnionTrees(refs []string, policy ConflictPolicy, author, message string, timestamp int64, metadata map[string]string) (objects.ObjectHash, error) {
	commitHashes := make([]objects.ObjectHash, 0, len(refs))
	trees := make([]objects.ObjectHash, 0, len(refs))
	for _, ref := range refs {
		ch, err := e.repo.Refs.Resolve(ref)
		if err != nil {
			return "", err
		}
		c, err := e.repo.Store.ReadCommit(ch)
		if err != nil {
			return "", err
		}
		commitHashes = append(commitHashes, ch)
		trees = append(trees, c.Tree)
	}

	mergedTree, err := e.Merge(trees, policy)
	if err != nil {
		return "", err
	}

	c, err := commit.New(mergedTree, commitHashes, author, timestamp, message, metadata)
	if err != nil {
		return "", err
	}
	return e.repo.Store.WriteCommit(c)
}

// UnionCheckout merges the trees resolved by refs and materializes the
// result directly into target via the checkout pipeline, without recording
// an intermediate commit object.
func (e *Engine) UnionCheckout(refs []string, policy ConflictPolicy, target string, opts workdir.Options) error {
	trees := make([]objects.ObjectHash, 0, len(refs))
	for _, ref := range refs {
		ch, err := e.repo.Refs.Resolve(ref)
		if err != nil {
			return err
		}
		c, err := e.repo.Store.ReadCommit(ch)
		if err != nil {
			return err
		}
		trees = append(trees, c.Tree)
	}

	mergedTree, err := e.Merge(trees, policy)
	if err != nil {
		return err
	}

	wm := workdir.New(e.repo)
	return wm.CheckoutTree(mergedTree, target, opts)
}

type merger struct {
	repo   *sourcerepo.Repository
	policy ConflictPolicy
}

// mergeLevel merges one directory level across the given trees, recursing
// into matching subdirectories, and returns the merged tree's hash.
func (m *merger) mergeLevel(trees []objects.ObjectHash) (objects.ObjectHash, error) {
	loaded := make([]*tree.Tree, len(trees))
	for i, h := range trees {
		t, err := m.loadTree(h)
		if err != nil {
			return "", err
		}
		loaded[i] = t
	}

	names := collectNames(loaded)
	entries := make([]*tree.TreeEntry, 0, len(names))

	for _, name := range names {
		present := presentEntries(loaded, name)
		merged, err := m.mergeEntry(name, present)
		if err != nil {
			return "", err
		}
		if merged == nil {
			continue
		}
		entry, err := tree.NewTreeEntry(name, *merged)
		if err != nil {
			return "", err
		}
		entries = append(entries, entry)
	}

	newTree, err := tree.New(entries)
	if err != nil {
		return "", err
	}
	return m.repo.Store.WriteTree(newTree)
}

func (m *merger) loadTree(hash objects.ObjectHash) (*tree.Tree, error) {
	if hash == "" {
		return tree.Empty(), nil
	}
	return m.repo.Store.ReadTree(hash)
}

// indexedKind pairs an EntryKind with the index of the input tree it came
// from, preserving input order for First/Last resolution.
type indexedKind struct {
	index int
	kind  objects.EntryKind
}

func collectNames(trees []*tree.Tree) []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range trees {
		for _, e := range t.Entries {
			if !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func presentEntries(trees []*tree.Tree, name string) []indexedKind {
	var out []indexedKind
	for i, t := range trees {
		if e := t.Find(name); e != nil {
			out = append(out, indexedKind{index: i, kind: e.Kind})
		}
	}
	return out
}

func (m *merger) mergeEntry(name string, present []indexedKind) (*objects.EntryKind, error) {
	if len(present) == 1 {
		k := present[0].kind
		return &k, nil
	}

	if allDirectories(present) {
		subtrees := make([]objects.ObjectHash, len(present))
		for i, p := range present {
			subtrees[i] = p.kind.Hash
		}
		mergedHash, err := m.mergeLevel(subtrees)
		if err != nil {
			return nil, err
		}
		dirMeta := &present[0].kind
		for _, p := range present[1:] {
			other := p.kind
			other.Hash = present[0].kind.Hash
			if !entriesEqual(present[0].kind, other) {
				if dirMeta, err = m.resolveConflict(name, present); err != nil {
					return nil, err
				}
				break
			}
		}
		result := *dirMeta
		result.Tag = objects.KindDirectory
		result.Hash = mergedHash
		return &result, nil
	}

	if allEqual(present) {
		k := present[0].kind
		return &k, nil
	}

	if !allSameKind(present) {
		return m.resolveTypeConflict(name, present)
	}
	return m.resolveConflict(name, present)
}

func allDirectories(present []indexedKind) bool {
	for _, p := range present {
		if p.kind.Tag != objects.KindDirectory {
			return false
		}
	}
	return true
}

func allSameKind(present []indexedKind) bool {
	for _, p := range present[1:] {
		if p.kind.Tag != present[0].kind.Tag {
			return false
		}
	}
	return true
}

func allEqual(present []indexedKind) bool {
	first := present[0].kind
	for _, p := range present[1:] {
		if !entriesEqual(first, p.kind) {
			return false
		}
	}
	return true
}

func entriesEqual(a, b objects.EntryKind) bool {
	if a.Tag != b.Tag || a.Hash != b.Hash || a.Uid != b.Uid || a.Gid != b.Gid || a.Mode != b.Mode {
		return false
	}
	if len(a.Xattrs) != len(b.Xattrs) {
		return false
	}
	for i := range a.Xattrs {
		if a.Xattrs[i].Name != b.Xattrs[i].Name || string(a.Xattrs[i].Value) != string(b.Xattrs[i].Value) {
			return false
		}
	}
	return true
}

func (m *merger) resolveTypeConflict(name string, present []indexedKind) (*objects.EntryKind, error) {
	switch m.policy {
	case First:
		k := present[0].kind
		return &k, nil
	case Last:
		k := present[len(present)-1].kind
		return &k, nil
	default:
		return nil, apperr.New(pkgName, apperr.CodeUnionTypeConflict, "merge_entry", name, nil)
	}
}

func (m *merger) resolveConflict(name string, present []indexedKind) (*objects.EntryKind, error) {
	switch m.policy {
	case First:
		k := present[0].kind
		return &k, nil
	case Last:
		k := present[len(present)-1].kind
		return &k, nil
	case Error:
		return nil, apperr.New(pkgName, apperr.CodeUnionConflict, "merge_entry", name, nil)
	default:
		return nil, apperr.New(pkgName, apperr.CodeInvalidConflictResolution, "merge_entry", name, nil).
			WithContext("policy", string(m.policy))
	}
}
