// Package difflog implements read-only history and tree-comparison
// operations over the object store: diffing two trees, walking commit
// history along the leftmost parent, and listing a tree's contents
// depth-first.
package difflog

import (
	"path"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

const pkgName = "difflog"

// ChangeKind classifies one entry's difference between two trees.
type ChangeKind string

const (
	Added        ChangeKind = "added"
	Deleted      ChangeKind = "deleted"
	Modified     ChangeKind = "modified"
	MetadataOnly ChangeKind = "metadata_only"
)

// Change describes one path's difference between two trees.
type Change struct {
	Path string
	Kind ChangeKind

	// Before/After are nil when the path didn't exist on that side.
	Before *objects.EntryKind
	After  *objects.EntryKind
}

// Reader performs diff/log/ls-tree operations against a single object store.
type Reader struct {
	store *store.Store
}

// New returns a Reader over store.
func New(s *store.Store) *Reader {
	return &Reader{store: s}
}

// Diff walks two trees in lockstep, sorted by name, and returns the ordered
// list of differences. A directory-kind entry is recursed into only when its
// subtree hash differs between the two sides. Directory metadata is carried
// on the directory entry itself (owner/mode/xattrs), not folded into the
// subtree hash, so an identical subtree hash with differing metadata is not
// recursed into but is reported as MetadataOnly rather than skipped.
func (r *Reader) Diff(before, after objects.ObjectHash) ([]Change, error) {
	var changes []Change
	if err := r.diffTrees(before, after, "", &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

func (r *Reader) diffTrees(beforeHash, afterHash objects.ObjectHash, prefix string, out *[]Change) error {
	beforeTree, err := r.loadTree(beforeHash)
	if err != nil {
		return err
	}
	afterTree, err := r.loadTree(afterHash)
	if err != nil {
		return err
	}

	bi, ai := 0, 0
	for bi < len(beforeTree.Entries) || ai < len(afterTree.Entries) {
		switch {
		case bi >= len(beforeTree.Entries):
			e := afterTree.Entries[ai]
			*out = append(*out, Change{Path: path.Join(prefix, e.Name), Kind: Added, After: kindPtr(e.Kind)})
			ai++
		case ai >= len(afterTree.Entries):
			e := beforeTree.Entries[bi]
			*out = append(*out, Change{Path: path.Join(prefix, e.Name), Kind: Deleted, Before: kindPtr(e.Kind)})
			bi++
		case beforeTree.Entries[bi].Name == afterTree.Entries[ai].Name:
			b, a := beforeTree.Entries[bi], afterTree.Entries[ai]
			if err := r.diffMatched(b, a, prefix, out); err != nil {
				return err
			}
			bi++
			ai++
		case beforeTree.Entries[bi].Name < afterTree.Entries[ai].Name:
			e := beforeTree.Entries[bi]
			*out = append(*out, Change{Path: path.Join(prefix, e.Name), Kind: Deleted, Before: kindPtr(e.Kind)})
			bi++
		default:
			e := afterTree.Entries[ai]
			*out = append(*out, Change{Path: path.Join(prefix, e.Name), Kind: Added, After: kindPtr(e.Kind)})
			ai++
		}
	}
	return nil
}

func (r *Reader) diffMatched(b, a *tree.TreeEntry, prefix string, out *[]Change) error {
	p := path.Join(prefix, b.Name)
	if b.Kind.Tag != a.Kind.Tag {
		*out = append(*out, Change{Path: p, Kind: Modified, Before: kindPtr(b.Kind), After: kindPtr(a.Kind)})
		return nil
	}

	if b.Kind.Tag == objects.KindDirectory {
		if b.Kind.Hash != a.Kind.Hash {
			if err := r.diffTrees(b.Kind.Hash, a.Kind.Hash, p, out); err != nil {
				return err
			}
		}
		if !sameDirMetadata(b.Kind, a.Kind) {
			*out = append(*out, Change{Path: p, Kind: MetadataOnly, Before: kindPtr(b.Kind), After: kindPtr(a.Kind)})
		}
		return nil
	}

	if b.Kind.Hash == a.Kind.Hash {
		if !sameEntryMetadata(b.Kind, a.Kind) {
			*out = append(*out, Change{Path: p, Kind: MetadataOnly, Before: kindPtr(b.Kind), After: kindPtr(a.Kind)})
		}
		return nil
	}
	*out = append(*out, Change{Path: p, Kind: Modified, Before: kindPtr(b.Kind), After: kindPtr(a.Kind)})
	return nil
}

func sameDirMetadata(b, a objects.EntryKind) bool {
	return b.Uid == a.Uid && b.Gid == a.Gid && b.Mode == a.Mode && sameXattrs(b.Xattrs, a.Xattrs)
}

func sameEntryMetadata(b, a objects.EntryKind) bool {
	return sameDirMetadata(b, a)
}

func sameXattrs(b, a []objects.Xattr) bool {
	if len(b) != len(a) {
		return false
	}
	for i := range b {
		if b[i].Name != a[i].Name || string(b[i].Value) != string(a[i].Value) {
			return false
		}
	}
	return true
}

func (r *Reader) loadTree(hash objects.ObjectHash) (*tree.Tree, error) {
	if hash == "" {
		return tree.Empty(), nil
	}
	return r.store.ReadTree(hash)
}

func kindPtr(k objects.EntryKind) *objects.EntryKind {
	return &k
}

// LogEntry pairs a commit hash with its decoded object for a log walk.
type LogEntry struct {
	Hash   objects.ObjectHash
	Commit *commit.Commit
}

// Log walks history from start along parents[0] (leftmost), emitting
// entries until a root commit (no parents) is reached or maxCount entries
// have been emitted. maxCount <= 0 means unbounded.
func (r *Reader) Log(start objects.ObjectHash, maxCount int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start
	for current != "" {
		if maxCount > 0 && len(entries) >= maxCount {
			break
		}
		c, err := r.store.ReadCommit(current)
		if err != nil {
			return nil, err
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})
		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}
	return entries, nil
}

// LsEntry is one (path, entry) pair yielded by a depth-first tree listing.
type LsEntry struct {
	Path string
	Kind objects.EntryKind
}

// LsTree lists every entry reachable from root, depth-first, starting at
// subPath (empty means the tree root). subPath must name a directory entry
// or be empty.
func (r *Reader) LsTree(root objects.ObjectHash, subPath string) ([]LsEntry, error) {
	treeHash, err := r.resolveSubPath(root, subPath)
	if err != nil {
		return nil, err
	}
	var entries []LsEntry
	if err := r.lsTreeRecursive(treeHash, subPath, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Reader) resolveSubPath(root objects.ObjectHash, subPath string) (objects.ObjectHash, error) {
	if subPath == "" || subPath == "." {
		return root, nil
	}
	current := root
	for _, component := range splitPath(subPath) {
		t, err := r.loadTree(current)
		if err != nil {
			return "", err
		}
		e := t.Find(component)
		if e == nil || e.Kind.Tag != objects.KindDirectory {
			return "", apperr.New(pkgName, apperr.CodeObjectNotFound, "resolve_sub_path", subPath, nil)
		}
		current = e.Kind.Hash
	}
	return current, nil
}

func splitPath(p string) []string {
	clean := path.Clean(p)
	if clean == "." || clean == "/" {
		return nil
	}
	var parts []string
	for clean != "." && clean != "/" {
		dir, file := path.Split(clean)
		parts = append([]string{file}, parts...)
		clean = path.Clean(dir)
	}
	return parts
}

func (r *Reader) lsTreeRecursive(treeHash objects.ObjectHash, prefix string, out *[]LsEntry) error {
	t, err := r.loadTree(treeHash)
	if err != nil {
		return err
	}
	for _, e := range t.Entries {
		p := path.Join(prefix, e.Name)
		*out = append(*out, LsEntry{Path: p, Kind: e.Kind})
		if e.Kind.Tag == objects.KindDirectory {
			if err := r.lsTreeRecursive(e.Kind.Hash, p, out); err != nil {
				return err
			}
		}
	}
	return nil
}
