// Package tree implements the Tree object: an ordered, sorted listing of
// named entries describing one directory level of a commit's snapshot.
package tree

import (
	"fmt"
	"sort"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "tree"

// Tree is a content-addressed directory listing. Its canonical encoding
// (CBOR, compressed with zstd) is what gets hashed to produce its address;
// the hash is computed lazily and cached.
type Tree struct {
	Entries []*TreeEntry `cbor:"entries"`

	hash *objects.ObjectHash
}

// wireTree is the CBOR-visible shape of Tree, kept separate from Tree so
// that the in-memory type can carry the cached hash without it leaking into
// the canonical encoding.
type wireTree struct {
	Entries []*TreeEntry `cbor:"entries"`
}

// New builds a Tree from entries, sorting them into canonical order.
// Returns DuplicateEntryName if two entries share a name.
func New(entries []*TreeEntry) (*Tree, error) {
	sorted := make([]*TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CompareTo(sorted[j]) < 0
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name == sorted[i-1].Name {
			return nil, apperr.New(pkgName, apperr.CodeDuplicateEntryName, "new",
				"duplicate entry name in tree", nil).WithContext("name", sorted[i].Name)
		}
	}

	return &Tree{Entries: sorted}, nil
}

// Empty returns the canonical empty tree (no entries). Its hash is a fixed
// constant shared by every repository, since the CBOR+zstd encoding of a
// tree with no entries is deterministic.
func Empty() *Tree {
	t, _ := New(nil)
	return t
}

// Decode reverses Encode: given the compressed bytes read from the object
// store, reconstructs the Tree with its entries sorted by name, and rejects
// duplicate names and malformed entry kinds.
func Decode(compressed []byte) (*Tree, error) {
	var w wireTree
	if err := objects.DecodeCanonical(compressed, &w); err != nil {
		return nil, apperr.New(pkgName, apperr.CodeInvalidFormat, "decode", "tree decode failed", err)
	}

	t, err := New(w.Entries)
	if err != nil {
		return nil, err
	}
	for _, e := range t.Entries {
		if err := e.Kind.Validate(); err != nil {
			return nil, err
		}
	}

	hash := objects.NewObjectHash(compressed)
	t.hash = &hash
	return t, nil
}

// Encode produces the canonical compressed bytes for this tree. This is
// also the byte sequence whose SHA-256 is the tree's address.
func (t *Tree) Encode() ([]byte, error) {
	return objects.EncodeCanonical(wireTree{Entries: t.Entries})
}

// Type implements objects.BaseObject.
func (t *Tree) Type() objects.ObjectType { return objects.TreeType }

// Hash returns the content address of the tree, computing and caching it
// from the canonical encoding on first call.
func (t *Tree) Hash() (objects.ObjectHash, error) {
	if t.hash != nil {
		return *t.hash, nil
	}
	encoded, err := t.Encode()
	if err != nil {
		return "", err
	}
	hash := objects.NewObjectHash(encoded)
	t.hash = &hash
	return hash, nil
}

// IsEmpty returns true if the tree has no entries.
func (t *Tree) IsEmpty() bool {
	return len(t.Entries) == 0
}

// Find returns the entry with the given name, or nil if absent.
func (t *Tree) Find(name string) *TreeEntry {
	for _, e := range t.Entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// String returns a human-readable summary of the tree.
func (t *Tree) String() string {
	hash, err := t.Hash()
	if err != nil {
		return fmt.Sprintf("Tree{entries: %d, error: %v}", len(t.Entries), err)
	}
	return fmt.Sprintf("Tree{entries: %d, hash: %s}", len(t.Entries), hash.Short())
}
