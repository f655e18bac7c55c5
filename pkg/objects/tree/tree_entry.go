package tree

import (
	"fmt"
	"strings"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "tree"

// TreeEntry is a single named child of a Tree: a directory entry's name
// paired with the EntryKind describing what it is (regular file, symlink,
// subdirectory, device node, fifo, socket, or hardlink) and the metadata
// needed to recreate it.
type TreeEntry struct {
	Name string            `cbor:"name"`
	Kind objects.EntryKind `cbor:"kind"`
}

// NewTreeEntry creates a validated TreeEntry. Name must be a single path
// component: non-empty, containing neither "/" nor a NUL byte, and not "."
// or "..".
func NewTreeEntry(name string, kind objects.EntryKind) (*TreeEntry, error) {
	if err := validateEntryName(name); err != nil {
		return nil, err
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return &TreeEntry{Name: name, Kind: kind}, nil
}

func validateEntryName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.Contains(name, "/") || strings.Contains(name, "\x00") {
		return apperr.New(pkgName, apperr.CodeInvalidEntryName, "validate_name",
			"invalid tree entry name", nil).WithContext("name", name)
	}
	return nil
}

// IsDirectory returns true if this entry is a subdirectory.
func (e *TreeEntry) IsDirectory() bool {
	return e.Kind.IsDirectory()
}

// IsRegular returns true if this entry is a regular file.
func (e *TreeEntry) IsRegular() bool {
	return e.Kind.IsRegular()
}

// IsSymlink returns true if this entry is a symbolic link.
func (e *TreeEntry) IsSymlink() bool {
	return e.Kind.Tag == objects.KindSymlink
}

// IsHardlink returns true if this entry aliases a previously-seen path
// within the same commit rather than storing its own blob.
func (e *TreeEntry) IsHardlink() bool {
	return e.Kind.IsHardlink()
}

// Hash returns the entry's referenced object hash, empty for kinds that do
// not reference a blob or subtree.
func (e *TreeEntry) Hash() objects.ObjectHash {
	return e.Kind.Hash
}

// CompareTo orders entries by name, byte-wise ascending, as required for
// the canonical encoding (§3 Invariants: "Tree entry names are unique and
// sorted").
func (e *TreeEntry) CompareTo(other *TreeEntry) int {
	if e.Name == other.Name {
		return 0
	}
	if e.Name < other.Name {
		return -1
	}
	return 1
}

// String returns a human-readable summary of the entry.
func (e *TreeEntry) String() string {
	return fmt.Sprintf("%s{name: %s, hash: %s}", e.Kind.Tag, e.Name, e.Kind.Hash.Short())
}
