// Package commit implements the Commit object: an immutable snapshot
// record pointing at a root tree and zero or more parent commits.
package commit

import (
	"fmt"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "commit"

// Commit is a content-addressed snapshot: a tree plus the history and
// authorship that produced it. Parents are ordered: 0 means a root commit,
// 1 a linear commit, 2+ a merge (the union engine's output).
type Commit struct {
	Tree      objects.ObjectHash   `cbor:"tree"`
	Parents   []objects.ObjectHash `cbor:"parents,omitempty"`
	Author    string               `cbor:"author"`
	Timestamp int64                `cbor:"timestamp"`
	Message   string               `cbor:"message"`
	Metadata  map[string]string    `cbor:"metadata,omitempty"`

	hash *objects.ObjectHash
}

// wireCommit mirrors Commit's CBOR-visible fields only.
type wireCommit struct {
	Tree      objects.ObjectHash   `cbor:"tree"`
	Parents   []objects.ObjectHash `cbor:"parents,omitempty"`
	Author    string               `cbor:"author"`
	Timestamp int64                `cbor:"timestamp"`
	Message   string               `cbor:"message"`
	Metadata  map[string]string    `cbor:"metadata,omitempty"`
}

// New creates a Commit, validating required fields.
func New(tree objects.ObjectHash, parents []objects.ObjectHash, author string, timestamp int64, message string, metadata map[string]string) (*Commit, error) {
	c := &Commit{
		Tree:      tree,
		Parents:   parents,
		Author:    author,
		Timestamp: timestamp,
		Message:   message,
		Metadata:  metadata,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *Commit) Validate() error {
	if c.Tree == "" {
		return apperr.New(pkgName, apperr.CodeInvalidFormat, "validate", "commit missing tree hash", nil)
	}
	if err := c.Tree.Validate(); err != nil {
		return apperr.New(pkgName, apperr.CodeInvalidHashHex, "validate", "invalid tree hash", err)
	}
	for i, p := range c.Parents {
		if err := p.Validate(); err != nil {
			return apperr.New(pkgName, apperr.CodeInvalidHashHex, "validate",
				"invalid parent hash", err).WithContext("index", i)
		}
	}
	if c.Author == "" {
		return apperr.New(pkgName, apperr.CodeInvalidFormat, "validate", "commit missing author", nil)
	}
	return nil
}

// Decode reverses Encode.
func Decode(compressed []byte) (*Commit, error) {
	var w wireCommit
	if err := objects.DecodeCanonical(compressed, &w); err != nil {
		return nil, apperr.New(pkgName, apperr.CodeInvalidFormat, "decode", "commit decode failed", err)
	}
	c := &Commit{
		Tree:      w.Tree,
		Parents:   w.Parents,
		Author:    w.Author,
		Timestamp: w.Timestamp,
		Message:   w.Message,
		Metadata:  w.Metadata,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	hash := objects.NewObjectHash(compressed)
	c.hash = &hash
	return c, nil
}

// Encode produces the canonical compressed bytes for this commit.
func (c *Commit) Encode() ([]byte, error) {
	return objects.EncodeCanonical(wireCommit{
		Tree:      c.Tree,
		Parents:   c.Parents,
		Author:    c.Author,
		Timestamp: c.Timestamp,
		Message:   c.Message,
		Metadata:  c.Metadata,
	})
}

// Type implements objects.BaseObject.
func (c *Commit) Type() objects.ObjectType { return objects.CommitType }

// Hash returns the content address of the commit.
func (c *Commit) Hash() (objects.ObjectHash, error) {
	if c.hash != nil {
		return *c.hash, nil
	}
	encoded, err := c.Encode()
	if err != nil {
		return "", err
	}
	hash := objects.NewObjectHash(encoded)
	c.hash = &hash
	return hash, nil
}

// IsRoot returns true if this commit has no parents.
func (c *Commit) IsRoot() bool { return len(c.Parents) == 0 }

// IsMerge returns true if this commit has multiple parents.
func (c *Commit) IsMerge() bool { return len(c.Parents) > 1 }

// FirstParent returns the leftmost parent (used by log's linear walk and by
// fast-forward checks), or the zero hash if this is a root commit.
func (c *Commit) FirstParent() objects.ObjectHash {
	if len(c.Parents) == 0 {
		return objects.ZeroHash()
	}
	return c.Parents[0]
}

// String returns a human-readable summary of the commit.
func (c *Commit) String() string {
	hash, err := c.Hash()
	if err != nil {
		return fmt.Sprintf("Commit{tree: %s, error: %v}", c.Tree.Short(), err)
	}
	return fmt.Sprintf("Commit{hash: %s, tree: %s, parents: %d}", hash.Short(), c.Tree.Short(), len(c.Parents))
}
