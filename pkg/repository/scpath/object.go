package scpath

import (
	"fmt"
)

// ObjectPath is a hash split into its 2/62 shard directory form, e.g. hash
// "ab34..." (64 hex chars) becomes ObjectPath "ab/34..." (62 hex chars after
// the slash).
type ObjectPath string

// String returns the object path as a string.
func (op ObjectPath) String() string {
	return string(op)
}

// IsValid checks if this is a valid object path (format: "ab/<62 hex>").
func (op ObjectPath) IsValid() bool {
	s := string(op)
	if len(s) != HashHexLength+1 {
		return false
	}
	if s[HashPrefixLength] != '/' {
		return false
	}
	prefix := s[:HashPrefixLength]
	suffix := s[HashPrefixLength+1:]
	return isHexString(prefix) && isHexString(suffix)
}

// Hash returns the full object hash (concatenating prefix and suffix).
func (op ObjectPath) Hash() string {
	s := string(op)
	if len(s) < HashPrefixLength+2 {
		return ""
	}
	return s[:HashPrefixLength] + s[HashPrefixLength+1:]
}

// NewObjectPath creates an ObjectPath from a 64-hex-char hash.
func NewObjectPath(hash string) (ObjectPath, error) {
	if len(hash) != HashHexLength {
		return "", fmt.Errorf("hash must be %d characters, got %d", HashHexLength, len(hash))
	}
	if !isHexString(hash) {
		return "", fmt.Errorf("hash must be hex string")
	}
	prefix := hash[:HashPrefixLength]
	suffix := hash[HashPrefixLength:]
	return ObjectPath(prefix + "/" + suffix), nil
}

// ObjectFilePath returns the absolute path to an object of the given kind
// root (BlobsRoot/TreesRoot/CommitsRoot) and hash.
func ObjectFilePath(kindRoot AbsolutePath, hash string) (AbsolutePath, error) {
	op, err := NewObjectPath(hash)
	if err != nil {
		return "", err
	}
	prefix := string(op)[:HashPrefixLength]
	suffix := string(op)[HashPrefixLength+1:]
	return kindRoot.Join(prefix, suffix), nil
}
