package objects

import (
	"fmt"
	"sort"
)

// Mode holds POSIX permission bits (the low 12 bits of a stat mode). It
// never carries the file-type bits; type is carried by EntryKindTag instead.
type Mode uint32

// IsExecutable reports whether any execute bit is set.
func (m Mode) IsExecutable() bool {
	return m&0o111 != 0
}

// String renders the mode in the familiar rwxrwxrwx-adjacent octal form.
func (m Mode) String() string {
	return fmt.Sprintf("%04o", uint32(m))
}

// Xattr is a single extended attribute captured on a blob or directory entry.
type Xattr struct {
	Name  string `cbor:"name"`
	Value []byte `cbor:"value"`
}

// SortXattrs returns xattrs sorted ascending by name, the canonical order
// used both for hash-input byte layout (§4.C) and CBOR encoding so that two
// semantically identical xattr sets always produce identical bytes.
func SortXattrs(xattrs []Xattr) []Xattr {
	sorted := make([]Xattr, len(xattrs))
	copy(sorted, xattrs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// SparseRegion describes one data region of a sparse file: Offset bytes into
// the file, spanning Length bytes of stored content. Bytes of the file that
// lie outside every region are holes (implicit zeros).
type SparseRegion struct {
	Offset uint64 `cbor:"offset"`
	Length uint64 `cbor:"length"`
}

// ObjectSize represents the size of object content in bytes
type ObjectSize int64

// IsValid returns true if the size is non-negative
func (os ObjectSize) IsValid() bool {
	return os >= 0
}

// String returns a human-readable size string
func (os ObjectSize) String() string {
	return formatBytes(int64(os))
}

// Int64 returns the size as an int64
func (os ObjectSize) Int64() int64 {
	return int64(os)
}

// formatBytes formats bytes into human-readable format (B, KiB, MiB, etc.)
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
