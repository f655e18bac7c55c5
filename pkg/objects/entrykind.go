package objects

import apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"

// EntryKindTag discriminates the variant carried by an EntryKind. Consumers
// (checkout, diff, ls-tree, union) dispatch on this tag; a decoder that meets
// an unrecognized tag must reject the tree rather than silently skip the
// entry, since a corrupt/forward-incompatible entry silently ignored would
// violate the reachability invariants fsck relies on.
type EntryKindTag string

const (
	KindRegular     EntryKindTag = "regular"
	KindSymlink     EntryKindTag = "symlink"
	KindDirectory   EntryKindTag = "directory"
	KindBlockDevice EntryKindTag = "block_device"
	KindCharDevice  EntryKindTag = "char_device"
	KindFifo        EntryKindTag = "fifo"
	KindSocket      EntryKindTag = "socket"
	KindHardlink    EntryKindTag = "hardlink"
)

// EntryKind is the per-entry payload of a Tree. It is a flattened tagged
// union: Tag selects which of the remaining fields are meaningful. Fields are
// `omitempty` so the canonical CBOR encoding never writes a field that a given
// Tag does not use, keeping the encoding of e.g. a Fifo entry independent of
// the (irrelevant) zero value of Hash or TargetPath.
type EntryKind struct {
	Tag EntryKindTag `cbor:"tag"`

	// Regular, Symlink
	Hash      ObjectHash     `cbor:"hash,omitempty"`
	Size      uint64         `cbor:"size,omitempty"`
	SparseMap []SparseRegion `cbor:"sparse_map,omitempty"`

	// Directory, BlockDevice, CharDevice, Fifo, Socket
	Uid    uint32  `cbor:"uid,omitempty"`
	Gid    uint32  `cbor:"gid,omitempty"`
	Mode   Mode    `cbor:"mode,omitempty"`
	Xattrs []Xattr `cbor:"xattrs,omitempty"`

	// BlockDevice, CharDevice
	Major uint32 `cbor:"major,omitempty"`
	Minor uint32 `cbor:"minor,omitempty"`

	// Hardlink
	TargetPath string `cbor:"target_path,omitempty"`
}

// IsDirectory reports whether this entry is a Directory kind.
func (k EntryKind) IsDirectory() bool { return k.Tag == KindDirectory }

// IsRegular reports whether this entry is a Regular kind.
func (k EntryKind) IsRegular() bool { return k.Tag == KindRegular }

// IsHardlink reports whether this entry is a Hardlink kind.
func (k EntryKind) IsHardlink() bool { return k.Tag == KindHardlink }

// HasBlob reports whether this entry kind stores content in a blob.
func (k EntryKind) HasBlob() bool {
	return k.Tag == KindRegular || k.Tag == KindSymlink
}

// Validate checks structural invariants for the entry's tag that cannot be
// expressed by the Go type alone (e.g. a Hardlink needs a non-empty target).
func (k EntryKind) Validate() error {
	switch k.Tag {
	case KindRegular, KindSymlink, KindDirectory, KindBlockDevice, KindCharDevice, KindFifo, KindSocket:
		return nil
	case KindHardlink:
		if k.TargetPath == "" {
			return apperr.New(pkgName, apperr.CodeInvalidEntryName, "validate",
				"hardlink entry missing target_path", nil)
		}
		return nil
	default:
		return apperr.New(pkgName, apperr.CodeInvalidObjectType, "validate",
			"unknown entry kind tag", nil).WithContext("tag", string(k.Tag))
	}
}
