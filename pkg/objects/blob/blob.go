// Package blob implements blob objects, the content-addressed unit that
// carries a regular file's or symlink target's bytes plus the POSIX
// ownership/permission/xattr metadata needed to recreate it faithfully.
package blob

import (
	"encoding/binary"
	"fmt"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "blob"

// Blob is the stored content plus the metadata that travels with it.
// Unlike trees and commits, blobs are written to the store uncompressed:
// their content is frequently already-compressed media, and letting the
// filesystem layer hardlink the stored file straight into a checkout
// requires the bytes on disk to be exactly the original content.
type Blob struct {
	Uid     uint32
	Gid     uint32
	Mode    objects.Mode
	Xattrs  []objects.Xattr
	Content []byte

	hash *objects.ObjectHash
}

// New creates a Blob from captured filesystem metadata and content. The
// hash is computed lazily on first access.
func New(uid, gid uint32, mode objects.Mode, xattrs []objects.Xattr, content []byte) *Blob {
	return &Blob{
		Uid:     uid,
		Gid:     gid,
		Mode:    mode,
		Xattrs:  objects.SortXattrs(xattrs),
		Content: content,
	}
}

// Type implements objects.BaseObject.
func (b *Blob) Type() objects.ObjectType {
	return objects.BlobType
}

// hashInput builds the fixed byte layout hashed to address this blob:
// uid ‖ gid ‖ mode ‖ xattr_count (4 bytes each, little-endian), followed by
// each xattr as name_len‖name‖value_len‖value (4-byte LE lengths), followed
// by the raw content. Metadata participates in the address so that two
// files with identical bytes but different ownership or xattrs are stored
// as distinct objects.
func (b *Blob) hashInput() []byte {
	xattrs := objects.SortXattrs(b.Xattrs)

	size := 16
	for _, x := range xattrs {
		size += 8 + len(x.Name) + len(x.Value)
	}
	size += len(b.Content)

	buf := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], b.Uid)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], b.Gid)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(b.Mode))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(xattrs)))
	off += 4

	for _, x := range xattrs {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(x.Name)))
		off += 4
		off += copy(buf[off:], x.Name)
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(x.Value)))
		off += 4
		off += copy(buf[off:], x.Value)
	}

	off += copy(buf[off:], b.Content)
	return buf[:off]
}

// Hash returns the content address of the blob, computing and caching it
// on first call.
func (b *Blob) Hash() (objects.ObjectHash, error) {
	if b.hash != nil {
		return *b.hash, nil
	}
	hash := objects.NewObjectHash(b.hashInput())
	b.hash = &hash
	return hash, nil
}

// Size returns the length of the blob's content in bytes.
func (b *Blob) Size() objects.ObjectSize {
	return objects.ObjectSize(len(b.Content))
}

// Validate reports structural problems that would make the blob unsafe to
// materialize on checkout.
func (b *Blob) Validate() error {
	for _, x := range b.Xattrs {
		if x.Name == "" {
			return apperr.New(pkgName, apperr.CodeInvalidEntryName, "validate",
				"blob has xattr with empty name", nil)
		}
	}
	return nil
}

// String returns a human-readable summary of the blob.
func (b *Blob) String() string {
	hash, err := b.Hash()
	if err != nil {
		return fmt.Sprintf("Blob{size: %d, error: %v}", len(b.Content), err)
	}
	return fmt.Sprintf("Blob{size: %d, mode: %s, hash: %s}", len(b.Content), b.Mode, hash.Short())
}
