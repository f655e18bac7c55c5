// Package fsadapter provides uniform access to POSIX file metadata, xattrs,
// and node creation primitives for every entry kind the store understands
// (regular files, symlinks, directories, device nodes, fifos, sockets, and
// hardlinks). All ids handled here are outside (on-disk) ids; translation to
// and from inside ids is the caller's responsibility via pkg/namespace.
package fsadapter

import (
	"os"

	"golang.org/x/sys/unix"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "fsadapter"

// NodeType classifies a filesystem entry the way lstat's mode bits do.
type NodeType int

const (
	NodeRegular NodeType = iota
	NodeSymlink
	NodeDirectory
	NodeBlockDevice
	NodeCharDevice
	NodeFifo
	NodeSocket
	NodeUnknown
)

// Metadata is the lstat-equivalent view of a filesystem entry: never follows
// a trailing symlink.
type Metadata struct {
	Type  NodeType
	Uid   uint32
	Gid   uint32
	Mode  uint32 // permission bits only (low 12 bits)
	Size  int64
	Major uint32
	Minor uint32
	Ino   uint64
	Dev   uint64
	Nlink uint64
}

// LStat reads metadata for path without following a trailing symlink.
func LStat(path string) (Metadata, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Metadata{}, apperr.New(pkgName, apperr.CodeInternal, "lstat", path, err)
	}
	return statToMetadata(st), nil
}

func statToMetadata(st unix.Stat_t) Metadata {
	m := Metadata{
		Uid:   st.Uid,
		Gid:   st.Gid,
		Mode:  uint32(st.Mode) & 0o7777,
		Size:  st.Size,
		Ino:   st.Ino,
		Dev:   uint64(st.Dev),
		Nlink: uint64(st.Nlink),
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFREG:
		m.Type = NodeRegular
	case unix.S_IFLNK:
		m.Type = NodeSymlink
	case unix.S_IFDIR:
		m.Type = NodeDirectory
	case unix.S_IFBLK:
		m.Type = NodeBlockDevice
		m.Major, m.Minor = deviceNumbers(uint64(st.Rdev))
	case unix.S_IFCHR:
		m.Type = NodeCharDevice
		m.Major, m.Minor = deviceNumbers(uint64(st.Rdev))
	case unix.S_IFIFO:
		m.Type = NodeFifo
	case unix.S_IFSOCK:
		m.Type = NodeSocket
	default:
		m.Type = NodeUnknown
	}
	return m
}

func deviceNumbers(rdev uint64) (major, minor uint32) {
	return uint32(unix.Major(rdev)), uint32(unix.Minor(rdev))
}

// EntryKindTag maps a Metadata's Type to the object model's tagged union,
// used when walking a directory tree during commit.
func (m Metadata) EntryKindTag() objects.EntryKindTag {
	switch m.Type {
	case NodeRegular:
		return objects.KindRegular
	case NodeSymlink:
		return objects.KindSymlink
	case NodeDirectory:
		return objects.KindDirectory
	case NodeBlockDevice:
		return objects.KindBlockDevice
	case NodeCharDevice:
		return objects.KindCharDevice
	case NodeFifo:
		return objects.KindFifo
	case NodeSocket:
		return objects.KindSocket
	default:
		return objects.KindRegular
	}
}

// IsDir reports whether the entry is a directory (convenience over Type).
func (m Metadata) IsDir() bool { return m.Type == NodeDirectory }

// ModeOf returns an os.FileMode carrying only the permission bits, for APIs
// that want the stdlib representation (e.g. os.Chmod).
func ModeOf(mode uint32) os.FileMode {
	return os.FileMode(mode & 0o7777)
}
