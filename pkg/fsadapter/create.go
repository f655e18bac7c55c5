package fsadapter

import (
	"os"

	"golang.org/x/sys/unix"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// NodeSpec is the common metadata applied to every node creation primitive
// below. Xattrs are applied after the node exists and before ownership/mode,
// matching the checkout order: create -> xattrs -> chown -> chmod.
type NodeSpec struct {
	Uid    uint32
	Gid    uint32
	Mode   uint32
	Xattrs []objects.Xattr
}

// CreateRegularFile creates a regular file at path with the given content,
// then applies xattrs, ownership, and permission bits in that order.
func CreateRegularFile(path string, content []byte, spec NodeSpec) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "create_regular", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return apperr.New(pkgName, apperr.CodeInternal, "write_regular", path, err)
	}
	if err := f.Close(); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "close_regular", path, err)
	}
	if err := SetXattrs(path, spec.Xattrs); err != nil {
		return err
	}
	if err := unix.Chown(path, int(spec.Uid), int(spec.Gid)); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "chown", path, err)
	}
	if err := os.Chmod(path, ModeOf(spec.Mode)); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "chmod", path, err)
	}
	return nil
}

// CreateSymlink creates a symlink at path pointing at target. Symlinks have
// no permission bits of their own; only ownership and xattrs are applied
// after creation, both through the L-prefixed (non-dereferencing) calls.
func CreateSymlink(path, target string, uid, gid uint32, xattrs []objects.Xattr) error {
	if err := os.Symlink(target, path); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "create_symlink", path, err)
	}
	if err := SetXattrs(path, xattrs); err != nil {
		return err
	}
	if err := unix.Lchown(path, int(uid), int(gid)); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "lchown", path, err)
	}
	return nil
}

// CreateDirectory creates a directory at path and applies xattrs, ownership,
// and permission bits in that order.
func CreateDirectory(path string, spec NodeSpec) error {
	if err := os.Mkdir(path, 0o700); err != nil && !os.IsExist(err) {
		return apperr.New(pkgName, apperr.CodeInternal, "create_directory", path, err)
	}
	if err := SetXattrs(path, spec.Xattrs); err != nil {
		return err
	}
	if err := unix.Chown(path, int(spec.Uid), int(spec.Gid)); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "chown", path, err)
	}
	if err := os.Chmod(path, ModeOf(spec.Mode)); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "chmod", path, err)
	}
	return nil
}

// CreateDevice creates a block or character device node via mknod. Requires
// privilege the caller may not hold; a permission failure is reported as
// DeviceNodePermission so checkout can report it distinctly from other I/O
// errors.
func CreateDevice(path string, charDevice bool, major, minor uint32, spec NodeSpec) error {
	mode := uint32(unix.S_IFBLK)
	if charDevice {
		mode = unix.S_IFCHR
	}
	dev := unix.Mkdev(major, minor)
	if err := unix.Mknod(path, mode|(spec.Mode&0o7777), int(dev)); err != nil {
		if err == unix.EPERM {
			return apperr.New(pkgName, apperr.CodeDeviceNodePermission, "mknod", path, err)
		}
		return apperr.New(pkgName, apperr.CodeInternal, "mknod", path, err)
	}
	return finishNode(path, spec)
}

// CreateFifo creates a named pipe via mknod.
func CreateFifo(path string, spec NodeSpec) error {
	if err := unix.Mkfifo(path, spec.Mode&0o7777); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "mkfifo", path, err)
	}
	return finishNode(path, spec)
}

// socketPlaceholderMode is forced on every checked-out socket node regardless
// of the recorded mode: sockets are never live on checkout, so preserving an
// original mode that might be group/world-writable serves no purpose and
// only widens the placeholder's attack surface.
const socketPlaceholderMode = 0o600

// CreateSocket creates a socket node placeholder via mknod (no bind). Lossy:
// a real listening socket cannot be reconstructed from an archived tree, only
// an inert node with the same path.
func CreateSocket(path string, spec NodeSpec) error {
	if err := unix.Mknod(path, unix.S_IFSOCK|socketPlaceholderMode, 0); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "mknod_socket", path, err)
	}
	spec.Mode = socketPlaceholderMode
	return finishNode(path, spec)
}

func finishNode(path string, spec NodeSpec) error {
	if err := SetXattrs(path, spec.Xattrs); err != nil {
		return err
	}
	if err := unix.Chown(path, int(spec.Uid), int(spec.Gid)); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "chown", path, err)
	}
	if err := os.Chmod(path, ModeOf(spec.Mode)); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "chmod", path, err)
	}
	return nil
}

// Hardlink creates newPath as a second name for the inode at oldPath.
func Hardlink(oldPath, newPath string) error {
	if err := unix.Link(oldPath, newPath); err != nil {
		if err == unix.ENOENT {
			return apperr.New(pkgName, apperr.CodeHardlinkTargetMissing, "link", newPath, err).WithContext("target", oldPath)
		}
		return apperr.New(pkgName, apperr.CodeInternal, "link", newPath, err)
	}
	return nil
}
