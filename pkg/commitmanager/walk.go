package commitmanager

import (
	"os"
	"path"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/fsadapter"
	"github.com/utkarsh5026/sourcevault/pkg/namespace"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

const pkgName = "commitmanager"

// symlinkMode is the fixed sentinel mode recorded on a symlink's blob,
// matching the conventional lrwxrwxrwx bits rather than the link's own
// (meaningless) permission bits.
const symlinkMode = objects.Mode(0o120777)

// hardlinkKey identifies an inode within a single device for hardlink
// coalescing during a commit walk.
type hardlinkKey struct {
	dev uint64
	ino uint64
}

// walker carries the state threaded through a single commit's recursive
// directory walk: the destination object store, the namespace translation
// table, and the tracker that lets a second occurrence of the same inode
// become a Hardlink entry instead of a second blob.
type walker struct {
	store     *store.Store
	ns        namespace.Config
	hardlinks map[hardlinkKey]string
}

// walkDirectory processes one directory, depth-first post-order: children
// are fully resolved (including recursive subtrees) before this directory's
// own Tree object is constructed and written.
func (w *walker) walkDirectory(absPath, logicalPath string) (objects.ObjectHash, error) {
	entries, err := os.ReadDir(absPath)
	if err != nil {
		return "", apperr.New(pkgName, apperr.CodeInternal, "read_dir", absPath, err)
	}

	treeEntries := make([]*tree.TreeEntry, 0, len(entries))
	for _, de := range entries {
		childAbs := path.Join(absPath, de.Name())
		childLogical := path.Join(logicalPath, de.Name())

		kind, err := w.classify(childAbs, childLogical)
		if err != nil {
			return "", err
		}

		entry, err := tree.NewTreeEntry(de.Name(), kind)
		if err != nil {
			return "", err
		}
		treeEntries = append(treeEntries, entry)
	}

	t, err := tree.New(treeEntries)
	if err != nil {
		return "", err
	}
	return w.store.WriteTree(t)
}

// classify lstats childAbs and dispatches to the matching entry-kind
// builder.
func (w *walker) classify(childAbs, childLogical string) (objects.EntryKind, error) {
	meta, err := fsadapter.LStat(childAbs)
	if err != nil {
		return objects.EntryKind{}, apperr.New(pkgName, apperr.CodeInternal, "lstat", childAbs, err)
	}

	switch meta.Type {
	case fsadapter.NodeDirectory:
		return w.classifyDirectory(childAbs, childLogical, meta)
	case fsadapter.NodeRegular:
		return w.classifyRegular(childAbs, childLogical, meta)
	case fsadapter.NodeSymlink:
		return w.classifySymlink(childAbs, meta)
	case fsadapter.NodeBlockDevice:
		return w.classifyDevice(childAbs, meta, true)
	case fsadapter.NodeCharDevice:
		return w.classifyDevice(childAbs, meta, false)
	case fsadapter.NodeFifo:
		return w.classifyPlain(childAbs, meta, objects.KindFifo)
	case fsadapter.NodeSocket:
		return w.classifyPlain(childAbs, meta, objects.KindSocket)
	default:
		return objects.EntryKind{}, apperr.New(pkgName, apperr.CodeInternal, "classify", childAbs, nil).
			WithContext("reason", "unsupported node type")
	}
}

func (w *walker) translate(meta fsadapter.Metadata) (uid, gid uint32, err error) {
	uid, ok := w.ns.UidMap.OutsideToInside(meta.Uid)
	if !ok {
		return 0, 0, apperr.New(pkgName, apperr.CodeUnmappedUid, "translate_uid", "", nil).WithContext("outside_uid", meta.Uid)
	}
	gid, ok = w.ns.GidMap.OutsideToInside(meta.Gid)
	if !ok {
		return 0, 0, apperr.New(pkgName, apperr.CodeUnmappedGid, "translate_gid", "", nil).WithContext("outside_gid", meta.Gid)
	}
	return uid, gid, nil
}

func (w *walker) classifyDirectory(childAbs, childLogical string, meta fsadapter.Metadata) (objects.EntryKind, error) {
	uid, gid, err := w.translate(meta)
	if err != nil {
		return objects.EntryKind{}, err
	}
	xattrs, err := fsadapter.ListXattrs(childAbs)
	if err != nil {
		return objects.EntryKind{}, err
	}
	subtreeHash, err := w.walkDirectory(childAbs, childLogical)
	if err != nil {
		return objects.EntryKind{}, err
	}
	return objects.EntryKind{
		Tag: objects.KindDirectory, Hash: subtreeHash,
		Uid: uid, Gid: gid, Mode: objects.Mode(meta.Mode), Xattrs: xattrs,
	}, nil
}

func (w *walker) classifyRegular(childAbs, childLogical string, meta fsadapter.Metadata) (objects.EntryKind, error) {
	if meta.Nlink > 1 {
		key := hardlinkKey{dev: meta.Dev, ino: meta.Ino}
		if target, seen := w.hardlinks[key]; seen {
			return objects.EntryKind{Tag: objects.KindHardlink, TargetPath: target}, nil
		}
		w.hardlinks[key] = childLogical
	}

	uid, gid, err := w.translate(meta)
	if err != nil {
		return objects.EntryKind{}, err
	}
	xattrs, err := fsadapter.ListXattrs(childAbs)
	if err != nil {
		return objects.EntryKind{}, err
	}

	regions, size, err := fsadapter.DetectSparse(childAbs)
	if err != nil {
		return objects.EntryKind{}, err
	}

	var content []byte
	if regions != nil {
		content, err = fsadapter.ReadSparseContent(childAbs, regions)
	} else {
		content, err = os.ReadFile(childAbs)
	}
	if err != nil {
		return objects.EntryKind{}, apperr.New(pkgName, apperr.CodeInternal, "read_content", childAbs, err)
	}

	hash, err := w.store.WriteBlob(content, store.BlobMeta{
		InsideUid: uid, InsideGid: gid,
		OutsideUid: meta.Uid, OutsideGid: meta.Gid,
		Mode: meta.Mode, Xattrs: xattrs,
	})
	if err != nil {
		return objects.EntryKind{}, err
	}

	return objects.EntryKind{Tag: objects.KindRegular, Hash: hash, Size: uint64(size), SparseMap: regions}, nil
}

func (w *walker) classifySymlink(childAbs string, meta fsadapter.Metadata) (objects.EntryKind, error) {
	target, err := os.Readlink(childAbs)
	if err != nil {
		return objects.EntryKind{}, apperr.New(pkgName, apperr.CodeInternal, "readlink", childAbs, err)
	}
	xattrs, err := fsadapter.ListXattrs(childAbs)
	if err != nil {
		return objects.EntryKind{}, err
	}
	uid, gid, err := w.translate(meta)
	if err != nil {
		return objects.EntryKind{}, err
	}
	hash, err := w.store.WriteBlob([]byte(target), store.BlobMeta{
		InsideUid: uid, InsideGid: gid,
		OutsideUid: meta.Uid, OutsideGid: meta.Gid,
		Mode: uint32(symlinkMode), Xattrs: xattrs,
	})
	if err != nil {
		return objects.EntryKind{}, err
	}
	return objects.EntryKind{Tag: objects.KindSymlink, Hash: hash}, nil
}

func (w *walker) classifyDevice(childAbs string, meta fsadapter.Metadata, blockDevice bool) (objects.EntryKind, error) {
	uid, gid, err := w.translate(meta)
	if err != nil {
		return objects.EntryKind{}, err
	}
	xattrs, err := fsadapter.ListXattrs(childAbs)
	if err != nil {
		return objects.EntryKind{}, err
	}
	tag := objects.KindCharDevice
	if blockDevice {
		tag = objects.KindBlockDevice
	}
	return objects.EntryKind{
		Tag: tag, Uid: uid, Gid: gid, Mode: objects.Mode(meta.Mode), Xattrs: xattrs,
		Major: meta.Major, Minor: meta.Minor,
	}, nil
}

func (w *walker) classifyPlain(childAbs string, meta fsadapter.Metadata, tag objects.EntryKindTag) (objects.EntryKind, error) {
	uid, gid, err := w.translate(meta)
	if err != nil {
		return objects.EntryKind{}, err
	}
	xattrs, err := fsadapter.ListXattrs(childAbs)
	if err != nil {
		return objects.EntryKind{}, err
	}
	return objects.EntryKind{Tag: tag, Uid: uid, Gid: gid, Mode: objects.Mode(meta.Mode), Xattrs: xattrs}, nil
}
