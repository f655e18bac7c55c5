// Package workdir implements the checkout pipeline: materializing a stored
// tree back onto a real filesystem, including sparse reconstruction and a
// deferred second pass for hardlinks.
package workdir

import (
	"os"
	"path"
	"path/filepath"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/fsadapter"
	"github.com/utkarsh5026/sourcevault/pkg/namespace"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

const pkgName = "workdir"

// Options configures a checkout. Hardlink and PreserveSparse default to
// their spec-mandated "on" behavior at the zero value; set the negative
// variants to opt out.
type Options struct {
	// Force allows checking out into a non-empty target directory.
	Force bool

	// NoHardlink disables hardlinking blob files into the target; content is
	// copied instead.
	NoHardlink bool

	// NoPreserveSparse disables sparse-hole reconstruction; regular files
	// with a sparse map are laid out as contiguous bytes instead.
	NoPreserveSparse bool
}

// Manager drives checkout operations against a single open repository.
type Manager struct {
	repo *sourcerepo.Repository
}

// New returns a Manager for repo.
func New(repo *sourcerepo.Repository) *Manager {
	return &Manager{repo: repo}
}

// Checkout materializes the tree reachable from commitHash into target.
func (m *Manager) Checkout(commitHash objects.ObjectHash, target string, opts Options) error {
	c, err := m.repo.Store.ReadCommit(commitHash)
	if err != nil {
		return err
	}
	return m.CheckoutTree(c.Tree, target, opts)
}

// CheckoutTree materializes treeHash directly into target, bypassing commit
// resolution. Used by union_checkout to materialize a merged tree that has
// no commit of its own yet.
func (m *Manager) CheckoutTree(treeHash objects.ObjectHash, target string, opts Options) error {
	if err := m.prepareTarget(target, opts.Force); err != nil {
		return err
	}

	c := &checkoutCtx{
		mgr:       m,
		ns:        m.repo.Config.Namespace,
		opts:      opts,
		materialized: make(map[string]string),
		hardlinks: nil,
	}

	if err := c.materializeDirectory(treeHash, target, ""); err != nil {
		return err
	}

	for _, hl := range c.hardlinks {
		resolved, ok := c.materialized[hl.targetPath]
		if !ok {
			return apperr.New(pkgName, apperr.CodeHardlinkTargetMissing, "resolve_hardlink", hl.destPath, nil).
				WithContext("target_path", hl.targetPath)
		}
		if err := fsadapter.Hardlink(resolved, hl.destPath); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) prepareTarget(target string, force bool) error {
	entries, err := os.ReadDir(target)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(target, 0o755)
		}
		return apperr.New(pkgName, apperr.CodeInternal, "read_target", target, err)
	}
	if len(entries) > 0 && !force {
		return apperr.New(pkgName, apperr.CodeTargetNotEmpty, "prepare_target", target, nil)
	}
	return nil
}

// pendingHardlink is a deferred second-pass link: destPath should become a
// second name for whatever gets materialized at targetPath (a logical path
// relative to the tree root).
type pendingHardlink struct {
	destPath   string
	targetPath string
}

// checkoutCtx threads the state of one CheckoutTree call through its
// recursive descent.
type checkoutCtx struct {
	mgr  *Manager
	ns   namespace.Config
	opts Options

	// materialized maps a logical tree-root-relative path to the absolute
	// filesystem path it was written to, so hardlink entries can resolve
	// their target_path after the first pass completes.
	materialized map[string]string
	hardlinks    []pendingHardlink
}

func (c *checkoutCtx) translateOwner(insideUid, insideGid uint32) (uint32, uint32, error) {
	uid, ok := c.ns.UidMap.InsideToOutside(insideUid)
	if !ok {
		return 0, 0, apperr.New(pkgName, apperr.CodeUnmappedUid, "translate_uid", "", nil).WithContext("inside_uid", insideUid)
	}
	gid, ok := c.ns.GidMap.InsideToOutside(insideGid)
	if !ok {
		return 0, 0, apperr.New(pkgName, apperr.CodeUnmappedGid, "translate_gid", "", nil).WithContext("inside_gid", insideGid)
	}
	return uid, gid, nil
}

func (c *checkoutCtx) materializeDirectory(treeHash objects.ObjectHash, destDir, logicalPath string) error {
	t, err := c.mgr.repo.Store.ReadTree(treeHash)
	if err != nil {
		return err
	}

	for _, entry := range t.Entries {
		childDest := filepath.Join(destDir, entry.Name)
		childLogical := path.Join(logicalPath, entry.Name)
		if err := c.materializeEntry(entry, childDest, childLogical); err != nil {
			return err
		}
	}
	return nil
}

func (c *checkoutCtx) materializeEntry(entry *tree.TreeEntry, dest, logical string) error {
	k := entry.Kind
	switch k.Tag {
	case objects.KindDirectory:
		return c.materializeDirectoryEntry(k, dest, logical)
	case objects.KindRegular:
		return c.materializeRegular(k, dest, logical)
	case objects.KindSymlink:
		return c.materializeSymlink(k, dest)
	case objects.KindBlockDevice, objects.KindCharDevice:
		return c.materializeDevice(k, dest)
	case objects.KindFifo:
		return c.materializeFifo(k, dest)
	case objects.KindSocket:
		return c.materializeSocket(k, dest)
	case objects.KindHardlink:
		c.hardlinks = append(c.hardlinks, pendingHardlink{destPath: dest, targetPath: k.TargetPath})
		return nil
	default:
		return apperr.New(pkgName, apperr.CodeInternal, "materialize", dest, nil).WithContext("tag", k.Tag)
	}
}

func (c *checkoutCtx) materializeDirectoryEntry(k objects.EntryKind, dest, logical string) error {
	if err := os.Mkdir(dest, 0o700); err != nil && !os.IsExist(err) {
		return apperr.New(pkgName, apperr.CodeInternal, "mkdir", dest, err)
	}
	if err := c.materializeDirectory(k.Hash, dest, logical); err != nil {
		return err
	}
	c.materialized[logical] = dest

	uid, gid, err := c.translateOwner(k.Uid, k.Gid)
	if err != nil {
		return err
	}
	if err := fsadapter.SetXattrs(dest, k.Xattrs); err != nil {
		return err
	}
	if err := os.Chown(dest, int(uid), int(gid)); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "chown_dir", dest, err)
	}
	return os.Chmod(dest, fsadapter.ModeOf(uint32(k.Mode)))
}

func (c *checkoutCtx) materializeRegular(k objects.EntryKind, dest, logical string) error {
	defer func() { c.materialized[logical] = dest }()

	notSparse := len(k.SparseMap) == 0
	if !c.opts.NoHardlink && notSparse {
		blobPath, err := c.mgr.repo.Store.BlobPath(k.Hash)
		if err != nil {
			return err
		}
		return fsadapter.Hardlink(blobPath.String(), dest)
	}

	content, err := c.mgr.repo.Store.ReadBlobContent(k.Hash)
	if err != nil {
		return err
	}
	meta, xattrs, err := c.mgr.repo.Store.BlobMetadata(k.Hash)
	if err != nil {
		return err
	}
	spec := fsadapter.NodeSpec{Uid: meta.Uid, Gid: meta.Gid, Mode: meta.Mode, Xattrs: xattrs}

	if !c.opts.NoPreserveSparse && len(k.SparseMap) > 0 {
		if err := fsadapter.ReconstructSparse(dest, int64(k.Size), k.SparseMap, content); err != nil {
			return err
		}
		if err := fsadapter.SetXattrs(dest, xattrs); err != nil {
			return err
		}
		if err := os.Chown(dest, int(meta.Uid), int(meta.Gid)); err != nil {
			return apperr.New(pkgName, apperr.CodeInternal, "chown_sparse", dest, err)
		}
		return os.Chmod(dest, fsadapter.ModeOf(meta.Mode))
	}
	return fsadapter.CreateRegularFile(dest, content, spec)
}

func (c *checkoutCtx) materializeSymlink(k objects.EntryKind, dest string) error {
	content, err := c.mgr.repo.Store.ReadBlobContent(k.Hash)
	if err != nil {
		return err
	}
	meta, _, err := c.mgr.repo.Store.BlobMetadata(k.Hash)
	if err != nil {
		return err
	}
	return fsadapter.CreateSymlink(dest, string(content), meta.Uid, meta.Gid, nil)
}

func (c *checkoutCtx) materializeDevice(k objects.EntryKind, dest string) error {
	uid, gid, err := c.translateOwner(k.Uid, k.Gid)
	if err != nil {
		return err
	}
	spec := fsadapter.NodeSpec{Uid: uid, Gid: gid, Mode: uint32(k.Mode), Xattrs: k.Xattrs}
	return fsadapter.CreateDevice(dest, k.Tag == objects.KindCharDevice, k.Major, k.Minor, spec)
}

func (c *checkoutCtx) materializeFifo(k objects.EntryKind, dest string) error {
	uid, gid, err := c.translateOwner(k.Uid, k.Gid)
	if err != nil {
		return err
	}
	return fsadapter.CreateFifo(dest, fsadapter.NodeSpec{Uid: uid, Gid: gid, Mode: uint32(k.Mode), Xattrs: k.Xattrs})
}

func (c *checkoutCtx) materializeSocket(k objects.EntryKind, dest string) error {
	uid, gid, err := c.translateOwner(k.Uid, k.Gid)
	if err != nil {
		return err
	}
	return fsadapter.CreateSocket(dest, fsadapter.NodeSpec{Uid: uid, Gid: gid, Mode: uint32(k.Mode), Xattrs: k.Xattrs})
}
