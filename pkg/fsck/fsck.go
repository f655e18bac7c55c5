// Package fsck implements integrity verification (recomputing every
// object's hash and checking reachability from refs) and garbage
// collection (sweeping unreachable objects) over a repository's object
// store.
package fsck

import (
	"os"
	"path/filepath"
	"strings"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/fsadapter"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/blob"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

const pkgName = "fsck"

// Checker runs integrity and reachability checks against a single open
// repository. Every method should be called while holding the repository
// lock (sourcerepo.Repository.Lock/TryLock); Checker itself does not lock.
type Checker struct {
	repo *sourcerepo.Repository
}

// New returns a Checker for repo.
func New(repo *sourcerepo.Repository) *Checker {
	return &Checker{repo: repo}
}

// Report is the outcome of an Fsck run.
type Report struct {
	Corrupt  []objects.ObjectHash
	Missing  []objects.ObjectHash
	Dangling []objects.ObjectHash
}

// Fsck recomputes every stored object's hash, comparing it to the hash
// encoded in its filename, and cross-checks reachability from every ref.
func (c *Checker) Fsck() (Report, error) {
	var report Report

	blobHashes, err := c.verifyBlobs()
	if err != nil {
		return Report{}, err
	}
	treeHashes, err := c.verifyKind(c.repo.Path.TreesRoot(), nil)
	if err != nil {
		return Report{}, err
	}
	commitHashes, err := c.verifyKind(c.repo.Path.CommitsRoot(), nil)
	if err != nil {
		return Report{}, err
	}
	report.Corrupt = append(report.Corrupt, blobHashes.corrupt...)
	report.Corrupt = append(report.Corrupt, treeHashes.corrupt...)
	report.Corrupt = append(report.Corrupt, commitHashes.corrupt...)

	reachable, missing, err := c.reachabilityClosure()
	if err != nil {
		return Report{}, err
	}
	report.Missing = missing

	onDisk := make(map[objects.ObjectHash]bool)
	for _, h := range blobHashes.present {
		onDisk[h] = true
	}
	for _, h := range treeHashes.present {
		onDisk[h] = true
	}
	for _, h := range commitHashes.present {
		onDisk[h] = true
	}
	for h := range onDisk {
		if !reachable[h] {
			report.Dangling = append(report.Dangling, h)
		}
	}

	return report, nil
}

type kindVerification struct {
	present []objects.ObjectHash
	corrupt []objects.ObjectHash
}

// verifyKind walks a tree/commit object root, comparing each stored file's
// hash (the hash of its compressed bytes, which for trees/commits IS the
// address) against its filename.
func (c *Checker) verifyKind(root scpath.AbsolutePath, _ []byte) (kindVerification, error) {
	var result kindVerification
	hashes, err := enumerate(root)
	if err != nil {
		return result, err
	}
	for _, hash := range hashes {
		path, err := scpath.ObjectFilePath(root, hash.String())
		if err != nil {
			return result, err
		}
		data, err := os.ReadFile(path.String())
		if err != nil {
			return result, apperr.New(pkgName, apperr.CodeInternal, "read_object", hash.String(), err)
		}
		recomputed := objects.NewObjectHash(data)
		if recomputed != hash {
			result.corrupt = append(result.corrupt, hash)
			continue
		}
		result.present = append(result.present, hash)
	}
	return result, nil
}

// verifyBlobs recomputes each blob's canonical header (translating the
// stored file's on-disk outside ids back to the inside ids the header was
// originally hashed with) and compares against the filename.
func (c *Checker) verifyBlobs() (kindVerification, error) {
	var result kindVerification
	root := c.repo.Path.BlobsRoot()
	hashes, err := enumerate(root)
	if err != nil {
		return result, err
	}
	ns := c.repo.Config.Namespace

	for _, hash := range hashes {
		path, err := scpath.ObjectFilePath(root, hash.String())
		if err != nil {
			return result, err
		}
		meta, err := fsadapter.LStat(path.String())
		if err != nil {
			return result, err
		}
		xattrs, err := fsadapter.ListXattrs(path.String())
		if err != nil {
			return result, err
		}
		content, err := os.ReadFile(path.String())
		if err != nil {
			return result, apperr.New(pkgName, apperr.CodeInternal, "read_blob", hash.String(), err)
		}

		insideUid, ok := ns.UidMap.OutsideToInside(meta.Uid)
		if !ok {
			result.corrupt = append(result.corrupt, hash)
			continue
		}
		insideGid, ok := ns.GidMap.OutsideToInside(meta.Gid)
		if !ok {
			result.corrupt = append(result.corrupt, hash)
			continue
		}

		b := blob.New(insideUid, insideGid, objects.Mode(meta.Mode), xattrs, content)
		recomputed, err := b.Hash()
		if err != nil {
			return result, err
		}
		if recomputed != hash {
			result.corrupt = append(result.corrupt, hash)
			continue
		}
		result.present = append(result.present, hash)
	}
	return result, nil
}

// enumerate lists every object hash stored under a kind root (a 2-char
// shard directory containing 62-char-named files).
func enumerate(root scpath.AbsolutePath) ([]objects.ObjectHash, error) {
	var hashes []objects.ObjectHash
	entries, err := os.ReadDir(root.String())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.New(pkgName, apperr.CodeInternal, "read_shard_root", root.String(), err)
	}
	for _, shard := range entries {
		if !shard.IsDir() || len(shard.Name()) != scpath.HashPrefixLength || !isHex(shard.Name()) {
			continue
		}
		shardPath := filepath.Join(root.String(), shard.Name())
		files, err := os.ReadDir(shardPath)
		if err != nil {
			return nil, apperr.New(pkgName, apperr.CodeInternal, "read_shard", shardPath, err)
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			hash, err := objects.NewObjectHashFromString(shard.Name() + f.Name())
			if err != nil {
				continue
			}
			hashes = append(hashes, hash)
		}
	}
	return hashes, nil
}

// reachabilityClosure walks every ref's commit -> parents union tree, and
// every tree -> subtrees union blobs, returning the set of reachable
// hashes and any referent that is missing on disk.
func (c *Checker) reachabilityClosure() (map[objects.ObjectHash]bool, []objects.ObjectHash, error) {
	reachable := make(map[objects.ObjectHash]bool)
	var missing []objects.ObjectHash

	refNames, err := c.repo.Refs.List()
	if err != nil {
		return nil, nil, err
	}

	visitedCommits := make(map[objects.ObjectHash]bool)
	for _, name := range refNames {
		hash, err := c.repo.Refs.Read(name)
		if err != nil {
			continue
		}
		if err := c.walkCommit(hash, reachable, visitedCommits, &missing); err != nil {
			return nil, nil, err
		}
	}
	return reachable, missing, nil
}

func (c *Checker) walkCommit(hash objects.ObjectHash, reachable, visited map[objects.ObjectHash]bool, missing *[]objects.ObjectHash) error {
	if visited[hash] {
		return nil
	}
	visited[hash] = true

	has, err := c.repo.Store.HasCommit(hash)
	if err != nil {
		return err
	}
	if !has {
		*missing = append(*missing, hash)
		return nil
	}
	reachable[hash] = true

	commitObj, err := c.repo.Store.ReadCommit(hash)
	if err != nil {
		return err
	}
	if err := c.walkTree(commitObj.Tree, reachable, missing); err != nil {
		return err
	}
	for _, parent := range commitObj.Parents {
		if err := c.walkCommit(parent, reachable, visited, missing); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) walkTree(hash objects.ObjectHash, reachable map[objects.ObjectHash]bool, missing *[]objects.ObjectHash) error {
	if hash == "" || reachable[hash] {
		return nil
	}

	has, err := c.repo.Store.HasTree(hash)
	if err != nil {
		return err
	}
	if !has {
		*missing = append(*missing, hash)
		return nil
	}
	reachable[hash] = true

	t, err := c.repo.Store.ReadTree(hash)
	if err != nil {
		return err
	}
	for _, entry := range t.Entries {
		switch entry.Kind.Tag {
		case objects.KindDirectory:
			if err := c.walkTree(entry.Kind.Hash, reachable, missing); err != nil {
				return err
			}
		case objects.KindRegular, objects.KindSymlink:
			if reachable[entry.Kind.Hash] {
				continue
			}
			has, err := c.repo.Store.HasBlob(entry.Kind.Hash)
			if err != nil {
				return err
			}
			if !has {
				*missing = append(*missing, entry.Kind.Hash)
				continue
			}
			reachable[entry.Kind.Hash] = true
		}
	}
	return nil
}

// GCResult reports what a GC pass did (or, under DryRun, would do).
type GCResult struct {
	ObjectsSwept int
	BytesFreed   int64
	DryRun       bool
}

// GC deletes every object not reachable from any ref. Must be called while
// holding the repository's exclusive lock. Under dryRun, computes the
// would-be result without deleting anything.
func (c *Checker) GC(dryRun bool) (GCResult, error) {
	reachable, _, err := c.reachabilityClosure()
	if err != nil {
		return GCResult{}, err
	}

	var result GCResult
	result.DryRun = dryRun

	roots := []scpath.AbsolutePath{c.repo.Path.BlobsRoot(), c.repo.Path.TreesRoot(), c.repo.Path.CommitsRoot()}
	for _, root := range roots {
		hashes, err := enumerate(root)
		if err != nil {
			return GCResult{}, err
		}
		for _, hash := range hashes {
			if reachable[hash] {
				continue
			}
			path, err := scpath.ObjectFilePath(root, hash.String())
			if err != nil {
				return GCResult{}, err
			}
			info, err := os.Stat(path.String())
			if err != nil {
				continue
			}
			result.ObjectsSwept++
			result.BytesFreed += info.Size()
			if !dryRun {
				if err := os.Remove(path.String()); err != nil {
					return GCResult{}, apperr.New(pkgName, apperr.CodeInternal, "gc_remove", path.String(), err)
				}
			}
		}
	}
	return result, nil
}

func isHex(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f')
	}) == -1
}
