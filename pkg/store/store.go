// Package store implements the content-addressed object store: blobs, trees,
// and commits persisted under objects/{blobs,trees,commits}/<2>/<62>, with
// crash-safe, dedup-safe writes via a temp-then-rename sequence staged in
// tmp/.
package store

import (
	"os"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/fsadapter"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/blob"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
	"github.com/utkarsh5026/sourcevault/pkg/objects/tree"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

const pkgName = "store"

// Store is a file-based implementation of the object store described above.
// It is safe for concurrent reads; concurrent writes of distinct objects are
// also safe (dedup resolves races on identical content by discarding the
// loser's temp file), but callers performing a coordinated multi-object
// write (a commit) should still hold the repository lock.
type Store struct {
	repo scpath.RepositoryPath
}

// New returns a Store rooted at repo. Initialize must be called once before
// first use (normally done by sourcerepo.Init).
func New(repo scpath.RepositoryPath) *Store {
	return &Store{repo: repo}
}

// Initialize creates the objects/{blobs,trees,commits} and tmp directory
// layout. Safe to call on an already-initialized repository.
func (s *Store) Initialize() error {
	for _, dir := range []scpath.AbsolutePath{
		s.repo.BlobsRoot(),
		s.repo.TreesRoot(),
		s.repo.CommitsRoot(),
		s.repo.TmpRoot(),
	} {
		if err := fileops.EnsureDir(dir); err != nil {
			return apperr.New(pkgName, apperr.CodeInternal, "initialize", dir.String(), err)
		}
	}
	return nil
}

// tempFile creates a new file under tmp/ for staging a write before atomic
// rename into its final sharded location.
func (s *Store) tempFile() (*os.File, error) {
	if err := fileops.EnsureDir(s.repo.TmpRoot()); err != nil {
		return nil, err
	}
	return os.CreateTemp(s.repo.TmpRoot().String(), ".obj-*")
}

// publish renames tmpPath into kindRoot's sharded location for hash,
// discarding tmpPath if the final path already exists (dedup).
func publish(kindRoot scpath.AbsolutePath, hash objects.ObjectHash, tmpPath string) error {
	finalPath, err := scpath.ObjectFilePath(kindRoot, hash.String())
	if err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "resolve_object_path", hash.String(), err)
	}
	if exists, _ := fileops.Exists(finalPath); exists {
		os.Remove(tmpPath)
		return nil
	}
	if err := fileops.EnsureDir(finalPath.Dir()); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, finalPath.String()); err != nil {
		os.Remove(tmpPath)
		return apperr.New(pkgName, apperr.CodeInternal, "publish", finalPath.String(), err)
	}
	return nil
}

// notFound builds the ObjectNotFound error for a missing read.
func notFound(hash objects.ObjectHash) error {
	return apperr.New(pkgName, apperr.CodeObjectNotFound, "read", hash.String(), os.ErrNotExist)
}

// --- Blobs -----------------------------------------------------------------

// BlobMeta carries both id spaces a blob write needs: InsideUid/InsideGid are
// the logical (namespace-translated) ids hashed into the blob header per the
// "blob headers store inside ids" invariant, while OutsideUid/OutsideGid are
// the real on-disk ids applied to the stored file so it can be hardlinked
// straight into a checkout. Mode and Xattrs are shared by both (mode bits and
// xattr values carry no namespace meaning).
type BlobMeta struct {
	InsideUid, InsideGid   uint32
	OutsideUid, OutsideGid uint32
	Mode                   uint32
	Xattrs                 []objects.Xattr
}

// WriteBlob stores content under its blob hash (computed over the fixed
// inside-uid/gid/mode/xattr/content layout, not the raw bytes) and applies
// the outside ids to the resulting on-disk file. Blobs are stored
// uncompressed: the file IS the content, letting it be hardlinked straight
// into a checkout.
func (s *Store) WriteBlob(content []byte, meta BlobMeta) (objects.ObjectHash, error) {
	b := blob.New(meta.InsideUid, meta.InsideGid, objects.Mode(meta.Mode), meta.Xattrs, content)
	hash, err := b.Hash()
	if err != nil {
		return "", apperr.New(pkgName, apperr.CodeInternal, "hash_blob", "", err)
	}

	finalPath, err := scpath.ObjectFilePath(s.repo.BlobsRoot(), hash.String())
	if err != nil {
		return "", err
	}
	if exists, _ := fileops.Exists(finalPath); exists {
		return hash, nil
	}

	tmp, err := s.tempFile()
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Remove(tmpPath)

	if err := fsadapter.CreateRegularFile(tmpPath, content, fsadapter.NodeSpec{
		Uid: meta.OutsideUid, Gid: meta.OutsideGid, Mode: meta.Mode, Xattrs: meta.Xattrs,
	}); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if err := publish(s.repo.BlobsRoot(), hash, tmpPath); err != nil {
		return "", err
	}
	return hash, nil
}

// ReadBlobContent returns the raw stored bytes for a blob hash (the file's
// content verbatim, with no header).
func (s *Store) ReadBlobContent(hash objects.ObjectHash) ([]byte, error) {
	path, err := scpath.ObjectFilePath(s.repo.BlobsRoot(), hash.String())
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path.String())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(hash)
		}
		return nil, apperr.New(pkgName, apperr.CodeInternal, "read_blob", hash.String(), err)
	}
	return data, nil
}

// BlobPath returns the absolute on-disk path of a stored blob, used by
// checkout to hardlink directly from the store into a working tree.
func (s *Store) BlobPath(hash objects.ObjectHash) (scpath.AbsolutePath, error) {
	return scpath.ObjectFilePath(s.repo.BlobsRoot(), hash.String())
}

// HasBlob reports whether a blob with the given hash is already stored.
func (s *Store) HasBlob(hash objects.ObjectHash) (bool, error) {
	path, err := scpath.ObjectFilePath(s.repo.BlobsRoot(), hash.String())
	if err != nil {
		return false, err
	}
	return fileops.Exists(path)
}

// BlobMetadata lstats the stored blob file and lists its xattrs, returning
// the real on-disk POSIX metadata recorded when the blob was written. Used
// when a checkout needs to recreate a blob's file (not hardlink it), e.g.
// when hardlinking is disabled or the entry is sparse.
func (s *Store) BlobMetadata(hash objects.ObjectHash) (fsadapter.Metadata, []objects.Xattr, error) {
	path, err := scpath.ObjectFilePath(s.repo.BlobsRoot(), hash.String())
	if err != nil {
		return fsadapter.Metadata{}, nil, err
	}
	meta, err := fsadapter.LStat(path.String())
	if err != nil {
		return fsadapter.Metadata{}, nil, apperr.New(pkgName, apperr.CodeInternal, "lstat_blob", hash.String(), err)
	}
	xattrs, err := fsadapter.ListXattrs(path.String())
	if err != nil {
		return fsadapter.Metadata{}, nil, err
	}
	return meta, xattrs, nil
}

// --- Trees -------------------------------------------------------------------

// WriteTree canonically encodes and compresses t, then stores it under the
// hash of the compressed bytes.
func (s *Store) WriteTree(t *tree.Tree) (objects.ObjectHash, error) {
	encoded, err := t.Encode()
	if err != nil {
		return "", apperr.New(pkgName, apperr.CodeInternal, "encode_tree", "", err)
	}
	hash := objects.NewObjectHash(encoded)
	if err := s.writeCompressed(s.repo.TreesRoot(), hash, encoded); err != nil {
		return "", err
	}
	return hash, nil
}

// ReadTree loads and decodes a tree by hash.
func (s *Store) ReadTree(hash objects.ObjectHash) (*tree.Tree, error) {
	data, err := s.readCompressed(s.repo.TreesRoot(), hash)
	if err != nil {
		return nil, err
	}
	t, err := tree.Decode(data)
	if err != nil {
		return nil, apperr.New(pkgName, apperr.CodeCorruptObject, "decode_tree", hash.String(), err)
	}
	return t, nil
}

// HasTree reports whether a tree with the given hash is already stored.
func (s *Store) HasTree(hash objects.ObjectHash) (bool, error) {
	path, err := scpath.ObjectFilePath(s.repo.TreesRoot(), hash.String())
	if err != nil {
		return false, err
	}
	return fileops.Exists(path)
}

// ReadTreeRaw returns the raw compressed bytes backing a tree object
// exactly as stored, so transport can relay a tree without a decode/
// re-encode round-trip.
func (s *Store) ReadTreeRaw(hash objects.ObjectHash) ([]byte, error) {
	return s.readCompressed(s.repo.TreesRoot(), hash)
}

// WriteTreeRaw stores pre-encoded compressed tree bytes under hash,
// rejecting data whose hash does not match before it is published.
func (s *Store) WriteTreeRaw(hash objects.ObjectHash, data []byte) error {
	if objects.NewObjectHash(data) != hash {
		return apperr.New(pkgName, apperr.CodeCorruptObject, "write_tree_raw", hash.String(), nil)
	}
	return s.writeCompressed(s.repo.TreesRoot(), hash, data)
}

// --- Commits -----------------------------------------------------------------

// WriteCommit canonically encodes and compresses c, then stores it under the
// hash of the compressed bytes.
func (s *Store) WriteCommit(c *commit.Commit) (objects.ObjectHash, error) {
	encoded, err := c.Encode()
	if err != nil {
		return "", apperr.New(pkgName, apperr.CodeInternal, "encode_commit", "", err)
	}
	hash := objects.NewObjectHash(encoded)
	if err := s.writeCompressed(s.repo.CommitsRoot(), hash, encoded); err != nil {
		return "", err
	}
	return hash, nil
}

// ReadCommit loads and decodes a commit by hash.
func (s *Store) ReadCommit(hash objects.ObjectHash) (*commit.Commit, error) {
	data, err := s.readCompressed(s.repo.CommitsRoot(), hash)
	if err != nil {
		return nil, err
	}
	c, err := commit.Decode(data)
	if err != nil {
		return nil, apperr.New(pkgName, apperr.CodeCorruptObject, "decode_commit", hash.String(), err)
	}
	return c, nil
}

// HasCommit reports whether a commit with the given hash is already stored.
func (s *Store) HasCommit(hash objects.ObjectHash) (bool, error) {
	path, err := scpath.ObjectFilePath(s.repo.CommitsRoot(), hash.String())
	if err != nil {
		return false, err
	}
	return fileops.Exists(path)
}

// ReadCommitRaw returns the raw compressed bytes backing a commit object
// exactly as stored, so transport can relay a commit without a decode/
// re-encode round-trip.
func (s *Store) ReadCommitRaw(hash objects.ObjectHash) ([]byte, error) {
	return s.readCompressed(s.repo.CommitsRoot(), hash)
}

// WriteCommitRaw stores pre-encoded compressed commit bytes under hash,
// rejecting data whose hash does not match before it is published.
func (s *Store) WriteCommitRaw(hash objects.ObjectHash, data []byte) error {
	if objects.NewObjectHash(data) != hash {
		return apperr.New(pkgName, apperr.CodeCorruptObject, "write_commit_raw", hash.String(), nil)
	}
	return s.writeCompressed(s.repo.CommitsRoot(), hash, data)
}

func (s *Store) writeCompressed(kindRoot scpath.AbsolutePath, hash objects.ObjectHash, encoded []byte) error {
	finalPath, err := scpath.ObjectFilePath(kindRoot, hash.String())
	if err != nil {
		return err
	}
	if exists, _ := fileops.Exists(finalPath); exists {
		return nil
	}
	tmp, err := s.tempFile()
	if err != nil {
		return err
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return apperr.New(pkgName, apperr.CodeInternal, "write_temp", finalPath.String(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return apperr.New(pkgName, apperr.CodeInternal, "sync_temp", finalPath.String(), err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	return publish(kindRoot, hash, tmpPath)
}

func (s *Store) readCompressed(kindRoot scpath.AbsolutePath, hash objects.ObjectHash) ([]byte, error) {
	path, err := scpath.ObjectFilePath(kindRoot, hash.String())
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path.String())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(hash)
		}
		return nil, apperr.New(pkgName, apperr.CodeInternal, "read_object", hash.String(), err)
	}
	return data, nil
}
