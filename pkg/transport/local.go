package transport

import (
	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/fsadapter"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

// LocalRemote implements RemoteRepo directly against an in-process
// repository, for two repositories reachable from the same machine. It
// skips the wire protocol entirely: PullMissing/Send read and write the
// target store's objects straight through, and Push additionally tries a
// hardlink before falling back to a full copy (see hardlinkBlob).
type LocalRemote struct {
	repo *sourcerepo.Repository
}

// NewLocalRemote wraps repo as a RemoteRepo for same-host push/pull.
func NewLocalRemote(repo *sourcerepo.Repository) *LocalRemote {
	return &LocalRemote{repo: repo}
}

func (l *LocalRemote) ListRefs() (map[string]objects.ObjectHash, error) {
	names, err := l.repo.Refs.List()
	if err != nil {
		return nil, err
	}
	out := make(map[string]objects.ObjectHash, len(names))
	for _, name := range names {
		hash, err := l.repo.Refs.Read(name)
		if err != nil {
			continue
		}
		out[name] = hash
	}
	return out, nil
}

func (l *LocalRemote) GetRef(name string) (objects.ObjectHash, bool, error) {
	hash, err := l.repo.Refs.Read(name)
	if err != nil {
		return "", false, nil
	}
	return hash, true, nil
}

func (l *LocalRemote) Lacking(all []ObjectRef) ([]ObjectRef, error) {
	var missing []ObjectRef
	for _, ref := range all {
		has, err := l.has(ref)
		if err != nil {
			return nil, err
		}
		if !has {
			missing = append(missing, ref)
		}
	}
	return missing, nil
}

func (l *LocalRemote) has(ref ObjectRef) (bool, error) {
	switch ref.Kind {
	case KindBlob:
		return l.repo.Store.HasBlob(ref.Hash)
	case KindTree:
		return l.repo.Store.HasTree(ref.Hash)
	case KindCommit:
		return l.repo.Store.HasCommit(ref.Hash)
	default:
		return false, apperr.New(pkgName, apperr.CodeTransport, "has", string(ref.Kind), nil)
	}
}

func (l *LocalRemote) PullMissing(commit objects.ObjectHash, have []ObjectRef) ([]objectPayload, error) {
	full, err := closure(l.repo, commit)
	if err != nil {
		return nil, err
	}
	haveSet := make(map[ObjectRef]bool, len(have))
	for _, ref := range have {
		haveSet[ref] = true
	}
	out := make([]objectPayload, 0, len(full))
	for _, ref := range full {
		if haveSet[ref] {
			continue
		}
		payload, err := encodeObjectPayload(l.repo.Store, l.repo.Config.Namespace, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, objectPayload{Ref: ref, Payload: payload})
	}
	return out, nil
}

func (l *LocalRemote) Send(objs []objectPayload) error {
	for _, o := range objs {
		if err := decodeAndStoreObject(l.repo.Store, o.Ref.Kind, o.Ref.Hash, o.Payload); err != nil {
			return err
		}
	}
	return nil
}

func (l *LocalRemote) UpdateRef(name string, hash objects.ObjectHash) error {
	return l.repo.Refs.Update(name, hash)
}

func (l *LocalRemote) Close() error {
	return nil
}

// hardlinkBlob attempts to publish hash into l's store by linking directly
// to source's on-disk blob file, avoiding a read-encode-decode-write round
// trip when both repositories share a filesystem. Returns ok=false (not an
// error) when the link fails for an ordinary cross-device reason, letting
// the caller fall back to PullMissing/Send.
func hardlinkBlob(source, dest *sourcerepo.Repository, hash objects.ObjectHash) (ok bool, err error) {
	has, err := dest.Store.HasBlob(hash)
	if err != nil {
		return false, err
	}
	if has {
		return true, nil
	}
	srcPath, err := source.Store.BlobPath(hash)
	if err != nil {
		return false, err
	}
	destPath, err := dest.Store.BlobPath(hash)
	if err != nil {
		return false, err
	}
	if err := fileops.EnsureParentDir(destPath); err != nil {
		return false, err
	}
	if err := fsadapter.Hardlink(srcPath.String(), destPath.String()); err != nil {
		return false, nil
	}
	return true, nil
}
