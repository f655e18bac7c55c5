package transport

import (
	"context"

	"golang.org/x/sync/errgroup"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

const maxConcurrentTransfers = 8

// PushResult summarizes what a Push transferred.
type PushResult struct {
	Sent       int
	Hardlinked int
}

// Push publishes refName's current commit in source to dest. It computes
// source's full reachability closure for that commit, asks dest which
// objects it already has, transfers the remainder (hardlinking blobs
// directly when dest is a same-host LocalRemote and linking succeeds,
// encoding/sending otherwise), then fast-forwards dest's ref. Push refuses
// a non-fast-forward update unless force is set.
func Push(ctx context.Context, source *sourcerepo.Repository, dest RemoteRepo, refName string, force bool) (PushResult, error) {
	newHash, err := source.Refs.Resolve(refName)
	if err != nil {
		return PushResult{}, err
	}

	oldHash, found, err := dest.GetRef(refName)
	if err != nil {
		return PushResult{}, err
	}
	if found && !force {
		ok, err := isAncestor(source, oldHash, newHash)
		if err != nil {
			return PushResult{}, err
		}
		if !ok {
			return PushResult{}, apperr.New(pkgName, apperr.CodeNonFastForward, "push", refName, nil)
		}
	}

	full, err := closure(source, newHash)
	if err != nil {
		return PushResult{}, err
	}
	missing, err := dest.Lacking(full)
	if err != nil {
		return PushResult{}, err
	}

	result, err := transferToRemote(ctx, source, dest, missing)
	if err != nil {
		return PushResult{}, err
	}

	if err := dest.UpdateRef(refName, newHash); err != nil {
		return PushResult{}, err
	}
	return result, nil
}

// transferToRemote sends each missing object to dest. When dest wraps a
// local repository, blobs are hardlinked directly between the two stores'
// on-disk files when possible; everything else (and any blob that can't be
// hardlinked, e.g. across filesystems) is encoded concurrently, bounded by
// maxConcurrentTransfers, and the encoded payloads are then handed to dest
// in a single Send call.
func transferToRemote(ctx context.Context, source *sourcerepo.Repository, dest RemoteRepo, missing []ObjectRef) (PushResult, error) {
	var result PushResult
	remaining := missing

	if local, ok := dest.(*LocalRemote); ok {
		remaining = remaining[:0]
		for _, ref := range missing {
			if ref.Kind == KindBlob {
				linked, err := hardlinkBlob(source, local.repo, ref.Hash)
				if err != nil {
					return PushResult{}, err
				}
				if linked {
					result.Hardlinked++
					continue
				}
			}
			remaining = append(remaining, ref)
		}
	}

	if len(remaining) == 0 {
		return result, nil
	}

	payloads := make([]objectPayload, len(remaining))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTransfers)
	for i, ref := range remaining {
		i, ref := i, ref
		g.Go(func() error {
			payload, err := encodeObjectPayload(source.Store, source.Config.Namespace, ref)
			if err != nil {
				return err
			}
			payloads[i] = objectPayload{Ref: ref, Payload: payload}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PushResult{}, err
	}

	if err := dest.Send(payloads); err != nil {
		return PushResult{}, err
	}
	result.Sent += len(payloads)
	return result, nil
}

// PullResult summarizes what a Pull transferred.
type PullResult struct {
	Received int
}

// Pull fetches refName's current commit from source into dest. It tells
// source what dest already has (dest's own closure for any prior value of
// refName), stores whatever source says is missing, fast-forwards (or
// refuses to, absent force) and finally updates dest's ref, unless
// fetchOnly is set, in which case the ref is left untouched after the
// objects are stored.
func Pull(dest *sourcerepo.Repository, source RemoteRepo, refName string, force, fetchOnly bool) (PullResult, error) {
	newHash, found, err := source.GetRef(refName)
	if err != nil {
		return PullResult{}, err
	}
	if !found {
		return PullResult{}, apperr.New(pkgName, apperr.CodeRefNotFound, "pull", refName, nil)
	}

	var have []ObjectRef
	oldHash, err := dest.Refs.Resolve(refName)
	if err == nil && oldHash != "" {
		have, err = closure(dest, oldHash)
		if err != nil {
			return PullResult{}, err
		}
	}

	payloads, err := source.PullMissing(newHash, have)
	if err != nil {
		return PullResult{}, err
	}
	for _, p := range payloads {
		if err := decodeAndStoreObject(dest.Store, p.Ref.Kind, p.Ref.Hash, p.Payload); err != nil {
			return PullResult{}, err
		}
	}

	if fetchOnly {
		return PullResult{Received: len(payloads)}, nil
	}

	if oldHash != "" && !force {
		ok, err := isAncestor(dest, oldHash, newHash)
		if err != nil {
			return PullResult{}, err
		}
		if !ok {
			return PullResult{}, apperr.New(pkgName, apperr.CodeNonFastForward, "pull", refName, nil)
		}
	}

	if err := dest.Refs.Update(refName, newHash); err != nil {
		return PullResult{}, err
	}
	return PullResult{Received: len(payloads)}, nil
}

// isAncestor reports whether old is reachable from new by following
// parents[0] (the leftmost-parent history line), the fast-forward
// condition. An empty old hash is trivially an ancestor of anything.
func isAncestor(repo *sourcerepo.Repository, old, head objects.ObjectHash) (bool, error) {
	if old == "" {
		return true, nil
	}
	cur := head
	for cur != "" {
		if cur == old {
			return true, nil
		}
		c, err := repo.Store.ReadCommit(cur)
		if err != nil {
			return false, err
		}
		if len(c.Parents) == 0 {
			return false, nil
		}
		cur = c.Parents[0]
	}
	return false, nil
}
