package transport

import (
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

// closure walks commit -> parents union tree, tree -> subtrees union blobs,
// starting from a single commit, and returns every reachable object as an
// ObjectRef. Used by Push to enumerate what a ref might need to send, and
// by a protocol Server to answer want-objects/have-objects against a single
// requested commit.
func closure(repo *sourcerepo.Repository, start objects.ObjectHash) ([]ObjectRef, error) {
	var refs []ObjectRef
	visitedCommits := make(map[objects.ObjectHash]bool)
	visitedTrees := make(map[objects.ObjectHash]bool)
	visitedBlobs := make(map[objects.ObjectHash]bool)

	var walkCommit func(hash objects.ObjectHash) error
	var walkTree func(hash objects.ObjectHash) error

	walkTree = func(hash objects.ObjectHash) error {
		if hash == "" || visitedTrees[hash] {
			return nil
		}
		visitedTrees[hash] = true
		t, err := repo.Store.ReadTree(hash)
		if err != nil {
			return err
		}
		refs = append(refs, ObjectRef{Kind: KindTree, Hash: hash})
		for _, entry := range t.Entries {
			switch entry.Kind.Tag {
			case objects.KindDirectory:
				if err := walkTree(entry.Kind.Hash); err != nil {
					return err
				}
			case objects.KindRegular, objects.KindSymlink:
				if visitedBlobs[entry.Kind.Hash] {
					continue
				}
				visitedBlobs[entry.Kind.Hash] = true
				refs = append(refs, ObjectRef{Kind: KindBlob, Hash: entry.Kind.Hash})
			}
		}
		return nil
	}

	walkCommit = func(hash objects.ObjectHash) error {
		if hash == "" || visitedCommits[hash] {
			return nil
		}
		visitedCommits[hash] = true
		c, err := repo.Store.ReadCommit(hash)
		if err != nil {
			return err
		}
		refs = append(refs, ObjectRef{Kind: KindCommit, Hash: hash})
		if err := walkTree(c.Tree); err != nil {
			return err
		}
		for _, parent := range c.Parents {
			if err := walkCommit(parent); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walkCommit(start); err != nil {
		return nil, err
	}
	return refs, nil
}
