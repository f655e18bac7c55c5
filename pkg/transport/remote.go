package transport

import (
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// objectPayload pairs an ObjectRef with its encoded wire bytes (see
// encodeObjectPayload/decodeAndStoreObject in object.go).
type objectPayload struct {
	Ref     ObjectRef
	Payload []byte
}

// RemoteRepo abstracts the far side of a push or pull: either a
// same-process repository (local transport) or a repository reached over
// the wire protocol (SSH transport). Push/Pull in sync.go are written
// entirely against this interface.
type RemoteRepo interface {
	// ListRefs returns every ref name and the commit hash it resolves to.
	ListRefs() (map[string]objects.ObjectHash, error)

	// GetRef resolves a single ref name, reporting found=false if absent.
	GetRef(name string) (hash objects.ObjectHash, found bool, err error)

	// Lacking, given the full set of objects a push wants to publish,
	// returns the subset the remote does not already have.
	Lacking(all []ObjectRef) ([]ObjectRef, error)

	// Send transmits objects to the remote; each is verified against its
	// declared hash before being placed in the remote's store.
	Send(objs []objectPayload) error

	// PullMissing asks the remote for the closure of commit, minus
	// whatever is already listed in have, and returns the encoded
	// payloads for the objects the caller needs to store locally.
	PullMissing(commit objects.ObjectHash, have []ObjectRef) ([]objectPayload, error)

	// UpdateRef publishes hash under name on the remote.
	UpdateRef(name string, hash objects.ObjectHash) error

	// Close releases any connection held by the RemoteRepo.
	Close() error
}
