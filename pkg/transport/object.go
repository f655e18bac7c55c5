package transport

import (
	"github.com/fxamacker/cbor/v2"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/namespace"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/blob"
	"github.com/utkarsh5026/sourcevault/pkg/store"
)

// blobEnvelope carries everything needed to reproduce a blob's hash and
// on-disk metadata on the receiving side: both id spaces (component D's
// BlobMeta split), mode, xattrs, and raw content. Trees and commits need no
// such envelope since their stored bytes already are the hash input.
type blobEnvelope struct {
	InsideUid, InsideGid   uint32
	OutsideUid, OutsideGid uint32
	Mode                   uint32
	Xattrs                 []objects.Xattr
	Content                []byte
}

// encodeObjectPayload builds the bytes transmitted for one object. For
// trees/commits this is the raw stored (compressed, canonical) bytes,
// already the hash input. For blobs it's a CBOR envelope since a blob's
// hash input (inside ids + mode + xattrs + content) is not what's stored on
// disk (the on-disk file carries only content, with outside ids applied as
// real ownership).
func encodeObjectPayload(s *store.Store, ns namespace.Config, ref ObjectRef) ([]byte, error) {
	switch ref.Kind {
	case KindTree:
		return s.ReadTreeRaw(ref.Hash)
	case KindCommit:
		return s.ReadCommitRaw(ref.Hash)
	case KindBlob:
		content, err := s.ReadBlobContent(ref.Hash)
		if err != nil {
			return nil, err
		}
		meta, xattrs, err := s.BlobMetadata(ref.Hash)
		if err != nil {
			return nil, err
		}
		insideUid, ok := ns.UidMap.OutsideToInside(meta.Uid)
		if !ok {
			return nil, apperr.New(pkgName, apperr.CodeUnmappedUid, "encode_blob_payload", ref.Hash.String(), nil)
		}
		insideGid, ok := ns.GidMap.OutsideToInside(meta.Gid)
		if !ok {
			return nil, apperr.New(pkgName, apperr.CodeUnmappedGid, "encode_blob_payload", ref.Hash.String(), nil)
		}
		env := blobEnvelope{
			InsideUid: insideUid, InsideGid: insideGid,
			OutsideUid: meta.Uid, OutsideGid: meta.Gid,
			Mode: meta.Mode, Xattrs: xattrs, Content: content,
		}
		return cbor.Marshal(env)
	default:
		return nil, apperr.New(pkgName, apperr.CodeTransport, "encode_object_payload", string(ref.Kind), nil)
	}
}

// decodeAndStoreObject verifies payload against hash and, if it matches,
// writes it into s. Verification happens before the object is placed in the
// destination store, per the framing-integrity requirement.
func decodeAndStoreObject(s *store.Store, kind Kind, hash objects.ObjectHash, payload []byte) error {
	switch kind {
	case KindTree:
		return s.WriteTreeRaw(hash, payload)
	case KindCommit:
		return s.WriteCommitRaw(hash, payload)
	case KindBlob:
		var env blobEnvelope
		if err := cbor.Unmarshal(payload, &env); err != nil {
			return apperr.New(pkgName, apperr.CodeCorruptObject, "decode_blob_payload", hash.String(), err)
		}
		b := blob.New(env.InsideUid, env.InsideGid, objects.Mode(env.Mode), env.Xattrs, env.Content)
		recomputed, err := b.Hash()
		if err != nil {
			return err
		}
		if recomputed != hash {
			return apperr.New(pkgName, apperr.CodeCorruptObject, "verify_blob", hash.String(), nil)
		}
		_, err = s.WriteBlob(env.Content, store.BlobMeta{
			InsideUid: env.InsideUid, InsideGid: env.InsideGid,
			OutsideUid: env.OutsideUid, OutsideGid: env.OutsideGid,
			Mode: env.Mode, Xattrs: env.Xattrs,
		})
		return err
	default:
		return apperr.New(pkgName, apperr.CodeTransport, "decode_object_payload", string(kind), nil)
	}
}
