package objects

import (
	"bytes"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
)

// canonicalEncMode is a deterministic CBOR encoding mode: map keys sorted,
// shortest-form integers, no indefinite-length items. Two values that are
// semantically equal always produce byte-identical output, which is required
// for content addressing (the object's hash is the hash of these bytes).
var canonicalEncMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}

// EncodeCanonical serializes v to deterministic CBOR bytes, then streams the
// result through zstd. The returned bytes are what gets hashed and stored for
// tree and commit objects (§4.C): the object's address is the hash of these
// compressed bytes, not of the pre-compression CBOR.
func EncodeCanonical(v any) ([]byte, error) {
	cborBytes, err := canonicalEncMode.Marshal(v)
	if err != nil {
		return nil, apperr.New(pkgName, apperr.CodeInvalidFormat, "encode", "cbor marshal failed", err)
	}

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, apperr.New(pkgName, apperr.CodeInternal, "encode", "zstd writer init failed", err)
	}
	if _, err := zw.Write(cborBytes); err != nil {
		zw.Close()
		return nil, apperr.New(pkgName, apperr.CodeInvalidFormat, "encode", "zstd compress failed", err)
	}
	if err := zw.Close(); err != nil {
		return nil, apperr.New(pkgName, apperr.CodeInvalidFormat, "encode", "zstd finalize failed", err)
	}

	return buf.Bytes(), nil
}

// DecodeCanonical reverses EncodeCanonical: zstd-decompress, then CBOR-decode
// into v.
func DecodeCanonical(compressed []byte, v any) error {
	zr, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return apperr.New(pkgName, apperr.CodeInvalidFormat, "decode", "zstd reader init failed", err)
	}
	defer zr.Close()

	cborBytes, err := io.ReadAll(zr)
	if err != nil {
		return apperr.New(pkgName, apperr.CodeInvalidFormat, "decode", "zstd decompress failed", err)
	}

	if err := cbor.Unmarshal(cborBytes, v); err != nil {
		return apperr.New(pkgName, apperr.CodeInvalidFormat, "decode", "cbor unmarshal failed", err)
	}
	return nil
}
