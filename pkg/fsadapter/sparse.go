package fsadapter

import (
	"io"
	"os"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Linux lseek whence values for hole/data seeking, not exposed as named
// constants by every platform build of x/sys/unix, so pinned here directly.
const (
	seekData = 3 // SEEK_DATA
	seekHole = 4 // SEEK_HOLE
)

// DetectSparse enumerates the data regions of the file at path. If the file
// has exactly one region covering [0, size), it is not sparse and (nil, size,
// nil) is returned; the caller should store it as a plain contiguous blob.
func DetectSparse(path string) ([]objects.SparseRegion, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, apperr.New(pkgName, apperr.CodeInternal, "open_for_sparse_scan", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, apperr.New(pkgName, apperr.CodeInternal, "stat_for_sparse_scan", path, err)
	}
	size := info.Size()
	if size == 0 {
		return nil, 0, nil
	}

	var regions []objects.SparseRegion
	var offset int64
	for offset < size {
		dataStart, err := f.Seek(offset, seekData)
		if err != nil {
			// ENXIO: no more data past offset.
			break
		}
		holeStart, err := f.Seek(dataStart, seekHole)
		if err != nil {
			holeStart = size
		}
		regions = append(regions, objects.SparseRegion{Offset: uint64(dataStart), Length: uint64(holeStart - dataStart)})
		offset = holeStart
	}

	if len(regions) == 1 && regions[0].Offset == 0 && int64(regions[0].Length) == size {
		return nil, size, nil
	}
	return regions, size, nil
}

// ReadSparseContent reads only the data regions of path, concatenated, in
// order. Used when storing a sparse file's blob payload.
func ReadSparseContent(path string, regions []objects.SparseRegion) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.New(pkgName, apperr.CodeInternal, "open_for_sparse_read", path, err)
	}
	defer f.Close()

	var out []byte
	for _, r := range regions {
		buf := make([]byte, r.Length)
		if _, err := f.Seek(int64(r.Offset), io.SeekStart); err != nil {
			return nil, apperr.New(pkgName, apperr.CodeInternal, "seek_for_sparse_read", path, err)
		}
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, apperr.New(pkgName, apperr.CodeInternal, "read_for_sparse_read", path, err)
		}
		out = append(out, buf...)
	}
	return out, nil
}

// ReconstructSparse writes payload (the concatenated data regions) back into
// a sparse file at path sized totalSize, placing each chunk of payload at its
// recorded offset and leaving the gaps as holes.
func ReconstructSparse(path string, totalSize int64, regions []objects.SparseRegion, payload []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "create_for_sparse_write", path, err)
	}
	defer f.Close()

	if err := f.Truncate(totalSize); err != nil {
		return apperr.New(pkgName, apperr.CodeInternal, "truncate_for_sparse_write", path, err)
	}

	var cursor uint64
	for _, r := range regions {
		chunk := payload[cursor : cursor+r.Length]
		if _, err := f.WriteAt(chunk, int64(r.Offset)); err != nil {
			return apperr.New(pkgName, apperr.CodeInternal, "write_for_sparse_write", path, err)
		}
		cursor += r.Length
	}
	return nil
}
