package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

func TestBlob_HashStableUnderXattrOrder(t *testing.T) {
	xattrsA := []objects.Xattr{{Name: "user.b", Value: []byte("2")}, {Name: "user.a", Value: []byte("1")}}
	xattrsB := []objects.Xattr{{Name: "user.a", Value: []byte("1")}, {Name: "user.b", Value: []byte("2")}}

	blobA := New(1000, 1000, 0o644, xattrsA, []byte("hello"))
	blobB := New(1000, 1000, 0o644, xattrsB, []byte("hello"))

	hashA, err := blobA.Hash()
	assert.NoError(t, err)
	hashB, err := blobB.Hash()
	assert.NoError(t, err)
	assert.Equal(t, hashA, hashB)
}

func TestBlob_HashDependsOnMetadata(t *testing.T) {
	b1 := New(1000, 1000, 0o644, nil, []byte("hello"))
	b2 := New(1000, 1000, 0o600, nil, []byte("hello"))

	h1, _ := b1.Hash()
	h2, _ := b2.Hash()
	assert.NotEqual(t, h1, h2)
}

func TestBlob_EmptyContent(t *testing.T) {
	b := New(0, 0, 0o644, nil, nil)
	h, err := b.Hash()
	assert.NoError(t, err)
	assert.NotEmpty(t, h)
	assert.Zero(t, b.Size())
}

func TestBlob_ValidateRejectsEmptyXattrName(t *testing.T) {
	b := New(0, 0, 0o644, []objects.Xattr{{Name: "", Value: []byte("v")}}, []byte("c"))
	assert.Error(t, b.Validate())
}
