package objects

// ObjectType identifies the three kinds of stored object.
type ObjectType string

const (
	BlobType   ObjectType = "blob"
	TreeType   ObjectType = "tree"
	CommitType ObjectType = "commit"
)

// String implements the Stringer interface
func (o ObjectType) String() string {
	return string(o)
}

// BaseObject is implemented by every stored object kind (blob, tree, commit).
type BaseObject interface {
	// Type returns the object type
	Type() ObjectType

	// Hash returns the content address of the object
	Hash() (ObjectHash, error)

	// String returns a human-readable representation
	String() string
}
