package scpath

const (
	// ObjectsDir is the name of the object store's root directory.
	ObjectsDir = "objects"

	// BlobsDir, TreesDir, CommitsDir are the three object-kind subdirectories
	// under ObjectsDir, each sharded 2/62 by hash.
	BlobsDir   = "blobs"
	TreesDir   = "trees"
	CommitsDir = "commits"

	// RefsDir is the name of the refs directory.
	RefsDir = "refs"

	// HeadsDir is the name of the heads directory (branches) under RefsDir.
	HeadsDir = "heads"

	// TagsDir is the name of the tags directory under RefsDir.
	TagsDir = "tags"

	// TmpDir holds in-progress writes before atomic rename into the object
	// store; it is the only location of non-published state.
	TmpDir = "tmp"

	// LockFile is the name of the repository's advisory lock file.
	LockFile = ".lock"

	// ConfigFile is the name of the repository's TOML configuration file.
	ConfigFile = "config.toml"

	// HashHexLength is the length of a hex-encoded object hash, and
	// HashPrefixLength/HashSuffixLength are its 2/62 shard split.
	HashHexLength    = 64
	HashPrefixLength = 2
	HashSuffixLength = HashHexLength - HashPrefixLength
)
