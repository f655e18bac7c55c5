package err

// Error codes for the content-addressed store and its surrounding components.
// These extend the generic codes above with one code per taxonomy entry; each
// carries enough context (via WithContext) for a caller to act on it.
const (
	// Repository shape
	CodeNoRepo    = "NO_REPO"
	CodeRepoExist = "REPO_EXISTS"

	// Reference
	CodeRefNotFound = "REF_NOT_FOUND"
	CodeInvalidRef  = "INVALID_REF"

	// Objects
	CodeObjectNotFound   = "OBJECT_NOT_FOUND"
	CodeCorruptObject    = "CORRUPT_OBJECT"
	CodeInvalidObjectType = "INVALID_OBJECT_TYPE"
	CodeInvalidHashHex   = "INVALID_HASH_HEX"

	// Tree validity
	CodeInvalidEntryName      = "INVALID_ENTRY_NAME"
	CodeDuplicateEntryName    = "DUPLICATE_ENTRY_NAME"
	CodeHardlinkTargetMissing = "HARDLINK_TARGET_NOT_FOUND"

	// Union
	CodeUnionConflict            = "UNION_CONFLICT"
	CodeUnionTypeConflict        = "UNION_TYPE_CONFLICT"
	CodeInvalidConflictResolution = "INVALID_CONFLICT_RESOLUTION"

	// Checkout
	CodeTargetNotEmpty      = "TARGET_NOT_EMPTY"
	CodeDeviceNodePermission = "DEVICE_NODE_PERMISSION"

	// Concurrency
	CodeLockContention = "LOCK_CONTENTION"

	// Namespace
	CodeUnmappedUid        = "UNMAPPED_UID"
	CodeUnmappedGid        = "UNMAPPED_GID"
	CodeNamespaceParseError = "NAMESPACE_PARSE_ERROR"

	// Remote / transport
	CodeRemoteNotFound   = "REMOTE_NOT_FOUND"
	CodeRemoteConnection = "REMOTE_CONNECTION"
	CodeRemoteConfigError = "REMOTE_CONFIG_ERROR"
	CodeTransport        = "TRANSPORT"
	CodeNonFastForward   = "NON_FAST_FORWARD"

	// Low-level
	CodeXattr = "XATTR"
)
