package cbor

// DefaultMaxDepth is the nesting depth limit DecodeLimits uses unless a
// caller overrides it. It also sets the pre-allocated capacity of the
// iterative scan stack (see scan.go): DefaultMaxDepth+2 frames fit without
// growing the slice.
const DefaultMaxDepth = 256

// DefaultMaxContainerLen is the array/map length limit DecodeLimits derives
// from a message size budget. It is a safety backstop, not a protocol limit;
// tune it explicitly for deployments that legitimately need larger
// containers.
const DefaultMaxContainerLen = 1 << 16

// DecodeLimits bounds the resources a single validate/decode call may
// consume. Limits are enforced deterministically during the scan (see
// scan.go) and never depend on wall-clock time.
type DecodeLimits struct {
	// MaxInputBytes is the maximum total length of the input slice.
	MaxInputBytes int
	// MaxDepth is the maximum array/map nesting depth.
	MaxDepth int
	// MaxTotalItems bounds sum(array_len) + sum(2*map_pairs) across the
	// entire item (map entries count both key and value).
	MaxTotalItems int
	// MaxArrayLen bounds any single array's length.
	MaxArrayLen int
	// MaxMapLen bounds any single map's length, in pairs.
	MaxMapLen int
	// MaxBytesLen bounds any single byte string, including bignum
	// magnitudes.
	MaxBytesLen int
	// MaxTextLen bounds any single text string, in UTF-8 bytes.
	MaxTextLen int
}

// ForBytes derives conservative DecodeLimits from a maximum message size.
// MaxInputBytes, MaxTotalItems, MaxBytesLen and MaxTextLen are all set to
// maxMessageBytes; MaxArrayLen and MaxMapLen are capped at
// DefaultMaxContainerLen. This is a pragmatic baseline — tune the fields
// explicitly for deployments with different shapes of traffic.
func ForBytes(maxMessageBytes int) DecodeLimits {
	maxContainerLen := maxMessageBytes
	if maxContainerLen > DefaultMaxContainerLen {
		maxContainerLen = DefaultMaxContainerLen
	}
	return DecodeLimits{
		MaxInputBytes: maxMessageBytes,
		MaxDepth:      DefaultMaxDepth,
		MaxTotalItems: maxMessageBytes,
		MaxArrayLen:   maxContainerLen,
		MaxMapLen:     maxContainerLen,
		MaxBytesLen:   maxMessageBytes,
		MaxTextLen:    maxMessageBytes,
	}
}

// CborLimits holds the end-to-end size budgets a SACP deployment
// configures: a cap on message bytes arriving on the wire, and a
// (typically smaller) cap on canonical CBOR persisted as durable state.
type CborLimits struct {
	MaxMessageBytes int
	MaxStateBytes   int
}

// NewCborLimits validates and constructs CborLimits. It returns
// ErrInvalidLimits if maxStateBytes exceeds maxMessageBytes.
func NewCborLimits(maxMessageBytes, maxStateBytes int) (CborLimits, error) {
	if maxStateBytes > maxMessageBytes {
		return CborLimits{}, encErr(ErrInvalidLimits)
	}
	return CborLimits{MaxMessageBytes: maxMessageBytes, MaxStateBytes: maxStateBytes}, nil
}

// MessageLimits returns DecodeLimits appropriate for validating incoming
// messages.
func (l CborLimits) MessageLimits() DecodeLimits {
	return ForBytes(l.MaxMessageBytes)
}

// StateLimits returns DecodeLimits appropriate for validating canonical
// state read back from durable storage.
func (l CborLimits) StateLimits() DecodeLimits {
	return ForBytes(l.MaxStateBytes)
}
