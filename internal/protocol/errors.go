package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Command layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownPrefab = "E_UNKNOWN_PREFAB"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrNothingToUndo = "E_NOTHING_TO_UNDO"
	ErrNothingToRedo = "E_NOTHING_TO_REDO"
	ErrNotInvertible = "E_NOT_INVERTIBLE"

	// Map document layer.
	ErrMalformedMap = "E_MALFORMED_MAP"
	ErrSaveFailed   = "E_SAVE_FAILED"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrUnknownPrefab:   {},
	ErrInvalidTarget:   {},
	ErrNothingToUndo:   {},
	ErrNothingToRedo:   {},
	ErrNotInvertible:   {},
	ErrMalformedMap:    {},
	ErrSaveFailed:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
