package diagnostics

// Diagnostic codes, grouped by compilation stage.
const (
	// scanner
	ErrUnterminatedString = "E_LEX_UNTERMINATED_STRING"
	ErrUnexpectedChar     = "E_LEX_UNEXPECTED_CHAR"

	// parser
	ErrUnexpectedToken  = "E_PARSE_UNEXPECTED_TOKEN"
	ErrExpectedPrimary  = "E_PARSE_EXPECTED_PRIMARY"
	ErrExpectedType     = "E_PARSE_EXPECTED_TYPE"
	ErrNumberOutOfRange = "E_PARSE_NUMBER_RANGE"

	// semantic analysis during code generation
	ErrUnknownVariable  = "E_SEM_UNKNOWN_VARIABLE"
	ErrUnknownFunction  = "E_SEM_UNKNOWN_FUNCTION"
	ErrArgumentCount    = "E_SEM_ARGUMENT_COUNT"
	ErrUnknownType      = "E_SEM_UNKNOWN_TYPE"
	ErrLoopControl      = "E_SEM_LOOP_CONTROL"
	ErrRangeTypes       = "E_SEM_RANGE_TYPES"
	ErrNotImplemented   = "E_SEM_NOT_IMPLEMENTED"

	// backend
	ErrVerification = "E_BACKEND_VERIFY"
	ErrEmit         = "E_BACKEND_EMIT"
)
