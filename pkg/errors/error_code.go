package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidInstruction ErrorCode = 100
	ErrCodeInvalidParameter   ErrorCode = 101
	ErrCodeUnsupportedVenue   ErrorCode = 102
	ErrCodeBadPassword        ErrorCode = 103

	// Amount errors (200-299)
	ErrCodeAmountPercentBoth ErrorCode = 200
	ErrCodeAmountPercentNone ErrorCode = 201
	ErrCodeFreeAmountNone    ErrorCode = 202
	ErrCodeMinAmount         ErrorCode = 203

	// Position errors (300-399)
	ErrCodePositionNone      ErrorCode = 300
	ErrCodeLongPositionNone  ErrorCode = 301
	ErrCodeShortPositionNone ErrorCode = 302

	// Order errors (400-499)
	ErrCodeOrderFailed    ErrorCode = 400
	ErrCodeLeverageFailed ErrorCode = 401
	ErrCodePriceFailed    ErrorCode = 402

	// Session errors (500-599)
	ErrCodeSessionExpired ErrorCode = 500
	ErrCodeTokenStore     ErrorCode = 501

	// Transport errors (600-699)
	ErrCodeConnectivity ErrorCode = 600
	ErrCodeTimeout      ErrorCode = 601
)
