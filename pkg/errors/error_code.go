package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidDecision      ErrorCode = 102
	ErrCodeUnknownAction        ErrorCode = 103
	ErrCodeInvalidThreshold     ErrorCode = 104
	ErrCodeInvalidPeriod        ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 106
	ErrCodeInvalidWeight        ErrorCode = 107

	// Data errors (200-299)
	ErrCodeInvalidData       ErrorCode = 200
	ErrCodeEmptyData         ErrorCode = 201
	ErrCodeUnorderedData     ErrorCode = 202
	ErrCodeDuplicateData     ErrorCode = 203
	ErrCodeMissingColumn     ErrorCode = 204
	ErrCodeDataNotFound      ErrorCode = 205
	ErrCodeDataParseFailed   ErrorCode = 206
	ErrCodeInsufficientData  ErrorCode = 207
	ErrCodeQueryFailed       ErrorCode = 208
	ErrCodeStoreUnavailable  ErrorCode = 209
	ErrCodeStoreWriteFailed  ErrorCode = 210

	// Signal errors (300-399)
	ErrCodeSignalGeneration ErrorCode = 300
	ErrCodeNoGenerators     ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyFailed      ErrorCode = 400
	ErrCodeStrategyConfigError ErrorCode = 401

	// Trading errors (500-599)
	ErrCodeInsufficientFunds    ErrorCode = 500
	ErrCodeInsufficientHoldings ErrorCode = 501
	ErrCodeOrderFailed          ErrorCode = 502
	ErrCodeUnknownFeeModel      ErrorCode = 503
	ErrCodeUnknownSlippageModel ErrorCode = 504
	ErrCodePositionNotFound     ErrorCode = 505

	// Simulation errors (600-699)
	ErrCodeNoDataLoaded     ErrorCode = 600
	ErrCodeSimulationFailed ErrorCode = 601
	ErrCodeRunCancelled     ErrorCode = 602
	ErrCodeInvalidState     ErrorCode = 603
)
