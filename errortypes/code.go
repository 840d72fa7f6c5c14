package errortypes

// Defines numeric codes for well-known errors.
const (
	TimeoutErrorCode = iota
	BadInputErrorCode
	BadPartnerResponseErrorCode
	BidOutOfBoundsErrorCode
	TransportErrorCode
	PoolSaturatedErrorCode
	FailedToRequestBidsErrorCode
)

const UnknownErrorCode = 999

// Defines numeric codes for well-known warnings.
const (
	UnscoredPartnerWarningCode = iota + 10000
	StaleHistorySnapshotWarningCode
)

const UnknownWarningCode = 10999

// Coder provides an error or warning code with severity.
type Coder interface {
	Code() int
	Severity() Severity
}

// ReadCode returns the error or warning code, or UnknownErrorCode if unavailable.
func ReadCode(err error) int {
	if e, ok := err.(Coder); ok {
		return e.Code()
	}
	return UnknownErrorCode
}
