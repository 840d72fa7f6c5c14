package errortypes

// Timeout flags that a partner failed to return a response before the auction
// deadline (overall or per-partner) expired.
//
// Timeouts are not written to the app log, since they are an expected failure
// mode for slow partners and not actionable for the service hosts.
type Timeout struct {
	Message string
}

func (err *Timeout) Error() string {
	return err.Message
}

func (err *Timeout) Code() int {
	return TimeoutErrorCode
}

func (err *Timeout) Severity() Severity {
	return SeverityFatal
}

// BadInput should be used when returning errors which are caused by bad input
// from the caller: a malformed bid request, a missing or unknown vertical.
// It should _not_ be used if the error is a server-side issue.
type BadInput struct {
	Message string
}

func (err *BadInput) Error() string {
	return err.Message
}

func (err *BadInput) Code() int {
	return BadInputErrorCode
}

func (err *BadInput) Severity() Severity {
	return SeverityFatal
}

// BadPartnerResponse should be used when a partner returned a response the
// collector could not use: a non-2xx status, an unparseable body, a missing
// price or click URL, or a click URL that is not an absolute URL.
//
// These should not be used for _connection_ errors (use TransportError),
// which may indicate config issues for the host company.
type BadPartnerResponse struct {
	Message string
}

func (err *BadPartnerResponse) Error() string {
	return err.Message
}

func (err *BadPartnerResponse) Code() int {
	return BadPartnerResponseErrorCode
}

func (err *BadPartnerResponse) Severity() Severity {
	return SeverityFatal
}

// BidOutOfBounds flags a bid whose price parsed cleanly but sits outside the
// partner's configured [min_bid, max_bid] window. The bid is discarded; the
// auction continues.
type BidOutOfBounds struct {
	Message string
}

func (err *BidOutOfBounds) Error() string {
	return err.Message
}

func (err *BidOutOfBounds) Code() int {
	return BidOutOfBoundsErrorCode
}

func (err *BidOutOfBounds) Severity() Severity {
	return SeverityFatal
}

// TransportError covers network-level failures talking to a partner:
// connection refused, connection reset, DNS failure. Transient transport
// errors are the only partner failures the collector will retry.
type TransportError struct {
	Message string
}

func (err *TransportError) Error() string {
	return err.Message
}

func (err *TransportError) Code() int {
	return TransportErrorCode
}

func (err *TransportError) Severity() Severity {
	return SeverityFatal
}

// PoolSaturated flags that a collection task could not acquire a worker slot
// before its deadline elapsed, so the partner was never contacted. It counts
// as a Timeout outcome; the distinct type exists so saturation is separable
// in logs.
type PoolSaturated struct {
	Message string
}

func (err *PoolSaturated) Error() string {
	return err.Message
}

func (err *PoolSaturated) Code() int {
	return PoolSaturatedErrorCode
}

func (err *PoolSaturated) Severity() Severity {
	return SeverityFatal
}

// FailedToRequestBids covers the case where a partner adapter failed to build
// an outbound request at all. This should not happen in practice and signals
// a partner misconfiguration rather than a partner failure.
type FailedToRequestBids struct {
	Message string
}

func (err *FailedToRequestBids) Error() string {
	return err.Message
}

func (err *FailedToRequestBids) Code() int {
	return FailedToRequestBidsErrorCode
}

func (err *FailedToRequestBids) Severity() Severity {
	return SeverityFatal
}

// Warning is a generic non-fatal error.
type Warning struct {
	Message     string
	WarningCode int
}

func (err *Warning) Error() string {
	return err.Message
}

func (err *Warning) Code() int {
	return err.WarningCode
}

func (err *Warning) Severity() Severity {
	return SeverityWarning
}
