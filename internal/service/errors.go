package service

// Protocol error codes surfaced to workers. All of them map to HTTP 403;
// the code disambiguates for the client.
const (
	CodeTooManyWorkers    = 1
	CodeUnknownWorker     = 2
	CodeWorkerDisabled    = 3
	CodeMustCommitCurrent = 4
	CodeForbiddenBatch    = 5
	CodeEmptyBatchID      = 6
	CodeUnknownBatch      = 7
	CodeSizeMismatch      = 8
)

// ProtocolError is a client-attributable protocol violation or verification
// outcome. BatchID is set when the client needs it to self-correct (the held
// batch for MUST_COMMIT_CURRENT, the contested batch for SIZE_MISMATCH).
type ProtocolError struct {
	Code    int
	Message string
	BatchID string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return e.Message
}

func errTooManyWorkers() *ProtocolError {
	return &ProtocolError{Code: CodeTooManyWorkers, Message: "TOO_MANY_WORKERS"}
}

func errUnknownWorker() *ProtocolError {
	return &ProtocolError{Code: CodeUnknownWorker, Message: "UNKNOWN_WORKER"}
}

func errWorkerDisabled() *ProtocolError {
	return &ProtocolError{Code: CodeWorkerDisabled, Message: "WORKER_DISABLED"}
}

func errMustCommitCurrent(heldBatchID string) *ProtocolError {
	return &ProtocolError{Code: CodeMustCommitCurrent, Message: "MUST_COMMIT_CURRENT", BatchID: heldBatchID}
}

func errForbiddenBatch() *ProtocolError {
	return &ProtocolError{Code: CodeForbiddenBatch, Message: "FORBIDDEN_BATCH"}
}

func errEmptyBatchID() *ProtocolError {
	return &ProtocolError{Code: CodeEmptyBatchID, Message: "EMPTY_BATCH_ID"}
}

func errUnknownBatch() *ProtocolError {
	return &ProtocolError{Code: CodeUnknownBatch, Message: "UNKNOWN_BATCH"}
}

func errSizeMismatch(batchID string) *ProtocolError {
	return &ProtocolError{Code: CodeSizeMismatch, Message: "SIZE_MISMATCH", BatchID: batchID}
}
