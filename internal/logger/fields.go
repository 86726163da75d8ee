package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields propagated through the request call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldWorkerID is the swarm worker identity
	FieldWorkerID = "worker_id"

	// FieldBatchID is the batch being dispatched, committed, or finalized
	FieldBatchID = "batch_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldRemoteIP is the client's remote address
	FieldRemoteIP = "remote_ip"
)

// Metric fields used for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldStatus is the HTTP or operation status
	FieldStatus = "status"

	// FieldSize is a data size in bytes
	FieldSize = "size"

	// FieldCount is a generic count field
	FieldCount = "count"
)
