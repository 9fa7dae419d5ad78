package models

// Status is the outcome reported by a worker inside its envelope.
type Status string

const (
	// StatusSuccess indicates the worker produced usable data.
	StatusSuccess Status = "success"
	// StatusError indicates a business-level failure such as a lookup miss.
	StatusError Status = "error"
)

// Valid returns true if the status is a known value.
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusError
}

// ResultEnvelope is the uniform wrapper returned by every worker, so
// downstream consumers never branch on worker identity.
type ResultEnvelope struct {
	Status  Status         `json:"status"`
	Payload map[string]any `json:"payload,omitempty"`
	Summary string         `json:"summary"`
}

// Success builds a successful envelope.
func Success(summary string, payload map[string]any) ResultEnvelope {
	if payload == nil {
		payload = map[string]any{}
	}
	return ResultEnvelope{Status: StatusSuccess, Payload: payload, Summary: summary}
}

// Failure builds an error envelope carrying an optional payload.
func Failure(summary string, payload map[string]any) ResultEnvelope {
	if payload == nil {
		payload = map[string]any{}
	}
	return ResultEnvelope{Status: StatusError, Payload: payload, Summary: summary}
}

// OK reports whether the envelope carries a successful result.
func (e ResultEnvelope) OK() bool {
	return e.Status == StatusSuccess
}
