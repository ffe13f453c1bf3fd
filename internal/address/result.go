package address

import (
	"encoding/json"
	"fmt"
)

// FailureReason classifies why a pipeline produced no record.
type FailureReason string

const (
	ReasonTimeout       FailureReason = "timeout"
	ReasonUpstreamError FailureReason = "upstream_error"
	ReasonThrottled     FailureReason = "throttled"
	ReasonInvalidOutput FailureReason = "invalid_output"
	ReasonMisconfigured FailureReason = "misconfigured"
	ReasonInternalError FailureReason = "internal_error"
)

// Status is the tag of a Result.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Failure describes a pipeline that settled without a record.
// Detail is safe for clients: it never carries address content.
type Failure struct {
	PipelineID PipelineID    `json:"pipeline_id"`
	Reason     FailureReason `json:"reason"`
	Detail     string        `json:"detail,omitempty"`
}

// Result is the settled outcome of one pipeline: exactly one of Address or
// Failure is set. Use Ok and Failed to construct it.
type Result struct {
	status  Status
	address *Normalized
	failure *Failure
}

// Ok wraps a normalized record.
func Ok(n Normalized) Result {
	return Result{status: StatusOK, address: &n}
}

// Failed wraps a pipeline failure.
func Failed(id PipelineID, reason FailureReason, detail string) Result {
	return Result{status: StatusFailed, failure: &Failure{PipelineID: id, Reason: reason, Detail: detail}}
}

func (r Result) Status() Status {
	return r.status
}

func (r Result) IsOK() bool {
	return r.status == StatusOK
}

// Address returns the record of an Ok result.
func (r Result) Address() (Normalized, bool) {
	if r.address == nil {
		return Normalized{}, false
	}
	return *r.address, true
}

// Failure returns the failure of a Failed result.
func (r Result) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

type resultJSON struct {
	Status  Status      `json:"status"`
	Address *Normalized `json:"address,omitempty"`
	Failure *Failure    `json:"failure,omitempty"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{Status: r.status, Address: r.address, Failure: r.failure})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Status {
	case StatusOK:
		if raw.Address == nil {
			return fmt.Errorf("ok result without address")
		}
		*r = Ok(*raw.Address)
	case StatusFailed:
		if raw.Failure == nil {
			return fmt.Errorf("failed result without failure")
		}
		*r = Failed(raw.Failure.PipelineID, raw.Failure.Reason, raw.Failure.Detail)
	default:
		return fmt.Errorf("unknown result status %q", raw.Status)
	}
	return nil
}
