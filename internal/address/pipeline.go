// Package address defines the records exchanged between pipelines, the
// orchestrator, and the submission store.
package address

import (
	"errors"
	"fmt"
	"strings"
)

// PipelineID identifies one address parsing or geocoding backend.
type PipelineID string

const (
	LLMGeonames       PipelineID = "llm_geonames"
	RuleBasedGeonames PipelineID = "rule_based_geonames"
	AWSServices       PipelineID = "aws_services"
	Loqate            PipelineID = "loqate"
)

// ErrUnknownPipeline indicates an id outside the known set.
var ErrUnknownPipeline = errors.New("unknown pipeline id")

var known = []PipelineID{LLMGeonames, RuleBasedGeonames, AWSServices, Loqate}

// Known returns the fixed set of pipeline ids in stable order.
func Known() []PipelineID {
	out := make([]PipelineID, len(known))
	copy(out, known)
	return out
}

// ParsePipelineID returns the PipelineID for s or ErrUnknownPipeline.
func ParsePipelineID(s string) (PipelineID, error) {
	id := PipelineID(strings.TrimSpace(s))
	if id.Valid() {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPipeline, s)
}

// Valid reports whether id is in the known set.
func (id PipelineID) Valid() bool {
	for _, k := range known {
		if id == k {
			return true
		}
	}
	return false
}

// RequiresModel reports whether the pipeline needs a generative model id.
func (id PipelineID) RequiresModel() bool {
	return id == LLMGeonames
}

func (id PipelineID) String() string {
	return string(id)
}
