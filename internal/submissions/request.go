package submissions

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/country"
)

// MaxAddressLength bounds the raw address in runes.
const MaxAddressLength = 1000

// SplitRequest is the body of a split call.
type SplitRequest struct {
	RecipientName string   `json:"recipient_name,omitempty"`
	CountryCode   string   `json:"country_code,omitempty"`
	RawAddress    string   `json:"raw_address"`
	ModelID       string   `json:"model_id,omitempty"`
	Pipelines     []string `json:"pipelines"`
}

// PreferredRequest is the body of a preferred-pipeline update.
type PreferredRequest struct {
	PipelineID string `json:"pipeline_id"`
}

// Validate checks the request and returns the normalized input and the
// selected pipelines in known order with duplicates collapsed.
func (r SplitRequest) Validate() (address.Input, []address.PipelineID, error) {
	in := address.Input{
		RecipientName: strings.TrimSpace(r.RecipientName),
		CountryCode:   strings.ToUpper(strings.TrimSpace(r.CountryCode)),
		RawAddress:    strings.TrimSpace(r.RawAddress),
		ModelID:       strings.TrimSpace(r.ModelID),
	}

	if in.RawAddress == "" {
		return address.Input{}, nil, validation("raw_address is required")
	}
	if len([]rune(in.RawAddress)) > MaxAddressLength {
		return address.Input{}, nil, validation(fmt.Sprintf("raw_address exceeds %d characters", MaxAddressLength))
	}
	if in.CountryCode != "" && !country.Valid(in.CountryCode) {
		return address.Input{}, nil, validation("country_code must be an ISO 3166-1 alpha-2 code")
	}
	if len(r.Pipelines) == 0 {
		return address.Input{}, nil, validation("at least one pipeline is required")
	}

	selected := make(map[address.PipelineID]bool, len(r.Pipelines))
	for _, p := range r.Pipelines {
		id, err := address.ParsePipelineID(p)
		if err != nil {
			return address.Input{}, nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		selected[id] = true
	}

	var ids []address.PipelineID
	for _, id := range address.Known() {
		if !selected[id] {
			continue
		}
		if id.RequiresModel() && in.ModelID == "" {
			return address.Input{}, nil, validation(fmt.Sprintf("model_id is required for %s", id))
		}
		ids = append(ids, id)
	}
	return in, ids, nil
}
