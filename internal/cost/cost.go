// Package cost estimates what each pipeline invocation cost, from provider
// token counts when available and a character heuristic otherwise.
package cost

import (
	"errors"
	"math"
	"unicode/utf8"

	"github.com/JaimeStill/addrsplit/internal/address"
)

const (
	BasisUsage      = "usage"
	BasisHeuristic  = "char_heuristic_v1"
	BasisPerRequest = "per_request"
)

var (
	// ErrNoPricing means no price is known for the pipeline's model.
	ErrNoPricing = errors.New("no pricing for model")
	// ErrNotBilled means the pipeline has no cost to report.
	ErrNotBilled = errors.New("pipeline not billed")
)

// Usage is what one pipeline consumed. Estimated marks token counts derived
// from EstimateTokens rather than reported by the provider.
type Usage struct {
	InputTokens  int  `json:"input_tokens,omitempty"`
	OutputTokens int  `json:"output_tokens,omitempty"`
	Requests     int  `json:"requests,omitempty"`
	Estimated    bool `json:"estimated,omitempty"`
}

// EstimateTokens approximates tokens as one per four characters.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return max(1, utf8.RuneCountInString(text)/4)
}

// Estimate prices usage for the pipeline under p.
func Estimate(id address.PipelineID, usage Usage, p Pricing) (address.Cost, error) {
	switch id {
	case address.LLMGeonames:
		if p.InputPerMillion == 0 && p.OutputPerMillion == 0 {
			return address.Cost{}, ErrNoPricing
		}
		basis := BasisUsage
		if usage.Estimated {
			basis = BasisHeuristic
		}
		usd := float64(usage.InputTokens)/1e6*p.InputPerMillion +
			float64(usage.OutputTokens)/1e6*p.OutputPerMillion
		return address.Cost{
			InputTokens:  usage.InputTokens,
			OutputTokens: usage.OutputTokens,
			EstimatedUSD: Round(usd),
			Basis:        basis,
		}, nil
	case address.AWSServices:
		return perRequest(usage, p.LocationPerRequest), nil
	case address.Loqate:
		return perRequest(usage, p.LoqatePerRequest), nil
	}
	return address.Cost{}, ErrNotBilled
}

func perRequest(usage Usage, price float64) address.Cost {
	return address.Cost{
		EstimatedUSD: Round(float64(max(1, usage.Requests)) * price),
		Basis:        BasisPerRequest,
	}
}

// Round rounds to six decimal places.
func Round(usd float64) float64 {
	return math.Round(usd*1e6) / 1e6
}
