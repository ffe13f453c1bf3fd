package address

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Cost is the estimated price of one pipeline invocation.
type Cost struct {
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	EstimatedUSD float64 `json:"estimated_cost_usd"`
	Basis        string  `json:"basis"`
}

// Submission is one persisted comparison, owned by UserID.
type Submission struct {
	SubmissionID    string                `json:"submission_id"`
	UserID          string                `json:"-"`
	CreatedAt       time.Time             `json:"created_at"`
	ExpiresAt       time.Time             `json:"expires_at"`
	Input           Input                 `json:"input"`
	Results         map[PipelineID]Result `json:"results"`
	Costs           map[PipelineID]Cost   `json:"costs,omitempty"`
	Provenance      []FieldProvenance     `json:"provenance,omitempty"`
	PreferredMethod *PipelineID           `json:"preferred_method"`
}

// Pipelines returns the ids present in Results in known order.
func (s *Submission) Pipelines() []PipelineID {
	var out []PipelineID
	for _, id := range known {
		if _, ok := s.Results[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Summary is the recency-list projection of a Submission.
type Summary struct {
	SubmissionID    string       `json:"submission_id"`
	CreatedAt       time.Time    `json:"created_at"`
	CountryCode     string       `json:"country_code,omitempty"`
	Preview         string       `json:"preview"`
	Pipelines       []PipelineID `json:"pipelines"`
	PreferredMethod *PipelineID  `json:"preferred_method"`
}

// Summarize projects s into a Summary with a redacted preview.
func (s *Submission) Summarize() Summary {
	return Summary{
		SubmissionID:    s.SubmissionID,
		CreatedAt:       s.CreatedAt,
		CountryCode:     s.Input.CountryCode,
		Preview:         Preview(s.Input.RawAddress),
		Pipelines:       s.Pipelines(),
		PreferredMethod: s.PreferredMethod,
	}
}

const previewRunes = 48

var longDigits = regexp.MustCompile(`[0-9]{3,}`)

// Preview collapses raw to one line, masks digit runs longer than two and
// truncates to 48 runes.
func Preview(raw string) string {
	line := strings.Join(strings.Fields(raw), " ")
	line = longDigits.ReplaceAllStringFunc(line, func(m string) string {
		return strings.Repeat("*", len(m))
	})
	if utf8.RuneCountInString(line) <= previewRunes {
		return line
	}
	runes := []rune(line)
	return string(runes[:previewRunes-1]) + "…"
}
