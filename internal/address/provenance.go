package address

import (
	"sort"
	"strings"
)

// ProvenanceValue is one distinct value of a field and the pipelines that produced it.
type ProvenanceValue struct {
	Value     string       `json:"value"`
	Pipelines []PipelineID `json:"pipelines"`
}

// FieldProvenance groups the values of one field across Ok results.
type FieldProvenance struct {
	Field  string            `json:"field"`
	Values []ProvenanceValue `json:"values"`
}

// Agreement reports whether every contributing pipeline produced the same value.
func (f FieldProvenance) Agreement() bool {
	return len(f.Values) == 1
}

// BuildProvenance groups equal field values across the Ok entries of results.
// Values compare case-insensitively after whitespace collapse; the first
// spelling seen in known pipeline order is kept. Empty values are skipped
// and fields no pipeline produced are omitted.
func BuildProvenance(results map[PipelineID]Result) []FieldProvenance {
	var out []FieldProvenance

	for _, field := range ComparedFields {
		var values []ProvenanceValue
		index := make(map[string]int)

		for _, id := range known {
			res, ok := results[id]
			if !ok {
				continue
			}
			addr, ok := res.Address()
			if !ok {
				continue
			}

			value := strings.Join(strings.Fields(addr.Field(field)), " ")
			if value == "" {
				continue
			}

			key := strings.ToLower(value)
			if i, seen := index[key]; seen {
				values[i].Pipelines = append(values[i].Pipelines, id)
				continue
			}
			index[key] = len(values)
			values = append(values, ProvenanceValue{Value: value, Pipelines: []PipelineID{id}})
		}

		if len(values) == 0 {
			continue
		}
		sort.SliceStable(values, func(i, j int) bool {
			return len(values[i].Pipelines) > len(values[j].Pipelines)
		})
		out = append(out, FieldProvenance{Field: field, Values: values})
	}

	return out
}
