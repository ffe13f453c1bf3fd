// Package loqate implements the loqate pipeline: Capture Interactive Find
// followed by Retrieve for the best candidate, geocoded through the offline
// resolver.
package loqate

import (
	"context"
	"strings"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/cost"
	"github.com/JaimeStill/addrsplit/internal/geocode"
	"github.com/JaimeStill/addrsplit/internal/normalize"
	"github.com/JaimeStill/addrsplit/internal/pipelines"
)

// Warnings recorded on empty outcomes.
const (
	WarnNoCandidates  = "loqate_no_candidates"
	WarnMissingID     = "loqate_missing_id"
	WarnRetrieveEmpty = "loqate_retrieve_empty"
)

// Adapter runs Find then Retrieve.
type Adapter struct {
	client   *Client
	resolver *geocode.Resolver
}

// New creates the adapter.
func New(client *Client, resolver *geocode.Resolver) *Adapter {
	return &Adapter{client: client, resolver: resolver}
}

func (a *Adapter) ID() address.PipelineID {
	return address.Loqate
}

func (a *Adapter) Run(ctx context.Context, in address.Input, _ pipelines.Config) (pipelines.Outcome, error) {
	usage := cost.Usage{Requests: 1}

	found, err := a.client.Find(ctx, strings.TrimSpace(in.RawAddress))
	if err != nil {
		return pipelines.Outcome{}, err
	}
	if len(found) == 0 {
		return pipelines.Outcome{Address: empty(in, WarnNoCandidates), Usage: usage}, nil
	}

	id := found[0].Get("Id")
	if id == "" {
		return pipelines.Outcome{Address: empty(in, WarnMissingID), Usage: usage}, nil
	}

	retrieved, err := a.client.Retrieve(ctx, id)
	if err != nil {
		return pipelines.Outcome{}, err
	}
	if len(retrieved) == 0 {
		return pipelines.Outcome{Address: empty(in, WarnRetrieveEmpty), Usage: usage}, nil
	}

	n := toNormalized(retrieved[0], in)
	geocode.Apply(&n, a.resolver.Resolve(n.CountryCode, n.Postcode, n.City))
	return pipelines.Outcome{Address: n, Usage: usage}, nil
}

func empty(in address.Input, warning string) address.Normalized {
	return normalize.Record(normalize.Fields{
		"confidence": 0.0,
		"warnings":   []string{warning},
	}, address.Loqate, in)
}

func toNormalized(r Item, in address.Input) address.Normalized {
	line1 := r.Get("Line1")
	line2 := r.Get("Line2")
	if line2 == "" {
		var extras []string
		for _, k := range []string{"Line3", "Line4", "Line5"} {
			if v := r.Get(k); v != "" {
				extras = append(extras, v)
			}
		}
		line2 = strings.Join(extras, ", ")
	}

	city := r.Get("City", "Locality")
	postcode := r.Get("PostalCode", "Postcode")

	confidence := 0.6
	if line1 != "" || city != "" || postcode != "" {
		confidence = 0.9
	}

	return normalize.Record(normalize.Fields{
		"country_code":  r.Get("CountryIso2", "CountryISO2", "Country"),
		"address_line1": line1,
		"address_line2": line2,
		"postcode":      postcode,
		"city":          city,
		"state_region":  r.Get("Province", "State", "AdministrativeArea"),
		"neighborhood":  r.Get("Neighbourhood", "District"),
		"po_box":        r.Get("POBoxNumber"),
		"company":       r.Get("Company"),
		"confidence":    confidence,
	}, address.Loqate, in)
}
