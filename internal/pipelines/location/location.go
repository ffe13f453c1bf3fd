// Package location implements the aws_services pipeline over an Amazon
// Location Service place index. It geocodes with the provider's own
// coordinates and never consults the offline resolver.
package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/location"
	"github.com/aws/aws-sdk-go-v2/service/location/types"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/cost"
	"github.com/JaimeStill/addrsplit/internal/country"
	"github.com/JaimeStill/addrsplit/internal/geocode"
	"github.com/JaimeStill/addrsplit/internal/normalize"
	"github.com/JaimeStill/addrsplit/internal/pipelines"
)

// WarnNoMatch is recorded when the place index returns no results.
const WarnNoMatch = "no_location_match"

// Client is the slice of the Amazon Location API the adapter uses.
type Client interface {
	SearchPlaceIndexForText(ctx context.Context, params *location.SearchPlaceIndexForTextInput, optFns ...func(*location.Options)) (*location.SearchPlaceIndexForTextOutput, error)
}

// Adapter searches one place index.
type Adapter struct {
	client Client
	index  string
}

// New creates the adapter for the named place index.
func New(client Client, index string) *Adapter {
	return &Adapter{client: client, index: index}
}

func (a *Adapter) ID() address.PipelineID {
	return address.AWSServices
}

func (a *Adapter) Run(ctx context.Context, in address.Input, _ pipelines.Config) (pipelines.Outcome, error) {
	if a.client == nil || a.index == "" {
		return pipelines.Outcome{}, fmt.Errorf("%w: place index not configured", pipelines.ErrMisconfigured)
	}

	params := &location.SearchPlaceIndexForTextInput{
		IndexName:  aws.String(a.index),
		Text:       aws.String(strings.TrimSpace(in.RawAddress)),
		MaxResults: aws.Int32(1),
	}
	if iso3, ok := country.ISO3(in.CountryCode); ok {
		params.FilterCountries = []string{iso3}
	}

	out, err := a.client.SearchPlaceIndexForText(ctx, params)
	if err != nil {
		return pipelines.Outcome{}, classify(err)
	}

	usage := cost.Usage{Requests: 1}
	if len(out.Results) == 0 || out.Results[0].Place == nil {
		n := normalize.Record(normalize.Fields{"warnings": []string{WarnNoMatch}}, a.ID(), in)
		return pipelines.Outcome{Address: n, Usage: usage}, nil
	}

	return pipelines.Outcome{Address: toNormalized(out.Results[0], in), Usage: usage}, nil
}

func toNormalized(r types.SearchForTextResult, in address.Input) address.Normalized {
	p := r.Place
	fields := normalize.Fields{
		"address_line1": streetLine(p, in.CountryCode),
		"address_line2": strings.TrimSpace(aws.ToString(p.UnitType) + " " + aws.ToString(p.UnitNumber)),
		"postcode":      aws.ToString(p.PostalCode),
		"city":          aws.ToString(p.Municipality),
		"state_region":  aws.ToString(p.Region),
		"neighborhood":  aws.ToString(p.Neighborhood),
	}
	if code, ok := country.Lookup(aws.ToString(p.Country)); ok {
		fields["country_code"] = code
	}
	if r.Relevance != nil {
		fields["confidence"] = *r.Relevance
	}

	n := normalize.Record(fields, address.AWSServices, in)

	if p.Geometry == nil || len(p.Geometry.Point) < 2 {
		normalize.Warn(&n, WarnNoMatch)
		return n
	}

	lon, lat := p.Geometry.Point[0], p.Geometry.Point[1]
	accuracy := address.AccuracyCity
	if p.Street != nil || p.AddressNumber != nil {
		accuracy = address.AccuracyStreet
	}
	n.SetPoint(lat, lon, accuracy, geocode.Cell(lat, lon))
	n.MatchLabel = aws.ToString(p.Label)
	return n
}

// numberFirst lists countries that write the house number before the street.
var numberFirst = map[string]bool{
	"US": true, "CA": true, "GB": true, "IE": true, "AU": true, "NZ": true, "FR": true, "LU": true,
}

func streetLine(p *types.Place, hint string) string {
	street := aws.ToString(p.Street)
	number := aws.ToString(p.AddressNumber)
	switch {
	case street == "":
		if number != "" {
			return aws.ToString(p.Label)
		}
		return ""
	case number == "":
		return street
	}

	cc := strings.ToUpper(hint)
	if code, ok := country.Lookup(aws.ToString(p.Country)); ok {
		cc = code
	}
	if numberFirst[cc] {
		return number + " " + street
	}
	return street + " " + number
}

func classify(err error) error {
	var (
		throttled *types.ThrottlingException
		denied    *types.AccessDeniedException
		missing   *types.ResourceNotFoundException
	)
	switch {
	case errors.As(err, &throttled):
		return fmt.Errorf("%w: %w", pipelines.ErrThrottled, err)
	case errors.As(err, &denied), errors.As(err, &missing):
		return fmt.Errorf("%w: %w", pipelines.ErrMisconfigured, err)
	}
	return fmt.Errorf("search place index: %w", err)
}
