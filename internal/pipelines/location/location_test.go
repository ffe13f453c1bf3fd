package location_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/location"
	"github.com/aws/aws-sdk-go-v2/service/location/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/pipelines"
	loc "github.com/JaimeStill/addrsplit/internal/pipelines/location"
)

type fakeClient struct {
	got *location.SearchPlaceIndexForTextInput
	out *location.SearchPlaceIndexForTextOutput
	err error
}

func (f *fakeClient) SearchPlaceIndexForText(_ context.Context, params *location.SearchPlaceIndexForTextInput, _ ...func(*location.Options)) (*location.SearchPlaceIndexForTextOutput, error) {
	f.got = params
	return f.out, f.err
}

var geneva = address.Input{CountryCode: "CH", RawAddress: "Rue du Rhône 10\n1204 Genève"}

func TestRunStreetMatch(t *testing.T) {
	client := &fakeClient{out: &location.SearchPlaceIndexForTextOutput{
		Results: []types.SearchForTextResult{{
			Relevance: aws.Float64(0.97),
			Place: &types.Place{
				Label:         aws.String("Rue du Rhône 10, 1204 Genève, CHE"),
				Street:        aws.String("Rue du Rhône"),
				AddressNumber: aws.String("10"),
				PostalCode:    aws.String("1204"),
				Municipality:  aws.String("Genève"),
				Region:        aws.String("Genève"),
				Country:       aws.String("CHE"),
				Geometry:      &types.PlaceGeometry{Point: []float64{6.1466, 46.2011}},
			},
		}},
	}}

	out, err := loc.New(client, "addrsplit-index").Run(context.Background(), geneva, pipelines.Config{})
	require.NoError(t, err)

	assert.Equal(t, "addrsplit-index", aws.ToString(client.got.IndexName))
	assert.Equal(t, []string{"CHE"}, client.got.FilterCountries)
	assert.Equal(t, int32(1), aws.ToInt32(client.got.MaxResults))

	n := out.Address
	assert.Equal(t, "Rue du Rhône 10", n.AddressLine1)
	assert.Equal(t, "1204", n.Postcode)
	assert.Equal(t, "Genève", n.City)
	assert.Equal(t, "CH", n.CountryCode)
	assert.Equal(t, 0.97, n.Confidence)
	assert.Equal(t, address.AccuracyStreet, n.GeoAccuracy)
	require.True(t, n.HasPoint())
	assert.Equal(t, 46.2011, *n.Latitude)
	assert.Equal(t, 6.1466, *n.Longitude)
	assert.NotEmpty(t, n.Cell)
	assert.Equal(t, 1, out.Usage.Requests)
}

func TestRunCityMatch(t *testing.T) {
	client := &fakeClient{out: &location.SearchPlaceIndexForTextOutput{
		Results: []types.SearchForTextResult{{
			Relevance: aws.Float64(0.6),
			Place: &types.Place{
				Label:        aws.String("Portland, OR, USA"),
				Municipality: aws.String("Portland"),
				Region:       aws.String("Oregon"),
				Country:      aws.String("USA"),
				Geometry:     &types.PlaceGeometry{Point: []float64{-122.67621, 45.52345}},
			},
		}},
	}}

	out, err := loc.New(client, "idx").Run(context.Background(), address.Input{RawAddress: "Portland"}, pipelines.Config{})
	require.NoError(t, err)

	assert.Nil(t, client.got.FilterCountries)
	assert.Equal(t, "US", out.Address.CountryCode)
	assert.Equal(t, address.AccuracyCity, out.Address.GeoAccuracy)
	assert.Equal(t, "Portland, OR, USA", out.Address.MatchLabel)
}

func TestRunNoResults(t *testing.T) {
	client := &fakeClient{out: &location.SearchPlaceIndexForTextOutput{}}

	out, err := loc.New(client, "idx").Run(context.Background(), geneva, pipelines.Config{})
	require.NoError(t, err)

	assert.Equal(t, address.AccuracyNone, out.Address.GeoAccuracy)
	assert.False(t, out.Address.HasPoint())
	assert.Contains(t, out.Address.Warnings, loc.WarnNoMatch)
	assert.Equal(t, "CH", out.Address.CountryCode)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"throttled", &types.ThrottlingException{Message: aws.String("slow down")}, pipelines.ErrThrottled},
		{"access denied", &types.AccessDeniedException{Message: aws.String("no")}, pipelines.ErrMisconfigured},
		{"missing index", &types.ResourceNotFoundException{Message: aws.String("gone")}, pipelines.ErrMisconfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{err: tt.err}
			_, err := loc.New(client, "idx").Run(context.Background(), geneva, pipelines.Config{})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("other", func(t *testing.T) {
		client := &fakeClient{err: errors.New("connection reset")}
		_, err := loc.New(client, "idx").Run(context.Background(), geneva, pipelines.Config{})
		require.Error(t, err)
		assert.Equal(t, address.ReasonUpstreamError, pipelines.Classify(err))
	})
}

func TestRunMisconfigured(t *testing.T) {
	_, err := loc.New(&fakeClient{}, "").Run(context.Background(), geneva, pipelines.Config{})
	assert.ErrorIs(t, err, pipelines.ErrMisconfigured)
}
