package address

import "encoding/json"

// Input is one address as submitted for comparison.
type Input struct {
	RecipientName string `json:"recipient_name,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
	RawAddress    string `json:"raw_address"`
	ModelID       string `json:"model_id,omitempty"`
}

// GeoAccuracy is the coarse quality tier of a geocode.
type GeoAccuracy string

const (
	AccuracyStreet   GeoAccuracy = "street"
	AccuracyPostcode GeoAccuracy = "postcode"
	AccuracyCity     GeoAccuracy = "city"
	AccuracyNone     GeoAccuracy = "none"
)

// Normalized is the common record every pipeline output is mapped into.
type Normalized struct {
	AddressLine1     string      `json:"address_line1"`
	AddressLine2     string      `json:"address_line2,omitempty"`
	Postcode         string      `json:"postcode,omitempty"`
	City             string      `json:"city,omitempty"`
	StateRegion      string      `json:"state_region,omitempty"`
	Neighborhood     string      `json:"neighborhood,omitempty"`
	POBox            string      `json:"po_box,omitempty"`
	Company          string      `json:"company,omitempty"`
	Attention        string      `json:"attention,omitempty"`
	CountryCode      string      `json:"country_code"`
	Confidence       float64     `json:"confidence"`
	Warnings         []string    `json:"warnings"`
	Source           PipelineID  `json:"source"`
	Latitude         *float64    `json:"latitude,omitempty"`
	Longitude        *float64    `json:"longitude,omitempty"`
	GeoAccuracy      GeoAccuracy `json:"geo_accuracy"`
	MatchLabel       string      `json:"match_label,omitempty"`
	InferredPostcode string      `json:"inferred_postcode,omitempty"`
	Cell             string      `json:"cell,omitempty"`
}

// SetPoint records coordinates with their accuracy tier.
// AccuracyNone is not a valid tier for a point and is ignored.
func (n *Normalized) SetPoint(lat, lon float64, accuracy GeoAccuracy, cell string) {
	if accuracy == AccuracyNone || accuracy == "" {
		return
	}
	n.Latitude = &lat
	n.Longitude = &lon
	n.GeoAccuracy = accuracy
	n.Cell = cell
}

// ClearPoint removes coordinates and marks the record ungeocoded.
func (n *Normalized) ClearPoint() {
	n.Latitude = nil
	n.Longitude = nil
	n.GeoAccuracy = AccuracyNone
	n.Cell = ""
	n.MatchLabel = ""
}

// HasPoint reports whether both coordinates are present.
func (n *Normalized) HasPoint() bool {
	return n.Latitude != nil && n.Longitude != nil
}

// Field returns the value of a named text field, used to group equal values
// across pipelines.
func (n *Normalized) Field(name string) string {
	switch name {
	case "address_line1":
		return n.AddressLine1
	case "address_line2":
		return n.AddressLine2
	case "postcode":
		return n.Postcode
	case "city":
		return n.City
	case "state_region":
		return n.StateRegion
	case "neighborhood":
		return n.Neighborhood
	case "po_box":
		return n.POBox
	case "company":
		return n.Company
	case "attention":
		return n.Attention
	case "country_code":
		return n.CountryCode
	case "location":
		return n.Cell
	}
	return ""
}

// ComparedFields lists the fields grouped in provenance, in display order.
var ComparedFields = []string{
	"address_line1", "address_line2", "postcode", "city", "state_region",
	"neighborhood", "po_box", "company", "attention", "country_code", "location",
}

// MarshalJSON keeps geo_accuracy consistent with the coordinates.
func (n Normalized) MarshalJSON() ([]byte, error) {
	type plain Normalized
	p := plain(n)
	if !n.HasPoint() {
		p.Latitude, p.Longitude = nil, nil
		p.GeoAccuracy = AccuracyNone
		p.Cell = ""
	}
	if p.Warnings == nil {
		p.Warnings = []string{}
	}
	return json.Marshal(p)
}
