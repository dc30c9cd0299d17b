package geocode

import (
	"fmt"
	"strings"

	"overyonder.app/internal/models"
)

// Kind is the land/water verdict for a coordinate.
type Kind string

const (
	KindLand                Kind = "land"
	KindTerritorialWaters   Kind = "territorial_waters"
	KindInternationalWaters Kind = "international_waters"
)

// Classification is the normalized oracle verdict for one coordinate. It is consumed by
// the search step that requested it and not kept afterwards.
type Classification struct {
	IsLand      bool   `json:"isLand"`
	Kind        Kind   `json:"kind"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// PrimaryName returns the first comma-delimited segment of the display name.
func (c Classification) PrimaryName() string {
	return primarySegment(c.DisplayName)
}

// reverseResponse is the subset of the oracle's reverse lookup we consume.
type reverseResponse struct {
	DisplayName string   `json:"display_name"`
	Error       any      `json:"error"`
	Address     *address `json:"address"`
}

type address struct {
	Country      string `json:"country"`
	State        string `json:"state"`
	City         string `json:"city"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	Ocean        string `json:"ocean"`
	Sea          string `json:"sea"`
	Water        string `json:"water"`
	Bay          string `json:"bay"`
	Strait       string `json:"strait"`
}

func (a address) waterFeatures() []string {
	return nonEmpty(a.Ocean, a.Sea, a.Water, a.Bay, a.Strait)
}

func (a address) hasLocality() bool {
	return a.City != "" || a.Municipality != "" || a.County != ""
}

// waterTerms are matched as whole words against the display name when the address
// carries no structured water field.
var waterTerms = map[string]bool{
	"ocean":   true,
	"sea":     true,
	"gulf":    true,
	"bay":     true,
	"strait":  true,
	"channel": true,
}

// classify applies the land/water policy to a decoded oracle response.
//
// A structured water field always means water. Without one, the point is land only
// when the address names a city, municipality or county. Everything else is water:
// territorial when a country is attributed, international otherwise.
func classify(resp reverseResponse) Classification {
	var addr address
	if resp.Address != nil {
		addr = *resp.Address
	}

	displayName := strings.TrimSpace(resp.DisplayName)
	if displayName == "" {
		displayName = models.UnknownLocation
	}

	waterKind := KindInternationalWaters
	if addr.Country != "" {
		waterKind = KindTerritorialWaters
	}

	if features := addr.waterFeatures(); len(features) > 0 {
		return Classification{
			IsLand:      false,
			Kind:        waterKind,
			DisplayName: displayName,
			Description: strings.Join(features, ", "),
		}
	}

	if addr.hasLocality() {
		locality := addr.City
		if locality == "" {
			locality = addr.Municipality
		}
		description := strings.Join(nonEmpty(locality, addr.County, addr.State, addr.Country), ", ")
		if description == "" {
			description = "Land area"
		}
		return Classification{
			IsLand:      true,
			Kind:        KindLand,
			DisplayName: displayName,
			Description: description,
		}
	}

	description := "International waters"
	if addr.Country != "" {
		description = fmt.Sprintf("Territorial waters of %s", addr.Country)
	}
	if term := waterTermIn(resp.DisplayName); term != "" {
		description = fmt.Sprintf("%s (%s)", description, primarySegment(resp.DisplayName))
	}

	return Classification{
		IsLand:      false,
		Kind:        waterKind,
		DisplayName: displayName,
		Description: description,
	}
}

// waterTermIn returns the first water term found as a whole word in s.
func waterTermIn(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, w := range words {
		if waterTerms[w] {
			return w
		}
	}
	return ""
}

func primarySegment(displayName string) string {
	name := strings.TrimSpace(strings.SplitN(displayName, ",", 2)[0])
	if name == "" {
		return models.UnknownLocation
	}
	return name
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
