// internal/domain/seller/garment.go
package seller

import (
	"fmt"

	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

// GarmentType is the closed set of garments a tailor can price.
type GarmentType string

const (
	GarmentShirt       GarmentType = "shirt"
	GarmentTrouser     GarmentType = "trouser"
	GarmentSuit        GarmentType = "suit"
	GarmentBlazer      GarmentType = "blazer"
	GarmentKurta       GarmentType = "kurta"
	GarmentSherwani    GarmentType = "sherwani"
	GarmentDress       GarmentType = "dress"
	GarmentBlouse      GarmentType = "blouse"
	GarmentLehenga     GarmentType = "lehenga"
	GarmentSareeBlouse GarmentType = "saree_blouse"
	GarmentSkirt       GarmentType = "skirt"
	GarmentCoat        GarmentType = "coat"
)

var garmentTypes = map[GarmentType]struct{}{
	GarmentShirt:       {},
	GarmentTrouser:     {},
	GarmentSuit:        {},
	GarmentBlazer:      {},
	GarmentKurta:       {},
	GarmentSherwani:    {},
	GarmentDress:       {},
	GarmentBlouse:      {},
	GarmentLehenga:     {},
	GarmentSareeBlouse: {},
	GarmentSkirt:       {},
	GarmentCoat:        {},
}

// ParseGarmentType returns an error for anything outside the enum.
func ParseGarmentType(s string) (GarmentType, error) {
	g := GarmentType(s)
	if !g.Valid() {
		return "", fmt.Errorf("unknown garment type %q", s)
	}
	return g, nil
}

func (g GarmentType) Valid() bool {
	_, ok := garmentTypes[g]
	return ok
}

// UnmarshalText makes encoding/json reject unknown garment types, both as
// values and as map keys.
func (g *GarmentType) UnmarshalText(text []byte) error {
	parsed, err := ParseGarmentType(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (g GarmentType) MarshalText() ([]byte, error) {
	return []byte(g), nil
}

// GarmentPrices maps garment types to price overrides.
type GarmentPrices map[GarmentType]money.Amount

// PriceFor returns the override for g, if any.
func (p GarmentPrices) PriceFor(g GarmentType) (money.Amount, bool) {
	if p == nil {
		return 0, false
	}
	price, ok := p[g]
	return price, ok
}
