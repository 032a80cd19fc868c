package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AreaUnit identifies how an area was entered on the land record.
type AreaUnit string

const (
	UnitSquareMeters AreaUnit = "sq_m"
	UnitAcreGuntha   AreaUnit = "acre_guntha"
)

// Conversion constants used by the revenue department forms.
// Note that 40 gunthas (4046.8 m²) is slightly less than one acre (4046.86 m²);
// the constants are kept as published rather than derived from each other.
var (
	SquareMetersPerAcre   = decimal.RequireFromString("4046.86")
	SquareMetersPerGuntha = decimal.RequireFromString("101.17")
)

// GunthasPerAcre is the number of gunthas in one acre.
const GunthasPerAcre = 40

// AreaScale is the number of decimal places stored for every area component.
const AreaScale = 4

// gunthaPrecision is the number of decimal places kept for gunthas after conversion.
const gunthaPrecision = AreaScale

// Area is a land area in one of the supported units.
// SquareMeters is used when Unit is UnitSquareMeters, Acres and Gunthas when
// Unit is UnitAcreGuntha. Comparisons must always go through InSquareMeters.
type Area struct {
	Unit         AreaUnit        `json:"unit" yaml:"unit"`
	SquareMeters decimal.Decimal `json:"squareMeters" yaml:"squareMeters"`
	Acres        decimal.Decimal `json:"acres" yaml:"acres"`
	Gunthas      decimal.Decimal `json:"gunthas" yaml:"gunthas"`
}

// SquareMetersArea builds an Area expressed in square meters.
func SquareMetersArea(value decimal.Decimal) Area {
	return Area{Unit: UnitSquareMeters, SquareMeters: value}
}

// AcreGunthaArea builds an Area expressed as an acre + guntha pair.
func AcreGunthaArea(acres, gunthas decimal.Decimal) Area {
	return Area{Unit: UnitAcreGuntha, Acres: acres, Gunthas: gunthas}
}

// InSquareMeters returns the area converted to square meters.
func (a Area) InSquareMeters() decimal.Decimal {
	if a.Unit == UnitAcreGuntha {
		return a.Acres.Mul(SquareMetersPerAcre).Add(a.Gunthas.Mul(SquareMetersPerGuntha))
	}
	return a.SquareMeters
}

// ConvertTo expresses the same area in the given unit.
// Converting to acre/guntha keeps whole acres and puts the remainder in gunthas.
func (a Area) ConvertTo(unit AreaUnit) Area {
	return FromSquareMeters(a.InSquareMeters(), unit)
}

// FromSquareMeters builds an Area of the given unit from a square meter value.
// Gunthas are rounded down, so the result never converts back to more than sqm.
func FromSquareMeters(sqm decimal.Decimal, unit AreaUnit) Area {
	if unit != UnitAcreGuntha {
		return SquareMetersArea(sqm)
	}
	acres := sqm.Div(SquareMetersPerAcre).Floor()
	rest := sqm.Sub(acres.Mul(SquareMetersPerAcre))
	if rest.IsNegative() {
		rest = decimal.Zero
	}
	gunthas := rest.Div(SquareMetersPerGuntha).RoundFloor(gunthaPrecision)
	return AcreGunthaArea(acres, gunthas)
}

// IsZero reports whether the area is empty.
func (a Area) IsZero() bool {
	return a.InSquareMeters().IsZero()
}

// CheckScale rejects components with more decimal places than AreaScale,
// which the database would otherwise round on store.
func (a Area) CheckScale() error {
	for _, v := range []decimal.Decimal{a.SquareMeters, a.Acres, a.Gunthas} {
		if !v.Equal(v.Truncate(AreaScale)) {
			return fmt.Errorf("area must have at most %d decimal places, got %s", AreaScale, v)
		}
	}
	return nil
}

// Validate checks the unit, that no component is negative and the scale.
func (a Area) Validate() error {
	switch a.Unit {
	case UnitSquareMeters:
		if a.SquareMeters.IsNegative() {
			return fmt.Errorf("area must not be negative, got %s m²", a.SquareMeters)
		}
	case UnitAcreGuntha:
		if a.Acres.IsNegative() || a.Gunthas.IsNegative() {
			return fmt.Errorf("area must not be negative, got %s acres %s gunthas", a.Acres, a.Gunthas)
		}
	default:
		return fmt.Errorf("unknown area unit %q", a.Unit)
	}
	return a.CheckScale()
}

// String renders the area in its own unit.
func (a Area) String() string {
	if a.Unit == UnitAcreGuntha {
		return fmt.Sprintf("%s acres %s gunthas", a.Acres, a.Gunthas)
	}
	return fmt.Sprintf("%s m²", a.SquareMeters)
}
