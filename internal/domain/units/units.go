// Package units derives per-unit prices for a product and converts requested
// quantities between selling units and the product's base unit.
//
// Every caller that prices or measures stock goes through Profile, so the
// conversion rules live in exactly one place.
package units

import (
	"github.com/shopspring/decimal"

	"billing/internal/core/apperror"
	"billing/internal/core/types"
)

// Unit is a selling/stock unit name.
type Unit string

const (
	Piece      Unit = "piece"
	Box        Unit = "box"
	Kilogram   Unit = "kg"
	Gram       Unit = "gram"
	Liter      Unit = "liter"
	Milliliter Unit = "ml"
	Bag        Unit = "bag"
	Packet     Unit = "packet"
	Bottle     Unit = "bottle"
)

// Recognized lists the units a price table carries an entry for.
var Recognized = []Unit{Piece, Box, Kilogram, Gram, Liter, Milliliter, Bag, Packet, Bottle}

// Valid reports whether u is a recognized unit.
func (u Unit) Valid() bool {
	for _, r := range Recognized {
		if u == r {
			return true
		}
	}
	return false
}

// milli is the fixed kg→gram and liter→ml ratio.
var milli = decimal.NewFromInt(1000)

// fixedSubunits maps a base unit to the subunit priced at 1/1000 of it.
var fixedSubunits = map[Unit]Unit{
	Kilogram: Gram,
	Liter:    Milliliter,
}

// PriceTable maps each recognized unit to its price per unit.
// Entries without a derivation are zero.
type PriceTable map[Unit]types.Money

// Get returns the price for u, zero when absent.
func (t PriceTable) Get(u Unit) types.Money {
	if p, ok := t[u]; ok {
		return p
	}
	return decimal.Zero
}

// Profile holds the unit configuration of one product.
type Profile struct {
	BaseUnit       Unit            `json:"baseUnit"`
	SecondaryUnit  Unit            `json:"secondaryUnit,omitempty"`
	ConversionRate decimal.Decimal `json:"conversionRate"` // secondary units per base unit
	BasePrice      types.Money     `json:"basePrice"`
	SecondaryPrice types.Money     `json:"secondaryPrice"`
	UnitPrices     PriceTable      `json:"unitPrices"`
}

// NewProfile validates the unit configuration and derives the price table.
// A zero conversion rate means "not set" and is treated as 1.
func NewProfile(base Unit, basePrice types.Money, secondary Unit, rate decimal.Decimal) (Profile, error) {
	if !base.Valid() {
		return Profile{}, apperror.NewFieldValidation("baseUnit", "unrecognized base unit").
			WithDetail("value", string(base))
	}
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	if rate.IsNegative() {
		return Profile{}, apperror.NewFieldValidation("conversionRate", "conversion rate must be positive")
	}
	if basePrice.IsNegative() {
		return Profile{}, apperror.NewFieldValidation("basePrice", "base price cannot be negative")
	}

	p := Profile{
		BaseUnit:       base,
		SecondaryUnit:  secondary,
		ConversionRate: rate,
		BasePrice:      basePrice,
		SecondaryPrice: decimal.Zero,
		UnitPrices:     Derive(base, basePrice),
	}
	if secondary != "" {
		p.SecondaryPrice = basePrice.Div(rate)
	}
	return p, nil
}

// Derive builds the price table for a base unit: the base unit's own entry is
// basePrice, kg→gram and liter→ml are basePrice/1000, everything else is zero.
func Derive(base Unit, basePrice types.Money) PriceTable {
	table := make(PriceTable, len(Recognized))
	for _, u := range Recognized {
		table[u] = decimal.Zero
	}
	table[base] = basePrice
	if sub, ok := fixedSubunits[base]; ok {
		table[sub] = basePrice.Div(milli)
	}
	return table
}

// Rate returns the conversion rate, defaulting to 1.
func (p Profile) Rate() decimal.Decimal {
	if p.ConversionRate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return p.ConversionRate
}

// Price returns the price of qty units of u, rounded to 2 places.
func (p Profile) Price(u Unit, qty types.Quantity) (types.Money, error) {
	q := qty.Decimal()

	switch {
	case u == p.BaseUnit:
		return types.RoundMoney(p.BasePrice.Mul(q)), nil
	case p.SecondaryUnit != "" && u == p.SecondaryUnit:
		return types.RoundMoney(p.SecondaryPrice.Mul(q)), nil
	}

	if price := p.UnitPrices.Get(u); !price.IsZero() {
		return types.RoundMoney(price.Mul(q)), nil
	}

	if p.isFixedSubunit(u) {
		return types.RoundMoney(p.BasePrice.Div(milli).Mul(q)), nil
	}

	return decimal.Zero, apperror.NewUnsupportedUnit(string(u), string(p.BaseUnit))
}

// ToBase converts qty of unit u into base units.
func (p Profile) ToBase(u Unit, qty types.Quantity) (types.Quantity, error) {
	switch {
	case u == p.BaseUnit:
		return qty, nil
	case p.SecondaryUnit != "" && u == p.SecondaryUnit:
		return qty.Div(p.Rate()), nil
	case p.isFixedSubunit(u):
		return qty.Div(milli), nil
	}
	return 0, apperror.NewUnsupportedUnit(string(u), string(p.BaseUnit))
}

// FromBase converts a base-unit quantity into unit u, for display.
func (p Profile) FromBase(u Unit, baseQty types.Quantity) (types.Quantity, error) {
	switch {
	case u == p.BaseUnit:
		return baseQty, nil
	case p.SecondaryUnit != "" && u == p.SecondaryUnit:
		return baseQty.Mul(p.Rate()), nil
	case p.isFixedSubunit(u):
		return baseQty.Mul(milli), nil
	}
	return 0, apperror.NewUnsupportedUnit(string(u), string(p.BaseUnit))
}

func (p Profile) isFixedSubunit(u Unit) bool {
	sub, ok := fixedSubunits[p.BaseUnit]
	return ok && sub == u
}
