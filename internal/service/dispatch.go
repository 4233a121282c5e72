package service

import (
	"fmt"

	"github.com/vyrodovalexey/item-catalog/internal/optional"
)

// SearchFilter holds the optional search inputs.
type SearchFilter struct {
	Name     optional.Option[string]
	MinPrice optional.Option[float64]
	MaxPrice optional.Option[float64]
}

// String implements fmt.Stringer.
func (f SearchFilter) String() string {
	return fmt.Sprintf("name=%s min_price=%s max_price=%s", f.Name, f.MinPrice, f.MaxPrice)
}

// Strategy identifies the store lookup a search is dispatched to.
type Strategy int

// Search strategies.
const (
	StrategyAll Strategy = iota
	StrategyNameAndPriceBetween
	StrategyNameContains
	StrategyPriceBetween
	StrategyPriceAtLeast
	StrategyPriceAtMost
	// StrategyUnsupportedCombination is a name together with exactly one
	// price bound. It lists every item, ignoring all three filters.
	// TODO: dispatch to name+min / name+max lookups once clients stop
	// relying on the unfiltered result.
	StrategyUnsupportedCombination
)

var strategyNames = map[Strategy]string{
	StrategyAll:                    "all",
	StrategyNameAndPriceBetween:    "name_and_price_between",
	StrategyNameContains:           "name_contains",
	StrategyPriceBetween:           "price_between",
	StrategyPriceAtLeast:           "price_at_least",
	StrategyPriceAtMost:            "price_at_most",
	StrategyUnsupportedCombination: "unsupported_combination",
}

// String implements fmt.Stringer.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// SelectStrategy maps the presence of each filter input to one strategy.
// The cases are disjoint; every one of the eight combinations is covered.
func SelectStrategy(f SearchFilter) Strategy {
	hasName := f.Name.IsPresent()
	hasMin := f.MinPrice.IsPresent()
	hasMax := f.MaxPrice.IsPresent()

	switch {
	case hasName && hasMin && hasMax:
		return StrategyNameAndPriceBetween
	case hasName && !hasMin && !hasMax:
		return StrategyNameContains
	case !hasName && hasMin && hasMax:
		return StrategyPriceBetween
	case !hasName && hasMin && !hasMax:
		return StrategyPriceAtLeast
	case !hasName && !hasMin && hasMax:
		return StrategyPriceAtMost
	case hasName:
		return StrategyUnsupportedCombination
	default:
		return StrategyAll
	}
}
