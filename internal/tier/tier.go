// Package tier defines the fixed subscription tier catalog and its mapping
// to payment-provider plan references.
package tier

import (
	"errors"
	"strings"
)

// Tier identifies a subscription plan.
type Tier string

const (
	Clashaholic Tier = "CLASHAHOLIC"
	NeedCoffee  Tier = "I_NEED_COFFEE"
	LoveCoffee  Tier = "I_LOVE_COFFEE"
	LikeCoffee  Tier = "I_LIKE_COFFEE"
)

var (
	ErrUnknownTier    = errors.New("unknown tier")
	ErrUnknownPlanRef = errors.New("unknown plan reference")
)

// Definition describes one tier of the catalog.
type Definition struct {
	ID         Tier
	Name       string
	PlanRef    string
	PriceCents int64
	Features   []string
}

// The catalog is a total bijection between tiers and provider plan
// references. An unrecognized plan reference is a data-integrity error and
// must never fall back to a default tier.
var catalog = []Definition{
	{
		ID:         Clashaholic,
		Name:       "Clashaholic",
		PlanRef:    "price_1RFjlBHyP3FLprp1stDcSwmc",
		PriceCents: 2999,
		Features: []string{
			"Two bags of freshly roasted single-origin beans every month",
			"Exclusive access to limited small-batch roasts",
			"Free delivery to your doorstep",
			"Members-only merch drop",
		},
	},
	{
		ID:         NeedCoffee,
		Name:       "I Need Coffee",
		PlanRef:    "price_1RFjkhHyP3FLprp1dzlAwJCp",
		PriceCents: 1999,
		Features: []string{
			"Freshly roasted coffee beans every month",
			"Free delivery to your doorstep",
			"Exclusive access to special blends",
		},
	},
	{
		ID:         LoveCoffee,
		Name:       "I Love Coffee",
		PlanRef:    "price_1RFjjOHyP3FLprp1t7p5AOwM",
		PriceCents: 1499,
		Features: []string{
			"Freshly roasted coffee delivered monthly",
			"Free delivery",
			"Discount on future orders",
		},
	},
	{
		ID:         LikeCoffee,
		Name:       "I Like Coffee",
		PlanRef:    "price_1RFjiLHyP3FLprp1YhkDlNA3",
		PriceCents: 999,
		Features: []string{
			"Freshly brewed coffee every month",
			"Free delivery",
		},
	},
}

var (
	byTier    = make(map[Tier]Definition, len(catalog))
	byPlanRef = make(map[string]Definition, len(catalog))
)

func init() {
	for _, def := range catalog {
		if _, dup := byTier[def.ID]; dup {
			panic("tier: duplicate tier id " + string(def.ID))
		}
		if _, dup := byPlanRef[def.PlanRef]; dup {
			panic("tier: duplicate plan ref " + def.PlanRef)
		}
		byTier[def.ID] = def
		byPlanRef[def.PlanRef] = def
	}
}

// All returns the catalog in display order.
func All() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// ByID resolves a tier identifier to its definition.
func ByID(id Tier) (Definition, error) {
	def, ok := byTier[id]
	if !ok {
		return Definition{}, ErrUnknownTier
	}
	return def, nil
}

// Parse resolves a raw tier string to its definition.
func Parse(raw string) (Definition, error) {
	return ByID(Tier(strings.ToUpper(strings.TrimSpace(raw))))
}

// ByPlanRef resolves a provider plan reference to its tier definition.
func ByPlanRef(ref string) (Definition, error) {
	def, ok := byPlanRef[strings.TrimSpace(ref)]
	if !ok {
		return Definition{}, ErrUnknownPlanRef
	}
	return def, nil
}

// PlanRef returns the provider plan reference for a tier.
func PlanRef(id Tier) (string, error) {
	def, err := ByID(id)
	if err != nil {
		return "", err
	}
	return def.PlanRef, nil
}
