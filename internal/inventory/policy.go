// Package inventory holds the pure stock arithmetic applied when a sale is
// recorded: simple decrements, on-demand manufacturing of composite variations
// from their raw material, and packaging consumption.
package inventory

// SimpleDecrement returns the stock left after selling qty units of a simple
// product or a non-composite variation. The result never goes below zero.
func SimpleDecrement(current, qty int) int {
	if qty >= current {
		return 0
	}
	return current - qty
}

// CanSell reports whether a non-composite item with stock available can fulfill
// requested units.
func CanSell(available, requested int) bool { return requested <= available }

// RawMaterialNeed is how many raw material units must be consumed to produce at
// least quantity composite units at the given yield. A yield below 1 is treated
// as 1.
func RawMaterialNeed(quantity, yield int) int {
	if quantity <= 0 {
		return 0
	}
	if yield < 1 {
		yield = 1
	}
	return (quantity + yield - 1) / yield
}

// CompositePlan describes what selling a composite variation does to stock.
type CompositePlan struct {
	StockBefore  int
	Sold         int
	Shortfall    int // units not covered by stock on hand
	RawConsumed  int // raw material units consumed to cover the shortfall
	Generated    int // composite units produced by the consumed raw material
	AfterSale    int // stock right after the sale decrement, may be negative
	FinalStock   int // stock once the generated units are added back
	Manufactured bool
}

// PlanComposite computes the effect of selling sold units of a composite
// variation holding stockBefore units, produced yield units per raw material unit.
func PlanComposite(stockBefore, sold, yield int) CompositePlan {
	if yield < 1 {
		yield = 1
	}
	p := CompositePlan{
		StockBefore: stockBefore,
		Sold:        sold,
		AfterSale:   stockBefore - sold,
	}
	p.Shortfall = sold - max(stockBefore, 0)
	if p.Shortfall < 0 {
		p.Shortfall = 0
	}
	if p.Shortfall > 0 {
		p.RawConsumed = RawMaterialNeed(p.Shortfall, yield)
		p.Generated = p.RawConsumed * yield
		p.Manufactured = true
	}
	p.FinalStock = p.AfterSale + p.Generated
	return p
}

// CompositeIncrementNeed is the raw material required when a cart line of a
// composite variation grows to newQty while stock units are on hand. Only the
// part of the line beyond stock has to be manufactured.
func CompositeIncrementNeed(stock, newQty, yield int) int {
	missing := newQty - max(stock, 0)
	if missing <= 0 {
		return 0
	}
	return RawMaterialNeed(missing, yield)
}

// PackagingUsage is the number of packaging units consumed by itemQty units of a
// product linked at perUnit packaging units each.
func PackagingUsage(perUnit, itemQty int) int {
	if perUnit <= 0 || itemQty <= 0 {
		return 0
	}
	return perUnit * itemQty
}

// LowStock reports whether stock after a sale should raise a low-stock alert:
// non-negative and at or below threshold.
func LowStock(after, threshold int) bool {
	return after >= 0 && after <= threshold
}
