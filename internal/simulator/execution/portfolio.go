package execution

// Portfolio tracks the cash balance and asset holding of a simulation run.
// Only the order executor mutates it; everything else reads snapshots.
type Portfolio struct {
	initialBalance float64
	balance        float64
	assetAmount    float64
}

// NewPortfolio creates a portfolio holding only cash.
func NewPortfolio(initialBalance float64) *Portfolio {
	return &Portfolio{
		initialBalance: initialBalance,
		balance:        initialBalance,
	}
}

// Balance returns the current cash balance.
func (p *Portfolio) Balance() float64 {
	return p.balance
}

// AssetAmount returns the current asset holding.
func (p *Portfolio) AssetAmount() float64 {
	return p.assetAmount
}

// InitialBalance returns the starting cash balance.
func (p *Portfolio) InitialBalance() float64 {
	return p.initialBalance
}

// TotalValue returns cash plus the holding marked at the given price.
func (p *Portfolio) TotalValue(price float64) float64 {
	return p.balance + p.assetAmount*price
}

// Reset restores the portfolio to its initial all-cash state.
func (p *Portfolio) Reset() {
	p.balance = p.initialBalance
	p.assetAmount = 0
}

// applyBuy debits cash and credits the asset. The executor validates
// affordability before calling, so both mutations always land together.
func (p *Portfolio) applyBuy(totalCost, amount float64) {
	p.balance -= totalCost
	p.assetAmount += amount
}

// applySell credits net proceeds and debits the asset.
func (p *Portfolio) applySell(netProceeds, amount float64) {
	p.balance += netProceeds
	p.assetAmount -= amount
}
