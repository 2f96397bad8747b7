package dto

type CustomerResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Points int    `json:"points"`
}

type LoyaltyTransactionResponse struct {
	ID          string  `json:"id"`
	OrderID     *string `json:"order_id,omitempty"`
	Points      int     `json:"points"`
	Type        string  `json:"type"`
	Reason      string  `json:"reason"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

// LoyaltyAuditResponse compares a customer's balance with the sum of the ledger.
type LoyaltyAuditResponse struct {
	CustomerID string `json:"customer_id"`
	Balance    int    `json:"balance"`
	LedgerSum  int    `json:"ledger_sum"`
	Consistent bool   `json:"consistent"`
}
