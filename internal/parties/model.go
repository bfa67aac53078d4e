// Package parties is the directory of customers, vendors and suppliers
// whose balances the ledger tracks.
package parties

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type classifies a counterparty.
type Type string

const (
	TypeCustomer Type = "customer"
	TypeVendor   Type = "vendor"
	TypeSupplier Type = "supplier"
)

// Party is a counterparty with its stored opening balance snapshot.
type Party struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Type           Type            `json:"type"`
	Phone          *string         `json:"phone,omitempty"`
	Email          *string         `json:"email,omitempty"`
	Address        *string         `json:"address,omitempty"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
