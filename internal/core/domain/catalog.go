package domain

import "github.com/govalues/decimal"

// CatalogItem is a menu entry as supplied by the menu catalog.
type CatalogItem struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Category  string
	Available bool
}
