package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Product struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"categoryId"`
	Category     string          `json:"category"` // category name, joined on read
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	BuyingPrice  decimal.Decimal `json:"buyingPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Stock        int             `json:"stock"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Margin is the markup over cost as a percentage: (selling - buying) / buying * 100.
// A zero buying price yields zero.
func (p Product) Margin() decimal.Decimal {
	return Margin(p.BuyingPrice, p.SellingPrice)
}

func Margin(buying, selling decimal.Decimal) decimal.Decimal {
	if buying.IsZero() {
		return decimal.Zero
	}
	return selling.Sub(buying).Div(buying).Mul(decimal.NewFromInt(100)).Round(1)
}

// Sale is an append-only record. SellingPrice is the price at the time of sale.
type Sale struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Total        decimal.Decimal `json:"total"`
	SoldBy       string          `json:"soldBy"`
	SoldByID     string          `json:"soldById"`
	Date         time.Time       `json:"date"`
}

// StockEntry records one restock event.
type StockEntry struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	AddedBy     string    `json:"addedBy"`
	AddedByID   string    `json:"addedById"`
	Date        time.Time `json:"date"`
}

// Actor is whoever performs a stock or sale operation.
type Actor struct {
	ID   string
	Name string
}
