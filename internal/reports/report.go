// Package reports turns sales and the product catalog into revenue, profit
// and ranking figures. Everything here is pure; callers load the data.
package reports

import (
	"slices"

	"github.com/shopspring/decimal"

	"boutique/internal/domain"
)

const DefaultTopN = 5

var hundred = decimal.NewFromInt(100)

type Summary struct {
	Transactions      int             `json:"transactions"`
	Revenue           decimal.Decimal `json:"revenue"`
	Profit            decimal.Decimal `json:"profit"`
	ItemsSold         int             `json:"itemsSold"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	ProfitMargin      decimal.Decimal `json:"profitMargin"`
}

type ProductRank struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type CategoryRank struct {
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type InventoryStatus struct {
	Products   int             `json:"products"`
	TotalStock int             `json:"totalStock"`
	LowStock   int             `json:"lowStock"`
	StockValue decimal.Decimal `json:"stockValue"` // at buying price
}

type Report struct {
	Window        Window          `json:"window"`
	Summary       Summary         `json:"summary"`
	TopProducts   []ProductRank   `json:"topProducts"`
	TopCategories []CategoryRank  `json:"topCategories"`
	Inventory     InventoryStatus `json:"inventory"`
}

type Options struct {
	TopN              int
	LowStockThreshold int
}

// Build aggregates the sales that fall inside w. Sales must be in insertion
// order; ties in the rankings keep that order.
func Build(sales []domain.Sale, products []domain.Product, w Window, opt Options) Report {
	if opt.TopN <= 0 {
		opt.TopN = DefaultTopN
	}
	in := make([]domain.Sale, 0, len(sales))
	for _, s := range sales {
		if w.Contains(s.Date) {
			in = append(in, s)
		}
	}
	byID := Index(products)
	return Report{
		Window:        w,
		Summary:       Summarize(in, byID),
		TopProducts:   TopProducts(in, opt.TopN),
		TopCategories: TopCategories(in, byID, opt.TopN),
		Inventory:     Inventory(products, opt.LowStockThreshold),
	}
}

func Index(products []domain.Product) map[string]domain.Product {
	m := make(map[string]domain.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

// Summarize computes totals. Profit uses each product's current buying
// price; sales of deleted products add revenue but no profit.
func Summarize(sales []domain.Sale, products map[string]domain.Product) Summary {
	s := Summary{
		Revenue:           decimal.Zero,
		Profit:            decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ProfitMargin:      decimal.Zero,
	}
	for _, sale := range sales {
		s.Transactions++
		s.ItemsSold += sale.Quantity
		s.Revenue = s.Revenue.Add(sale.Total)
		if p, ok := products[sale.ProductID]; ok {
			unit := sale.SellingPrice.Sub(p.BuyingPrice)
			s.Profit = s.Profit.Add(unit.Mul(decimal.NewFromInt(int64(sale.Quantity))))
		}
	}
	if s.Transactions > 0 {
		s.AverageOrderValue = s.Revenue.Div(decimal.NewFromInt(int64(s.Transactions))).Round(2)
	}
	if !s.Revenue.IsZero() {
		s.ProfitMargin = s.Profit.Div(s.Revenue).Mul(hundred).Round(1)
	}
	return s
}

func TopProducts(sales []domain.Sale, n int) []ProductRank {
	idx := map[string]int{}
	var out []ProductRank
	for _, s := range sales {
		i, ok := idx[s.ProductID]
		if !ok {
			i = len(out)
			idx[s.ProductID] = i
			out = append(out, ProductRank{ProductID: s.ProductID, ProductName: s.ProductName, Revenue: decimal.Zero})
		}
		out[i].Quantity += s.Quantity
		out[i].Revenue = out[i].Revenue.Add(s.Total)
	}
	slices.SortStableFunc(out, func(a, b ProductRank) int { return b.Revenue.Cmp(a.Revenue) })
	return head(out, n)
}

// TopCategories groups by the product's current category. Sales whose
// product no longer exists are left out.
func TopCategories(sales []domain.Sale, products map[string]domain.Product, n int) []CategoryRank {
	idx := map[string]int{}
	var out []CategoryRank
	for _, s := range sales {
		p, ok := products[s.ProductID]
		if !ok {
			continue
		}
		i, ok := idx[p.Category]
		if !ok {
			i = len(out)
			idx[p.Category] = i
			out = append(out, CategoryRank{Category: p.Category, Revenue: decimal.Zero})
		}
		out[i].Quantity += s.Quantity
		out[i].Revenue = out[i].Revenue.Add(s.Total)
	}
	slices.SortStableFunc(out, func(a, b CategoryRank) int { return b.Revenue.Cmp(a.Revenue) })
	return head(out, n)
}

func Inventory(products []domain.Product, lowStock int) InventoryStatus {
	st := InventoryStatus{Products: len(products), StockValue: decimal.Zero}
	for _, p := range products {
		st.TotalStock += p.Stock
		if p.Stock < lowStock {
			st.LowStock++
		}
		st.StockValue = st.StockValue.Add(p.BuyingPrice.Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	return st
}

func head[T any](xs []T, n int) []T {
	if xs == nil {
		return []T{}
	}
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}
