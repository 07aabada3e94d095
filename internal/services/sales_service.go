package services

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"boutique/internal/domain"
	"boutique/internal/reports"
	"boutique/internal/repos"
	"boutique/internal/telemetry"
	"boutique/internal/validate"
)

type SalesService struct {
	DB     *sqlx.DB
	Prods  *repos.ProductRepo
	Inv    *repos.InventoryRepo
	Sales  *repos.SaleRepo
	opt    Options
	tracer trace.Tracer
}

func NewSalesService(db *sqlx.DB, prods *repos.ProductRepo, inv *repos.InventoryRepo, sales *repos.SaleRepo, opt Options) *SalesService {
	return &SalesService{DB: db, Prods: prods, Inv: inv, Sales: sales, opt: opt.withDefaults(), tracer: telemetry.Tracer()}
}

// MakeSale sells quantity units of a product at its current selling price.
// Nothing is written when stock is short. Every call records a new sale.
func (s *SalesService) MakeSale(ctx context.Context, actor *domain.User, productID string, quantity int) (domain.Sale, error) {
	ctx, span := s.tracer.Start(ctx, "MakeSale", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	sale, err := s.makeSale(ctx, actor, productID, quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Sale{}, err
	}
	span.SetAttributes(attribute.String("sale.id", sale.ID), attribute.String("sale.total", sale.Total.String()))
	s.opt.Metrics.Sales.Add(ctx, 1)
	s.opt.Metrics.UnitsSold.Add(ctx, int64(quantity))
	return sale, nil
}

func (s *SalesService) makeSale(ctx context.Context, actor *domain.User, productID string, quantity int) (domain.Sale, error) {
	if err := authorize(actor, domain.CapMakeSale); err != nil {
		return domain.Sale{}, err
	}
	if err := validate.Quantity(quantity); err != nil {
		return domain.Sale{}, err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()

	var sale domain.Sale
	err := repos.InTx(ctx, s.DB, s.opt.Retries, func(tx *sqlx.Tx) error {
		p, err := s.Prods.Lock(ctx, tx, productID)
		if err != nil {
			return err
		}
		if quantity > p.Stock {
			return &domain.InsufficientStockError{ProductID: p.ID, Requested: quantity, Available: p.Stock}
		}
		now := s.opt.Now().UTC()
		if err := s.Inv.Decrement(ctx, tx, p.ID, quantity, now); err != nil {
			return err
		}
		by := actor.Actor()
		sale = domain.Sale{
			ProductID:    p.ID,
			ProductName:  p.Name,
			Quantity:     quantity,
			SellingPrice: p.SellingPrice,
			Total:        p.SellingPrice.Mul(decimal.NewFromInt(int64(quantity))),
			SoldBy:       by.Name,
			SoldByID:     by.ID,
			Date:         now,
		}
		return s.Sales.Insert(ctx, tx, &sale)
	})
	if err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

type SalesQuery struct {
	Period   string
	From, To string
	Q        string
	Limit    int
}

type SalesTotals struct {
	Amount   decimal.Decimal  `json:"amount"`
	Quantity int              `json:"quantity"`
	Count    int              `json:"count"`
	Profit   *decimal.Decimal `json:"profit,omitempty"`
}

type SalesPage struct {
	Sales  []domain.Sale `json:"sales"`
	Totals SalesTotals   `json:"totals"`
}

// List returns sales newest first. Staff without view_all_sales only see
// their own; profit is only filled in for roles that may see cost.
func (s *SalesService) List(ctx context.Context, actor *domain.User, q SalesQuery) (SalesPage, error) {
	if actor == nil {
		return SalesPage{}, domain.ErrUnauthenticated
	}
	search, ok := validate.Q(q.Q)
	if !ok {
		return SalesPage{}, domain.Invalidf("search contains unsupported characters")
	}
	w, err := reports.Resolve(q.Period, q.From, q.To, s.opt.Now(), s.opt.Location)
	if err != nil {
		return SalesPage{}, err
	}
	f := repos.SaleFilter{From: w.From, To: w.To, Q: search, Limit: q.Limit}
	if !actor.Can(domain.CapViewAllSales) {
		f.SoldByID = actor.ID
	}

	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	sales, err := s.Sales.List(ctx, f)
	if err != nil {
		return SalesPage{}, err
	}

	var products map[string]domain.Product
	if actor.Can(domain.CapViewCost) {
		all, err := s.Prods.List(ctx, repos.ProductFilter{})
		if err != nil {
			return SalesPage{}, err
		}
		products = reports.Index(all)
	}
	sum := reports.Summarize(sales, products)
	page := SalesPage{
		Sales:  sales,
		Totals: SalesTotals{Amount: sum.Revenue, Quantity: sum.ItemsSold, Count: sum.Transactions},
	}
	if products != nil {
		page.Totals.Profit = &sum.Profit
	}
	return page, nil
}

// Get returns one sale. A sale outside the caller's scope reads as not found.
func (s *SalesService) Get(ctx context.Context, actor *domain.User, id string) (domain.Sale, error) {
	if actor == nil {
		return domain.Sale{}, domain.ErrUnauthenticated
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	sale, err := s.Sales.Get(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	if !actor.Can(domain.CapViewAllSales) && sale.SoldByID != actor.ID {
		return domain.Sale{}, fmt.Errorf("get sale %s: %w", id, domain.ErrNotFound)
	}
	return sale, nil
}
