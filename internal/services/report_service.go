package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"boutique/internal/domain"
	"boutique/internal/reports"
	"boutique/internal/repos"
	"boutique/internal/telemetry"
)

const recentLimit = 5

type ReportService struct {
	Prods   *repos.ProductRepo
	Sales   *repos.SaleRepo
	Entries *repos.StockEntryRepo
	opt     Options
	tracer  trace.Tracer
}

func NewReportService(prods *repos.ProductRepo, sales *repos.SaleRepo, entries *repos.StockEntryRepo, opt Options) *ReportService {
	return &ReportService{Prods: prods, Sales: sales, Entries: entries, opt: opt.withDefaults(), tracer: telemetry.Tracer()}
}

type ReportQuery struct {
	Period   string
	From, To string
	Top      int
}

func (s *ReportService) Report(ctx context.Context, actor *domain.User, q ReportQuery) (reports.Report, error) {
	ctx, span := s.tracer.Start(ctx, "Report", trace.WithAttributes(attribute.String("period", q.Period)))
	defer span.End()

	r, err := s.report(ctx, actor, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return reports.Report{}, err
	}
	span.SetAttributes(attribute.Int("sales", r.Summary.Transactions))
	return r, nil
}

func (s *ReportService) report(ctx context.Context, actor *domain.User, q ReportQuery) (reports.Report, error) {
	if err := authorize(actor, domain.CapViewReports); err != nil {
		return reports.Report{}, err
	}
	if q.Period == "" && q.From == "" && q.To == "" {
		q.Period = string(reports.PeriodMonth)
	}
	w, err := reports.Resolve(q.Period, q.From, q.To, s.opt.Now(), s.opt.Location)
	if err != nil {
		return reports.Report{}, err
	}
	if q.Top <= 0 || q.Top > 50 {
		q.Top = reports.DefaultTopN
	}

	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	sales, err := s.Sales.List(ctx, repos.SaleFilter{From: w.From, To: w.To, Oldest: true})
	if err != nil {
		return reports.Report{}, err
	}
	products, err := s.Prods.List(ctx, repos.ProductFilter{})
	if err != nil {
		return reports.Report{}, err
	}
	return reports.Build(sales, products, w, reports.Options{TopN: q.Top, LowStockThreshold: s.opt.LowStockThreshold}), nil
}

type Dashboard struct {
	TotalProducts     int                 `json:"totalProducts"`
	TotalStock        int                 `json:"totalStock"`
	TodaySales        decimal.Decimal     `json:"todaySales"`
	TodayCount        int                 `json:"todayCount"`
	TotalProfit       *decimal.Decimal    `json:"totalProfit,omitempty"`
	MySalesTotal      *decimal.Decimal    `json:"mySalesTotal,omitempty"`
	MySalesCount      *int                `json:"mySalesCount,omitempty"`
	LowStock          []domain.Product    `json:"lowStock"`
	LowStockThreshold int                 `json:"lowStockThreshold"`
	RecentSales       []domain.Sale       `json:"recentSales"`
	RecentStock       []domain.StockEntry `json:"recentStock,omitempty"`
}

// Dashboard summarises the store for the caller's role. Admins get all-time
// profit and recent restocks; sales staff get their own totals and sales.
func (s *ReportService) Dashboard(ctx context.Context, actor *domain.User) (Dashboard, error) {
	if actor == nil {
		return Dashboard{}, domain.ErrUnauthenticated
	}
	today, err := reports.PeriodWindow(reports.PeriodToday, s.opt.Now(), s.opt.Location)
	if err != nil {
		return Dashboard{}, err
	}

	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	products, err := s.Prods.List(ctx, repos.ProductFilter{})
	if err != nil {
		return Dashboard{}, err
	}
	low, err := s.Prods.ListLowStock(ctx, s.opt.LowStockThreshold)
	if err != nil {
		return Dashboard{}, err
	}
	todaySales, err := s.Sales.List(ctx, repos.SaleFilter{From: today.From, To: today.To})
	if err != nil {
		return Dashboard{}, err
	}
	inv := reports.Inventory(products, s.opt.LowStockThreshold)
	todaySum := reports.Summarize(todaySales, nil)

	d := Dashboard{
		TotalProducts:     inv.Products,
		TotalStock:        inv.TotalStock,
		TodaySales:        todaySum.Revenue,
		TodayCount:        todaySum.Transactions,
		LowStock:          low,
		LowStockThreshold: s.opt.LowStockThreshold,
	}

	recent := repos.SaleFilter{Limit: recentLimit}
	if actor.Can(domain.CapViewAllSales) {
		all, err := s.Sales.List(ctx, repos.SaleFilter{})
		if err != nil {
			return Dashboard{}, err
		}
		if actor.Can(domain.CapViewCost) {
			profit := reports.Summarize(all, reports.Index(products)).Profit
			d.TotalProfit = &profit
		}
	} else {
		recent.SoldByID = actor.ID
		mine, err := s.Sales.List(ctx, repos.SaleFilter{SoldByID: actor.ID})
		if err != nil {
			return Dashboard{}, err
		}
		sum := reports.Summarize(mine, nil)
		d.MySalesTotal = &sum.Revenue
		d.MySalesCount = &sum.Transactions
	}

	if d.RecentSales, err = s.Sales.List(ctx, recent); err != nil {
		return Dashboard{}, err
	}
	if actor.Can(domain.CapViewStockHistory) {
		if d.RecentStock, err = s.Entries.List(ctx, repos.EntryFilter{Limit: recentLimit}); err != nil {
			return Dashboard{}, err
		}
	}
	return d, nil
}
