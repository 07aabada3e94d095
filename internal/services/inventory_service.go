package services

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"boutique/internal/domain"
	"boutique/internal/reports"
	"boutique/internal/repos"
	"boutique/internal/telemetry"
	"boutique/internal/validate"
)

type InventoryService struct {
	DB      *sqlx.DB
	Prods   *repos.ProductRepo
	Inv     *repos.InventoryRepo
	Entries *repos.StockEntryRepo
	opt     Options
	tracer  trace.Tracer
}

func NewInventoryService(db *sqlx.DB, prods *repos.ProductRepo, inv *repos.InventoryRepo, entries *repos.StockEntryRepo, opt Options) *InventoryService {
	return &InventoryService{DB: db, Prods: prods, Inv: inv, Entries: entries, opt: opt.withDefaults(), tracer: telemetry.Tracer()}
}

// AddStock raises the product's stock by quantity and appends exactly one
// stock entry, both in one transaction.
func (s *InventoryService) AddStock(ctx context.Context, actor *domain.User, productID string, quantity int) (domain.StockEntry, error) {
	ctx, span := s.tracer.Start(ctx, "AddStock", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	entry, err := s.addStock(ctx, actor, productID, quantity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.StockEntry{}, err
	}
	s.opt.Metrics.UnitsRestocked.Add(ctx, int64(quantity))
	return entry, nil
}

func (s *InventoryService) addStock(ctx context.Context, actor *domain.User, productID string, quantity int) (domain.StockEntry, error) {
	if err := authorize(actor, domain.CapAddStock); err != nil {
		return domain.StockEntry{}, err
	}
	if err := validate.Quantity(quantity); err != nil {
		return domain.StockEntry{}, err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()

	var entry domain.StockEntry
	err := repos.InTx(ctx, s.DB, s.opt.Retries, func(tx *sqlx.Tx) error {
		p, err := s.Prods.Lock(ctx, tx, productID)
		if err != nil {
			return err
		}
		now := s.opt.Now().UTC()
		if err := s.Inv.Increment(ctx, tx, p.ID, quantity, now); err != nil {
			return err
		}
		by := actor.Actor()
		entry = domain.StockEntry{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    quantity,
			AddedBy:     by.Name,
			AddedByID:   by.ID,
			Date:        now,
		}
		return s.Entries.Insert(ctx, tx, &entry)
	})
	if err != nil {
		return domain.StockEntry{}, err
	}
	return entry, nil
}

type HistoryQuery struct {
	Period    string
	From, To  string
	ProductID string
	Limit     int
}

// History lists stock entries newest first.
func (s *InventoryService) History(ctx context.Context, actor *domain.User, q HistoryQuery) ([]domain.StockEntry, error) {
	if err := authorize(actor, domain.CapViewStockHistory); err != nil {
		return nil, err
	}
	w, err := reports.Resolve(q.Period, q.From, q.To, s.opt.Now(), s.opt.Location)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	return s.Entries.List(ctx, repos.EntryFilter{From: w.From, To: w.To, ProductID: q.ProductID, Limit: q.Limit})
}
