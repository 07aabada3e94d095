package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"boutique/internal/domain"
	"boutique/internal/repos"
	"boutique/internal/validate"
)

type CatalogService struct {
	DB      *sqlx.DB
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Entries *repos.StockEntryRepo
	opt     Options
}

func NewCatalogService(db *sqlx.DB, cats *repos.CategoryRepo, prods *repos.ProductRepo, entries *repos.StockEntryRepo, opt Options) *CatalogService {
	return &CatalogService{DB: db, Cats: cats, Prods: prods, Entries: entries, opt: opt.withDefaults()}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	return s.Cats.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor *domain.User, name string) (domain.Category, error) {
	if err := authorize(actor, domain.CapManageCategories); err != nil {
		return domain.Category{}, err
	}
	name, ok := validate.Name(name, 120)
	if !ok {
		return domain.Category{}, domain.Invalidf("category name is required")
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	c := domain.Category{Name: name}
	if err := s.Cats.Create(ctx, &c); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, actor *domain.User, id string) error {
	if err := authorize(actor, domain.CapManageCategories); err != nil {
		return err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	return s.Cats.Delete(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, q, categoryID string) ([]domain.Product, error) {
	q, ok := validate.Q(q)
	if !ok {
		return nil, domain.Invalidf("search contains unsupported characters")
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	return s.Prods.List(ctx, repos.ProductFilter{Q: q, CategoryID: categoryID})
}

func (s *CatalogService) LowStock(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	return s.Prods.ListLowStock(ctx, s.opt.LowStockThreshold)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	return s.Prods.Get(ctx, id)
}

// ProductInput is the editable part of a product. InitialStock is only
// honoured on create.
type ProductInput struct {
	Name         string          `json:"name" validate:"required,max=200"`
	CategoryID   string          `json:"categoryId" validate:"required,rid"`
	SKU          string          `json:"sku" validate:"required,sku"`
	BuyingPrice  decimal.Decimal `json:"buyingPrice" validate:"gte=0"`
	SellingPrice decimal.Decimal `json:"sellingPrice" validate:"gte=0"`
	InitialStock int             `json:"initialStock" validate:"gte=0,lte=100000"`
}

// check normalises the input in place and validates it. SKUs are stored
// upper-case so uniqueness ignores case.
func (in *ProductInput) check() error {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	if err := validate.Struct(in); err != nil {
		return err
	}
	if !validate.Money(in.BuyingPrice) {
		return domain.Invalidf("buyingPrice must be a non-negative amount with at most 2 decimals")
	}
	if !validate.Money(in.SellingPrice) {
		return domain.Invalidf("sellingPrice must be a non-negative amount with at most 2 decimals")
	}
	return nil
}

func (s *CatalogService) categoryExists(ctx context.Context, id string) error {
	if _, err := s.Cats.Get(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalidf("unknown category %q", id)
		}
		return err
	}
	return nil
}

// CreateProduct stores a new product. Opening stock is recorded as a stock
// entry by the actor in the same transaction.
func (s *CatalogService) CreateProduct(ctx context.Context, actor *domain.User, in ProductInput) (domain.Product, error) {
	if err := authorize(actor, domain.CapManageCatalog); err != nil {
		return domain.Product{}, err
	}
	if err := in.check(); err != nil {
		return domain.Product{}, err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	if err := s.categoryExists(ctx, in.CategoryID); err != nil {
		return domain.Product{}, err
	}

	var p domain.Product
	err := repos.InTx(ctx, s.DB, s.opt.Retries, func(tx *sqlx.Tx) error {
		now := s.opt.Now().UTC()
		p = domain.Product{
			CategoryID:   in.CategoryID,
			Name:         in.Name,
			SKU:          in.SKU,
			BuyingPrice:  in.BuyingPrice,
			SellingPrice: in.SellingPrice,
			Stock:        in.InitialStock,
			CreatedAt:    now,
		}
		if err := s.Prods.Create(ctx, tx, &p); err != nil {
			return err
		}
		if in.InitialStock == 0 {
			return nil
		}
		by := actor.Actor()
		return s.Entries.Insert(ctx, tx, &domain.StockEntry{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    in.InitialStock,
			AddedBy:     by.Name,
			AddedByID:   by.ID,
			Date:        now,
		})
	})
	if err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(ctx, p.ID)
}

// UpdateProduct changes name, category, SKU and prices. Stock only moves
// through AddStock and MakeSale.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor *domain.User, id string, in ProductInput) (domain.Product, error) {
	if err := authorize(actor, domain.CapManageCatalog); err != nil {
		return domain.Product{}, err
	}
	in.InitialStock = 0
	if err := in.check(); err != nil {
		return domain.Product{}, err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	if err := s.categoryExists(ctx, in.CategoryID); err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		ID:           id,
		CategoryID:   in.CategoryID,
		Name:         in.Name,
		SKU:          in.SKU,
		BuyingPrice:  in.BuyingPrice,
		SellingPrice: in.SellingPrice,
		UpdatedAt:    s.opt.Now().UTC(),
	}
	if err := s.Prods.Update(ctx, &p); err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actor *domain.User, id string) error {
	if err := authorize(actor, domain.CapManageCatalog); err != nil {
		return err
	}
	ctx, cancel := s.opt.timeout(ctx)
	defer cancel()
	return s.Prods.Delete(ctx, id)
}
