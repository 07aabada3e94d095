package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"boutique/internal/domain"
	applog "boutique/internal/log"
)

// OpenDB connects, creates the schema and seeds staff users and the base
// categories. Seeding is idempotent and safe on every start.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverPgx, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one connection: keeps :memory: databases shared and writers serialised
		db.SetMaxOpenConns(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := seedUsers(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := seedCategories(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type dialect struct {
	money    string
	pragmas  []string
	indexDDL func(name, table, cols string) string
}

func dialectFor(driver string) dialect {
	switch driver {
	case DriverPgx:
		return dialect{
			money: "NUMERIC(14,2)",
			indexDDL: func(name, table, cols string) string {
				return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", name, table, cols)
			},
		}
	case DriverMySQL:
		return dialect{
			money: "DECIMAL(14,2)",
			indexDDL: func(name, table, cols string) string {
				return fmt.Sprintf("CREATE INDEX %s ON %s(%s)", name, table, cols)
			},
		}
	default:
		return dialect{
			money:   "TEXT",
			pragmas: []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"},
			indexDDL: func(name, table, cols string) string {
				return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", name, table, cols)
			},
		}
	}
}

func ensureSchema(ctx context.Context, db *sqlx.DB) error {
	d := dialectFor(db.DriverName())
	money := d.money

	stmts := append([]string{}, d.pragmas...)
	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS categories(
  id VARCHAR(64) PRIMARY KEY,
  name VARCHAR(120) NOT NULL,
  name_key VARCHAR(120) NOT NULL UNIQUE,
  created_at VARCHAR(32) NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS products(
  id VARCHAR(64) PRIMARY KEY,
  category_id VARCHAR(64) NOT NULL REFERENCES categories(id),
  name VARCHAR(200) NOT NULL,
  sku VARCHAR(64) NOT NULL UNIQUE,
  buying_price `+money+` NOT NULL CHECK (buying_price >= 0),
  selling_price `+money+` NOT NULL CHECK (selling_price >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at VARCHAR(32) NOT NULL,
  updated_at VARCHAR(32) NOT NULL
)`,
		// product_id is a plain reference so history survives product deletion
		`CREATE TABLE IF NOT EXISTS sales(
  id VARCHAR(64) PRIMARY KEY,
  product_id VARCHAR(64) NOT NULL,
  product_name VARCHAR(200) NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  selling_price `+money+` NOT NULL,
  total `+money+` NOT NULL,
  sold_by VARCHAR(120) NOT NULL,
  sold_by_id VARCHAR(64) NOT NULL,
  created_at VARCHAR(32) NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS stock_entries(
  id VARCHAR(64) PRIMARY KEY,
  product_id VARCHAR(64) NOT NULL,
  product_name VARCHAR(200) NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  added_by VARCHAR(120) NOT NULL,
  added_by_id VARCHAR(64) NOT NULL,
  created_at VARCHAR(32) NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS users(
  id VARCHAR(64) PRIMARY KEY,
  email VARCHAR(254) NOT NULL UNIQUE,
  name VARCHAR(120) NOT NULL,
  password_hash VARCHAR(100) NOT NULL,
  role VARCHAR(16) NOT NULL CHECK (role IN ('ADMIN','SALES')),
  created_at VARCHAR(32) NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS sessions(
  id VARCHAR(64) PRIMARY KEY,
  user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at VARCHAR(32) NOT NULL,
  last_seen VARCHAR(32) NOT NULL
)`,
	)
	for _, ix := range [][3]string{
		{"idx_products_category", "products", "category_id"},
		{"idx_products_name", "products", "name"},
		{"idx_sales_created_at", "sales", "created_at"},
		{"idx_sales_sold_by", "sales", "sold_by_id"},
		{"idx_stock_entries_created_at", "stock_entries", "created_at"},
		{"idx_stock_entries_product", "stock_entries", "product_id"},
		{"idx_sessions_user", "sessions", "user_id"},
	} {
		stmts = append(stmts, d.indexDDL(ix[0], ix[1], ix[2]))
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			if isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// seedUsers ensures the admin and two sales staff exist.
func seedUsers(ctx context.Context, db *sqlx.DB) error {
	users := []struct {
		id, email, name string
		role            domain.Role
	}{
		{"u-admin", "admin@boutique.test", "Admin", domain.RoleAdmin},
		{"u-jane", "jane@boutique.test", "Jane", domain.RoleSales},
		{"u-tom", "tom@boutique.test", "Tom", domain.RoleSales},
	}
	repo := NewUserRepo(db)
	created := 0
	for _, x := range users {
		var n int
		if err := db.GetContext(ctx, &n, db.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`), x.email); err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		h, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := &domain.User{ID: x.id, Email: x.email, Name: x.name, Role: x.role, Hash: string(h)}
		if err := repo.Create(ctx, u); err != nil {
			return err
		}
		created++
	}
	if created > 0 {
		applog.Info(nil, "seed.users", map[string]any{"created": created})
	}
	return nil
}

var seedCategoryNames = []struct{ id, name string }{
	{"cat-dresses", "Dresses"},
	{"cat-shirts", "Shirts"},
	{"cat-trousers", "Trousers"},
	{"cat-shoes", "Shoes"},
	{"cat-accessories", "Accessories"},
}

func seedCategories(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	repo := NewCategoryRepo(db)
	for _, c := range seedCategoryNames {
		if err := repo.Create(ctx, &domain.Category{ID: c.id, Name: c.name}); err != nil {
			return err
		}
	}
	applog.Info(nil, "seed.categories", map[string]any{"created": len(seedCategoryNames)})
	return nil
}

// SeedDemoCatalog adds a handful of products with opening stock when the
// catalog is empty. Opening stock is recorded as stock entries by the admin.
func SeedDemoCatalog(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	admin := domain.Actor{ID: "u-admin", Name: "Admin"}
	demo := []struct {
		cat, name, sku string
		buy, sell      int64
		stock          int
	}{
		{"cat-dresses", "Floral Maxi Dress", "DRS-001", 1800, 3200, 12},
		{"cat-dresses", "Little Black Dress", "DRS-002", 2200, 3900, 4},
		{"cat-shirts", "Linen Shirt", "SHT-001", 900, 1600, 20},
		{"cat-shirts", "Denim Shirt", "SHT-002", 1100, 1900, 3},
		{"cat-trousers", "Chino Trousers", "TRS-001", 1200, 2100, 15},
		{"cat-shoes", "Leather Loafers", "SHO-001", 2500, 4500, 6},
		{"cat-accessories", "Silk Scarf", "ACC-001", 400, 850, 25},
	}
	products := NewProductRepo(db)
	entries := NewStockEntryRepo(db)
	err := InTx(ctx, db, 0, func(tx *sqlx.Tx) error {
		for _, d := range demo {
			p := &domain.Product{
				CategoryID:   d.cat,
				Name:         d.name,
				SKU:          d.sku,
				BuyingPrice:  decimal.NewFromInt(d.buy),
				SellingPrice: decimal.NewFromInt(d.sell),
				Stock:        d.stock,
			}
			if err := products.Create(ctx, tx, p); err != nil {
				return err
			}
			e := &domain.StockEntry{ProductID: p.ID, ProductName: p.Name, Quantity: d.stock, AddedBy: admin.Name, AddedByID: admin.ID}
			if err := entries.Insert(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	applog.Info(nil, "seed.products", map[string]any{"created": len(demo)})
	return nil
}

func normalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
