package domain

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleSales Role = "SALES"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleSales }

type User struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Hash  string `db:"password_hash" json:"-"`
	Role  Role   `db:"role" json:"role"`
}

func (u *User) Actor() Actor { return Actor{ID: u.ID, Name: u.Name} }

func (u *User) Can(c Capability) bool {
	if u == nil {
		return false
	}
	return CapabilitiesFor(u.Role).Has(c)
}

type Capability string

const (
	CapViewCatalog      Capability = "view_catalog"
	CapManageCatalog    Capability = "manage_catalog"
	CapManageCategories Capability = "manage_categories"
	CapAddStock         Capability = "add_stock"
	CapViewStockHistory Capability = "view_stock_history"
	CapMakeSale         Capability = "make_sale"
	CapViewAllSales     Capability = "view_all_sales"
	CapViewCost         Capability = "view_cost"
	CapViewReports      Capability = "view_reports"
	CapManageUsers      Capability = "manage_users"
)

type Capabilities map[Capability]bool

func (cs Capabilities) Has(c Capability) bool { return cs[c] }

// List returns the capabilities in a fixed order.
func (cs Capabilities) List() []Capability {
	out := make([]Capability, 0, len(cs))
	for _, c := range allCapabilities {
		if cs[c] {
			out = append(out, c)
		}
	}
	return out
}

var allCapabilities = []Capability{
	CapViewCatalog, CapManageCatalog, CapManageCategories, CapAddStock, CapViewStockHistory,
	CapMakeSale, CapViewAllSales, CapViewCost, CapViewReports, CapManageUsers,
}

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapViewCatalog, CapManageCatalog, CapManageCategories, CapAddStock, CapViewStockHistory,
		CapViewAllSales, CapViewCost, CapViewReports, CapManageUsers,
	},
	RoleSales: {CapViewCatalog, CapMakeSale},
}

// CapabilitiesFor returns a fresh capability set; unknown roles get none.
func CapabilitiesFor(r Role) Capabilities {
	cs := Capabilities{}
	for _, c := range roleCapabilities[r] {
		cs[c] = true
	}
	return cs
}
