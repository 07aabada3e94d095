package handlers

import (
	"boutique/internal/config"
	"boutique/internal/services"
)

type Deps struct {
	Auth       *services.AuthService
	AuthH      *AuthHandler
	Categories *CategoryHandler
	Products   *ProductHandler
	Inventory  *InventoryHandler
	Sales      *SaleHandler
	Reports    *ReportHandler
	Users      *UserHandler
}

func NewDeps(svc *services.Services, cfg config.Config) *Deps {
	return &Deps{
		Auth:       svc.Auth,
		AuthH:      &AuthHandler{Auth: svc.Auth},
		Categories: &CategoryHandler{Catalog: svc.Catalog},
		Products:   &ProductHandler{Catalog: svc.Catalog},
		Inventory:  &InventoryHandler{Inv: svc.Inventory},
		Sales:      &SaleHandler{Sales: svc.Sales, Store: cfg.StoreName, Currency: cfg.Currency},
		Reports:    &ReportHandler{Reports: svc.Reports},
		Users:      &UserHandler{Auth: svc.Auth},
	}
}
