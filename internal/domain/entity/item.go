package entity

import "github.com/shopspring/decimal"

// ItemKind distingue productos terminados de ingredientes (insumos de cocina).
type ItemKind string

const (
	ItemKindProduct    ItemKind = "producto"
	ItemKindIngredient ItemKind = "ingrediente"
)

// Valid indica si el tipo de ítem es conocido.
func (k ItemKind) Valid() bool {
	return k == ItemKindProduct || k == ItemKindIngredient
}

// CatalogItem es la vista que el catálogo entrega al ledger: tipo, costo y si maneja lotes.
// El catálogo es dueño del ítem; el ledger solo referencia su id.
type CatalogItem struct {
	ID         string
	Kind       ItemKind
	Name       string
	Unit       string
	UnitCost   decimal.Decimal
	TracksLots bool
}
