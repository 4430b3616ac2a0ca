// Package verification checks a customer's photo of a delivered product
// against the catalog entry of the order.
package verification

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNoImage       = errors.New("image is required")
)

type Product struct {
	OrderID string `json:"order_id"`
	Name    string `json:"name"`
	Barcode string `json:"barcode"`
	Texture string `json:"texture"`
}

// Catalog maps order ids to the product that was shipped.
type Catalog map[string]Product

func DefaultCatalog() Catalog {
	return Catalog{
		"204-6984100-8009958": {OrderID: "204-6984100-8009958", Name: "Folding Step Stool", Barcode: "FSS2024001", Texture: "plastic_matte"},
		"204-6984100-8009959": {OrderID: "204-6984100-8009959", Name: "Heavy Duty Step Stool", Barcode: "HSS2024001", Texture: "industrial_texture"},
		"204-6984100-8009960": {OrderID: "204-6984100-8009960", Name: "Premium Leather Wallet", Barcode: "LW2024GENUINE001", Texture: "leather_grain"},
	}
}

func (c Catalog) Lookup(orderID string) (Product, error) {
	p, ok := c[orderID]
	if !ok {
		return Product{}, ErrOrderNotFound
	}
	return p, nil
}
