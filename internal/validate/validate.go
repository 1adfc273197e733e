// Package validate gates products on the fields a listing must carry
// before it can be published.
package validate

import "github.com/gearloft/bulklister/internal/models"

// Product reports whether the form holds the required listing fields:
// title, brand, model, and a positive price.
func Product(form models.ProductFormData) bool {
	return form.Title != "" &&
		form.Brand != "" &&
		form.Model != "" &&
		form.Price > 0
}

// Deliverable reports whether at least one delivery option is enabled.
// Required for a publishable product but surfaced separately from the
// required-field gate.
func Deliverable(form models.ProductFormData) bool {
	return form.ShippingEnabled || form.PickupEnabled
}

// Refresh recomputes the product's derived validity from its current form
// data. Every form mutation must flow through here so IsValid never goes
// stale.
func Refresh(p *models.Product) {
	p.IsValid = Product(p.FormData)
}

// CountValid returns the number of publish-ready products. Publish is
// disabled while this is zero.
func CountValid(products []*models.Product) int {
	count := 0
	for _, p := range products {
		if p.IsValid {
			count++
		}
	}
	return count
}
