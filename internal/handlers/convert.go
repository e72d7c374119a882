package handlers

import (
	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/models"
)

func toAPIAddress(a *models.Address) api.Address {
	return api.Address{
		ID:           a.ID,
		Name:         a.Name,
		Address:      a.Address,
		MobileNumber: a.MobileNumber,
		CreatedAt:    a.CreatedAt,
	}
}

func toModelItems(items []api.OrderItem) models.OrderItems {
	out := make(models.OrderItems, len(items))
	for i, it := range items {
		out[i] = models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
			Discount:  it.Discount,
			Size:      it.Size,
		}
	}
	return out
}

func toAPIOrder(o *models.Order) api.Order {
	items := make([]api.OrderItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = api.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
			Discount:  it.Discount,
			Size:      it.Size,
		}
	}
	return api.Order{
		ID:     o.ID,
		UserID: o.UserID,
		Items:  items,
		Total:  o.Total,
		Address: api.ShippingAddress{
			Name:         o.Address.Name,
			Address:      o.Address.Address,
			MobileNumber: o.Address.MobileNumber,
		},
		CreatedAt:         o.CreatedAt,
		NotifiedAt:        o.NotifiedAt,
		NotificationError: o.NotifyError,
	}
}

func toAPICategory(c models.Category) api.Category {
	return api.Category{ID: c.ID, Name: c.Name}
}

func toAPIProduct(p *models.Product) api.Product {
	out := api.Product{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Images:      append([]string{}, p.Images...),
		Discount:    p.Discount,
		Sizes:       append([]string{}, p.Sizes...),
	}
	for _, c := range p.Categories {
		out.Categories = append(out.Categories, toAPICategory(c))
	}
	return out
}

func toAPIProducts(products []models.Product) []api.Product {
	out := make([]api.Product, len(products))
	for i := range products {
		out[i] = toAPIProduct(&products[i])
	}
	return out
}
