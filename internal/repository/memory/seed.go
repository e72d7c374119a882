package memory

import (
	"github.com/lib/pq"

	"github.com/example/storefront/internal/models"
)

func discount(v float64) *float64 { return &v }

// SeedDemoCatalog fills an empty store with a small catalog for local runs.
func (s *Store) SeedDemoCatalog() {
	tees := s.AddCategory(models.Category{Name: "T-Shirts"})
	hoodies := s.AddCategory(models.Category{Name: "Hoodies"})
	sale := s.AddCategory(models.Category{Name: "Sale"})

	s.AddProduct(models.Product{
		Name:        "Classic Tee",
		Price:       20,
		Description: "Heavyweight cotton crew neck.",
		Images:      pq.StringArray{"/images/classic-tee.jpg"},
		Sizes:       pq.StringArray{"S", "M", "L", "XL"},
	}, tees.ID)
	s.AddProduct(models.Product{
		Name:        "Pocket Tee",
		Price:       24,
		Description: "Relaxed fit with chest pocket.",
		Images:      pq.StringArray{"/images/pocket-tee.jpg"},
		Discount:    discount(10),
		Sizes:       pq.StringArray{"M", "L"},
	}, tees.ID, sale.ID)
	s.AddProduct(models.Product{
		Name:        "Zip Hoodie",
		Price:       55,
		Description: "Brushed fleece, full zip.",
		Images:      pq.StringArray{"/images/zip-hoodie.jpg"},
		Discount:    discount(20),
		Sizes:       pq.StringArray{"S", "M", "L"},
	}, hoodies.ID, sale.ID)
}
