package catalog

import "time"

var seedCreatedAt = time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)

// SeedProducts returns a fresh copy of the sample catalog.
func SeedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Gaming Laptop", Price: 1299.99, Description: "High-performance laptop with RTX graphics", Category: "Electronics", InStock: true, CreatedAt: seedCreatedAt},
		{ID: 2, Name: "Wireless Mouse", Price: 29.99, Description: "Ergonomic mouse with long battery life", Category: "Electronics", InStock: true, CreatedAt: seedCreatedAt},
		{ID: 3, Name: "Smartphone Pro", Price: 899.00, Description: "Flagship phone with triple camera", Category: "Electronics", InStock: false, CreatedAt: seedCreatedAt},
		{ID: 4, Name: "Office Chair", Price: 249.50, Description: "Adjustable chair with lumbar support", Category: "Furniture", InStock: true, CreatedAt: seedCreatedAt},
		{ID: 5, Name: "Standing Desk", Price: 549.00, Description: "Electric height-adjustable desk", Category: "Furniture", InStock: false, CreatedAt: seedCreatedAt},
		{ID: 6, Name: "Coffee Maker", Price: 79.90, Description: "Drip coffee maker with thermal carafe", Category: "Kitchen", InStock: true, CreatedAt: seedCreatedAt},
		{ID: 7, Name: "Noise Cancelling Headphones", Price: 349.00, Description: "Over-ear headphones, pairs with any phone", Category: "Electronics", InStock: true, CreatedAt: seedCreatedAt},
		{ID: 8, Name: "Chef Knife", Price: 59.00, Description: "8-inch stainless steel knife", Category: "Kitchen", InStock: true, CreatedAt: seedCreatedAt},
	}
}
