package main

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

func weight(grams int) *int { return &grams }

// seedCatalog gives the in-memory store something to browse.
func seedCatalog(db *models.MemoryDB) {
	for _, p := range []models.Product{
		{Name: "Electric kettle", Description: "1.7 l steel kettle with auto shut-off", Price: decimal.RequireFromString("34.90"), Weight: weight(1200), Stock: 12, Category: "Kitchen"},
		{Name: "Clay teapot", Description: "Hand made red clay teapot", Price: decimal.RequireFromString("18.50"), Weight: weight(450), Stock: 5, Category: "Kitchen"},
		{Name: "Desk lamp", Description: "LED lamp with adjustable arm", Price: decimal.RequireFromString("27.00"), Weight: weight(900), Stock: 8, Category: "Home"},
		{Name: "Wool blanket", Description: "Warm merino wool blanket", Price: decimal.RequireFromString("59.99"), Weight: weight(1500), Stock: 3, Category: "Home"},
		{Name: "Notebook", Description: "A5 dotted notebook", Price: decimal.RequireFromString("4.75"), Stock: 40, Category: "Stationery"},
	} {
		db.AddProduct(p)
	}
}
