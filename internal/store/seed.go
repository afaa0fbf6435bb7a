package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// sampleProducts is the demo catalog inserted when the product table is
// empty and seeding is enabled.
var sampleProducts = []Product{
	{ID: 1000, Name: "iPhone 14", Description: "Latest Apple smartphone with advanced features", Price: 999.99, Quantity: 50, AdminUsername: "admin", Category: "Electronics"},
	{ID: 1001, Name: "Samsung Galaxy S23", Description: "Premium Android smartphone", Price: 899.99, Quantity: 30, AdminUsername: "admin", Category: "Electronics"},
	{ID: 1002, Name: "Pizza Margherita", Description: "Classic Italian pizza with fresh ingredients", Price: 12.99, Quantity: 100, AdminUsername: "admin", Category: "Food"},
	{ID: 1003, Name: "Nike Air Max", Description: "Comfortable running shoes", Price: 129.99, Quantity: 25, AdminUsername: "admin", Category: "Clothing"},
	{ID: 1004, Name: "Java Programming Book", Description: "Complete guide to Java programming", Price: 49.99, Quantity: 15, AdminUsername: "admin", Category: "Books"},
	{ID: 1005, Name: "Coffee Maker", Description: "Automatic drip coffee maker", Price: 79.99, Quantity: 20, AdminUsername: "admin", Category: "Home"},
	{ID: 1006, Name: "Football", Description: "Professional quality football", Price: 29.99, Quantity: 40, AdminUsername: "admin", Category: "Sports"},
}

// SeedSampleProducts inserts the demo catalog when the table is empty.
func (s *Products) SeedSampleProducts(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("products already exist, skipping seed", zap.Int("count", count))
		return nil
	}

	for i := range sampleProducts {
		p := sampleProducts[i]
		if err := s.Create(ctx, &p); err != nil {
			return fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}
	logger.Info("sample products seeded", zap.Int("count", len(sampleProducts)))
	return nil
}
