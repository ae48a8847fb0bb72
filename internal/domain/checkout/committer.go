// internal/domain/checkout/committer.go
package checkout

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/domain/cart"
	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/inventory"
	"github.com/your-org/tailor-marketplace/internal/domain/order"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"gorm.io/gorm"
)

// StockDecrement is the quantity of one tracked product a group consumes
type StockDecrement struct {
	ProductID uint
	Quantity  int
}

// Commit is everything one seller group writes when it is confirmed
type Commit struct {
	CustomerID  uint
	Snapshot    *order.OrderSnapshot
	Decrements  []StockDecrement
	CartItemIDs []uint
}

// ProductIDs lists the products whose stock the commit touches
func (c *Commit) ProductIDs() []uint {
	ids := make([]uint, 0, len(c.Decrements))
	for _, d := range c.Decrements {
		ids = append(ids, d.ProductID)
	}
	return ids
}

// GormCommitter writes a confirmed group in a single database transaction
type GormCommitter struct {
	db                *gorm.DB
	logger            *logrus.Logger
	lowStockThreshold int
}

// NewGormCommitter creates a new committer. A warning is logged whenever a
// sale takes a product's stock to lowStockThreshold or below.
func NewGormCommitter(db *gorm.DB, logger *logrus.Logger, lowStockThreshold int) *GormCommitter {
	return &GormCommitter{db: db, logger: logger, lowStockThreshold: lowStockThreshold}
}

// Commit persists the snapshot, takes the stock, records the sale
// movements and removes the group's cart lines. Any failure rolls the
// whole group back.
func (c *GormCommitter) Commit(ctx context.Context, cm *Commit) error {
	decrements := slices.Clone(cm.Decrements)
	slices.SortFunc(decrements, func(a, b StockDecrement) int { return cmp.Compare(a.ProductID, b.ProductID) })

	var lowStock []inventory.StockLevel
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := order.CreateSnapshot(tx, cm.Snapshot); err != nil {
			return err
		}

		for _, d := range decrements {
			level, err := catalog.DecrementStock(tx, d.ProductID, d.Quantity)
			if err != nil {
				return err
			}
			if level == nil {
				continue
			}
			if err := inventory.RecordSale(tx, *level, cm.Snapshot.ID); err != nil {
				return err
			}
			if level.LowStock(c.lowStockThreshold) {
				lowStock = append(lowStock, *level)
			}
		}

		if err := cart.DeleteItems(tx, cm.CustomerID, cm.CartItemIDs); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return apperror.NewValidation("cart", "cart changed during checkout, please review it and retry")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, level := range lowStock {
		c.logger.WithFields(logrus.Fields{
			"product_id": level.ProductID,
			"remaining":  level.Current,
			"order_id":   cm.Snapshot.ID,
		}).Warn("Product stock is running low")
	}
	return nil
}
