// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/tailor-marketplace/internal/domain/cart"
	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/inventory"
	"github.com/your-org/tailor-marketplace/internal/domain/order"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/pkg/money"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		// Catalog - base tables
		&catalog.Seller{},
		&catalog.Product{},

		// Seller configuration
		&seller.BulkDiscountTier{},
		&seller.PricingTier{},
		&seller.Package{},

		// Cart
		&cart.CartLineItem{},

		// Orders - dependent tables
		&order.OrderSnapshot{},
		&order.OrderLine{},
		&order.OrderCharge{},
		&order.AppliedDiscount{},
		&order.Fulfillment{},

		// Stock ledger
		&inventory.StockMovement{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	for _, model := range Models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes and constraints
func (m *Migration) CreateIndexes() error {
	m.logger.Info("Creating additional database indexes")

	statements := []string{
		// Stock can never go negative, whatever path writes it
		`DO $$ BEGIN
			ALTER TABLE products ADD CONSTRAINT chk_products_stock_non_negative CHECK (stock_quantity >= 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_seller_active ON products(seller_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_type ON products(type)",

		// Cart indexes: one line per product or package per customer
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_lines_customer_product ON cart_line_items(customer_id, product_id) WHERE product_id IS NOT NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_lines_customer_package ON cart_line_items(customer_id, package_id) WHERE package_id IS NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_cart_lines_customer_seller ON cart_line_items(customer_id, seller_id)",

		// Package indexes
		"CREATE INDEX IF NOT EXISTS idx_packages_seller_active ON packages(seller_id, is_active)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_order_snapshots_customer_seller ON order_snapshots(customer_id, seller_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_snapshots_created_at ON order_snapshots(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_applied_discounts_source ON applied_discounts(source)",
		"CREATE INDEX IF NOT EXISTS idx_fulfillments_status_updated ON fulfillments(status, updated_at DESC)",

		// Stock ledger
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_product_created ON stock_movements(product_id, created_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, stmt := range statements {
		if err := m.db.Exec(stmt).Error; err != nil {
			m.logger.WithError(err).Warn("Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.logger.WithFields(logrus.Fields{"created": successCount, "failed": failCount}).Info("Indexes created")
	return nil
}

// SeedInitialData inserts a goods seller and a tailor for development
func (m *Migration) SeedInitialData() error {
	m.logger.Info("Seeding initial data")

	var sellerCount int64
	m.db.Model(&catalog.Seller{}).Count(&sellerCount)
	if sellerCount > 0 {
		m.logger.Info("Seed data already exists")
		return nil
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := seedFabricSeller(tx); err != nil {
			return fmt.Errorf("failed to seed fabric seller: %w", err)
		}
		if err := seedTailor(tx); err != nil {
			return fmt.Errorf("failed to seed tailor: %w", err)
		}
		m.logger.Info("Initial data seeded successfully")
		return nil
	})
}

func seedFabricSeller(tx *gorm.DB) error {
	fabrics := catalog.Seller{Name: "Kanchi Fabrics", Kind: catalog.SellerKindGoods, IsActive: true}
	if err := tx.Create(&fabrics).Error; err != nil {
		return err
	}

	products := []catalog.Product{
		{
			SellerID:             fabrics.ID,
			SKU:                  "FAB-COTTON-001",
			Name:                 "Cotton shirting",
			Type:                 catalog.ProductTypeGoods,
			UnitPrice:            35000, // ₹350.00 per meter
			StockQuantity:        500,
			MinimumOrderQuantity: 2,
			TrackQuantity:        true,
			Unit:                 "meter",
			IsActive:             true,
		},
		{
			SellerID:             fabrics.ID,
			SKU:                  "FAB-SILK-001",
			Name:                 "Kanchipuram silk",
			Type:                 catalog.ProductTypeGoods,
			UnitPrice:            240000, // ₹2400.00 per meter
			StockQuantity:        80,
			MinimumOrderQuantity: 1,
			TrackQuantity:        true,
			Unit:                 "meter",
			IsActive:             true,
		},
	}
	if err := tx.Create(&products).Error; err != nil {
		return err
	}

	tiers := []seller.BulkDiscountTier{
		{SellerID: fabrics.ID, MinQuantity: 10, DiscountPercentage: decimal.NewFromInt(5)},
		{SellerID: fabrics.ID, MinQuantity: 50, DiscountPercentage: decimal.NewFromInt(15)},
	}
	return tx.Create(&tiers).Error
}

func seedTailor(tx *gorm.DB) error {
	tailor := catalog.Seller{Name: "Chennai Stitch Studio", Kind: catalog.SellerKindTailor, IsActive: true}
	if err := tx.Create(&tailor).Error; err != nil {
		return err
	}

	services := []catalog.Product{
		{SellerID: tailor.ID, SKU: "TLR-SHIRT", Name: "Shirt stitching", Type: catalog.ProductTypeService, GarmentType: seller.GarmentShirt, UnitPrice: 80000, TrackQuantity: false, Unit: "garment", IsActive: true},
		{SellerID: tailor.ID, SKU: "TLR-TROUSER", Name: "Trouser stitching", Type: catalog.ProductTypeService, GarmentType: seller.GarmentTrouser, UnitPrice: 90000, TrackQuantity: false, Unit: "garment", IsActive: true},
		{SellerID: tailor.ID, SKU: "TLR-BLOUSE", Name: "Saree blouse stitching", Type: catalog.ProductTypeService, GarmentType: seller.GarmentSareeBlouse, UnitPrice: 120000, TrackQuantity: false, Unit: "garment", IsActive: true},
	}
	if err := tx.Create(&services).Error; err != nil {
		return err
	}

	threshold := 3
	minOrders := 5
	now := time.Now().UTC()
	seasonStart := now.AddDate(0, 0, -7)
	seasonEnd := now.AddDate(0, 1, 0)

	tier := seller.PricingTier{
		SellerID:  tailor.ID,
		TierType:  "standard",
		BasePrice: 100000,
		GarmentPricing: seller.GarmentPrices{
			seller.GarmentShirt:       80000,
			seller.GarmentTrouser:     90000,
			seller.GarmentSareeBlouse: 120000,
		},
		AdditionalCharges: map[string]money.Amount{
			"express_delivery": 50000,
			"lining":           25000,
		},
		MinimumOrder: 1,
		MultipleGarments: seller.MultipleGarmentsRule{
			Enabled:    true,
			Threshold:  &threshold,
			Percentage: decimal.NewNullDecimal(decimal.NewFromInt(10)),
		},
		Seasonal: seller.SeasonalRule{
			Enabled:    true,
			Percentage: decimal.NewNullDecimal(decimal.NewFromInt(5)),
			StartDate:  &seasonStart,
			EndDate:    &seasonEnd,
		},
		Corporate: seller.CorporateRule{
			Enabled:       true,
			Percentage:    decimal.NewNullDecimal(decimal.NewFromInt(8)),
			MinimumOrders: &minOrders,
		},
	}
	if err := tx.Create(&tier).Error; err != nil {
		return err
	}

	validUntil := now.AddDate(0, 3, 0)
	pkg := seller.Package{
		SellerID: tailor.ID,
		Name:     "Wedding trio",
		Garments: []seller.PackageGarment{
			{GarmentType: seller.GarmentShirt, Quantity: 1},
			{GarmentType: seller.GarmentTrouser, Quantity: 1},
			{GarmentType: seller.GarmentSareeBlouse, Quantity: 1},
		},
		OriginalPrice: 290000,
		PackagePrice:  250000,
		ValidUntil:    &validUntil,
		IsActive:      true,
	}
	return tx.Create(&pkg).Error
}

// DropAllTables drops every table in reverse dependency order
func (m *Migration) DropAllTables() error {
	m.logger.Warn("Dropping all database tables")

	tables := []string{
		"fulfillments",
		"applied_discounts",
		"order_charges",
		"order_lines",
		"order_snapshots",
		"cart_line_items",
		"packages",
		"pricing_tiers",
		"bulk_discount_tiers",
		"products",
		"sellers",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			m.logger.WithError(err).WithField("table", table).Warn("Failed to drop table")
		} else {
			m.logger.WithField("table", table).Info("Dropped table")
		}
	}
	return nil
}

// GetTableInfo logs the row count of every public table
func (m *Migration) GetTableInfo() error {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count
		m.logger.WithFields(logrus.Fields{"table": table, "records": count}).Debug("Table info")
	}

	m.logger.WithFields(logrus.Fields{"tables": len(tables), "records": totalRecords}).Info("Database tables information")
	return nil
}
