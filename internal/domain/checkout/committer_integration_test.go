//go:build integration

package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/your-org/tailor-marketplace/internal/domain/cart"
	"github.com/your-org/tailor-marketplace/internal/domain/catalog"
	"github.com/your-org/tailor-marketplace/internal/domain/discount"
	"github.com/your-org/tailor-marketplace/internal/domain/inventory"
	"github.com/your-org/tailor-marketplace/internal/domain/order"
	"github.com/your-org/tailor-marketplace/internal/domain/seller"
	"github.com/your-org/tailor-marketplace/internal/infrastructure/database/postgres"
	"github.com/your-org/tailor-marketplace/internal/pkg/apperror"
	"github.com/your-org/tailor-marketplace/internal/pkg/telemetry"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("marketplace"),
		tcpostgres.WithUsername("marketplace"),
		tcpostgres.WithPassword("marketplace"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := telemetry.OpenDB(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	migration := postgres.NewMigration(db, logger)
	require.NoError(t, migration.RunAutoMigrations())
	require.NoError(t, migration.CreateIndexes())

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) (*catalog.Seller, *catalog.Product) {
	t.Helper()
	s := &catalog.Seller{Name: "Kanchi Fabrics", Kind: catalog.SellerKindGoods, IsActive: true}
	require.NoError(t, db.Create(s).Error)

	p := &catalog.Product{
		SellerID:      s.ID,
		SKU:           fmt.Sprintf("FAB-%d", time.Now().UnixNano()),
		Name:          "Cotton shirting",
		Type:          catalog.ProductTypeGoods,
		UnitPrice:     35000,
		StockQuantity: stock,
		TrackQuantity: true,
		Unit:          "meter",
		IsActive:      true,
	}
	require.NoError(t, db.Create(p).Error)
	return s, p
}

func commitFor(t *testing.T, db *gorm.DB, customerID, sellerID, productID uint, qty int) *Commit {
	t.Helper()
	line := &cart.CartLineItem{
		CustomerID:  customerID,
		ProductID:   &productID,
		ProductType: catalog.ProductTypeGoods,
		SellerID:    sellerID,
		UnitPrice:   35000,
		Quantity:    qty,
	}
	require.NoError(t, db.Create(line).Error)

	checkoutID := fmt.Sprintf("%08d-0000-4000-8000-000000000000", customerID)
	return &Commit{
		CustomerID: customerID,
		Snapshot: &order.OrderSnapshot{
			OrderNumber:        order.GenerateOrderNumber(time.Now(), checkoutID, sellerID),
			CheckoutID:         checkoutID,
			CustomerID:         customerID,
			SellerID:           sellerID,
			Currency:           "INR",
			LinesSubtotal:      35000 * 1,
			Subtotal:           35000 * 1,
			DiscountBase:       35000 * 1,
			DiscountPercentage: decimal.Zero,
			GrandTotal:         35000 * 1,
			PricedAt:           time.Now(),
			Lines: []order.OrderLine{{
				ProductID: &productID, ProductType: "goods", PricedAs: "catalog",
				UnitPrice: 35000, Quantity: qty, LineTotal: 35000, Discountable: true,
			}},
		},
		Decrements:  []StockDecrement{{ProductID: productID, Quantity: qty}},
		CartItemIDs: []uint{line.ID},
	}
}

func newCommitter(db *gorm.DB) *GormCommitter {
	logger, _ := test.NewNullLogger()
	return NewGormCommitter(db, logger, 0)
}

func TestGormCommitter_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	db := setupTestDB(t)
	s, p := seedProduct(t, db, 5)
	committer := newCommitter(db)

	const customers = 12
	commits := make([]*Commit, customers)
	for i := range commits {
		commits[i] = commitFor(t, db, uint(100+i), s.ID, p.ID, 1)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, cm := range commits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := committer.Commit(context.Background(), cm)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if apperror.Code(err) == "stock_conflict" {
				conflicts++
				return
			}
			t.Errorf("unexpected commit error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, customers-5, conflicts)

	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Zero(t, reloaded.StockQuantity)

	var snapshots, lines int64
	db.Model(&order.OrderSnapshot{}).Where("seller_id = ?", s.ID).Count(&snapshots)
	db.Model(&cart.CartLineItem{}).Where("seller_id = ?", s.ID).Count(&lines)
	assert.EqualValues(t, 5, snapshots)
	assert.EqualValues(t, customers-5, lines, "rejected customers keep their cart lines")

	var movements []inventory.StockMovement
	require.NoError(t, db.Where("product_id = ?", p.ID).Order("new_quantity DESC").Find(&movements).Error)
	require.Len(t, movements, 5)
	for i, m := range movements {
		assert.Equal(t, inventory.ReasonSale, m.Reason)
		assert.Equal(t, 1, m.Quantity)
		assert.Equal(t, 5-i, m.PreviousQuantity)
		assert.Equal(t, 4-i, m.NewQuantity)
	}
}

func TestGormCommitter_FailedDecrementRollsBackGroup(t *testing.T) {
	db := setupTestDB(t)
	s, p := seedProduct(t, db, 2)
	cm := commitFor(t, db, 7, s.ID, p.ID, 3)

	err := newCommitter(db).Commit(context.Background(), cm)
	var conflict *apperror.StockConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 2, conflict.Available)

	var snapshots, fulfillments, movements, lines int64
	db.Model(&order.OrderSnapshot{}).Count(&snapshots)
	db.Model(&order.Fulfillment{}).Count(&fulfillments)
	db.Model(&inventory.StockMovement{}).Count(&movements)
	db.Model(&cart.CartLineItem{}).Where("customer_id = ?", 7).Count(&lines)
	assert.Zero(t, snapshots)
	assert.Zero(t, fulfillments)
	assert.Zero(t, movements)
	assert.EqualValues(t, 1, lines)
}

func TestGormCommitter_SnapshotsAreImmutable(t *testing.T) {
	db := setupTestDB(t)
	s, p := seedProduct(t, db, 10)
	cm := commitFor(t, db, 8, s.ID, p.ID, 1)
	require.NoError(t, newCommitter(db).Commit(context.Background(), cm))

	snap := cm.Snapshot
	err := db.Model(snap).Update("grand_total", 1).Error
	assert.ErrorIs(t, err, order.ErrSnapshotImmutable)

	var fulfillment order.Fulfillment
	require.NoError(t, db.Where("order_id = ?", snap.ID).First(&fulfillment).Error)
	assert.Equal(t, order.FulfillmentPending, fulfillment.Status)
}

func TestGormCommitter_CartChangedUnderneath(t *testing.T) {
	db := setupTestDB(t)
	s, p := seedProduct(t, db, 10)
	cm := commitFor(t, db, 9, s.ID, p.ID, 1)
	require.NoError(t, db.Delete(&cart.CartLineItem{}, cm.CartItemIDs[0]).Error)

	err := newCommitter(db).Commit(context.Background(), cm)
	assert.Equal(t, "validation_error", apperror.Code(err))

	var reloaded catalog.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 10, reloaded.StockQuantity, "stock decrement rolled back")
}

func TestCatalogSetStock_RecordsAdjustment(t *testing.T) {
	db := setupTestDB(t)
	_, p := seedProduct(t, db, 10)
	logger, _ := test.NewNullLogger()
	svc := catalog.NewService(db, logger)

	updated, err := svc.SetStock(context.Background(), p.ID, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.StockQuantity)

	movements, err := inventory.NewService(db).ListMovements(context.Background(), p.ID, 10)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.MovementTypeOutbound, movements[0].MovementType)
	assert.Equal(t, inventory.ReasonAdjustment, movements[0].Reason)
	assert.Equal(t, 6, movements[0].Quantity)
	assert.Equal(t, 10, movements[0].PreviousQuantity)
}

func TestSellerService_RejectsConfigForNonTailors(t *testing.T) {
	db := setupTestDB(t)
	goods, _ := seedProduct(t, db, 1)
	svc := seller.NewService(db, time.UTC)
	ctx := context.Background()

	pkgReq := seller.CreatePackageRequest{
		Name:          "Wedding set",
		Garments:      []seller.PackageGarment{{GarmentType: seller.GarmentSherwani, Quantity: 1}},
		OriginalPrice: 18000,
		PackagePrice:  15000,
	}

	_, err := svc.SavePricingTier(ctx, goods.ID, seller.SavePricingTierRequest{BasePrice: 2000})
	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "seller_id", ve.Field)

	_, err = svc.CreatePackage(ctx, goods.ID, pkgReq)
	require.ErrorAs(t, err, &ve)

	_, err = svc.SavePricingTier(ctx, 9999, seller.SavePricingTierRequest{BasePrice: 2000})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = svc.CreatePackage(ctx, 9999, pkgReq)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var tiers, packages int64
	db.Model(&seller.PricingTier{}).Count(&tiers)
	db.Model(&seller.Package{}).Count(&packages)
	assert.Zero(t, tiers)
	assert.Zero(t, packages)

	tailor := &catalog.Seller{Name: "Meera Tailors", Kind: catalog.SellerKindTailor, IsActive: true}
	require.NoError(t, db.Create(tailor).Error)
	_, err = svc.SavePricingTier(ctx, tailor.ID, seller.SavePricingTierRequest{BasePrice: 2000})
	require.NoError(t, err)
	_, err = svc.CreatePackage(ctx, tailor.ID, pkgReq)
	require.NoError(t, err)
}

func TestSellerService_SeasonalEndCoversWholeDayAfterStorage(t *testing.T) {
	db := setupTestDB(t)
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	tailor := &catalog.Seller{Name: "Meera Tailors", Kind: catalog.SellerKindTailor, IsActive: true}
	require.NoError(t, db.Create(tailor).Error)

	start := time.Date(2026, 12, 1, 18, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, ist)
	svc := seller.NewService(db, ist)
	_, err = svc.SavePricingTier(context.Background(), tailor.ID, seller.SavePricingTierRequest{
		Seasonal: seller.SeasonalRule{
			Enabled:    true,
			Percentage: decimal.NewNullDecimal(decimal.NewFromInt(10)),
			StartDate:  &start,
			EndDate:    &end,
		},
	})
	require.NoError(t, err)

	stored, err := svc.GetPricingTier(context.Background(), tailor.ID)
	require.NoError(t, err)
	from, until := *stored.Seasonal.StartDate, *stored.Seasonal.EndDate

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"morning before a mid-day start", time.Date(2026, 12, 1, 8, 0, 0, 0, time.UTC), false},
		{"at the start instant", start, true},
		{"late evening of the end day in IST", time.Date(2026, 12, 31, 23, 30, 0, 0, ist), true},
		{"next day in IST", time.Date(2027, 1, 1, 0, 0, 1, 0, ist), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, discount.InWindow(tt.now, from, until))
		})
	}
}
