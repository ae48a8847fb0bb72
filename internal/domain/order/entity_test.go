package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2026, 10, 18, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	got := GenerateOrderNumber(at, "3f2a9c1e-7b44-4e0a-9d1f-0c8e5b6a2d11", 42)
	assert.Equal(t, "ORD-20261018-3f2a9c1e-S42", got)
}

func TestFulfillmentStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, FulfillmentPending.CanTransitionTo(FulfillmentProcessing))
	assert.True(t, FulfillmentProcessing.CanTransitionTo(FulfillmentCompleted))
	assert.True(t, FulfillmentPending.CanTransitionTo(FulfillmentCancelled))

	assert.False(t, FulfillmentPending.CanTransitionTo(FulfillmentCompleted))
	assert.False(t, FulfillmentCompleted.CanTransitionTo(FulfillmentProcessing))
	assert.False(t, FulfillmentCancelled.CanTransitionTo(FulfillmentPending))
}

func TestSnapshotHooksRefuseMutation(t *testing.T) {
	assert.ErrorIs(t, (&OrderSnapshot{}).BeforeUpdate(nil), ErrSnapshotImmutable)
	assert.ErrorIs(t, (&OrderSnapshot{}).BeforeDelete(nil), ErrSnapshotImmutable)
	assert.ErrorIs(t, (&AppliedDiscount{}).BeforeUpdate(nil), ErrSnapshotImmutable)
}

func TestOrderSnapshot_DiscountTotal(t *testing.T) {
	snap := &OrderSnapshot{Discounts: []AppliedDiscount{
		{Source: "multiple_garments", Amount: 800},
		{Source: "seasonal", Amount: 400},
		{Source: "package", Amount: 3000, IncludedInPrice: true},
	}}
	assert.EqualValues(t, 1200, snap.DiscountTotal())
}
