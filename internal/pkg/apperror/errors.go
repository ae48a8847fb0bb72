// internal/pkg/apperror/errors.go
package apperror

import (
	"errors"
	"fmt"

	"github.com/your-org/tailor-marketplace/internal/pkg/money"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a single request. Nothing has been mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidation is shorthand for &ValidationError{...}.
func NewValidation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConfigurationError describes a malformed seller discount rule. It is
// logged for seller follow-up and the rule is treated as ineligible.
type ConfigurationError struct {
	SellerID uint
	Rule     string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("seller %d has malformed %s rule: %s", e.SellerID, e.Rule, e.Reason)
}

// StockConflictError means fewer units are available than requested.
type StockConflictError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// SuggestedQuantity is the requested quantity clamped to what is available.
// It is only offered to the client, never applied.
func (e *StockConflictError) SuggestedQuantity() int {
	if e.Available < 0 {
		return 0
	}
	if e.Available < e.Requested {
		return e.Available
	}
	return e.Requested
}

// PriceChangedError means the live price differs from the cart snapshot.
type PriceChangedError struct {
	ProductID uint
	PackageID *uint
	CartPrice money.Amount
	LivePrice money.Amount
}

func (e *PriceChangedError) Error() string {
	if e.PackageID != nil {
		return fmt.Sprintf("price of package %d changed from %d to %d", *e.PackageID, e.CartPrice, e.LivePrice)
	}
	return fmt.Sprintf("price of product %d changed from %d to %d", e.ProductID, e.CartPrice, e.LivePrice)
}

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	var (
		validation *ValidationError
		config     *ConfigurationError
		stock      *StockConflictError
		price      *PriceChangedError
	)
	switch {
	case errors.As(err, &validation):
		return "validation_error"
	case errors.As(err, &stock):
		return "stock_conflict"
	case errors.As(err, &price):
		return "price_changed"
	case errors.As(err, &config):
		return "configuration_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

// Details returns the structured fields of a typed error for API responses.
func Details(err error) map[string]any {
	var (
		validation *ValidationError
		stock      *StockConflictError
		price      *PriceChangedError
	)
	switch {
	case errors.As(err, &validation):
		return map[string]any{"field": validation.Field, "reason": validation.Reason}
	case errors.As(err, &stock):
		return map[string]any{
			"product_id":         stock.ProductID,
			"requested":          stock.Requested,
			"available":          stock.Available,
			"suggested_quantity": stock.SuggestedQuantity(),
		}
	case errors.As(err, &price):
		d := map[string]any{
			"product_id": price.ProductID,
			"cart_price": price.CartPrice,
			"live_price": price.LivePrice,
		}
		if price.PackageID != nil {
			d["package_id"] = *price.PackageID
		}
		return d
	}
	return nil
}
