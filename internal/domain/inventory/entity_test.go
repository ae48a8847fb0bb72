package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockLevel_LowStock(t *testing.T) {
	tests := []struct {
		name  string
		level StockLevel
		want  bool
	}{
		{"crosses threshold", StockLevel{Previous: 6, Current: 5}, true},
		{"already low", StockLevel{Previous: 4, Current: 3}, false},
		{"sold out", StockLevel{Previous: 2, Current: 0}, false},
		{"sold out from plenty", StockLevel{Previous: 20, Current: 0}, true},
		{"still plenty", StockLevel{Previous: 20, Current: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.LowStock(5))
		})
	}
}
