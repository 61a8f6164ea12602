package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoroughCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Borough
		wantErr bool
	}{
		{"manhattan", "1", BoroughManhattan, false},
		{"staten island with padding", " 5 ", BoroughStatenIsland, false},
		{"float formatted", "3.0", BoroughBrooklyn, false},
		{"empty", "", BoroughUnknown, true},
		{"out of range", "6", BoroughUnknown, true},
		{"zero", "0", BoroughUnknown, true},
		{"fractional", "2.5", BoroughUnknown, true},
		{"text", "queens", BoroughUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBoroughCode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBoroughName(t *testing.T) {
	for _, in := range []string{"Staten Island", "staten_island", "statenisland", "STATEN-ISLAND"} {
		b, err := ParseBoroughName(in)
		require.NoError(t, err, in)
		assert.Equal(t, BoroughStatenIsland, b)
	}

	_, err := ParseBoroughName("jersey city")
	assert.Error(t, err)
}

func TestBoroughString(t *testing.T) {
	names := make([]string, 0, len(Boroughs))
	for _, b := range Boroughs {
		assert.True(t, b.Valid())
		assert.Equal(t, int(b), b.Code())
		names = append(names, b.String())
	}
	assert.Equal(t, []string{"manhattan", "bronx", "brooklyn", "queens", "staten island"}, names)
	assert.False(t, BoroughUnknown.Valid())
	assert.Equal(t, "unknown", Borough(42).String())
	assert.Equal(t, 0, Borough(42).Code())
}

func TestHasPrice(t *testing.T) {
	assert.True(t, SaleRecord{SalePrice: 650000}.HasPrice())
	assert.False(t, SaleRecord{SalePrice: 0}.HasPrice())
	assert.False(t, SaleRecord{SalePrice: math.NaN()}.HasPrice())
	assert.True(t, FeatureRow{Price: 1}.HasPrice())
	assert.False(t, FeatureRow{Price: math.NaN()}.HasPrice())
}
