package service

import (
	"testing"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(v string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(v))
}

func moneyPtr(v string) *models.Money {
	m := money(v)
	return &m
}

func pricedProduct() *models.Product {
	return &models.Product{
		ID:      1,
		Slug:    "arche-florale",
		Name:    "Arche florale",
		Price:   money("10.00"),
		Deposit: 20,
		Stock:   5,
		Options: models.OptionGroups{
			{
				OptionTypeName: "Couleur",
				Options: []models.ProductOption{
					{Name: "Blanc", AdditionalFee: money("0")},
					{Name: "Or", AdditionalFee: money("2.50")},
				},
			},
		},
	}
}

func TestQuoteLineScenario(t *testing.T) {
	quote, err := QuoteLine(LineQuoteInput{
		Product:    pricedProduct(),
		Quantity:   3,
		Selections: map[string]string{"Couleur": "Or"},
	})
	require.NoError(t, err)
	assert.Equal(t, "12.50", quote.PerUnitTotal.String())
	assert.Equal(t, "37.50", quote.LineTotal.String())
	assert.Equal(t, "7.50", quote.Deposit.String())
	require.Len(t, quote.SelectedOptions, 1)
	assert.Equal(t, "Or", quote.SelectedOptions[0].Name)
}

func TestQuoteLine(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(p *models.Product)
		qty         int
		selections  map[string]string
		install     bool
		wantLine    string
		wantDeposit string
		wantInstall bool
		wantErr     error
	}{
		{
			name:        "default_option_is_first",
			qty:         2,
			wantLine:    "20.00",
			wantDeposit: "4.00",
		},
		{
			name:        "promotional_price_wins",
			mutate:      func(p *models.Product) { p.NewPrice = moneyPtr("8.00") },
			qty:         1,
			selections:  map[string]string{"Couleur": "Or"},
			wantLine:    "10.50",
			wantDeposit: "2.10",
		},
		{
			name:        "installation_added_per_unit",
			mutate:      func(p *models.Product) { p.InstallationFees = moneyPtr("15.00") },
			qty:         2,
			install:     true,
			wantLine:    "50.00",
			wantDeposit: "10.00",
			wantInstall: true,
		},
		{
			name:        "installation_ignored_when_not_offered",
			qty:         1,
			install:     true,
			wantLine:    "10.00",
			wantDeposit: "2.00",
		},
		{
			name:        "zero_deposit",
			mutate:      func(p *models.Product) { p.Deposit = 0 },
			qty:         1,
			wantLine:    "10.00",
			wantDeposit: "0.00",
		},
		{
			name:        "deposit_percentage_clamped",
			mutate:      func(p *models.Product) { p.Deposit = 150 },
			qty:         1,
			wantLine:    "10.00",
			wantDeposit: "10.00",
		},
		{name: "unknown_option", qty: 1, selections: map[string]string{"Couleur": "Rouge"}, wantErr: ErrInvalidOption},
		{name: "unknown_group", qty: 1, selections: map[string]string{"Taille": "XL"}, wantErr: ErrInvalidOption},
		{name: "zero_quantity", qty: 0, wantErr: ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := pricedProduct()
			if tt.mutate != nil {
				tt.mutate(product)
			}
			quote, err := QuoteLine(LineQuoteInput{
				Product:           product,
				Quantity:          tt.qty,
				Selections:        tt.selections,
				NeedsInstallation: tt.install,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLine, quote.LineTotal.String())
			assert.Equal(t, tt.wantDeposit, quote.Deposit.String())
			assert.Equal(t, tt.wantInstall, quote.NeedsInstallation)
		})
	}
}

// 两行可配送商品，基础配送费 5×2 + 3×1，距离 10.4km
func TestComputeTotalsDeliveryScenario(t *testing.T) {
	lines := []PricedLine{
		{Quantity: 2, LineTotal: decimal.RequireFromString("40"), Deposit: decimal.RequireFromString("8"), CautionPerUnit: decimal.RequireFromString("50"), BaseDeliveryFees: decimal.RequireFromString("5")},
		{Quantity: 1, LineTotal: decimal.RequireFromString("25"), Deposit: decimal.RequireFromString("5"), BaseDeliveryFees: decimal.RequireFromString("3")},
	}
	assert.Equal(t, "13", SumBaseDeliveryFees(lines).String())

	totals := ComputeTotals(TotalsInput{
		Lines:          lines,
		DeliveryOption: constants.DeliveryOptionDelivery,
		DistanceFee:    decimal.RequireFromString("10.40"),
		FlatCaution:    decimal.RequireFromString("200"),
	})
	assert.Equal(t, 3, totals.TotalItems)
	assert.Equal(t, "65.00", totals.Subtotal.String())
	assert.Equal(t, "13.00", totals.Deposit.String())
	assert.Equal(t, "13.00", totals.BaseDeliveryFees.String())
	assert.Equal(t, "23.40", totals.DeliveryFee.String())
	assert.Equal(t, "88.40", totals.GrandTotal.String())
	assert.Equal(t, "200.00", totals.Caution.String())
	assert.Equal(t, "100.00", totals.CautionDetail.String())
}

func TestComputeTotalsPickupIgnoresDeliveryFees(t *testing.T) {
	totals := ComputeTotals(TotalsInput{
		Lines: []PricedLine{
			{Quantity: 1, LineTotal: decimal.RequireFromString("30"), BaseDeliveryFees: decimal.RequireFromString("5")},
		},
		DeliveryOption: constants.DeliveryOptionPickup,
		DistanceFee:    decimal.RequireFromString("12"),
	})
	assert.Equal(t, "0.00", totals.DeliveryFee.String())
	assert.Equal(t, "30.00", totals.GrandTotal.String())
	assert.Equal(t, "5.00", totals.BaseDeliveryFees.String())
}
