package service

import (
	"context"
	"errors"
	"testing"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/google"

	"github.com/shopspring/decimal"
)

func TestDeliveryServiceEstimateFailures(t *testing.T) {
	cases := []struct {
		name      string
		routes    *fakeRoutes
		address   string
		wantErr   error
		wantCalls int
	}{
		{
			name:    "blank address rejected before routing",
			routes:  &fakeRoutes{configured: true, meters: 5000},
			address: "   ",
			wantErr: ErrDeliveryAddressRequired,
		},
		{
			name:    "missing api key",
			routes:  &fakeRoutes{configured: false, meters: 5000},
			address: "1 rue de Rome, Marseille",
			wantErr: ErrRoutingNotConfigured,
		},
		{
			name:      "key rejected by client",
			routes:    &fakeRoutes{configured: true, err: google.ErrNotConfigured},
			address:   "1 rue de Rome, Marseille",
			wantErr:   ErrRoutingNotConfigured,
			wantCalls: 1,
		},
		{
			name:      "routing error",
			routes:    &fakeRoutes{configured: true, err: errors.New("status 500")},
			address:   "1 rue de Rome, Marseille",
			wantErr:   ErrAddressUnresolvable,
			wantCalls: 1,
		},
		{
			name:      "zero distance route",
			routes:    &fakeRoutes{configured: true, meters: 0},
			address:   "nulle part",
			wantErr:   ErrAddressUnresolvable,
			wantCalls: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewDeliveryService(tc.routes, &fakePlaces{}, testShop, config.DeliveryConfig{CostPerKm: 1})
			_, err := svc.Estimate(context.Background(), tc.address, decimal.NewFromInt(5))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v got %v", tc.wantErr, err)
			}
			if tc.routes.calls != tc.wantCalls {
				t.Fatalf("want %d routing calls got %d", tc.wantCalls, tc.routes.calls)
			}
		})
	}
}

func TestDeliveryServiceEstimateWithoutRoutes(t *testing.T) {
	svc := NewDeliveryService(nil, nil, testShop, config.DeliveryConfig{CostPerKm: 1})
	if _, err := svc.Estimate(context.Background(), "Aix-en-Provence", decimal.Zero); !errors.Is(err, ErrRoutingNotConfigured) {
		t.Fatalf("want ErrRoutingNotConfigured got %v", err)
	}
	if got := svc.Autocomplete(context.Background(), "Aix"); len(got) != 0 {
		t.Fatalf("autocomplete without places should be empty, got %+v", got)
	}
}

func TestDeliveryServiceEstimateFees(t *testing.T) {
	routes := &fakeRoutes{configured: true, meters: 12500, seconds: 1500}
	svc := NewDeliveryService(routes, &fakePlaces{}, testShop, config.DeliveryConfig{CostPerKm: 2})

	estimate, err := svc.Estimate(context.Background(), " Aubagne ", decimal.NewFromInt(-3))
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if estimate.Address != "Aubagne" || estimate.BaseDeliveryFees.String() != "0.00" {
		t.Fatalf("unexpected estimate: %+v", estimate)
	}
	if estimate.DistanceFees.String() != "25.00" || estimate.TotalDeliveryFees.String() != "25.00" {
		t.Fatalf("unexpected fees: %s / %s", estimate.DistanceFees, estimate.TotalDeliveryFees)
	}
	if estimate.DurationMinutes != 25 || estimate.DistanceText != "12.5 km" {
		t.Fatalf("unexpected distance text: %+v", estimate)
	}
}
