package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/google"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/models"

	"github.com/shopspring/decimal"
)

const (
	defaultShopAddress       = "100 Boulevard de Saint-Loup, 13010 Marseille, France"
	minAutocompleteInputSize = 3
)

// RouteComputer 路线距离查询
type RouteComputer interface {
	Configured() bool
	ComputeRoute(ctx context.Context, origin, destination string) (*google.Route, error)
}

// PlaceSearcher 地址联想
type PlaceSearcher interface {
	Autocomplete(ctx context.Context, input string) ([]google.Suggestion, error)
}

// DeliveryEstimate 配送费估算结果
type DeliveryEstimate struct {
	Address           string       `json:"address"`
	Distance          float64      `json:"distance"`
	DistanceText      string       `json:"distance_text"`
	Duration          string       `json:"duration"`
	DurationMinutes   int64        `json:"duration_minutes"`
	BaseDeliveryFees  models.Money `json:"base_delivery_fees"`
	DistanceFees      models.Money `json:"distance_fees"`
	TotalDeliveryFees models.Money `json:"total_delivery_fees"`
}

// DeliveryService 配送费估算与地址联想
type DeliveryService struct {
	routes    RouteComputer
	places    PlaceSearcher
	origin    string
	costPerKm decimal.Decimal
}

// NewDeliveryService 创建配送服务
func NewDeliveryService(routes RouteComputer, places PlaceSearcher, shop config.ShopConfig, cfg config.DeliveryConfig) *DeliveryService {
	origin := strings.TrimSpace(shop.Address)
	if origin == "" {
		origin = defaultShopAddress
	}
	cost := cfg.CostPerKm
	if cost < 0 {
		cost = 0
	}
	return &DeliveryService{
		routes:    routes,
		places:    places,
		origin:    origin,
		costPerKm: decimal.NewFromFloat(cost),
	}
}

// Estimate 按驾车距离估算配送费：基础费 + 公里数 × 单价
func (s *DeliveryService) Estimate(ctx context.Context, address string, baseFees decimal.Decimal) (*DeliveryEstimate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrDeliveryAddressRequired
	}
	if baseFees.IsNegative() {
		baseFees = decimal.Zero
	}
	if s.routes == nil || !s.routes.Configured() {
		return nil, ErrRoutingNotConfigured
	}

	route, err := s.routes.ComputeRoute(ctx, s.origin, address)
	if err != nil {
		if errors.Is(err, google.ErrNotConfigured) {
			return nil, ErrRoutingNotConfigured
		}
		logger.Warnw("delivery_route_failed", "address", address, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAddressUnresolvable, err)
	}
	if route == nil || route.DistanceMeters <= 0 {
		return nil, ErrAddressUnresolvable
	}

	km := decimal.NewFromInt(route.DistanceMeters).Div(decimal.NewFromInt(1000))
	distanceFee := km.Mul(s.costPerKm)
	minutes := int64(math.Round(float64(route.DurationSeconds) / 60))
	kmFloat, _ := km.Float64()

	return &DeliveryEstimate{
		Address:           address,
		Distance:          kmFloat,
		DistanceText:      fmt.Sprintf("%.1f km", kmFloat),
		Duration:          fmt.Sprintf("%d min", minutes),
		DurationMinutes:   minutes,
		BaseDeliveryFees:  models.NewMoneyFromDecimal(baseFees),
		DistanceFees:      models.NewMoneyFromDecimal(distanceFee),
		TotalDeliveryFees: models.NewMoneyFromDecimal(baseFees.Add(distanceFee)),
	}, nil
}

// DistanceFee 按公里数计算距离附加费
func (s *DeliveryService) DistanceFee(km float64) decimal.Decimal {
	if km <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(km).Mul(s.costPerKm)
}

// Autocomplete 地址联想；输入过短或外部失败时返回空列表
func (s *DeliveryService) Autocomplete(ctx context.Context, input string) []google.Suggestion {
	input = strings.TrimSpace(input)
	if len([]rune(input)) < minAutocompleteInputSize || s.places == nil {
		return []google.Suggestion{}
	}
	suggestions, err := s.places.Autocomplete(ctx, input)
	if err != nil {
		logger.Warnw("address_autocomplete_failed", "input", input, "error", err)
		return []google.Suggestion{}
	}
	if suggestions == nil {
		return []google.Suggestion{}
	}
	return suggestions
}
