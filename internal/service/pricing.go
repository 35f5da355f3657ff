package service

import (
	"fmt"
	"strings"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineQuoteInput 单行报价输入
type LineQuoteInput struct {
	Product           *models.Product
	Quantity          int
	Selections        map[string]string // 选项组名 -> 选项名
	NeedsInstallation bool
}

// LineQuote 单行报价结果
type LineQuote struct {
	UnitPrice         models.Money            `json:"unit_price"`
	OptionFees        models.Money            `json:"option_fees"`
	InstallationFee   models.Money            `json:"installation_fee"`
	PerUnitTotal      models.Money            `json:"per_unit_total"`
	Quantity          int                     `json:"quantity"`
	LineTotal         models.Money            `json:"line_total"`
	DepositPercentage int                     `json:"deposit_percentage"`
	Deposit           models.Money            `json:"deposit"`
	CautionPerUnit    models.Money            `json:"caution_per_unit"`
	BaseDeliveryFees  models.Money            `json:"base_delivery_fees"`
	SelectedOptions   []models.SelectedOption `json:"selected_options"`
	NeedsInstallation bool                    `json:"needs_installation"`
}

// QuoteLine 计算单行价格：有效单价 + 选项费 + 安装费，乘以数量
func QuoteLine(input LineQuoteInput) (*LineQuote, error) {
	if input.Product == nil {
		return nil, ErrProductNotFound
	}
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product := input.Product

	selected, err := resolveSelectedOptions(product.Options, input.Selections)
	if err != nil {
		return nil, err
	}
	optionFees := decimal.Zero
	for _, opt := range selected {
		optionFees = optionFees.Add(opt.AdditionalFee.Decimal)
	}

	installation := decimal.Zero
	needsInstallation := input.NeedsInstallation && product.HasInstallation()
	if needsInstallation {
		installation = product.InstallationFees.Decimal
	}

	unit := product.EffectivePrice()
	perUnit := unit.Add(optionFees).Add(installation)
	qty := decimal.NewFromInt(int64(input.Quantity))
	lineTotal := perUnit.Mul(qty)

	depositPct := clampPercentage(product.Deposit)
	deposit := lineTotal.Mul(decimal.NewFromInt(int64(depositPct))).Div(hundred)

	return &LineQuote{
		UnitPrice:         models.NewMoneyFromDecimal(unit),
		OptionFees:        models.NewMoneyFromDecimal(optionFees),
		InstallationFee:   models.NewMoneyFromDecimal(installation),
		PerUnitTotal:      models.NewMoneyFromDecimal(perUnit),
		Quantity:          input.Quantity,
		LineTotal:         models.NewMoneyFromDecimal(lineTotal),
		DepositPercentage: depositPct,
		Deposit:           models.NewMoneyFromDecimal(deposit),
		CautionPerUnit:    product.Caution,
		BaseDeliveryFees:  product.BaseDeliveryFees,
		SelectedOptions:   selected,
		NeedsInstallation: needsInstallation,
	}, nil
}

// resolveSelectedOptions 每个选项组取一个选项；未显式选择时取第一个
func resolveSelectedOptions(groups models.OptionGroups, selections map[string]string) ([]models.SelectedOption, error) {
	known := make(map[string]struct{}, len(groups))
	selected := make([]models.SelectedOption, 0, len(groups))
	for _, group := range groups {
		known[group.OptionTypeName] = struct{}{}
		if len(group.Options) == 0 {
			continue
		}
		choice := group.Options[0]
		if name, ok := selections[group.OptionTypeName]; ok && strings.TrimSpace(name) != "" {
			found := false
			for _, opt := range group.Options {
				if opt.Name == strings.TrimSpace(name) {
					choice = opt
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("%w: %s=%s", ErrInvalidOption, group.OptionTypeName, name)
			}
		}
		selected = append(selected, models.SelectedOption{
			OptionTypeName: group.OptionTypeName,
			Name:           choice.Name,
			Description:    choice.Description,
			AdditionalFee:  choice.AdditionalFee,
		})
	}
	for name := range selections {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("%w: unknown group %s", ErrInvalidOption, name)
		}
	}
	return selected, nil
}

// PricedLine 汇总计算所需的单行数据
type PricedLine struct {
	Quantity         int
	LineTotal        decimal.Decimal
	Deposit          decimal.Decimal
	CautionPerUnit   decimal.Decimal
	BaseDeliveryFees decimal.Decimal
}

// PricedLineFromQuote 由报价构建汇总行
func PricedLineFromQuote(q *LineQuote) PricedLine {
	return PricedLine{
		Quantity:         q.Quantity,
		LineTotal:        q.LineTotal.Decimal,
		Deposit:          q.Deposit.Decimal,
		CautionPerUnit:   q.CautionPerUnit.Decimal,
		BaseDeliveryFees: q.BaseDeliveryFees.Decimal,
	}
}

// Totals 购物车/预订汇总金额
type Totals struct {
	TotalItems       int          `json:"total_items"`
	Subtotal         models.Money `json:"total_price"`
	Deposit          models.Money `json:"total_deposit"`
	Caution          models.Money `json:"total_caution"`
	CautionDetail    models.Money `json:"caution_detail"`
	BaseDeliveryFees models.Money `json:"base_delivery_fees"`
	DeliveryFee      models.Money `json:"delivery_fee"`
	GrandTotal       models.Money `json:"grand_total"`
}

// TotalsInput 汇总输入
type TotalsInput struct {
	Lines          []PricedLine
	DeliveryOption string
	DistanceFee    decimal.Decimal
	FlatCaution    decimal.Decimal
}

// ComputeTotals 汇总金额；定金与押金不计入总价
func ComputeTotals(input TotalsInput) Totals {
	items := 0
	subtotal := decimal.Zero
	deposit := decimal.Zero
	cautionDetail := decimal.Zero
	base := decimal.Zero
	for _, line := range input.Lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		items += line.Quantity
		subtotal = subtotal.Add(line.LineTotal)
		deposit = deposit.Add(line.Deposit)
		cautionDetail = cautionDetail.Add(line.CautionPerUnit.Mul(qty))
		base = base.Add(line.BaseDeliveryFees.Mul(qty))
	}

	deliveryFee := decimal.Zero
	if input.DeliveryOption == constants.DeliveryOptionDelivery {
		deliveryFee = base.Add(input.DistanceFee)
	}

	return Totals{
		TotalItems:       items,
		Subtotal:         models.NewMoneyFromDecimal(subtotal),
		Deposit:          models.NewMoneyFromDecimal(deposit),
		Caution:          models.NewMoneyFromDecimal(input.FlatCaution),
		CautionDetail:    models.NewMoneyFromDecimal(cautionDetail),
		BaseDeliveryFees: models.NewMoneyFromDecimal(base),
		DeliveryFee:      models.NewMoneyFromDecimal(deliveryFee),
		GrandTotal:       models.NewMoneyFromDecimal(subtotal.Add(deliveryFee)),
	}
}

// SumBaseDeliveryFees 汇总基础配送费（单价 × 数量）
func SumBaseDeliveryFees(lines []PricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.BaseDeliveryFees.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func clampPercentage(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
