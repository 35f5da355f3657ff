package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"

	"github.com/shopspring/decimal"
)

// RentalPeriod 租赁日期区间，序列化为 YYYY-MM-DD
type RentalPeriod struct {
	From time.Time
	To   time.Time
}

type rentalPeriodJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// MarshalJSON 输出 ISO 日期字符串
func (p RentalPeriod) MarshalJSON() ([]byte, error) {
	return json.Marshal(rentalPeriodJSON{
		From: p.From.Format(constants.DateLayout),
		To:   p.To.Format(constants.DateLayout),
	})
}

// UnmarshalJSON 从 ISO 日期字符串还原
func (p *RentalPeriod) UnmarshalJSON(b []byte) error {
	var raw rentalPeriodJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	from, err := time.Parse(constants.DateLayout, strings.TrimSpace(raw.From))
	if err != nil {
		return fmt.Errorf("%w: rental_period.from %q", ErrInvalidDate, raw.From)
	}
	to, err := time.Parse(constants.DateLayout, strings.TrimSpace(raw.To))
	if err != nil {
		return fmt.Errorf("%w: rental_period.to %q", ErrInvalidDate, raw.To)
	}
	p.From, p.To = from, to
	return nil
}

// CartItem 购物车行（配置快照）
type CartItem struct {
	ID                string                  `json:"id"`
	ProductID         uint                    `json:"product_id"`
	ProductName       string                  `json:"product_name"`
	ProductSlug       string                  `json:"product_slug"`
	ProductImage      string                  `json:"product_image"`
	Quantity          int                     `json:"quantity"`
	PricePerUnit      models.Money            `json:"price_per_unit"`
	LineTotal         models.Money            `json:"line_total"`
	SelectedOptions   []models.SelectedOption `json:"selected_options"`
	Personalizations  map[string]string       `json:"personalizations,omitempty"`
	DepositPercentage int                     `json:"deposit_percentage"`
	CautionPerUnit    models.Money            `json:"caution_per_unit"`
	BaseDeliveryFees  models.Money            `json:"base_delivery_fees"`
	InstallationFees  models.Money            `json:"installation_fees"`
	NeedsInstallation bool                    `json:"needs_installation"`
	RentalPeriod      RentalPeriod            `json:"rental_period"`
	StartTime         string                  `json:"start_time"`
	EndTime           string                  `json:"end_time"`
	Category          string                  `json:"category"`
	Subcategory       string                  `json:"subcategory"`
}

// pricedLine 由快照计算行金额
func (i CartItem) pricedLine() PricedLine {
	lineTotal := i.PricePerUnit.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return PricedLine{
		Quantity:         i.Quantity,
		LineTotal:        lineTotal,
		Deposit:          lineTotal.Mul(decimal.NewFromInt(int64(clampPercentage(i.DepositPercentage)))).Div(hundred),
		CautionPerUnit:   i.CautionPerUnit.Decimal,
		BaseDeliveryFees: i.BaseDeliveryFees.Decimal,
	}
}

// Selections 还原选项组选择
func (i CartItem) Selections() map[string]string {
	selections := make(map[string]string, len(i.SelectedOptions))
	for _, opt := range i.SelectedOptions {
		selections[opt.OptionTypeName] = opt.Name
	}
	return selections
}

// Cart 购物车状态；每次变更后同步重算汇总
type Cart struct {
	Token              string          `json:"token"`
	Items              []CartItem      `json:"items"`
	DeliveryOption     string          `json:"delivery_option"`
	DeliveryAddress    string          `json:"delivery_address"`
	DeliveryDistanceKm float64         `json:"delivery_distance_km"`
	DistanceFee        decimal.Decimal `json:"-"`
	DistanceFeeSnap    models.Money    `json:"distance_fee"`
	Totals
	UpdatedAt time.Time `json:"updated_at"`

	flatCaution decimal.Decimal
}

// NewCart 创建空购物车
func NewCart(token string, flatCaution decimal.Decimal) *Cart {
	c := &Cart{
		Token:          token,
		Items:          []CartItem{},
		DeliveryOption: constants.DeliveryOptionPickup,
		flatCaution:    flatCaution,
	}
	c.recompute()
	return c
}

// FindItem 按行 ID 查找
func (c *Cart) FindItem(id string) (int, *CartItem) {
	for idx := range c.Items {
		if c.Items[idx].ID == id {
			return idx, &c.Items[idx]
		}
	}
	return -1, nil
}

// HasProduct 商品是否已在购物车中（在购物车中的商品配置被锁定）
func (c *Cart) HasProduct(productID uint) bool {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// IsDelivery 是否选择送货上门
func (c *Cart) IsDelivery() bool {
	return c.DeliveryOption == constants.DeliveryOptionDelivery
}

// AddItem 添加一行
func (c *Cart) AddItem(item CartItem) error {
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if c.HasProduct(item.ProductID) {
		return ErrCartItemLocked
	}
	for {
		if _, existing := c.FindItem(item.ID); existing == nil {
			break
		}
		item.ID = bumpItemID(item.ID)
	}
	c.Items = append(c.Items, item)
	c.recompute()
	return nil
}

// RemoveItem 删除一行
func (c *Cart) RemoveItem(id string) error {
	idx, _ := c.FindItem(id)
	if idx < 0 {
		return ErrCartItemNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.recompute()
	return nil
}

// UpdateQuantity 修改数量，数量 <= 0 时删除该行
func (c *Cart) UpdateQuantity(id string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(id)
	}
	_, item := c.FindItem(id)
	if item == nil {
		return ErrCartItemNotFound
	}
	item.Quantity = quantity
	c.recompute()
	return nil
}

// SetDeliveryOption 切换取货方式；改为自取时清空地址、距离与运费
func (c *Cart) SetDeliveryOption(option string) error {
	switch option {
	case constants.DeliveryOptionPickup:
		c.DeliveryOption = option
		c.DeliveryAddress = ""
		c.DeliveryDistanceKm = 0
		c.DistanceFee = decimal.Zero
	case constants.DeliveryOptionDelivery:
		c.DeliveryOption = option
	default:
		return ErrInvalidDeliveryOption
	}
	c.recompute()
	return nil
}

// SetDeliveryAddress 设置配送地址；地址变化时作废已估算的距离
func (c *Cart) SetDeliveryAddress(address string) {
	address = strings.TrimSpace(address)
	if address != c.DeliveryAddress {
		c.DeliveryDistanceKm = 0
		c.DistanceFee = decimal.Zero
	}
	c.DeliveryAddress = address
	c.recompute()
}

// UpdateDeliveryFee 写入估算得到的距离与距离附加费
func (c *Cart) UpdateDeliveryFee(distanceFee decimal.Decimal, distanceKm float64) {
	if distanceFee.IsNegative() {
		distanceFee = decimal.Zero
	}
	c.DistanceFee = distanceFee
	c.DeliveryDistanceKm = distanceKm
	c.recompute()
}

// Clear 清空购物车
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.DeliveryOption = constants.DeliveryOptionPickup
	c.DeliveryAddress = ""
	c.DeliveryDistanceKm = 0
	c.DistanceFee = decimal.Zero
	c.recompute()
}

// PricedLines 购物车行的汇总数据
func (c *Cart) PricedLines() []PricedLine {
	lines := make([]PricedLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, item.pricedLine())
	}
	return lines
}

func (c *Cart) recompute() {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	for idx := range c.Items {
		line := c.Items[idx].pricedLine()
		c.Items[idx].LineTotal = models.NewMoneyFromDecimal(line.LineTotal)
	}
	distanceFee := decimal.Zero
	if c.DeliveryOption == constants.DeliveryOptionDelivery {
		distanceFee = c.DistanceFee
	}
	c.DistanceFeeSnap = models.NewMoneyFromDecimal(distanceFee)
	c.Totals = ComputeTotals(TotalsInput{
		Lines:          c.PricedLines(),
		DeliveryOption: c.DeliveryOption,
		DistanceFee:    distanceFee,
		FlatCaution:    c.flatCaution,
	})
}

// rehydrate 快照加载后恢复时区、未导出字段与汇总
func (c *Cart) rehydrate(loc *time.Location, flatCaution decimal.Decimal) {
	c.flatCaution = flatCaution
	c.DistanceFee = c.DistanceFeeSnap.Decimal
	if c.DeliveryOption == "" {
		c.DeliveryOption = constants.DeliveryOptionPickup
	}
	for idx := range c.Items {
		period := &c.Items[idx].RentalPeriod
		period.From = inLocationDate(period.From, loc)
		period.To = inLocationDate(period.To, loc)
	}
	c.recompute()
}

func inLocationDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// newCartItemID 生成 "{productId}-{unixMillis}" 形式的行 ID
func newCartItemID(productID uint, now time.Time) string {
	return fmt.Sprintf("%d-%d", productID, now.UnixMilli())
}

func bumpItemID(id string) string {
	var productID uint
	var millis int64
	if _, err := fmt.Sscanf(id, "%d-%d", &productID, &millis); err != nil {
		return id + "-1"
	}
	return fmt.Sprintf("%d-%d", productID, millis+1)
}
