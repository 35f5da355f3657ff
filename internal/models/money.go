package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money 欧元金额，始终按 2 位小数存储与输出
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 四舍五入到分
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(2)}
}

// NewMoneyFromFloat 仅用于配置与测试数据
func NewMoneyFromFloat(amount float64) Money {
	return NewMoneyFromDecimal(decimal.NewFromFloat(amount))
}

// ParseMoney 解析 "129.99" 或 "129,99"，拒绝负数
func ParseMoney(raw string) (Money, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("negative amount %q", raw)
	}
	return NewMoneyFromDecimal(d), nil
}

// MoneyPtr 可空金额
func MoneyPtr(amount decimal.Decimal) *Money {
	m := NewMoneyFromDecimal(amount)
	return &m
}

// Cents 以分为单位的整数金额
func (m Money) Cents() int64 {
	return m.Decimal.Round(2).Shift(2).IntPart()
}

// Format 法式展示，如 "1 250,50 €"
func (m Money) Format() string {
	fixed := m.Decimal.Round(2).Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if m.Decimal.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteString("," + frac + " €")
	return b.String()
}

// MarshalJSON 输出字符串，避免前端浮点误差
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 接受字符串或数字
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	m.Decimal = d.Round(2)
	return nil
}

// Value 写库
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan 读库
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(2)
	return nil
}

func (m Money) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}
