package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(value interface{}, dest interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

// JSON 通用 JSON 对象列
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return jsonValue(map[string]interface{}(j))
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	*j = JSON{}
	return jsonScan(value, (*map[string]interface{})(j))
}

// StringArray 字符串数组列，用于 images、features 等
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return jsonValue([]string{})
	}
	return jsonValue([]string(s))
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	*s = StringArray{}
	return jsonScan(value, (*[]string)(s))
}

// FAQItem 常见问题
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQList 常见问题列表
type FAQList []FAQItem

// Value 实现 driver.Valuer 接口
func (f FAQList) Value() (driver.Value, error) {
	if f == nil {
		return jsonValue([]FAQItem{})
	}
	return jsonValue([]FAQItem(f))
}

// Scan 实现 sql.Scanner 接口
func (f *FAQList) Scan(value interface{}) error {
	*f = FAQList{}
	return jsonScan(value, (*[]FAQItem)(f))
}

// ProductOption 选项组中的单个选项
type ProductOption struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	AdditionalFee Money  `json:"additional_fee"`
}

// OptionGroup 互斥选项组
type OptionGroup struct {
	OptionTypeName string          `json:"option_type_name"`
	Options        []ProductOption `json:"options"`
}

// OptionGroups 商品的选项组列表
type OptionGroups []OptionGroup

// Value 实现 driver.Valuer 接口
func (o OptionGroups) Value() (driver.Value, error) {
	if o == nil {
		return jsonValue([]OptionGroup{})
	}
	return jsonValue([]OptionGroup(o))
}

// Scan 实现 sql.Scanner 接口
func (o *OptionGroups) Scan(value interface{}) error {
	*o = OptionGroups{}
	return jsonScan(value, (*[]OptionGroup)(o))
}

// CustomerInfo 预订客户信息
type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// FullName 客户全名
func (c CustomerInfo) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// Value 实现 driver.Valuer 接口
func (c CustomerInfo) Value() (driver.Value, error) {
	return jsonValue(c)
}

// Scan 实现 sql.Scanner 接口
func (c *CustomerInfo) Scan(value interface{}) error {
	*c = CustomerInfo{}
	return jsonScan(value, c)
}

// SelectedOption 已选选项快照
type SelectedOption struct {
	OptionTypeName string `json:"option_type_name"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	AdditionalFee  Money  `json:"additional_fee"`
}

// ItemOptions 预订明细的配置快照
type ItemOptions struct {
	SelectedOptions   []SelectedOption  `json:"selected_options"`
	Personalizations  map[string]string `json:"personalizations,omitempty"`
	NeedsInstallation bool              `json:"needs_installation"`
	StartTime         string            `json:"start_time"`
	EndTime           string            `json:"end_time"`
}

// Value 实现 driver.Valuer 接口
func (o ItemOptions) Value() (driver.Value, error) {
	return jsonValue(o)
}

// Scan 实现 sql.Scanner 接口
func (o *ItemOptions) Scan(value interface{}) error {
	*o = ItemOptions{}
	return jsonScan(value, o)
}
