package repository

// Unavailability 某日期已被预订的数量（读取时派生，不落库）
type Unavailability struct {
	Date             string `json:"date"`
	ReservedQuantity int    `json:"reserved_quantity"`
}

// SubcategorySummary 子类导航条目
type SubcategorySummary struct {
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
	ProductCount int64  `json:"product_count"`
}
