package repository

import (
	"sort"
	"time"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"

	"gorm.io/gorm"
)

// reservedItemRow 参与容量计算的预订明细
type reservedItemRow struct {
	ProductID   uint
	Quantity    int
	RentalStart time.Time
	RentalEnd   time.Time
}

// expandDates 按指定时区展开起止日期（含首尾）
func expandDates(start, end time.Time, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	s := start.In(loc)
	e := end.In(loc)
	day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	last := time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, loc)
	if last.Before(day) {
		day, last = last, day
	}
	dates := make([]string, 0, 8)
	for !day.After(last) {
		dates = append(dates, day.Format(constants.DateLayout))
		day = day.AddDate(0, 0, 1)
	}
	return dates
}

// loadReservedItems 读取未取消预订中、结束时间不早于 from 的明细
func loadReservedItems(db *gorm.DB, productIDs []uint, from time.Time) ([]reservedItemRow, error) {
	var rows []reservedItemRow
	if len(productIDs) == 0 {
		return rows, nil
	}
	query := db.Table(models.ReservationItem{}.TableName()+" AS ri").
		Select("ri.product_id, ri.quantity, ri.rental_start, ri.rental_end").
		Joins("JOIN "+models.Reservation{}.TableName()+" AS r ON r.id = ri.reservation_id").
		Where("ri.product_id IN ?", productIDs).
		Where("r.reservation_status <> ?", constants.ReservationStatusCancelled)
	if !from.IsZero() {
		query = query.Where("ri.rental_end >= ?", from.UTC())
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// aggregateByDate 按商品与日期累加已订数量
func aggregateByDate(rows []reservedItemRow, loc *time.Location) map[uint]map[string]int {
	result := make(map[uint]map[string]int)
	for _, row := range rows {
		perDate, ok := result[row.ProductID]
		if !ok {
			perDate = make(map[string]int)
			result[row.ProductID] = perDate
		}
		for _, date := range expandDates(row.RentalStart, row.RentalEnd, loc) {
			perDate[date] += row.Quantity
		}
	}
	return result
}

func sortedUnavailabilities(perDate map[string]int, fromDate string) []Unavailability {
	list := make([]Unavailability, 0, len(perDate))
	for date, qty := range perDate {
		if qty <= 0 || (fromDate != "" && date < fromDate) {
			continue
		}
		list = append(list, Unavailability{Date: date, ReservedQuantity: qty})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date < list[j].Date })
	return list
}
