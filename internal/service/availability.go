package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/repository"
)

// 租期提示文案（法语为默认展示语言）
const (
	msgRangeTooLong       = "La période de location ne peut pas dépasser %d jours"
	msgRangeUnavailable   = "La période sélectionnée contient des dates indisponibles"
	msgRangeNoLongerValid = "Les dates sélectionnées ne sont plus disponibles pour cette quantité. Veuillez choisir de nouvelles dates."

	msgKeyRangeTooLong       = "availability.range_too_long"
	msgKeyRangeUnavailable   = "availability.range_unavailable"
	msgKeyRangeNoLongerValid = "availability.range_no_longer_valid"
)

const (
	defaultMaxRentalDays = 4
	defaultCalendarDays  = 90
	maxCalendarDays      = 366
	defaultStartTime     = "09:00"
	defaultEndTime       = "18:00"
)

// DateRange 闭区间日期范围（店铺时区零点）
type DateRange struct {
	From time.Time
	To   time.Time
}

// Days 区间包含的日历天数
func (r DateRange) Days() int {
	return daysBetween(r.From, r.To) + 1
}

// Dates 区间内每日的日期 key
func (r DateRange) Dates() []string {
	dates := make([]string, 0, r.Days())
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(constants.DateLayout))
	}
	return dates
}

// RangeCheck 租期校验结果；拒绝时 Range 为空
type RangeCheck struct {
	Valid      bool       `json:"valid"`
	MessageKey string     `json:"message_key,omitempty"`
	Message    string     `json:"message,omitempty"`
	Range      *DateRange `json:"-"`
}

// CalendarDay 商品页日历中的单日视图
type CalendarDay struct {
	Date             string `json:"date"`
	ReservedQuantity int    `json:"reserved_quantity"`
	Available        bool   `json:"available"`
}

// AvailabilityPolicy 库存与租期选择规则
type AvailabilityPolicy struct {
	loc              *time.Location
	maxRentalDays    int
	calendarDays     int
	defaultStartTime string
	defaultEndTime   string
	now              func() time.Time
}

// NewAvailabilityPolicy 创建租期规则
func NewAvailabilityPolicy(cfg config.ReservationConfig, loc *time.Location) *AvailabilityPolicy {
	if loc == nil {
		loc = time.UTC
	}
	p := &AvailabilityPolicy{
		loc:              loc,
		maxRentalDays:    cfg.MaxRentalDays,
		calendarDays:     cfg.CalendarDays,
		defaultStartTime: strings.TrimSpace(cfg.DefaultStartTime),
		defaultEndTime:   strings.TrimSpace(cfg.DefaultEndTime),
		now:              time.Now,
	}
	if p.maxRentalDays <= 0 {
		p.maxRentalDays = defaultMaxRentalDays
	}
	if p.calendarDays <= 0 {
		p.calendarDays = defaultCalendarDays
	}
	if p.defaultStartTime == "" {
		p.defaultStartTime = defaultStartTime
	}
	if p.defaultEndTime == "" {
		p.defaultEndTime = defaultEndTime
	}
	return p
}

// Location 店铺时区
func (p *AvailabilityPolicy) Location() *time.Location {
	return p.loc
}

// MaxRentalDays 最长租期（含首尾日）
func (p *AvailabilityPolicy) MaxRentalDays() int {
	return p.maxRentalDays
}

// Today 店铺时区的今天零点
func (p *AvailabilityPolicy) Today() time.Time {
	return startOfDay(p.now(), p.loc)
}

// ParseDate 按店铺时区解析 YYYY-MM-DD 或 RFC3339 时间戳
func (p *AvailabilityPolicy) ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	if len(raw) > len(constants.DateLayout) {
		// 带时间部分的 ISO 字符串换算到店铺时区后取日期
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
		}
		return startOfDay(ts, p.loc), nil
	}
	t, err := time.ParseInLocation(constants.DateLayout, raw, p.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

// NormalizeRange 解析起止日期，结束早于开始时交换
func (p *AvailabilityPolicy) NormalizeRange(start, end time.Time) DateRange {
	from := startOfDay(start, p.loc)
	to := startOfDay(end, p.loc)
	if to.Before(from) {
		from, to = to, from
	}
	return DateRange{From: from, To: to}
}

// ResolveTimes 解析起止时刻，空字符串使用默认值
func (p *AvailabilityPolicy) ResolveTimes(startTime, endTime string) (string, string, error) {
	start, err := resolveTimeOfDay(startTime, p.defaultStartTime)
	if err != nil {
		return "", "", err
	}
	end, err := resolveTimeOfDay(endTime, p.defaultEndTime)
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

// RentalBounds 将日期区间与时刻合并为租赁起止时间
func (p *AvailabilityPolicy) RentalBounds(r DateRange, startTime, endTime string) (time.Time, time.Time, error) {
	start, end, err := p.ResolveTimes(startTime, endTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return combineDateTime(r.From, start, p.loc), combineDateTime(r.To, end, p.loc), nil
}

// IsDateUnavailable 判断某日是否无法满足请求数量
func (p *AvailabilityPolicy) IsDateUnavailable(date time.Time, reserved map[string]int, stock, quantity int) bool {
	day := startOfDay(date, p.loc)
	if day.Before(p.Today()) {
		return true
	}
	return reserved[day.Format(constants.DateLayout)]+quantity > stock
}

// ValidateRange 校验用户选择的租期；规则拒绝以结果返回而非错误
func (p *AvailabilityPolicy) ValidateRange(start, end time.Time, stock, quantity int, unavailabilities []repository.Unavailability) (RangeCheck, error) {
	if quantity <= 0 {
		return RangeCheck{}, ErrInvalidQuantity
	}
	r := p.NormalizeRange(start, end)
	if daysBetween(r.From, r.To) > p.maxRentalDays-1 {
		return RangeCheck{
			MessageKey: msgKeyRangeTooLong,
			Message:    fmt.Sprintf(msgRangeTooLong, p.maxRentalDays),
		}, nil
	}
	if p.rangeHasUnavailableDate(r, stock, quantity, unavailabilities) {
		return RangeCheck{MessageKey: msgKeyRangeUnavailable, Message: msgRangeUnavailable}, nil
	}
	return RangeCheck{Valid: true, Range: &r}, nil
}

// RevalidateRange 数量变化后复核已选租期，失效时清空并提示
func (p *AvailabilityPolicy) RevalidateRange(start, end time.Time, stock, quantity int, unavailabilities []repository.Unavailability) (RangeCheck, error) {
	check, err := p.ValidateRange(start, end, stock, quantity, unavailabilities)
	if err != nil {
		return RangeCheck{}, err
	}
	if check.Valid {
		return check, nil
	}
	return RangeCheck{MessageKey: msgKeyRangeNoLongerValid, Message: msgRangeNoLongerValid}, nil
}

// Calendar 生成从 from 开始 days 天的逐日视图
func (p *AvailabilityPolicy) Calendar(from time.Time, days, stock, quantity int, unavailabilities []repository.Unavailability) ([]CalendarDay, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if days <= 0 {
		days = p.calendarDays
	}
	if days > maxCalendarDays {
		days = maxCalendarDays
	}
	reserved := reservedByDate(unavailabilities)
	start := startOfDay(from, p.loc)
	result := make([]CalendarDay, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format(constants.DateLayout)
		result = append(result, CalendarDay{
			Date:             key,
			ReservedQuantity: reserved[key],
			Available:        !p.IsDateUnavailable(day, reserved, stock, quantity),
		})
	}
	return result, nil
}

// UnavailableDates 返回给定数量下不可选的已预订日期（不含过去日期）
func (p *AvailabilityPolicy) UnavailableDates(stock, quantity int, unavailabilities []repository.Unavailability) []string {
	dates := make([]string, 0)
	for _, u := range unavailabilities {
		if u.ReservedQuantity+quantity > stock {
			dates = append(dates, u.Date)
		}
	}
	return dates
}

func (p *AvailabilityPolicy) rangeHasUnavailableDate(r DateRange, stock, quantity int, unavailabilities []repository.Unavailability) bool {
	reserved := reservedByDate(unavailabilities)
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		if p.IsDateUnavailable(d, reserved, stock, quantity) {
			return true
		}
	}
	return false
}

func reservedByDate(unavailabilities []repository.Unavailability) map[string]int {
	reserved := make(map[string]int, len(unavailabilities))
	for _, u := range unavailabilities {
		reserved[u.Date] += u.ReservedQuantity
	}
	return reserved
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween 按日历日计算差值，不受夏令时影响
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func resolveTimeOfDay(raw, fallback string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(constants.TimeLayout, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return t.Format(constants.TimeLayout), nil
}

func combineDateTime(day time.Time, hhmm string, loc *time.Location) time.Time {
	t, err := time.Parse(constants.TimeLayout, hhmm)
	if err != nil {
		return day
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}
