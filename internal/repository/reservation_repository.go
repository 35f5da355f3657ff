package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReservationRepository 预订数据访问接口
type ReservationRepository interface {
	CreateWithItems(ctx context.Context, reservation *models.Reservation, items []models.ReservationItem) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Reservation, error)
	GetByPaymentRef(ctx context.Context, ref string) (*models.Reservation, error)
	CompleteFinished(ctx context.Context, now time.Time) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReservationRepository
}

// GormReservationRepository GORM 实现
type GormReservationRepository struct {
	db  *gorm.DB
	loc *time.Location
}

// NewReservationRepository 创建预订仓库，loc 为按日计算容量使用的店铺时区
func NewReservationRepository(db *gorm.DB, loc *time.Location) *GormReservationRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &GormReservationRepository{db: db, loc: loc}
}

// WithTx 绑定事务
func (r *GormReservationRepository) WithTx(tx *gorm.DB) ReservationRepository {
	if tx == nil {
		return r
	}
	return &GormReservationRepository{db: tx, loc: r.loc}
}

// Transaction 执行事务
func (r *GormReservationRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// CreateWithItems 在同一事务中锁定商品、复核每日容量并写入预订与明细
func (r *GormReservationRepository) CreateWithItems(ctx context.Context, reservation *models.Reservation, items []models.ReservationItem) error {
	if reservation == nil {
		return errors.New("reservation is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkCapacity(tx, items); err != nil {
			return err
		}
		reservation.Items = nil
		if err := tx.Omit(clause.Associations).Create(reservation).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].ReservationID = reservation.ID
			items[i].RentalStart = items[i].RentalStart.UTC()
			items[i].RentalEnd = items[i].RentalEnd.UTC()
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		reservation.Items = items
		return nil
	})
}

// checkCapacity 锁定涉及的商品行后按日复核：已订 + 本次 ≤ 库存
func (r *GormReservationRepository) checkCapacity(tx *gorm.DB, items []models.ReservationItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]struct{}, len(items))
	earliest := time.Time{}
	for _, item := range items {
		if _, ok := seen[item.ProductID]; !ok {
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
		if earliest.IsZero() || item.RentalStart.Before(earliest) {
			earliest = item.RentalStart
		}
	}

	var products []models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error; err != nil {
		return err
	}
	stocks := make(map[uint]int, len(products))
	for _, product := range products {
		stock := product.Stock
		if product.IsOutOfStock {
			stock = 0
		}
		stocks[product.ID] = stock
	}
	for _, id := range ids {
		if _, ok := stocks[id]; !ok {
			return ErrProductNotFound
		}
	}

	// 按日计量，截断到店铺时区当天零点
	local := earliest.In(r.loc)
	earliest = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	rows, err := loadReservedItems(tx, ids, earliest)
	if err != nil {
		return err
	}
	reserved := aggregateByDate(rows, r.loc)

	requested := make(map[uint]map[string]int, len(ids))
	for _, item := range items {
		perDate, ok := requested[item.ProductID]
		if !ok {
			perDate = make(map[string]int)
			requested[item.ProductID] = perDate
		}
		for _, date := range expandDates(item.RentalStart, item.RentalEnd, r.loc) {
			perDate[date] += item.Quantity
		}
	}

	for _, id := range ids {
		dates := sortedUnavailabilities(requested[id], "")
		for _, req := range dates {
			already := reserved[id][req.Date]
			if already+req.ReservedQuantity > stocks[id] {
				return &CapacityError{
					ProductID: id,
					Date:      req.Date,
					Stock:     stocks[id],
					Reserved:  already,
					Requested: req.ReservedQuantity,
				}
			}
		}
	}
	return nil
}

// Delete 删除预订及其明细
func (r *GormReservationRepository) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reservation_id = ?", id).Delete(&models.ReservationItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Reservation{}, id).Error
	})
}

// GetByID 获取预订并预加载明细
func (r *GormReservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	if id == 0 {
		return nil, nil
	}
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&reservation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

// GetByPaymentRef 按支付流水号获取预订
func (r *GormReservationRepository) GetByPaymentRef(ctx context.Context, ref string) (*models.Reservation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("stripe_payment_id = ?", ref).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

// CompleteFinished 将全部明细已结束的已确认预订标记为 DONE
func (r *GormReservationRepository) CompleteFinished(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("reservation_status IN ?", []string{
			constants.ReservationStatusConfirmed,
			constants.ReservationStatusConfirmedNoDeposit,
		}).
		Where("EXISTS (SELECT 1 FROM reservation_items ri WHERE ri.reservation_id = reservations.id)").
		Where("NOT EXISTS (SELECT 1 FROM reservation_items ri WHERE ri.reservation_id = reservations.id AND ri.rental_end >= ?)", now.UTC()).
		Updates(map[string]interface{}{
			"reservation_status": constants.ReservationStatusDone,
			"updated_at":         now,
		})
	return result.RowsAffected, result.Error
}

// UpdateStatus 单向更新预订状态，DONE/CANCELLED 为终态
func (r *GormReservationRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reservation, id).Error; err != nil {
			return err
		}
		if !canTransition(reservation.ReservationStatus, status) {
			return ErrInvalidStatusTransition
		}
		return tx.Model(&reservation).Updates(map[string]interface{}{
			"reservation_status": status,
			"updated_at":         time.Now(),
		}).Error
	})
}

func canTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case constants.ReservationStatusConfirmed, constants.ReservationStatusConfirmedNoDeposit:
		return to == constants.ReservationStatusDone || to == constants.ReservationStatusCancelled
	}
	return false
}
