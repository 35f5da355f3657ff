package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded 某日期的已订数量加本次数量超过库存
	ErrCapacityExceeded = errors.New("reservation capacity exceeded")
	// ErrProductNotFound 预订引用的商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidStatusTransition 预订状态只允许单向流转
	ErrInvalidStatusTransition = errors.New("invalid reservation status transition")
)

// CapacityError 容量冲突详情，errors.Is(err, ErrCapacityExceeded) 成立
type CapacityError struct {
	ProductID uint
	Date      string
	Stock     int
	Reserved  int
	Requested int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: product %d on %s (stock=%d reserved=%d requested=%d)",
		ErrCapacityExceeded.Error(), e.ProductID, e.Date, e.Stock, e.Reserved, e.Requested)
}

// Is 支持 errors.Is 匹配哨兵错误
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
