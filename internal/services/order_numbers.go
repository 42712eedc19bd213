package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mascarene/tourdesk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NextOrderNumber allocates the next sales order number for a company from
// its named sequence row. The row is locked for the duration of the
// transaction so concurrent order creation never hands out the same number.
func NextOrderNumber(ctx context.Context, db *gorm.DB, companyID string) (uint64, error) {
	sequenceName := "sales-orders:" + companyID

	var number uint64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq models.OrderSequence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", sequenceName).
			First(&seq).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = models.OrderSequence{Name: sequenceName, NextValue: 1}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("create sequence %s: %w", sequenceName, err)
			}
		} else if err != nil {
			return fmt.Errorf("lock sequence %s: %w", sequenceName, err)
		}

		number = seq.NextValue
		seq.NextValue++
		if err := tx.Model(&models.OrderSequence{}).
			Where("name = ?", sequenceName).
			Update("next_value", seq.NextValue).Error; err != nil {
			return fmt.Errorf("advance sequence %s: %w", sequenceName, err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return number, nil
}
