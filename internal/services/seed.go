package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mascarene/tourdesk/data"
	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/session"
	"gorm.io/gorm"
)

// SeedCurrenciesForCompany writes the default currency set for a freshly
// created company so its back office starts with a usable picker. Skips
// companies that already have currencies.
func SeedCurrenciesForCompany(ctx context.Context, db *gorm.DB, company *models.Company, sess *session.Session) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Currency{}).
		Where("company_id = ?", company.ID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count currencies for %s: %w", company.ID, err)
	}
	if count > 0 {
		return nil
	}

	var currencies []models.Currency
	if err := json.Unmarshal(data.SeedCurrencies, &currencies); err != nil {
		return fmt.Errorf("decode currency seed: %w", err)
	}

	now := time.Now().UTC()
	for i := range currencies {
		doc := currencies[i].Doc()
		doc.ID = uuid.NewString()
		doc.CreatedAt = now
		doc.UpdatedAt = now
		doc.DocumentStatus = models.StatusActive
		doc.CreatedBy = sess.UserID
		doc.CreatedByName = sess.DisplayName
		doc.UpdatedBy = sess.UserID
		doc.UpdatedByName = sess.DisplayName
		doc.CompanyID = company.ID
		doc.CompanyName = company.Name
		doc.CompanyType = company.Type
	}

	if err := db.WithContext(ctx).Create(&currencies).Error; err != nil {
		return fmt.Errorf("seed currencies for %s: %w", company.ID, err)
	}

	return nil
}
