package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mascarene/tourdesk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func servicesDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.OrderSequence{}, &models.Currency{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestNextOrderNumberSequential(t *testing.T) {
	db := servicesDB(t)
	ctx := context.Background()

	for want := uint64(1); want <= 3; want++ {
		got, err := NextOrderNumber(ctx, db, "co-1")
		if err != nil {
			t.Fatalf("NextOrderNumber failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected %d, got %d", want, got)
		}
	}
}

func TestNextOrderNumberPerCompany(t *testing.T) {
	db := servicesDB(t)
	ctx := context.Background()

	if _, err := NextOrderNumber(ctx, db, "co-1"); err != nil {
		t.Fatalf("NextOrderNumber failed: %v", err)
	}
	if _, err := NextOrderNumber(ctx, db, "co-1"); err != nil {
		t.Fatalf("NextOrderNumber failed: %v", err)
	}

	// A different company starts at 1 regardless
	got, err := NextOrderNumber(ctx, db, "co-2")
	if err != nil {
		t.Fatalf("NextOrderNumber failed: %v", err)
	}
	if got != 1 {
		t.Errorf("Expected fresh sequence to start at 1, got %d", got)
	}
}

func TestNextOrderNumberAdvancesStoredValue(t *testing.T) {
	db := servicesDB(t)
	ctx := context.Background()

	if _, err := NextOrderNumber(ctx, db, "co-1"); err != nil {
		t.Fatalf("NextOrderNumber failed: %v", err)
	}

	var seq models.OrderSequence
	if err := db.First(&seq, "name = ?", "sales-orders:co-1").Error; err != nil {
		t.Fatalf("Sequence row missing: %v", err)
	}
	if seq.NextValue != 2 {
		t.Errorf("Expected stored next value 2, got %d", seq.NextValue)
	}
}
