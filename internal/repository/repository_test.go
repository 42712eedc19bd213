package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/notify"
	"github.com/mascarene/tourdesk/internal/session"
	"github.com/mascarene/tourdesk/internal/stream"
	"github.com/mascarene/tourdesk/internal/tenancy"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db      *gorm.DB
	hub     *stream.Hub
	repo    *Repository[models.Partner, *models.Partner]
	cancel  context.CancelFunc
	planCtx context.Context
	dmcCtx  context.Context
	otherCtx context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Company{}, &models.UserProfile{}, &models.Partner{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := stream.NewHub()
	tenants, err := tenancy.NewResolver(ctx, db, hub)
	if err != nil {
		t.Fatalf("Failed to create resolver: %v", err)
	}
	t.Cleanup(tenants.Close)

	repo := New[models.Partner](Deps{
		DB:       db,
		Hub:      hub,
		Profiles: &session.Profiles{DB: db},
		Tenants:  tenants,
		Notify:   notify.NewFeed(),
	}, stream.TopicPartners)

	f := &fixture{db: db, hub: hub, repo: repo, cancel: cancel}

	f.seedCompany("plan-1", "Mascarene Planning", models.CompanyPlanning, "")
	f.seedCompany("dmc-1", "Island DMC", models.CompanyDMC, "plan-1")
	f.seedCompany("dmc-2", "Faraway DMC", models.CompanyDMC, "")

	f.seedUser("u-plan", "Planning User", "plan-1", "Mascarene Planning", models.CompanyPlanning)
	f.seedUser("u-dmc", "DMC User", "dmc-1", "Island DMC", models.CompanyDMC)
	f.seedUser("u-other", "Other User", "dmc-2", "Faraway DMC", models.CompanyDMC)

	f.planCtx = sessionCtx("u-plan", "Planning User")
	f.dmcCtx = sessionCtx("u-dmc", "DMC User")
	f.otherCtx = sessionCtx("u-other", "Other User")

	return f
}

func (f *fixture) seedCompany(id, name string, typ models.CompanyType, planningID string) {
	co := models.Company{Name: name, Type: typ, PlanningCompanyID: planningID}
	co.ID = id
	co.CompanyID = id
	co.DocumentStatus = models.StatusActive
	if err := f.db.Create(&co).Error; err != nil {
		panic(err)
	}
}

func (f *fixture) seedUser(authID, name, companyID, companyName string, typ models.CompanyType) {
	user := models.UserProfile{AuthUserID: authID, Name: name, Email: name + "@example.mu"}
	user.ID = uuid.NewString()
	user.CompanyID = companyID
	user.CompanyName = companyName
	user.CompanyType = typ
	if err := f.db.Create(&user).Error; err != nil {
		panic(err)
	}
}

func sessionCtx(userID, name string) context.Context {
	return session.NewContext(context.Background(), &session.Session{UserID: userID, DisplayName: name})
}

func TestAddStampsAuditAndTenantFields(t *testing.T) {
	f := setup(t)

	partner := models.Partner{Name: "Blue Lagoon Tours", Type: models.PartnerTourOperator}
	// Caller-supplied stamps never survive
	partner.ID = "forged-id"
	partner.CreatedBy = "forged"
	partner.CompanyID = "forged-company"

	id, err := f.repo.Add(f.dmcCtx, &partner)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == "forged-id" || id == "" {
		t.Fatalf("Expected a generated id, got %q", id)
	}

	var saved models.Partner
	if err := f.db.First(&saved, "id = ?", id).Error; err != nil {
		t.Fatalf("Row not found: %v", err)
	}

	if saved.CompanyID != "dmc-1" || saved.CompanyName != "Island DMC" || saved.CompanyType != models.CompanyDMC {
		t.Errorf("Tenant fields wrong: %+v", saved.Document)
	}
	if saved.CreatedBy != "u-dmc" || saved.CreatedByName != "DMC User" {
		t.Errorf("Creator fields wrong: %s/%s", saved.CreatedBy, saved.CreatedByName)
	}
	if saved.UpdatedBy != "u-dmc" || !saved.CreatedAt.Equal(saved.UpdatedAt) {
		t.Errorf("Expected updated == created on insert, got %v / %v", saved.CreatedAt, saved.UpdatedAt)
	}
	if saved.DocumentStatus != models.StatusActive {
		t.Errorf("Expected ACTIVE status, got %s", saved.DocumentStatus)
	}
}

func TestAddTwiceCreatesDistinctDocuments(t *testing.T) {
	f := setup(t)

	first, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Twin", Type: models.PartnerSupplier})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	second, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Twin", Type: models.PartnerSupplier})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if first == second {
		t.Fatal("Identical input must still produce distinct ids")
	}

	var a, b models.Partner
	f.db.First(&a, "id = ?", first)
	f.db.First(&b, "id = ?", second)
	if a.CreatedAt.IsZero() || b.CreatedAt.IsZero() {
		t.Error("Both documents must carry their own creation stamp")
	}
	if b.CreatedAt.Before(a.CreatedAt) {
		t.Errorf("Stamps out of order: %v then %v", a.CreatedAt, b.CreatedAt)
	}
}

func TestAddWithoutSessionRejected(t *testing.T) {
	f := setup(t)

	partner := models.Partner{Name: "Nobody"}
	if _, err := f.repo.Add(context.Background(), &partner); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("Expected ErrUnauthenticated, got %v", err)
	}

	var count int64
	f.db.Model(&models.Partner{}).Count(&count)
	if count != 0 {
		t.Errorf("Nothing should be written, found %d rows", count)
	}
}

func TestListScopedToOwnCompany(t *testing.T) {
	f := setup(t)

	if _, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Island Hotel", Type: models.PartnerHotel}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	mine, err := f.repo.ListOnce(f.dmcCtx)
	if err != nil {
		t.Fatalf("ListOnce failed: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("Owner expected 1 row, got %d", len(mine))
	}

	theirs, err := f.repo.ListOnce(f.otherCtx)
	if err != nil {
		t.Fatalf("ListOnce failed: %v", err)
	}
	if len(theirs) != 0 {
		t.Errorf("Unrelated company expected 0 rows, got %d", len(theirs))
	}
}

func TestPlanningSeesChildCompanyDocuments(t *testing.T) {
	f := setup(t)

	if _, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Child Doc"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := f.repo.Add(f.planCtx, &models.Partner{Name: "Own Doc"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	rows, err := f.repo.ListOnce(f.planCtx)
	if err != nil {
		t.Fatalf("ListOnce failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Planning expected child + own = 2 rows, got %d", len(rows))
	}

	// The child still sees only its own
	rows, err = f.repo.ListOnce(f.dmcCtx)
	if err != nil {
		t.Fatalf("ListOnce failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Child expected 1 row, got %d", len(rows))
	}
}

func TestListWithoutSessionIsEmpty(t *testing.T) {
	f := setup(t)

	if _, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Hidden"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	rows, err := f.repo.ListOnce(context.Background())
	if err != nil {
		t.Fatalf("Expected empty list, got error %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected empty list, got %d rows", len(rows))
	}
}

func TestGetByIDCrossesTenants(t *testing.T) {
	f := setup(t)

	id, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Shared Ref"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// A direct reference works regardless of the viewer's company
	row, err := f.repo.Get(f.otherCtx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if row == nil || row.Name != "Shared Ref" {
		t.Errorf("Expected the row, got %+v", row)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	f := setup(t)

	row, err := f.repo.Get(f.dmcCtx, uuid.NewString())
	if err != nil {
		t.Fatalf("Expected nil error for missing row, got %v", err)
	}
	if row != nil {
		t.Errorf("Expected nil row, got %+v", row)
	}
}

func TestUpdatePartialPreservesCreationAndTenant(t *testing.T) {
	f := setup(t)

	id, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Before", Type: models.PartnerSupplier})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	var before models.Partner
	f.db.First(&before, "id = ?", id)

	err = f.repo.Update(sessionCtx("u-plan", "Planning User"), id, map[string]any{
		"name":      "After",
		"id":        "forged",
		"createdBy": "forged",
		"companyId": "forged",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var after models.Partner
	f.db.First(&after, "id = ?", id)

	if after.Name != "After" {
		t.Errorf("Name not updated: %s", after.Name)
	}
	if after.CreatedBy != before.CreatedBy || !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("Creation fields changed: %s %v", after.CreatedBy, after.CreatedAt)
	}
	if after.CompanyID != "dmc-1" {
		t.Errorf("Tenant field changed: %s", after.CompanyID)
	}
	if after.UpdatedBy != "u-plan" || after.UpdatedByName != "Planning User" {
		t.Errorf("Updater stamp wrong: %s/%s", after.UpdatedBy, after.UpdatedByName)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) && !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestUpdateNestedObjectFlattens(t *testing.T) {
	f := setup(t)

	id, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Hotel", Type: models.PartnerHotel})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err = f.repo.Update(f.dmcCtx, id, map[string]any{
		"contactInfo": map[string]any{"email": "front@hotel.mu", "town": "Grand Baie"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var after models.Partner
	f.db.First(&after, "id = ?", id)
	if after.ContactInfo.Email != "front@hotel.mu" || after.ContactInfo.Town != "Grand Baie" {
		t.Errorf("Nested update lost: %+v", after.ContactInfo)
	}
}

func TestUpdateNestedForgedStampsIgnored(t *testing.T) {
	f := setup(t)

	id, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Guarded", Type: models.PartnerSupplier})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	var before models.Partner
	f.db.First(&before, "id = ?", id)

	// Nested objects flatten onto prefixed columns, so a crafted partial
	// could otherwise reach company_id or created_by that way.
	err = f.repo.Update(f.dmcCtx, id, map[string]any{
		"company":     map[string]any{"id": "forged-co", "name": "Forged Co", "type": "PLANNING"},
		"created":     map[string]any{"by": "forged-user", "byName": "Forged User"},
		"contactInfo": map[string]any{"email": "guarded@hotel.mu"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var after models.Partner
	f.db.First(&after, "id = ?", id)
	if after.CompanyID != "dmc-1" || after.CompanyName != before.CompanyName || after.CompanyType != before.CompanyType {
		t.Errorf("Tenant fields changed: %s %s %s", after.CompanyID, after.CompanyName, after.CompanyType)
	}
	if after.CreatedBy != "u-dmc" || after.CreatedByName != before.CreatedByName {
		t.Errorf("Creation stamps changed: %s/%s", after.CreatedBy, after.CreatedByName)
	}
	if after.ContactInfo.Email != "guarded@hotel.mu" {
		t.Errorf("Legitimate nested field lost: %+v", after.ContactInfo)
	}
}

func TestUpdateSerializeFailureNotifies(t *testing.T) {
	f := setup(t)

	id, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Stable", Type: models.PartnerSupplier})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err = f.repo.Update(f.dmcCtx, id, map[string]any{
		"name": map[string]any{"bad": func() {}},
	})
	if err == nil {
		t.Fatal("Expected a serialization error")
	}

	feed := f.repo.deps.Notify.(*notify.Feed)
	notices := feed.Recent()
	if len(notices) == 0 {
		t.Fatal("Expected an error notice")
	}
	last := notices[len(notices)-1]
	if last.Level != "error" || !strings.Contains(last.Message, "update") {
		t.Errorf("Unexpected notice: %+v", last)
	}

	var after models.Partner
	f.db.First(&after, "id = ?", id)
	if after.Name != "Stable" {
		t.Errorf("Row changed despite the failure: %s", after.Name)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	f := setup(t)

	id, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Doomed"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := f.repo.Delete(f.dmcCtx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	row, err := f.repo.Get(f.dmcCtx, id)
	if err != nil || row != nil {
		t.Errorf("Expected gone, got %+v err %v", row, err)
	}
}

func TestListAllEmitsAndReEmitsOnChange(t *testing.T) {
	f := setup(t)

	streamCtx, cancel := context.WithCancel(f.dmcCtx)
	defer cancel()

	updates := f.repo.ListAll(streamCtx)

	first := waitForSnapshot(t, updates)
	if len(first) != 0 {
		t.Fatalf("Expected empty initial snapshot, got %d rows", len(first))
	}

	if _, err := f.repo.Add(f.dmcCtx, &models.Partner{Name: "Fresh"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case rows, ok := <-updates:
			if !ok {
				t.Fatal("Stream closed before re-emission")
			}
			if len(rows) == 1 {
				return
			}
		case <-deadline:
			t.Fatal("No re-emission after write")
		}
	}
}

func TestListAllClosesOnCancel(t *testing.T) {
	f := setup(t)

	streamCtx, cancel := context.WithCancel(f.dmcCtx)
	updates := f.repo.ListAll(streamCtx)
	waitForSnapshot(t, updates)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Stream did not close after cancel")
		}
	}
}

func waitForSnapshot(t *testing.T, updates <-chan []models.Partner) []models.Partner {
	t.Helper()
	select {
	case rows, ok := <-updates:
		if !ok {
			t.Fatal("Stream closed unexpectedly")
		}
		return rows
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for snapshot")
	}
	return nil
}
