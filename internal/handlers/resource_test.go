package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/notify"
	"github.com/mascarene/tourdesk/internal/repository"
	"github.com/mascarene/tourdesk/internal/session"
	"github.com/mascarene/tourdesk/internal/stream"
	"github.com/mascarene/tourdesk/internal/tenancy"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// resourceApp wires a partners resource over an in-memory database with one
// seeded company and user.
func resourceApp(t *testing.T) *fiber.App {
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

	co := models.Company{Name: "Island DMC", Type: models.CompanyDMC}
	co.ID = "co-1"
	if err := db.Create(&co).Error; err != nil {
		t.Fatalf("Seed company failed: %v", err)
	}
	user := models.UserProfile{AuthUserID: "alice", Name: "Alice"}
	user.ID = "profile-1"
	user.CompanyID = "co-1"
	user.CompanyName = "Island DMC"
	user.CompanyType = models.CompanyDMC
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Seed user failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := stream.NewHub()
	tenants, err := tenancy.NewResolver(ctx, db, hub)
	if err != nil {
		t.Fatalf("Failed to create resolver: %v", err)
	}
	t.Cleanup(tenants.Close)

	repo := repository.New[models.Partner](repository.Deps{
		DB:       db,
		Hub:      hub,
		Profiles: &session.Profiles{DB: db},
		Tenants:  tenants,
		Notify:   notify.NewFeed(),
	}, stream.TopicPartners)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if u := c.Get("X-Test-User"); u != "" {
			sess := &session.Session{UserID: u, DisplayName: u}
			c.SetUserContext(session.NewContext(c.UserContext(), sess))
		}
		return c.Next()
	})

	h := &Resource[models.Partner, *models.Partner]{Repo: repo, Name: "partner"}
	h.Register(app.Group("/api/partners"))

	return app
}

func createdID(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		ID string `json:"id"`
		Ok bool   `json:"ok"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Bad mutation payload: %v", err)
	}
	if !resp.Ok || resp.ID == "" {
		t.Fatalf("Unexpected mutation payload: %s", body)
	}
	return resp.ID
}

func TestResourceLifecycle(t *testing.T) {
	app := resourceApp(t)

	status, body := doRequest(t, app, "POST", "/api/partners/", "alice",
		`{"name":"Blue Lagoon Tours","type":"TOUR_OPERATOR","contactInfo":{"email":"ops@bluelagoon.mu"}}`)
	if status != fiber.StatusOK {
		t.Fatalf("Create returned %d: %s", status, body)
	}
	id := createdID(t, body)

	status, body = doRequest(t, app, "GET", "/api/partners/", "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("List returned %d", status)
	}
	var listed []models.Partner
	if err := json.Unmarshal(body, &listed); err != nil || len(listed) != 1 {
		t.Fatalf("Expected 1 partner, got %s", body)
	}
	if listed[0].CompanyID != "co-1" || listed[0].CreatedBy != "alice" {
		t.Errorf("Stamps missing: %+v", listed[0].Document)
	}

	status, body = doRequest(t, app, "GET", "/api/partners/"+id, "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("Get returned %d", status)
	}
	var got models.Partner
	if err := json.Unmarshal(body, &got); err != nil || got.ContactInfo.Email != "ops@bluelagoon.mu" {
		t.Errorf("Unexpected document: %s", body)
	}

	status, _ = doRequest(t, app, "PATCH", "/api/partners/"+id, "alice",
		`{"name":"Blue Lagoon Ltd","contactInfo":{"town":"Grand Baie"}}`)
	if status != fiber.StatusOK {
		t.Fatalf("Update returned %d", status)
	}

	status, body = doRequest(t, app, "GET", "/api/partners/"+id, "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("Get after update returned %d", status)
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Bad payload: %v", err)
	}
	if got.Name != "Blue Lagoon Ltd" || got.ContactInfo.Town != "Grand Baie" {
		t.Errorf("Update not applied: %s", body)
	}
	if got.ContactInfo.Email != "ops@bluelagoon.mu" {
		t.Errorf("Untouched nested field lost: %s", body)
	}

	status, _ = doRequest(t, app, "DELETE", "/api/partners/"+id, "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("Delete returned %d", status)
	}

	status, _ = doRequest(t, app, "GET", "/api/partners/"+id, "alice", "")
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", status)
	}
}

func TestResourceCreateWithoutProfileForbidden(t *testing.T) {
	app := resourceApp(t)

	// Authenticated but without a profile document
	status, _ := doRequest(t, app, "POST", "/api/partners/", "stranger", `{"name":"X"}`)
	if status != fiber.StatusForbidden {
		t.Errorf("Expected 403 without a tenant profile, got %d", status)
	}
}

func TestResourceListWithoutSessionIsEmpty(t *testing.T) {
	app := resourceApp(t)

	doRequest(t, app, "POST", "/api/partners/", "alice", `{"name":"Hidden"}`)

	status, body := doRequest(t, app, "GET", "/api/partners/", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("List returned %d", status)
	}
	var listed []models.Partner
	if err := json.Unmarshal(body, &listed); err != nil || len(listed) != 0 {
		t.Errorf("Expected empty list without a session, got %s", body)
	}
}

func TestResourceGetMissing(t *testing.T) {
	app := resourceApp(t)

	status, _ := doRequest(t, app, "GET", "/api/partners/no-such-id", "alice", "")
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}
}
