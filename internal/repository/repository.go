// repository.go
//
// Tour operations back-office data service
//
// This file is part of tourdesk.
// tourdesk is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// tourdesk is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with tourdesk.
// If not, see <https://www.gnu.org/licenses/>.

// Package repository provides generic, tenant-scoped access to one document
// collection: audit-stamped writes, visibility-filtered reads and a live
// snapshot stream that re-emits on every relevant change.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/notify"
	"github.com/mascarene/tourdesk/internal/session"
	"github.com/mascarene/tourdesk/internal/stream"
	"github.com/mascarene/tourdesk/internal/tenancy"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/hints"
)

// ErrUnauthenticated is returned when a write is attempted without an
// authenticated session carrying a loaded tenant profile. Nothing is
// stamped or written in that case.
var ErrUnauthenticated = errors.New("unauthenticated: no session or tenant profile")

// Entity constrains repositories to pointer types embedding models.Document.
type Entity[T any] interface {
	*T
	Doc() *models.Document
}

// Deps are the collaborators every repository shares.
type Deps struct {
	DB       *gorm.DB
	Hub      *stream.Hub
	Profiles *session.Profiles
	Tenants  *tenancy.Resolver
	Notify   notify.Sink
}

// Repository is generic document access for one collection. The zero value
// is not usable; construct with New.
type Repository[T any, P Entity[T]] struct {
	deps  Deps
	topic string

	schemaOnce sync.Once
	schema     *schema.Schema
	schemaErr  error
}

// New creates a repository for the collection identified by topic.
func New[T any, P Entity[T]](deps Deps, topic string) *Repository[T, P] {
	return &Repository[T, P]{deps: deps, topic: topic}
}

// Topic returns the change topic this repository publishes on.
func (r *Repository[T, P]) Topic() string {
	return r.topic
}

// ListAll returns a live snapshot stream of the documents visible to the
// session carried by ctx. A fresh, complete snapshot is emitted immediately
// and again whenever the collection, the users collection (profile changes)
// or the companies collection (visibility changes) signals a change. The
// stream closes when ctx is cancelled. An unauthenticated session yields
// empty snapshots, not an error.
func (r *Repository[T, P]) ListAll(ctx context.Context) <-chan []T {
	out := make(chan []T, 1)

	collection := r.deps.Hub.Subscribe(ctx, r.topic)
	profiles := r.deps.Hub.Subscribe(ctx, stream.TopicUsers)
	companies := r.deps.Hub.Subscribe(ctx, stream.TopicCompanies)

	go func() {
		defer close(out)

		emit := func() bool {
			rows, err := r.ListOnce(ctx)
			if err != nil {
				// Keep the stream alive on transient failure; the view
				// stays on its previous snapshot.
				log.Printf("list %s failed: %v", r.topic, err)
				return true
			}
			select {
			case out <- rows:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-collection:
				if !ok {
					return
				}
			case _, ok := <-profiles:
				if !ok {
					return
				}
			case _, ok := <-companies:
				if !ok {
					return
				}
			}
			if !emit() {
				return
			}
		}
	}()

	return out
}

// ListOnce runs the tenant-resolution + query pipeline a single time and
// returns the current snapshot. No session or no tenant profile yields an
// empty list.
func (r *Repository[T, P]) ListOnce(ctx context.Context) ([]T, error) {
	sess := session.FromContext(ctx)
	if sess == nil {
		return []T{}, nil
	}

	profile, err := r.deps.Profiles.Load(ctx, sess.UserID)
	if err != nil {
		r.deps.Notify.Error("Failed to load your profile. Please retry.")
		return nil, err
	}
	if profile == nil {
		return []T{}, nil
	}

	ids, err := r.deps.Tenants.VisibleCompanyIDs(ctx, profile)
	if err != nil {
		r.deps.Notify.Error("Failed to resolve company visibility. Please retry.")
		return nil, err
	}

	var rows []T
	q := r.deps.DB.WithContext(ctx).Clauses(hints.Comment("select", "tenant-scope"))
	if len(ids) == 1 {
		q = q.Where("company_id = ?", ids[0])
	} else {
		q = q.Where("company_id IN ?", ids)
	}
	if err := q.Find(&rows).Error; err != nil {
		r.deps.Notify.Error(fmt.Sprintf("Failed to load %s.", r.topic))
		return nil, fmt.Errorf("list %s: %w", r.topic, err)
	}

	return rows, nil
}

// Get fetches one document by id. No tenant filter is applied: callers
// navigating by id are assumed to hold a valid reference (deep links into
// edit pages). Absent documents return nil, nil.
func (r *Repository[T, P]) Get(ctx context.Context, id string) (P, error) {
	var row T
	err := r.deps.DB.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.deps.Notify.Error(fmt.Sprintf("Failed to load the requested %s record.", r.topic))
		return nil, fmt.Errorf("get %s %s: %w", r.topic, id, err)
	}
	return P(&row), nil
}

// Add creates the document, stamping id, timestamps, status, creator and
// tenant fields. The stamps are applied after the caller's input, so
// caller-supplied values for stamped fields never survive.
func (r *Repository[T, P]) Add(ctx context.Context, entity P) (string, error) {
	sess := session.FromContext(ctx)
	if sess == nil {
		return "", ErrUnauthenticated
	}
	profile, err := r.deps.Profiles.Load(ctx, sess.UserID)
	if err != nil {
		r.deps.Notify.Error("Failed to load your profile. Please retry.")
		return "", err
	}
	if profile == nil {
		return "", ErrUnauthenticated
	}

	now := time.Now().UTC()
	doc := doc(entity)
	doc.ID = uuid.NewString()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.DocumentStatus = models.StatusActive
	doc.CreatedBy = sess.UserID
	doc.CreatedByName = sess.DisplayName
	doc.UpdatedBy = sess.UserID
	doc.UpdatedByName = sess.DisplayName
	doc.CompanyID = profile.CompanyID
	doc.CompanyName = profile.CompanyName
	doc.CompanyType = profile.CompanyType

	if err := r.deps.DB.WithContext(ctx).Create(entity).Error; err != nil {
		r.deps.Notify.Error(fmt.Sprintf("Failed to create the %s record.", r.topic))
		return "", fmt.Errorf("create %s: %w", r.topic, err)
	}

	r.deps.Hub.Publish(r.topic)
	return doc.ID, nil
}

// Update merges the partial into the document: only the keys present are
// written. updatedAt/updatedBy/updatedByName are stamped last; id, creation
// and tenant fields are never writable through here.
func (r *Repository[T, P]) Update(ctx context.Context, id string, partial map[string]any) error {
	sess := session.FromContext(ctx)
	if sess == nil {
		return ErrUnauthenticated
	}

	values, err := r.columnValues(partial)
	if err != nil {
		r.deps.Notify.Error(fmt.Sprintf("Failed to update the %s record.", r.topic))
		return err
	}

	now := time.Now().UTC()
	values["updated_at"] = now
	values["updated_by"] = sess.UserID
	values["updated_by_name"] = sess.DisplayName

	res := r.deps.DB.WithContext(ctx).Model(P(new(T))).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		r.deps.Notify.Error(fmt.Sprintf("Failed to update the %s record.", r.topic))
		return fmt.Errorf("update %s %s: %w", r.topic, id, res.Error)
	}

	r.deps.Hub.Publish(r.topic)
	return nil
}

// Delete removes the document. Hard delete: callers wanting a tombstone
// set documentStatus ARCHIVED via Update instead.
func (r *Repository[T, P]) Delete(ctx context.Context, id string) error {
	if session.FromContext(ctx) == nil {
		return ErrUnauthenticated
	}

	res := r.deps.DB.WithContext(ctx).Delete(P(new(T)), "id = ?", id)
	if res.Error != nil {
		r.deps.Notify.Error(fmt.Sprintf("Failed to delete the %s record.", r.topic))
		return fmt.Errorf("delete %s %s: %w", r.topic, id, res.Error)
	}

	r.deps.Hub.Publish(r.topic)
	return nil
}

// protected columns can never be written through Update.
var protectedColumns = map[string]struct{}{
	"id":              {},
	"created_at":      {},
	"created_by":      {},
	"created_by_name": {},
	"updated_at":      {},
	"updated_by":      {},
	"updated_by_name": {},
	"company_id":      {},
	"company_name":    {},
	"company_type":    {},
}

// columnValues translates a JSON-shaped partial (camelCase keys, possibly
// nested objects) into column assignments. Nested objects flatten into the
// embedded-prefix columns unless the model maps the whole object to a JSON
// column, in which case the value is serialized.
func (r *Repository[T, P]) columnValues(partial map[string]any) (map[string]any, error) {
	sch, err := r.modelSchema()
	if err != nil {
		return nil, err
	}

	naming := schema.NamingStrategy{}
	values := make(map[string]any, len(partial)+3)

	for key, value := range partial {
		col := naming.ColumnName("", key)
		if _, locked := protectedColumns[col]; locked {
			continue
		}

		if _, isColumn := sch.FieldsByDBName[col]; isColumn {
			switch value.(type) {
			case map[string]any, []any:
				raw, err := json.Marshal(value)
				if err != nil {
					return nil, fmt.Errorf("serialize %s: %w", key, err)
				}
				values[col] = datatypes.JSON(raw)
			default:
				values[col] = value
			}
			continue
		}

		// Not a direct column: flatten one level of nesting into the
		// embedded-prefix columns (contactInfo.email -> contact_info_email).
		nested, ok := value.(map[string]any)
		if !ok {
			continue // unknown scalar key, degrade by dropping it
		}
		for subKey, subValue := range nested {
			subCol := col + "_" + naming.ColumnName("", subKey)
			if _, locked := protectedColumns[subCol]; locked {
				continue
			}
			if _, isColumn := sch.FieldsByDBName[subCol]; isColumn {
				values[subCol] = subValue
			}
		}
	}

	return values, nil
}

func (r *Repository[T, P]) modelSchema() (*schema.Schema, error) {
	r.schemaOnce.Do(func() {
		r.schema, r.schemaErr = schema.Parse(new(T), &sync.Map{}, schema.NamingStrategy{})
	})
	if r.schemaErr != nil {
		return nil, fmt.Errorf("parse model schema: %w", r.schemaErr)
	}
	return r.schema, nil
}

// doc narrows the generic pointer to its embedded document metadata.
func doc[T any, P Entity[T]](entity P) *models.Document {
	return entity.Doc()
}
