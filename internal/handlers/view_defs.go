// view_defs.go
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

package handlers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mascarene/tourdesk/internal/models"
	"github.com/mascarene/tourdesk/internal/repository"
	"github.com/mascarene/tourdesk/internal/table"
)

// entityView binds a table engine to a repository's live snapshot stream.
type entityView[T any, P repository.Entity[T]] struct {
	engine *table.Engine[T]

	mu      sync.Mutex
	closed  bool
	changed chan struct{}
	cancel  context.CancelFunc
}

// newEntityFactory builds a ViewFactory for one entity collection.
func newEntityFactory[T any, P repository.Entity[T]](
	title string,
	repo *repository.Repository[T, P],
	columns []table.Column[T],
	filters []table.DropdownFilter[T],
) ViewFactory {
	return ViewFactory{
		Title: title,
		New: func(ctx context.Context) View {
			ctx, cancel := context.WithCancel(ctx)
			v := &entityView[T, P]{
				engine: table.NewEngine(columns, filters, func(row T) string {
					return P(&row).Doc().ID
				}, table.DefaultPageSize),
				changed: make(chan struct{}, 1),
				cancel:  cancel,
			}

			v.engine.WatchOptions(ctx)

			updates := repo.ListAll(ctx)
			go func() {
				for rows := range updates {
					v.engine.SetData(rows)
					v.signal()
				}
				v.mu.Lock()
				v.closed = true
				close(v.changed)
				v.mu.Unlock()
			}()

			return v
		},
	}
}

func (v *entityView[T, P]) Apply(cmd ViewCommand) error {
	switch cmd.Op {
	case "query":
		v.engine.SetQuery(cmd.Query)
	case "filter":
		v.engine.SetFilter(cmd.Key, cmd.Values.Slice())
	case "sort":
		v.engine.ToggleSort(cmd.Key)
	case "page":
		v.engine.SetPage(int(cmd.Page.Uint64()))
	case "select":
		v.engine.ToggleSelect(cmd.ID)
	case "selectAll":
		v.engine.SelectAllFiltered()
	case "clearSelection":
		v.engine.ClearSelection()
	default:
		return fmt.Errorf("unknown view command op %q", cmd.Op)
	}
	v.signal()
	return nil
}

func (v *entityView[T, P]) State() any {
	return v.engine.Page()
}

func (v *entityView[T, P]) Options(key string) []table.Option {
	return v.engine.Options(key)
}

func (v *entityView[T, P]) ExportCSV(w io.Writer, displayed []string) error {
	return v.engine.ExportCSV(w, displayed)
}

func (v *entityView[T, P]) Changed() <-chan struct{} {
	return v.changed
}

func (v *entityView[T, P]) Close() {
	v.cancel()
}

func (v *entityView[T, P]) signal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	select {
	case v.changed <- struct{}{}:
	default: // state event already pending
	}
}

// ViewDeps are the repositories the view factories draw from.
type ViewDeps struct {
	Companies         *repository.Repository[models.Company, *models.Company]
	Users             *repository.Repository[models.UserProfile, *models.UserProfile]
	Partners          *repository.Repository[models.Partner, *models.Partner]
	Guests            *repository.Repository[models.Guest, *models.Guest]
	Items             *repository.Repository[models.Item, *models.Item]
	Products          *repository.Repository[models.Product, *models.Product]
	VehicleCategories *repository.Repository[models.VehicleCategory, *models.VehicleCategory]
	Currencies        *repository.Repository[models.Currency, *models.Currency]
	SalesOrders       *repository.Repository[models.SalesOrder, *models.SalesOrder]
	Accommodations    *repository.Repository[models.Accommodation, *models.Accommodation]
}

// statusFilter is shared by every entity table.
func statusFilter[T any]() table.DropdownFilter[T] {
	return table.DropdownFilter[T]{
		Key:         "documentStatus",
		Placeholder: "Status",
		Options: []table.Option{
			{Value: string(models.StatusActive), Label: "Active"},
			{Value: string(models.StatusInactive), Label: "Inactive"},
			{Value: string(models.StatusArchived), Label: "Archived"},
		},
	}
}

// companyFilter populates its choices live from the companies stream, so a
// PLANNING operator can narrow any list to one child company.
func companyFilter[T any](companies *repository.Repository[models.Company, *models.Company]) table.DropdownFilter[T] {
	return table.DropdownFilter[T]{
		Key:         "companyName",
		Placeholder: "Company",
		Multiple:    true,
		Searchable:  true,
		OptionsSource: func(ctx context.Context) <-chan []table.Option {
			out := make(chan []table.Option, 1)
			updates := companies.ListAll(ctx)
			go func() {
				defer close(out)
				for rows := range updates {
					opts := make([]table.Option, 0, len(rows))
					for _, co := range rows {
						opts = append(opts, table.Option{Value: co.Name, Label: co.Name})
					}
					select {
					case out <- opts:
					case <-ctx.Done():
						return
					}
				}
			}()
			return out
		},
	}
}

// RegisterViewFactories declares every entity table: its columns, filters
// and the repository feeding it.
func RegisterViewFactories(reg *ViewRegistry, deps ViewDeps) {
	reg.RegisterFactory("companies", newEntityFactory("Companies", deps.Companies,
		[]table.Column[models.Company]{
			{Key: "name", Header: "Name", Sortable: true},
			{Key: "type", Header: "Type", Sortable: true},
			{Key: "accessType", Header: "Access", Cell: func(co models.Company) any {
				return co.Settings.Data().AccessType
			}},
			{Key: "createdAt", Header: "Created", Sortable: true},
		},
		[]table.DropdownFilter[models.Company]{
			{
				Key:         "type",
				Placeholder: "Type",
				Options: []table.Option{
					{Value: string(models.CompanyPlanning), Label: "Planning"},
					{Value: string(models.CompanyDMC), Label: "DMC"},
					{Value: string(models.CompanySubDMC), Label: "Sub-DMC"},
				},
			},
			statusFilter[models.Company](),
		}))

	reg.RegisterFactory("users", newEntityFactory("Users", deps.Users,
		[]table.Column[models.UserProfile]{
			{Key: "name", Header: "Name", Sortable: true},
			{Key: "email", Header: "Email", Sortable: true},
			{Key: "companyName", Header: "Company", Sortable: true},
			{Key: "createdByName", Header: "Created By"},
		},
		[]table.DropdownFilter[models.UserProfile]{
			companyFilter[models.UserProfile](deps.Companies),
			statusFilter[models.UserProfile](),
		}))

	reg.RegisterFactory("partners", newEntityFactory("Partners", deps.Partners,
		[]table.Column[models.Partner]{
			{Key: "name", Header: "Name", Sortable: true},
			{Key: "type", Header: "Type", Sortable: true},
			{Key: "contactInfo.email", Header: "Email"},
			{Key: "contactInfo.tel", Header: "Phone"},
			{Key: "contactInfo.town", Header: "Town", Sortable: true},
			{Key: "currencyName", Header: "Currency"},
			{Key: "companyName", Header: "Company", Sortable: true},
		},
		[]table.DropdownFilter[models.Partner]{
			{
				Key:         "type",
				Placeholder: "Partner type",
				Options: []table.Option{
					{Value: string(models.PartnerHotel), Label: "Hotel"},
					{Value: string(models.PartnerTourOperator), Label: "Tour operator"},
					{Value: string(models.PartnerSupplier), Label: "Supplier"},
					{Value: string(models.PartnerSalesRep), Label: "Sales rep"},
				},
			},
			companyFilter[models.Partner](deps.Companies),
			statusFilter[models.Partner](),
		}))

	reg.RegisterFactory("guests", newEntityFactory("Guests", deps.Guests,
		[]table.Column[models.Guest]{
			{Key: "name", Header: "Name", Sortable: true},
			{Key: "fileRef", Header: "File", Sortable: true},
			{Key: "tourOperatorName", Header: "Tour Operator", Sortable: true},
			{Key: "arrivalDate", Header: "Arrival", Sortable: true},
			{Key: "departureDate", Header: "Departure", Sortable: true},
			{Key: "pax.total", Header: "Pax", Sortable: true},
			{Key: "companyName", Header: "Company"},
		},
		[]table.DropdownFilter[models.Guest]{
			companyFilter[models.Guest](deps.Companies),
			statusFilter[models.Guest](),
		}))

	reg.RegisterFactory("items", newEntityFactory("Items", deps.Items,
		[]table.Column[models.Item]{
			{Key: "name", Header: "Name", Sortable: true},
			{Key: "itemCategory", Header: "Category", Sortable: true},
			{Key: "unitType", Header: "Unit"},
			{Key: "partnerName", Header: "Partner", Sortable: true},
			{Key: "vehicleCategoryName", Header: "Vehicle"},
			{Key: "companyName", Header: "Company"},
		},
		[]table.DropdownFilter[models.Item]{
			{
				Key:         "itemCategory",
				Placeholder: "Category",
				Multiple:    true,
				Options: []table.Option{
					{Value: string(models.ItemAirportTransfer), Label: "Airport transfer"},
					{Value: string(models.ItemInterHotelTransfer), Label: "Inter-hotel transfer"},
					{Value: string(models.ItemExcursionTransfer), Label: "Excursion transfer"},
					{Value: string(models.ItemExcursion), Label: "Excursion"},
					{Value: string(models.ItemCarRental), Label: "Car rental"},
					{Value: string(models.ItemRodrigues), Label: "Rodrigues"},
					{Value: string(models.ItemShuttle), Label: "Shuttle"},
					{Value: string(models.ItemWedding), Label: "Wedding"},
					{Value: string(models.ItemTravelingStaff), Label: "Traveling staff"},
					{Value: string(models.ItemElse), Label: "Other"},
				},
			},
			companyFilter[models.Item](deps.Companies),
			statusFilter[models.Item](),
		}))

	reg.RegisterFactory("products", newEntityFactory("Products", deps.Products,
		[]table.Column[models.Product]{
			{Key: "name", Header: "Name", Sortable: true},
			{Key: "productCode", Header: "Code", Sortable: true},
			{Key: "category", Header: "Category", Sortable: true},
			{Key: "price", Header: "Price", Sortable: true},
			{Key: "cost", Header: "Cost", Sortable: true},
			{Key: "companyName", Header: "Company"},
		},
		[]table.DropdownFilter[models.Product]{
			companyFilter[models.Product](deps.Companies),
			statusFilter[models.Product](),
		}))

	reg.RegisterFactory("vehicle-categories", newEntityFactory("Vehicle Categories", deps.VehicleCategories,
		[]table.Column[models.VehicleCategory]{
			{Key: "name", Header: "Name", Sortable: true},
			{Key: "capacity", Header: "Capacity", Sortable: true},
			{Key: "companyName", Header: "Company"},
		},
		[]table.DropdownFilter[models.VehicleCategory]{
			companyFilter[models.VehicleCategory](deps.Companies),
			statusFilter[models.VehicleCategory](),
		}))

	reg.RegisterFactory("currencies", newEntityFactory("Currencies", deps.Currencies,
		[]table.Column[models.Currency]{
			{Key: "name", Header: "Currency", Sortable: true},
			{Key: "exchangeRate", Header: "Rate", Sortable: true},
			{Key: "isActive", Header: "Active"},
			{Key: "updatedAt", Header: "Updated", Sortable: true},
		},
		[]table.DropdownFilter[models.Currency]{
			statusFilter[models.Currency](),
		}))

	reg.RegisterFactory("sales-orders", newEntityFactory("Sales Orders", deps.SalesOrders,
		[]table.Column[models.SalesOrder]{
			{Key: "orderNumber", Header: "Order #", Sortable: true},
			{Key: "status", Header: "Status", Sortable: true},
			{Key: "category", Header: "Category"},
			{Key: "partnerName", Header: "Partner", Sortable: true},
			{Key: "guestName", Header: "Guest", Sortable: true},
			{Key: "guestArrivalDate", Header: "Arrival", Sortable: true},
			{Key: "totalPrice", Header: "Total", Sortable: true},
			{Key: "currencyName", Header: "Currency"},
			{Key: "companyName", Header: "Company"},
		},
		[]table.DropdownFilter[models.SalesOrder]{
			{
				Key:         "status",
				Placeholder: "Status",
				Options: []table.Option{
					{Value: string(models.OrderDraft), Label: "Draft"},
					{Value: string(models.OrderFinalized), Label: "Finalized"},
					{Value: string(models.OrderCancelled), Label: "Cancelled"},
				},
			},
			{
				Key:         "category",
				Placeholder: "Category",
				Multiple:    true,
				Options: []table.Option{
					{Value: string(models.OrderCategoryTransfer), Label: "Transfer"},
					{Value: string(models.OrderCategoryExcursion), Label: "Excursion"},
					{Value: string(models.OrderCategoryPackage), Label: "Package"},
					{Value: string(models.OrderCategoryOther), Label: "Other"},
				},
			},
			companyFilter[models.SalesOrder](deps.Companies),
		}))

	reg.RegisterFactory("accommodations", newEntityFactory("Accommodations", deps.Accommodations,
		[]table.Column[models.Accommodation]{
			{Key: "guestName", Header: "Guest", Sortable: true},
			{Key: "hotelName", Header: "Hotel", Sortable: true},
			{Key: "startDate", Header: "Check-in", Sortable: true},
			{Key: "endDate", Header: "Check-out", Sortable: true},
			{Key: "status", Header: "Status", Sortable: true},
			{Key: "totalPrice", Header: "Total", Sortable: true},
			{Key: "currency", Header: "Currency"},
			{Key: "companyName", Header: "Company"},
		},
		[]table.DropdownFilter[models.Accommodation]{
			{
				Key:         "status",
				Placeholder: "Status",
				Options: []table.Option{
					{Value: string(models.AccommodationQuotation), Label: "Quotation"},
					{Value: string(models.AccommodationConfirmed), Label: "Confirmed"},
					{Value: string(models.AccommodationCancelled), Label: "Cancelled"},
				},
			},
			companyFilter[models.Accommodation](deps.Companies),
		}))
}
