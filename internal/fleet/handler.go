package fleet

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"rentalcore/internal/httpx"
)

// Routes are the four handlers of one resource. The caller decides which
// access policy wraps each.
type Routes struct {
	List   http.Handler
	Create http.Handler
	Update http.Handler
	Delete http.Handler
}

type Handler struct {
	Store  *Store
	Logger *slog.Logger
}

// resource describes one table to the shared CRUD handlers.
type resource[T any] struct {
	thing  string // "Customer"
	things string // "customers"
	idKey  string // "customer_id"

	list   func(context.Context, Filter) ([]T, error)
	create func(context.Context, *T) error
	update func(context.Context, int64, *T) error
	remove func(context.Context, int64) error
	id     func(*T) int64

	// checked after tag validation; nil means nothing extra
	checkCreate func(*T) error
	checkUpdate func(*T) error
}

func (h *Handler) Customers() Routes {
	return routes(h.Logger, resource[Customer]{
		thing: "Customer", things: "customers", idKey: "customer_id",
		list:   h.Store.ListCustomers,
		create: h.Store.CreateCustomer,
		update: func(ctx context.Context, id int64, c *Customer) error {
			c.ID = id
			return h.Store.UpdateCustomer(ctx, c)
		},
		remove: h.Store.DeleteCustomer,
		id:     func(c *Customer) int64 { return c.ID },
	})
}

func (h *Handler) Vehicles() Routes {
	return routes(h.Logger, resource[Vehicle]{
		thing: "Vehicle", things: "vehicles", idKey: "vehicle_id",
		list:   h.Store.ListVehicles,
		create: h.Store.CreateVehicle,
		update: func(ctx context.Context, id int64, v *Vehicle) error {
			v.ID = id
			return h.Store.UpdateVehicle(ctx, v)
		},
		remove: h.Store.DeleteVehicle,
		id:     func(v *Vehicle) int64 { return v.ID },
	})
}

func (h *Handler) Locations() Routes {
	return routes(h.Logger, resource[Location]{
		thing: "Location", things: "locations", idKey: "location_id",
		list:   h.Store.ListLocations,
		create: h.Store.CreateLocation,
		update: func(ctx context.Context, id int64, l *Location) error {
			l.ID = id
			return h.Store.UpdateLocation(ctx, l)
		},
		remove: h.Store.DeleteLocation,
		id:     func(l *Location) int64 { return l.ID },
		checkCreate: func(l *Location) error {
			if l.IsAvailable == nil {
				return errors.New("is_available is required")
			}
			return nil
		},
	})
}

func (h *Handler) Rentals() Routes {
	return routes(h.Logger, resource[Rental]{
		thing: "Rental", things: "rentals", idKey: "rental_id",
		list:   h.Store.ListRentals,
		create: h.Store.CreateRental,
		update: func(ctx context.Context, id int64, r *Rental) error {
			r.ID = id
			return h.Store.UpdateRental(ctx, r)
		},
		remove:      h.Store.DeleteRental,
		id:          func(r *Rental) int64 { return r.ID },
		checkCreate: checkRentalDates,
		checkUpdate: checkRentalDates,
	})
}

func checkRentalDates(r *Rental) error {
	// YYYY-MM-DD orders lexically
	if r.DateTo < r.DateFrom {
		return errors.New("date_to must not be before date_from")
	}
	return nil
}

func routes[T any](logger *slog.Logger, res resource[T]) Routes {
	return Routes{
		List:   listHandler(logger, res),
		Create: createHandler(logger, res),
		Update: updateHandler(logger, res),
		Delete: deleteHandler(logger, res),
	}
}

func dbError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	logger.Error(op, "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "Database error")
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	var f Filter
	var err error
	if v := q.Get("customer_id"); v != "" {
		if f.CustomerID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return f, errors.New("customer_id must be an integer")
		}
	}
	if v := q.Get("vehicle_id"); v != "" {
		if f.VehicleID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return f, errors.New("vehicle_id must be an integer")
		}
	}
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("available must be true or false")
		}
		f.Available = &b
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, errors.New("limit must be an integer")
		}
	}
	return f, nil
}

func listHandler[T any](logger *slog.Logger, res resource[T]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		items, err := res.list(r.Context(), f)
		if err != nil {
			dbError(w, logger, "list "+res.things, err)
			return
		}
		if len(items) == 0 {
			httpx.WriteError(w, http.StatusNotFound, "No "+res.things+" found")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	})
}

func decode[T any](w http.ResponseWriter, r *http.Request, check func(*T) error) (*T, bool) {
	v := new(T)
	err := httpx.Decode(r, v)
	if err == nil && check != nil {
		err = check(v)
	}
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return v, true
}

func createHandler[T any](logger *slog.Logger, res resource[T]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok := decode(w, r, res.checkCreate)
		if !ok {
			return
		}
		if err := res.create(r.Context(), v); err != nil {
			dbError(w, logger, "create "+res.thing, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{
			"message": res.thing + " created successfully",
			res.idKey: res.id(v),
		})
	})
}

func updateHandler[T any](logger *slog.Logger, res resource[T]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpx.PathID(r)
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "invalid "+res.idKey)
			return
		}
		v, ok := decode(w, r, res.checkUpdate)
		if !ok {
			return
		}
		err := res.update(r.Context(), id, v)
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, res.thing+" not found")
		case err != nil:
			dbError(w, logger, "update "+res.thing, err)
		default:
			httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": res.thing + " updated successfully"})
		}
	})
}

func deleteHandler[T any](logger *slog.Logger, res resource[T]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpx.PathID(r)
		if !ok {
			httpx.WriteError(w, http.StatusBadRequest, "invalid "+res.idKey)
			return
		}
		err := res.remove(r.Context(), id)
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, res.thing+" not found")
		case err != nil:
			dbError(w, logger, "delete "+res.thing, err)
		default:
			logger.Info(res.thing+" deleted", res.idKey, id)
			httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": res.thing + " deleted successfully"})
		}
	})
}
