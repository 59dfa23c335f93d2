package fleet

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalcore/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn, db.SQLite))
	return NewStore(conn, db.SQLite)
}

func ptr[T any](v T) *T { return &v }

func TestStore_CustomerLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &Customer{Name: "Ada", Contact: "ada@example.com"}
	require.NoError(t, s.CreateCustomer(ctx, c))
	assert.NotZero(t, c.ID)

	c.Contact = "+44 100"
	require.NoError(t, s.UpdateCustomer(ctx, c))

	list, err := s.ListCustomers(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []Customer{*c}, list)

	assert.ErrorIs(t, s.UpdateCustomer(ctx, &Customer{ID: 999, Name: "x", Contact: "y"}), ErrNotFound)
	require.NoError(t, s.DeleteCustomer(ctx, c.ID))
	assert.ErrorIs(t, s.DeleteCustomer(ctx, c.ID), ErrNotFound)
}

func TestStore_DeleteCustomerDetachesRentals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := &Customer{Name: "Ada", Contact: "a"}
	require.NoError(t, s.CreateCustomer(ctx, c))
	v := &Vehicle{RegNumber: "AB12 CDE", ModelName: "Fiesta", DailyHireRate: 35, VehicleType: "car"}
	require.NoError(t, s.CreateVehicle(ctx, v))
	r := &Rental{CustomerID: ptr(c.ID), VehicleID: ptr(v.ID), DateFrom: "2024-05-01", DateTo: "2024-05-03", TotalCost: 70}
	require.NoError(t, s.CreateRental(ctx, r))

	require.NoError(t, s.DeleteCustomer(ctx, c.ID))

	rentals, err := s.ListRentals(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Nil(t, rentals[0].CustomerID)
	assert.Equal(t, v.ID, *rentals[0].VehicleID)
}

func TestStore_DeleteVehicleDetachesLocationsAndRentals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := &Vehicle{RegNumber: "AB12 CDE", ModelName: "Fiesta", DailyHireRate: 35, VehicleType: "car"}
	require.NoError(t, s.CreateVehicle(ctx, v))
	require.NoError(t, s.CreateLocation(ctx, &Location{Name: "Depot", VehicleID: ptr(v.ID), IsAvailable: ptr(false)}))
	require.NoError(t, s.CreateRental(ctx, &Rental{CustomerID: ptr(int64(1)), VehicleID: ptr(v.ID), DateFrom: "2024-05-01", DateTo: "2024-05-02", TotalCost: 35}))

	require.NoError(t, s.DeleteVehicle(ctx, v.ID))

	locs, err := s.ListLocations(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Nil(t, locs[0].VehicleID)
	assert.False(t, *locs[0].IsAvailable)

	rentals, err := s.ListRentals(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Nil(t, rentals[0].VehicleID)

	vehicles, err := s.ListVehicles(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, vehicles)
}

func TestStore_DeleteMissingVehicleRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateLocation(ctx, &Location{Name: "Depot", VehicleID: ptr(int64(42)), IsAvailable: ptr(true)}))

	assert.ErrorIs(t, s.DeleteVehicle(ctx, 42), ErrNotFound)

	locs, err := s.ListLocations(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	require.NotNil(t, locs[0].VehicleID, "detach must roll back with the failed delete")
	assert.Equal(t, int64(42), *locs[0].VehicleID)
}

func TestStore_LocationAvailabilityDefault(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	l := &Location{Name: "Depot", VehicleID: ptr(int64(1)), IsAvailable: ptr(false)}
	require.NoError(t, s.CreateLocation(ctx, l))

	require.NoError(t, s.UpdateLocation(ctx, &Location{ID: l.ID, Name: "Depot 2", VehicleID: ptr(int64(1))}))

	locs, err := s.ListLocations(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Depot 2", locs[0].Name)
	assert.True(t, *locs[0].IsAvailable)
}

func TestStore_ListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i, avail := range []bool{true, false, true} {
		require.NoError(t, s.CreateLocation(ctx, &Location{Name: "L", VehicleID: ptr(int64(i + 1)), IsAvailable: ptr(avail)}))
	}
	require.NoError(t, s.CreateRental(ctx, &Rental{CustomerID: ptr(int64(1)), VehicleID: ptr(int64(2)), DateFrom: "2024-01-01", DateTo: "2024-01-02", TotalCost: 1}))
	require.NoError(t, s.CreateRental(ctx, &Rental{CustomerID: ptr(int64(2)), VehicleID: ptr(int64(2)), DateFrom: "2024-01-01", DateTo: "2024-01-02", TotalCost: 1}))

	locs, err := s.ListLocations(ctx, Filter{Available: ptr(true)})
	require.NoError(t, err)
	assert.Len(t, locs, 2)

	locs, err = s.ListLocations(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, locs, 1)

	rentals, err := s.ListRentals(ctx, Filter{CustomerID: 2})
	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Equal(t, int64(2), *rentals[0].CustomerID)

	rentals, err = s.ListRentals(ctx, Filter{VehicleID: 2})
	require.NoError(t, err)
	assert.Len(t, rentals, 2)
}

func TestStore_ListLimit(t *testing.T) {
	s := NewStore(nil, db.SQLite)
	tests := []struct {
		limit int
		want  string
	}{
		{0, "LIMIT 200"},
		{-3, "LIMIT 200"},
		{50, "LIMIT 50"},
		{1000, "LIMIT 1000"},
		{5000, "LIMIT 1000"},
	}
	for _, tt := range tests {
		q, _ := s.listQuery("SELECT id FROM vehicles", Filter{Limit: tt.limit}, filterColumns{})
		assert.True(t, strings.HasSuffix(q, tt.want), "limit=%d query=%s", tt.limit, q)
	}
}

func TestStore_PostgresQueries(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	s := NewStore(conn, db.Postgres)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, customer_id, vehicle_id, date_from, date_to, total_cost FROM rentals WHERE 1=1 AND customer_id = $1 ORDER BY id LIMIT 200`)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "vehicle_id", "date_from", "date_to", "total_cost"}).
			AddRow(1, 5, nil, "2024-01-01", "2024-01-02", 20.5))
	rentals, err := s.ListRentals(ctx, Filter{CustomerID: 5})
	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Nil(t, rentals[0].VehicleID)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE rentals SET customer_id = NULL WHERE customer_id = $1`)).
		WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers WHERE id = $1`)).
		WithArgs(int64(5)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()
	err = s.DeleteCustomer(ctx, 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO vehicles (reg_number, model_name, daily_hire_rate, vehicle_type) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("AB12", "Golf", 40.0, "car").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	v := &Vehicle{RegNumber: "AB12", ModelName: "Golf", DailyHireRate: 40, VehicleType: "car"}
	require.NoError(t, s.CreateVehicle(ctx, v))
	assert.Equal(t, int64(9), v.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
