package fleet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rentalcore/internal/db"
)

var ErrNotFound = errors.New("not found")

const (
	defaultListLimit = 200
	maxListLimit     = 1000
)

type Store struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewStore(conn *sql.DB, dialect db.Dialect) *Store {
	return &Store{db: conn, dialect: dialect}
}

type filterColumns struct {
	customer, vehicle, available bool
}

func (s *Store) listQuery(selectFrom string, f Filter, cols filterColumns) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cols.customer && f.CustomerID > 0 {
		clauses = append(clauses, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if cols.vehicle && f.VehicleID > 0 {
		clauses = append(clauses, "vehicle_id = ?")
		args = append(args, f.VehicleID)
	}
	if cols.available && f.Available != nil {
		clauses = append(clauses, "is_available = ?")
		args = append(args, *f.Available)
	}

	limit := f.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	q := selectFrom + " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY id LIMIT " + strconv.Itoa(limit)
	return s.dialect.Rebind(q), args
}

func (s *Store) exec(ctx context.Context, q db.DBTX, query string, args ...any) error {
	res, err := q.ExecContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListCustomers(ctx context.Context, f Filter) ([]Customer, error) {
	q, args := s.listQuery(`SELECT id, customer_name, customer_contact FROM customers`, f, filterColumns{})
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var result []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Contact); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) CreateCustomer(ctx context.Context, c *Customer) error {
	const q = `INSERT INTO customers (customer_name, customer_contact) VALUES (?, ?)`
	id, err := s.dialect.InsertID(ctx, s.db, q, c.Name, c.Contact)
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	c.ID = id
	return nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *Customer) error {
	return s.exec(ctx, s.db, `UPDATE customers SET customer_name = ?, customer_contact = ? WHERE id = ?`,
		c.Name, c.Contact, c.ID)
}

// DeleteCustomer detaches the customer's rentals and removes the customer in
// one transaction.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	return db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, s.dialect.Rebind(`UPDATE rentals SET customer_id = NULL WHERE customer_id = ?`), id); err != nil {
			return err
		}
		return s.exec(ctx, tx, `DELETE FROM customers WHERE id = ?`, id)
	})
}

func (s *Store) ListVehicles(ctx context.Context, f Filter) ([]Vehicle, error) {
	q, args := s.listQuery(`SELECT id, reg_number, model_name, daily_hire_rate, vehicle_type FROM vehicles`, f, filterColumns{})
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var result []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.RegNumber, &v.ModelName, &v.DailyHireRate, &v.VehicleType); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (s *Store) CreateVehicle(ctx context.Context, v *Vehicle) error {
	const q = `INSERT INTO vehicles (reg_number, model_name, daily_hire_rate, vehicle_type) VALUES (?, ?, ?, ?)`
	id, err := s.dialect.InsertID(ctx, s.db, q, v.RegNumber, v.ModelName, v.DailyHireRate, v.VehicleType)
	if err != nil {
		return fmt.Errorf("create vehicle: %w", err)
	}
	v.ID = id
	return nil
}

func (s *Store) UpdateVehicle(ctx context.Context, v *Vehicle) error {
	return s.exec(ctx, s.db, `UPDATE vehicles SET reg_number = ?, model_name = ?, daily_hire_rate = ?, vehicle_type = ? WHERE id = ?`,
		v.RegNumber, v.ModelName, v.DailyHireRate, v.VehicleType, v.ID)
}

// DeleteVehicle clears the vehicle from locations and rentals before deleting
// it, all in one transaction.
func (s *Store) DeleteVehicle(ctx context.Context, id int64) error {
	return db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		for _, q := range []string{
			`UPDATE locations SET vehicle_id = NULL WHERE vehicle_id = ?`,
			`UPDATE rentals SET vehicle_id = NULL WHERE vehicle_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, s.dialect.Rebind(q), id); err != nil {
				return err
			}
		}
		return s.exec(ctx, tx, `DELETE FROM vehicles WHERE id = ?`, id)
	})
}

func (s *Store) ListLocations(ctx context.Context, f Filter) ([]Location, error) {
	q, args := s.listQuery(`SELECT id, location_name, vehicle_id, is_available FROM locations`, f,
		filterColumns{vehicle: true, available: true})
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var result []Location
	for rows.Next() {
		var l Location
		var available bool
		if err := rows.Scan(&l.ID, &l.Name, &l.VehicleID, &available); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		l.IsAvailable = &available
		result = append(result, l)
	}
	return result, rows.Err()
}

func (s *Store) CreateLocation(ctx context.Context, l *Location) error {
	const q = `INSERT INTO locations (location_name, vehicle_id, is_available) VALUES (?, ?, ?)`
	id, err := s.dialect.InsertID(ctx, s.db, q, l.Name, l.VehicleID, availability(l))
	if err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	l.ID = id
	return nil
}

func (s *Store) UpdateLocation(ctx context.Context, l *Location) error {
	return s.exec(ctx, s.db, `UPDATE locations SET location_name = ?, vehicle_id = ?, is_available = ? WHERE id = ?`,
		l.Name, l.VehicleID, availability(l), l.ID)
}

func (s *Store) DeleteLocation(ctx context.Context, id int64) error {
	return s.exec(ctx, s.db, `DELETE FROM locations WHERE id = ?`, id)
}

// availability treats an unset flag as available.
func availability(l *Location) bool {
	return l.IsAvailable == nil || *l.IsAvailable
}

func (s *Store) ListRentals(ctx context.Context, f Filter) ([]Rental, error) {
	q, args := s.listQuery(`SELECT id, customer_id, vehicle_id, date_from, date_to, total_cost FROM rentals`, f,
		filterColumns{customer: true, vehicle: true})
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	var result []Rental
	for rows.Next() {
		var r Rental
		if err := rows.Scan(&r.ID, &r.CustomerID, &r.VehicleID, &r.DateFrom, &r.DateTo, &r.TotalCost); err != nil {
			return nil, fmt.Errorf("scan rental: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) CreateRental(ctx context.Context, r *Rental) error {
	const q = `INSERT INTO rentals (customer_id, vehicle_id, date_from, date_to, total_cost) VALUES (?, ?, ?, ?, ?)`
	id, err := s.dialect.InsertID(ctx, s.db, q, r.CustomerID, r.VehicleID, r.DateFrom, r.DateTo, r.TotalCost)
	if err != nil {
		return fmt.Errorf("create rental: %w", err)
	}
	r.ID = id
	return nil
}

func (s *Store) UpdateRental(ctx context.Context, r *Rental) error {
	return s.exec(ctx, s.db, `UPDATE rentals SET customer_id = ?, vehicle_id = ?, date_from = ?, date_to = ?, total_cost = ? WHERE id = ?`,
		r.CustomerID, r.VehicleID, r.DateFrom, r.DateTo, r.TotalCost, r.ID)
}

func (s *Store) DeleteRental(ctx context.Context, id int64) error {
	return s.exec(ctx, s.db, `DELETE FROM rentals WHERE id = ?`, id)
}
