package fleet

type Customer struct {
	ID      int64  `json:"customer_id"`
	Name    string `json:"customer_name" validate:"required"`
	Contact string `json:"customer_contact" validate:"required"`
}

type Vehicle struct {
	ID            int64   `json:"vehicle_id"`
	RegNumber     string  `json:"reg_number" validate:"required"`
	ModelName     string  `json:"model_name" validate:"required"`
	DailyHireRate float64 `json:"daily_hire_rate" validate:"gt=0"`
	VehicleType   string  `json:"vehicle_type" validate:"required"`
}

// Location assigns a vehicle to a site. VehicleID is nil once the vehicle
// has been deleted.
type Location struct {
	ID          int64  `json:"location_id"`
	Name        string `json:"location_name" validate:"required"`
	VehicleID   *int64 `json:"vehicle_id" validate:"required,gt=0"`
	IsAvailable *bool  `json:"is_available"`
}

// Rental dates are calendar days in YYYY-MM-DD form.
type Rental struct {
	ID         int64   `json:"rental_id"`
	CustomerID *int64  `json:"customer_id" validate:"required,gt=0"`
	VehicleID  *int64  `json:"vehicle_id" validate:"required,gt=0"`
	DateFrom   string  `json:"date_from" validate:"required,datetime=2006-01-02"`
	DateTo     string  `json:"date_to" validate:"required,datetime=2006-01-02"`
	TotalCost  float64 `json:"total_cost" validate:"gt=0"`
}

// Filter narrows list queries. Fields a table lacks are ignored.
type Filter struct {
	CustomerID int64
	VehicleID  int64
	Available  *bool
	Limit      int
}
