package model

import "time"

// TrailerStatus defines the presence state of a trailer visit.
type TrailerStatus int

const (
	TrailerArrived TrailerStatus = iota
	TrailerAtDock
	TrailerInYard
	TrailerDeparted
)

// String returns a human-readable representation of the trailer status.
func (s TrailerStatus) String() string {
	switch s {
	case TrailerArrived:
		return "arrived"
	case TrailerAtDock:
		return "at_dock"
	case TrailerInYard:
		return "in_yard"
	case TrailerDeparted:
		return "departed"
	default:
		return "unknown"
	}
}

// Trailer represents one physical trailer visit from check-in to departure.
type Trailer struct {
	ID              string        `bson:"_id" json:"id"`
	WarehouseID     string        `bson:"warehouseID" json:"warehouse_id"`
	PlateNumber     string        `bson:"plateNumber" json:"plate_number"`
	CarrierName     string        `bson:"carrierName" json:"carrier_name"`
	DriverName      string        `bson:"driverName,omitempty" json:"driver_name,omitempty"`
	DriverPhone     string        `bson:"driverPhone,omitempty" json:"driver_phone,omitempty"`
	Status          TrailerStatus `bson:"status" json:"status"`
	CurrentLocation string        `bson:"currentLocation,omitempty" json:"current_location,omitempty"` // dock door ("dock-3") or yard location code
	AppointmentID   string        `bson:"appointmentID,omitempty" json:"appointment_id,omitempty"`
	Operation       OperationType `bson:"operation" json:"operation"`
	CheckInTime     time.Time     `bson:"checkInTime,omitempty" json:"check_in_time,omitempty"`
	CheckOutTime    time.Time     `bson:"checkOutTime,omitempty" json:"check_out_time,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"created_at"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updated_at"`
}

// DwellHours returns the elapsed occupancy time in hours. It returns zero
// until both check-in and check-out are recorded.
func (t Trailer) DwellHours() float64 {
	if t.CheckInTime.IsZero() || t.CheckOutTime.IsZero() {
		return 0
	}
	return t.CheckOutTime.Sub(t.CheckInTime).Hours()
}
