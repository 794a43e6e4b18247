package model

import "time"

// LocationKind classifies a yard location.
type LocationKind int

const (
	LocationParking LocationKind = iota
	LocationStaging
	LocationWaiting
)

// String returns a human-readable representation of the location kind.
func (k LocationKind) String() string {
	switch k {
	case LocationParking:
		return "parking"
	case LocationStaging:
		return "staging"
	case LocationWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// YardLocation is a physical spot in the yard. Locations are deactivated,
// never destroyed, so historical moves keep resolving.
type YardLocation struct {
	Code             string       `bson:"code" json:"code"`
	WarehouseID      string       `bson:"warehouseID" json:"warehouse_id"`
	Kind             LocationKind `bson:"kind" json:"kind"`
	Capacity         int          `bson:"capacity" json:"capacity"`
	CurrentOccupancy int          `bson:"currentOccupancy" json:"current_occupancy"`
	Active           bool         `bson:"active" json:"active"`
	// GridX and GridY place the spot on the yard grid, used to estimate
	// move distances.
	GridX int `bson:"gridX" json:"grid_x"`
	GridY int `bson:"gridY" json:"grid_y"`
}

// HasSpace reports whether the location can take one more trailer.
func (l YardLocation) HasSpace() bool {
	return l.Active && l.CurrentOccupancy < l.Capacity
}

// MoveStatus defines the lifecycle state of a yard move.
type MoveStatus int

const (
	MovePending MoveStatus = iota
	MoveInProgress
	MoveCompleted
)

// String returns a human-readable representation of the move status.
func (s MoveStatus) String() string {
	switch s {
	case MovePending:
		return "pending"
	case MoveInProgress:
		return "in_progress"
	case MoveCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// YardMove is a single relocation task for one trailer. Completed is terminal.
type YardMove struct {
	ID             string        `bson:"_id" json:"id"`
	WarehouseID    string        `bson:"warehouseID" json:"warehouse_id"`
	TrailerID      string        `bson:"trailerID" json:"trailer_id"`
	FromLocation   string        `bson:"fromLocation,omitempty" json:"from_location,omitempty"` // empty for a first-ever placement
	ToLocation     string        `bson:"toLocation" json:"to_location"`
	Status         MoveStatus    `bson:"status" json:"status"`
	Reason         string        `bson:"reason,omitempty" json:"reason,omitempty"`
	Priority       int           `bson:"priority" json:"priority"`
	OperatorID     string        `bson:"operatorID,omitempty" json:"operator_id,omitempty"`
	RequestedTime  time.Time     `bson:"requestedTime" json:"requested_time"`
	ScheduledTime  time.Time     `bson:"scheduledTime,omitempty" json:"scheduled_time,omitempty"`
	CompletedTime  time.Time     `bson:"completedTime,omitempty" json:"completed_time,omitempty"`
	Duration       time.Duration `bson:"duration,omitempty" json:"duration,omitempty"`
	DistanceMeters float64       `bson:"distanceMeters" json:"distance_meters"`
}
