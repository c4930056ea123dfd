package message

// Point3D is a lat/lon/alt position.
type Point3D struct {
	Lat float64
	Lon float64
	Alt float64
}

// Point4D is a Point3D tagged with the instant it applies to.
type Point4D struct {
	Time  Timestamp
	Point Point3D
}

// Waypoint is an (eta, position) pair on a route; savepoints are derived
// from a TrajectoryService's waypoint set.
type Waypoint struct {
	ETA   Timestamp
	Point Point3D
}

// ProgEvent is one predicted event (e.g. BatteryEod), carrying one
// element per savepoint in EventState/SystemState/Points, with element 0
// corresponding to "now". ToE is usually a samples-variant UData.
type ProgEvent struct {
	ID          ID
	EventState  []UData
	SystemState [][]UData
	ToE         UData
	Points      []Point4D
	Tag         string
}

// Prediction is the full output of a single predictor.Predict call: one
// ProgEvent per event the model can signal, plus the sampled system
// trajectories that produced them.
type Prediction struct {
	Events             []ProgEvent
	SystemTrajectories []DataPoint
}

// DataPoint is one (time, state) sample along a predicted system
// trajectory, used for system_trajectories in a Prediction.
type DataPoint struct {
	Time  Timestamp
	State []float64
}
