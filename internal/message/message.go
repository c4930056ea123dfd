// Package message defines the message bus's data model: the ID catalog
// (§3's MessageId), the Message envelope, UData (a value with
// uncertainty), and the domain payload types (ProgEvent, Prediction,
// Waypoint) that ride inside a Message's Payload field.
package message

import "github.com/cuemby/prognose/internal/vector"

// Message is an immutable envelope shared by reference among
// subscribers. A scalar message's Payload is a float64; a vector
// message's Payload is a vector.Vector; anything else (ModelStateEstimate,
// Prediction, ProgEvent, waypoints, route control) carries a struct
// payload specific to that id.
type Message struct {
	ID        ID
	Source    string
	Timestamp Timestamp
	Payload   any
}

// New constructs a Message. Payload's concrete type must match id's
// shape: float64 for a scalar id, vector.Vector for a vector id, and a
// struct value (or nil, for an empty id) otherwise.
func New(id ID, source string, ts Timestamp, payload any) *Message {
	return &Message{ID: id, Source: source, Timestamp: ts, Payload: payload}
}

// Scalar returns m's payload as a float64. Callers should only call this
// when m.ID.IsScalar().
func (m *Message) Scalar() (float64, bool) {
	v, ok := m.Payload.(float64)
	return v, ok
}

// Vector returns m's payload as a vector.Vector. Callers should only
// call this when m.ID.IsVector().
func (m *Message) Vector() (vector.Vector, bool) {
	v, ok := m.Payload.(vector.Vector)
	return v, ok
}
