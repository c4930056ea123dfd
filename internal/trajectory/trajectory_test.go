package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/message"
)

func TestWaypointSavepoints(t *testing.T) {
	// Scenario 5 (spec §8).
	b := bus.New(bus.Deferred)
	defer b.Close()

	svc := New()
	w := NewAsyncWrapper(b, svc, "route-test")
	defer w.Close()

	t1 := message.FromSeconds(5)
	t2 := message.FromSeconds(7.5)

	b.Publish(message.New(message.RouteStartID, "route-test", message.Now(), nil))
	b.Publish(message.New(message.RouteSetWPID, "route-test", message.Now(), SetWaypointPayload{ETA: t1, Point: message.Point3D{Lat: 1, Lon: 1, Alt: 1}}))
	b.Publish(message.New(message.RouteSetWPID, "route-test", message.Now(), SetWaypointPayload{ETA: t2, Point: message.Point3D{Lat: 1, Lon: 1, Alt: 1}}))
	b.Publish(message.New(message.RouteEndID, "route-test", message.Now(), nil))
	b.WaitAll()

	require.ElementsMatch(t, []message.Timestamp{t1, t2}, svc.GetSavepoints())

	b.Publish(message.New(message.RouteDeleteWPID, "route-test", message.Now(), DeleteWaypointPayload{ETA: t2}))
	b.WaitAll()

	assert.Equal(t, []message.Timestamp{t1}, svc.GetSavepoints())
}

func TestGetSavepointsClearsDirtyFlag(t *testing.T) {
	svc := New()
	svc.SetWaypoint(message.FromSeconds(1), message.Point3D{})
	require.True(t, svc.Dirty())
	svc.GetSavepoints()
	assert.False(t, svc.Dirty())
}

func TestInterpolation(t *testing.T) {
	// Property 4 (spec §8): convex combination with the ratio equal to
	// the eta-offset ratio, applied independently to lat/lon/alt.
	svc := New()
	svc.SetWaypoint(message.FromSeconds(0), message.Point3D{Lat: 0, Lon: 10, Alt: 100})
	svc.SetWaypoint(message.FromSeconds(10), message.Point3D{Lat: 100, Lon: 20, Alt: 200})

	p, err := svc.GetPoint(message.FromSeconds(2.5))
	require.NoError(t, err)
	assert.InDelta(t, 25.0, p.Lat, 1e-9)
	assert.InDelta(t, 12.5, p.Lon, 1e-9)
	assert.InDelta(t, 125.0, p.Alt, 1e-9)
}

func TestInterpolationOutOfRange(t *testing.T) {
	svc := New()
	svc.SetWaypoint(message.FromSeconds(0), message.Point3D{})
	svc.SetWaypoint(message.FromSeconds(10), message.Point3D{})

	_, err := svc.GetPoint(message.FromSeconds(-1))
	assert.Error(t, err)

	_, err = svc.GetPoint(message.FromSeconds(11))
	assert.Error(t, err)

	p, err := svc.GetPoint(message.FromSeconds(10))
	assert.NoError(t, err, "querying exactly at the last waypoint is not extrapolation")
	_ = p
}

func TestCompositeSavePointProvider(t *testing.T) {
	a := New()
	a.SetWaypoint(message.FromSeconds(1), message.Point3D{})
	b2 := New()
	b2.SetWaypoint(message.FromSeconds(1), message.Point3D{})
	b2.SetWaypoint(message.FromSeconds(2), message.Point3D{})

	c := NewComposite(a, b2)
	assert.Equal(t, []message.Timestamp{message.FromSeconds(1), message.FromSeconds(2)}, c.SavePoints())
}
