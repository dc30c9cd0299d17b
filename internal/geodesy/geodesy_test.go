package geodesy

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"overyonder.app/internal/models"
)

func TestDistanceBetween(t *testing.T) {
	paris := models.Coordinate{Latitude: 48.8566, Longitude: 2.3522}
	london := models.Coordinate{Latitude: 51.5074, Longitude: -0.1278}

	t.Run("known city pair", func(t *testing.T) {
		assert.InDelta(t, 343.5, DistanceBetween(paris, london), 1.0)
	})

	t.Run("zero for identical points", func(t *testing.T) {
		points := []models.Coordinate{paris, london, {}, {Latitude: -89.9, Longitude: 179.9}}
		for _, p := range points {
			assert.Equal(t, 0.0, DistanceBetween(p, p))
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		sydney := models.Coordinate{Latitude: -33.8688, Longitude: 151.2093}
		assert.InDelta(t, DistanceBetween(paris, sydney), DistanceBetween(sydney, paris), 1e-9)
		assert.InDelta(t, DistanceBetween(london, paris), DistanceBetween(paris, london), 1e-9)
	})

	t.Run("non-negative", func(t *testing.T) {
		a := models.Coordinate{Latitude: 10, Longitude: 170}
		b := models.Coordinate{Latitude: -10, Longitude: -170}
		assert.Greater(t, DistanceBetween(a, b), 0.0)
	})
}

func TestProject(t *testing.T) {
	t.Run("one degree of latitude due north", func(t *testing.T) {
		oneDegree := EarthRadiusKm * math.Pi / 180
		got := Project(models.Coordinate{}, oneDegree, 0)
		assert.InDelta(t, 1.0, got.Latitude, 1e-9)
		assert.InDelta(t, 0.0, got.Longitude, 1e-9)
	})

	t.Run("due east and west keep latitude", func(t *testing.T) {
		origins := []models.Coordinate{
			{Latitude: 0, Longitude: 0},
			{Latitude: 45.5, Longitude: -73.6},
			{Latitude: -60, Longitude: 120},
		}
		for _, origin := range origins {
			for _, heading := range []float64{90, 270} {
				got := Project(origin, 250, heading)
				assert.Equal(t, origin.Latitude, got.Latitude,
					"heading %v from %+v must not change latitude", heading, origin)
			}
		}
	})

	t.Run("due east moves east", func(t *testing.T) {
		got := Project(models.Coordinate{Latitude: 10, Longitude: 20}, 100, 90)
		assert.Greater(t, got.Longitude, 20.0)
		got = Project(models.Coordinate{Latitude: 10, Longitude: 20}, 100, 270)
		assert.Less(t, got.Longitude, 20.0)
	})

	t.Run("wraps across the antimeridian", func(t *testing.T) {
		got := Project(models.Coordinate{Latitude: 0, Longitude: 179.9}, 100, 90)
		assert.Greater(t, got.Longitude, -180.0)
		assert.Less(t, got.Longitude, -179.0)
	})

	t.Run("reflects latitude past the pole", func(t *testing.T) {
		got := Project(models.Coordinate{Latitude: 89.5, Longitude: 10}, 200, 0)
		assert.InDelta(t, 88.7013, got.Latitude, 1e-3)
		assert.LessOrEqual(t, got.Latitude, 90.0)
		assert.False(t, math.IsNaN(got.Longitude))
	})

	t.Run("heading is normalized", func(t *testing.T) {
		origin := models.Coordinate{Latitude: 30, Longitude: 30}
		assert.Equal(t, Project(origin, 80, 45), Project(origin, 80, 405))
		assert.Equal(t, origin.Latitude, Project(origin, 80, -90).Latitude)
	})

	t.Run("longitude stays in range", func(t *testing.T) {
		for heading := 0.0; heading < 360; heading += 15 {
			got := Project(models.Coordinate{Latitude: 5, Longitude: -179.99}, 5000, heading)
			assert.Greater(t, got.Longitude, -180.0)
			assert.LessOrEqual(t, got.Longitude, 180.0)
		}
	})
}

func TestProjectRoundTrip(t *testing.T) {
	origins := []models.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 43.3, Longitude: -2.9},
		{Latitude: -33.9, Longitude: 151.2},
		{Latitude: 60, Longitude: -150},
	}

	for _, origin := range origins {
		for _, d := range []float64{10, 50, 200} {
			for heading := 0.0; heading < 360; heading += 22.5 {
				t.Run(fmt.Sprintf("%v/%vkm/%v", origin, d, heading), func(t *testing.T) {
					got := DistanceBetween(origin, Project(origin, d, heading))
					assert.InDelta(t, d, got, d*0.001+0.01)
				})
			}
		}
	}
}
