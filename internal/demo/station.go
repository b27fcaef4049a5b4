package demo

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/vietddude/orb/internal/adapter"
	"github.com/vietddude/orb/internal/core/domain"
)

// Station serves simulated weather readings.
type Station struct {
	adapter.ServantBase

	id    domain.ObjectID
	clock func() time.Time
}

// NewStation creates a station.
func NewStation(id domain.ObjectID) *Station {
	return &Station{id: id, clock: time.Now}
}

// StationLocator creates a station servant per call for any identity.
// Stations keep no state, so a non-retaining adapter can serve any number
// of them.
func StationLocator() adapter.Locator {
	return adapter.LocatorFunc(func(ctx context.Context, id domain.ObjectID) (adapter.Servant, error) {
		return NewStation(id), nil
	})
}

// Dispatch implements adapter.Servant.
func (s *Station) Dispatch(ctx context.Context, req *adapter.Request) (any, error) {
	switch req.Operation {
	case "reading":
		return s.reading(), nil
	case "id":
		return string(s.id), nil
	default:
		return nil, unknownOperation(req)
	}
}

// reading follows a daily temperature curve with a little noise.
func (s *Station) reading() map[string]any {
	now := s.clock().UTC()
	hour := float64(now.Hour()) + float64(now.Minute())/60
	temp := 22 + 6*math.Sin((hour-9)/24*2*math.Pi) + rand.Float64() - 0.5

	return map[string]any{
		"station":       string(s.id),
		"temperature_c": math.Round(temp*10) / 10,
		"humidity_pct":  math.Round((60+10*rand.Float64())*10) / 10,
		"pressure_hpa":  math.Round((1013+4*rand.Float64()-2)*10) / 10,
		"observed_at":   now.Format(time.RFC3339),
	}
}
