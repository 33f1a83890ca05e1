// Package geo resolves business records into geographic contexts: region
// terms from reverse geocoding, a competition radius, and nearby points of
// interest.
package geo

import (
	"context"

	"github.com/sells-group/keyword-cli/pkg/naver"
)

// MapsProvider is the primary location provider.
type MapsProvider interface {
	Geocode(ctx context.Context, address string) (*naver.Coordinates, error)
	ReverseGeocode(ctx context.Context, lon, lat float64) (*naver.ReverseResponse, error)
	SearchPlace(ctx context.Context, q naver.PlaceQuery) (naver.Payload, error)
}

// LocalSearcher is the optional secondary search provider.
type LocalSearcher interface {
	SearchLocal(ctx context.Context, query string, display int) (naver.Payload, error)
}

// Compile-time interface checks.
var (
	_ MapsProvider  = (*naver.MapsClient)(nil)
	_ LocalSearcher = (*naver.LocalClient)(nil)
)
