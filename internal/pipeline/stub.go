package pipeline

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/sells-group/keyword-cli/internal/geo"
	"github.com/sells-group/keyword-cli/pkg/naver"
)

// Compile-time interface checks.
var (
	_ geo.MapsProvider  = (*StubMapsClient)(nil)
	_ geo.LocalSearcher = (*StubLocalClient)(nil)
)

// StubMapsClient answers Maps calls without the network. Addresses geocode
// to a stable point near central Seoul and reverse geocode to their leading
// address words, so offline runs still produce region terms. Place searches
// return no results.
type StubMapsClient struct {
	mu     sync.Mutex
	points map[naver.Coordinates]string
}

// NewStubMapsClient creates an offline Maps client.
func NewStubMapsClient() *StubMapsClient {
	return &StubMapsClient{points: make(map[naver.Coordinates]string)}
}

// Geocode returns a point derived from the address, or nil for blank input.
func (s *StubMapsClient) Geocode(_ context.Context, address string) (*naver.Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(address))
	sum := h.Sum32()
	c := naver.Coordinates{
		Longitude: 126.9 + float64(sum%10000)/100000,
		Latitude:  37.5 + float64((sum/10000)%10000)/100000,
	}

	s.mu.Lock()
	s.points[c] = address
	s.mu.Unlock()
	return &c, nil
}

// ReverseGeocode splits the address geocoded to (lon, lat) into area levels:
// the first four address words become area1 through area4.
func (s *StubMapsClient) ReverseGeocode(_ context.Context, lon, lat float64) (*naver.ReverseResponse, error) {
	s.mu.Lock()
	address, ok := s.points[naver.Coordinates{Longitude: lon, Latitude: lat}]
	s.mu.Unlock()
	if !ok {
		return &naver.ReverseResponse{}, nil
	}

	words := strings.Fields(address)
	area := func(i int) naver.Area {
		if i < len(words) {
			return naver.Area{Name: words[i]}
		}
		return naver.Area{}
	}
	return &naver.ReverseResponse{Results: []naver.ReverseResult{{
		Name: "legalcode",
		Region: naver.Region{
			Area0: naver.Area{Name: "kr"},
			Area1: area(0),
			Area2: area(1),
			Area3: area(2),
			Area4: area(3),
		},
	}}}, nil
}

// SearchPlace returns an empty result set.
func (s *StubMapsClient) SearchPlace(_ context.Context, _ naver.PlaceQuery) (naver.Payload, error) {
	return naver.Payload{"places": []any{}, "meta": map[string]any{"totalCount": 0}}, nil
}

// StubLocalClient answers Local searches with an empty result set.
type StubLocalClient struct{}

// SearchLocal returns no items.
func (StubLocalClient) SearchLocal(_ context.Context, _ string, _ int) (naver.Payload, error) {
	return naver.Payload{"items": []any{}, "total": 0}, nil
}
