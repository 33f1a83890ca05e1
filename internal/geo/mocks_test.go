package geo

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/keyword-cli/pkg/naver"
)

type mockMaps struct {
	mock.Mock
}

func (m *mockMaps) Geocode(ctx context.Context, address string) (*naver.Coordinates, error) {
	args := m.Called(ctx, address)
	c, _ := args.Get(0).(*naver.Coordinates)
	return c, args.Error(1)
}

func (m *mockMaps) ReverseGeocode(ctx context.Context, lon, lat float64) (*naver.ReverseResponse, error) {
	args := m.Called(ctx, lon, lat)
	r, _ := args.Get(0).(*naver.ReverseResponse)
	return r, args.Error(1)
}

func (m *mockMaps) SearchPlace(ctx context.Context, q naver.PlaceQuery) (naver.Payload, error) {
	args := m.Called(ctx, q)
	p, _ := args.Get(0).(naver.Payload)
	return p, args.Error(1)
}

type mockLocal struct {
	mock.Mock
}

func (m *mockLocal) SearchLocal(ctx context.Context, query string, display int) (naver.Payload, error) {
	args := m.Called(ctx, query, display)
	p, _ := args.Get(0).(naver.Payload)
	return p, args.Error(1)
}

func query(q string) any {
	return mock.MatchedBy(func(pq naver.PlaceQuery) bool { return pq.Query == q })
}

func places(total int, names ...string) naver.Payload {
	items := make([]any, 0, len(names))
	for _, n := range names {
		items = append(items, map[string]any{"name": n})
	}
	return naver.Payload{"places": items, "meta": map[string]any{"totalCount": float64(total)}}
}

func reverse(areas ...string) *naver.ReverseResponse {
	var r naver.Region
	fields := []*naver.Area{&r.Area1, &r.Area2, &r.Area3, &r.Area4}
	for i, a := range areas {
		fields[i].Name = a
	}
	return &naver.ReverseResponse{Results: []naver.ReverseResult{{Name: "addr", Region: r}}}
}
