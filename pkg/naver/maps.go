package naver

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

const defaultMapsBaseURL = "https://naveropenapi.apigw.ntruss.com"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Longitude float64
	Latitude  float64
}

// ReverseResponse is the reverse geocoding response.
type ReverseResponse struct {
	Results []ReverseResult `json:"results"`
}

// ReverseResult is one administrative or road address match.
type ReverseResult struct {
	Name   string `json:"name"`
	Region Region `json:"region"`
}

// Region lists the administrative levels of a match, from country (area0)
// down to neighborhood (area4).
type Region struct {
	Area0 Area `json:"area0"`
	Area1 Area `json:"area1"`
	Area2 Area `json:"area2"`
	Area3 Area `json:"area3"`
	Area4 Area `json:"area4"`
}

// Area is a single administrative level.
type Area struct {
	Name string `json:"name"`
}

// PlaceQuery is a place search around a point.
type PlaceQuery struct {
	Query   string
	Center  Coordinates
	RadiusM int
	Size    int
	Page    int
}

// MapsClient calls the Naver Cloud Platform Maps APIs.
type MapsClient struct {
	t *transport
}

// NewMapsClient creates a Maps API client.
func NewMapsClient(clientID, clientSecret string, opts ...Option) *MapsClient {
	headers := http.Header{}
	headers.Set("X-NCP-APIGW-API-KEY-ID", clientID)
	headers.Set("X-NCP-APIGW-API-KEY", clientSecret)
	return &MapsClient{t: newTransport("naver_maps", defaultMapsBaseURL, headers, opts)}
}

type geocodeResponse struct {
	Addresses []struct {
		RoadAddress string `json:"roadAddress"`
		X           string `json:"x"`
		Y           string `json:"y"`
	} `json:"addresses"`
}

// Geocode resolves an address to coordinates using the first match. It
// returns nil without error when nothing matched.
func (c *MapsClient) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	var resp geocodeResponse
	if err := c.t.getJSON(ctx, "geocode", "/map-geocode/v2/geocode", url.Values{"query": {address}}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Addresses) == 0 {
		return nil, nil
	}
	first := resp.Addresses[0]
	lon, err := strconv.ParseFloat(first.X, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "naver: geocode: parse x %q", first.X)
	}
	lat, err := strconv.ParseFloat(first.Y, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "naver: geocode: parse y %q", first.Y)
	}
	return &Coordinates{Longitude: lon, Latitude: lat}, nil
}

// ReverseGeocode returns the administrative and road address matches for a
// point.
func (c *MapsClient) ReverseGeocode(ctx context.Context, lon, lat float64) (*ReverseResponse, error) {
	params := url.Values{
		"coords": {formatCoords(lon, lat)},
		"output": {"json"},
		"orders": {"addr,roadaddr"},
	}
	var resp ReverseResponse
	if err := c.t.getJSON(ctx, "reverse geocode", "/map-reversegeocode/v2/gc", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchPlace searches places near q.Center ordered by distance.
func (c *MapsClient) SearchPlace(ctx context.Context, q PlaceQuery) (Payload, error) {
	size, page := q.Size, q.Page
	if size <= 0 {
		size = 50
	}
	if page <= 0 {
		page = 1
	}
	params := url.Values{
		"query":      {q.Query},
		"coordinate": {formatCoords(q.Center.Longitude, q.Center.Latitude)},
		"radius":     {strconv.Itoa(q.RadiusM)},
		"page":       {strconv.Itoa(page)},
		"size":       {strconv.Itoa(size)},
		"sort":       {"distance"},
	}
	var resp Payload
	if err := c.t.getJSON(ctx, "place search", "/map-place/v1/search", params, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func formatCoords(lon, lat float64) string {
	return strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64)
}
