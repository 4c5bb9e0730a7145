package location

import (
	"context"
	"time"

	"googlemaps.github.io/maps"
)

// geolocator is the part of *maps.Client used here.
type geolocator interface {
	Geolocate(ctx context.Context, r *maps.GeolocationRequest) (*maps.GeolocationResult, error)
}

// GoogleGeolocationProvider uses the Google Maps Geolocation API, feeding it nearby
// WiFi access points and the serving cell tower when they can be discovered.
type GoogleGeolocationProvider struct {
	client     geolocator
	modemIndex int
	timeout    time.Duration
}

// NewGoogleGeolocationProvider creates a provider for the given API key.
func NewGoogleGeolocationProvider(apiKey string, modemIndex int) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return newGoogleGeolocationProvider(c, modemIndex), nil
}

func newGoogleGeolocationProvider(client geolocator, modemIndex int) *GoogleGeolocationProvider {
	return &GoogleGeolocationProvider{
		client:     client,
		modemIndex: modemIndex,
		timeout:    10 * time.Second,
	}
}

// GetLocation retrieves the device's location. Radio scans are best effort; without
// them the API falls back to the public IP address.
func (g *GoogleGeolocationProvider) GetLocation(ctx context.Context) (Location, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := &maps.GeolocationRequest{ConsiderIP: true}
	if wifiAPs, err := getWiFiAccessPoints(ctx); err == nil {
		req.WiFiAccessPoints = wifiAPs
	}
	if cellTowers, err := getCellTowers(ctx, g.modemIndex); err == nil {
		req.CellTowers = cellTowers
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Location{}, err
	}
	if resp == nil || resp.Accuracy <= 0 {
		return Location{}, ErrNoFix
	}

	return Location{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
		Time:      time.Now().UTC(),
	}, nil
}

// Close releases nothing; the HTTP client is shared.
func (g *GoogleGeolocationProvider) Close() error {
	return nil
}
