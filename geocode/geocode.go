// Package geocode resolves free-text place names through the Google Maps
// Geocoding API.
package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"geolert/types"
)

type Client struct {
	maps *maps.Client
}

// NewClient builds a geocoding client from an API key. Callers should skip
// construction entirely when no key is configured.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("geocode: API key is empty")
	}
	mc, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{maps: mc}, nil
}

// Locate forward-geocodes an address. It returns (nil, nil) when the API has
// no result for the address, so callers can treat "unknown place" as a normal
// outcome.
func (c *Client) Locate(ctx context.Context, address string) (*types.LatLng, error) {
	req := &maps.GeocodingRequest{
		Address: address,
	}

	results, err := c.maps.Geocode(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	loc := results[0].Geometry.Location
	return &types.LatLng{Lat: loc.Lat, Lng: loc.Lng}, nil
}
