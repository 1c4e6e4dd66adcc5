package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/repositories"
)

const geocodeCacheTTL = 30 * 24 * time.Hour

// Place holds the labels used to prefill a survey record.
type Place struct {
	AreaName string  `json:"areaName"`
	City     string  `json:"city"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

type Geocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
	cache     repositories.DeviceStore
	logger    echo.Logger
}

func NewGeocoder(baseURL, userAgent string, timeout time.Duration, cache repositories.DeviceStore, logger echo.Logger) *Geocoder {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 300 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil

	return &Geocoder{
		client:    retryClient.StandardClient(),
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		cache:     cache,
		logger:    logger,
	}
}

type nominatimReply struct {
	Address struct {
		City   string `json:"city"`
		Town   string `json:"town"`
		Suburb string `json:"suburb"`
		Road   string `json:"road"`
	} `json:"address"`
}

// Reverse resolves coordinates to an area and city label.
func (g *Geocoder) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	key := fmt.Sprintf("geocode:%.5f,%.5f", lat, lng)
	if g.cache != nil {
		if b, err := g.cache.CacheGet(ctx, key); err == nil {
			var p Place
			if json.Unmarshal(b, &p) == nil {
				return p, nil
			}
		}
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("reverse geocode: status %d", resp.StatusCode)
	}

	var reply nominatimReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return Place{}, fmt.Errorf("reverse geocode: %w", err)
	}
	p := placeFrom(reply, lat, lng)

	if g.cache != nil {
		if b, err := json.Marshal(p); err == nil {
			if err := g.cache.CacheSet(ctx, key, b, geocodeCacheTTL); err != nil {
				g.logger.Warnf("geocode cache write failed: %v", err)
			}
		}
	}
	return p, nil
}

func placeFrom(r nominatimReply, lat, lng float64) Place {
	return Place{
		City:     firstNonEmpty(r.Address.City, r.Address.Town, "Unknown"),
		AreaName: firstNonEmpty(r.Address.Suburb, r.Address.Road, "Point Location"),
		Lat:      lat,
		Lng:      lng,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
