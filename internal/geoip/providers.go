package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultHTTPTimeout bounds each provider's GET independently of the
// caller's context.
const DefaultHTTPTimeout = 10 * time.Second

const (
	ipAPIURL  = "http://ip-api.com/json/"
	ipInfoURL = "https://ipinfo.io/json"
)

// HTTPProvider fetches a JSON document from a fixed URL and adapts it with
// a service-specific parse function.
type HTTPProvider struct {
	name   string
	url    string
	client *http.Client
	parse  func(map[string]any) Location
}

// NewHTTPProvider wraps one geolocation endpoint. client may be nil, in
// which case a client with DefaultHTTPTimeout is used.
func NewHTTPProvider(name, url string, client *http.Client, parse func(map[string]any) Location) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &HTTPProvider{name: name, url: url, client: client, parse: parse}
}

// DefaultProviders returns the built-in provider chain: ip-api.com first,
// ipinfo.io as fallback.
func DefaultProviders(client *http.Client) []Provider {
	return []Provider{
		NewHTTPProvider("ip-api.com", ipAPIURL, client, ParseIPAPI),
		NewHTTPProvider("ipinfo.io", ipInfoURL, client, ParseIPInfo),
	}
}

func (p *HTTPProvider) Name() string { return p.name }

// Fetch issues the GET and decodes the body into a generic JSON map.
// Non-2xx statuses fail fast with the response body in the error text.
func (p *HTTPProvider) Fetch(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}

	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			return nil, fmt.Errorf("request failed: %s: %s", res.Status, msg)
		}
		return nil, fmt.Errorf("request failed: %s", res.Status)
	}

	var data map[string]any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return data, nil
}

func (p *HTTPProvider) Parse(data map[string]any) Location {
	return p.parse(data)
}

// ParseIPAPI adapts the flat ip-api.com shape: numeric "lat"/"lon" fields
// plus the caller's address under "query".
func ParseIPAPI(data map[string]any) Location {
	return Location{
		Lat:     jsonFloat(data["lat"]),
		Lon:     jsonFloat(data["lon"]),
		Address: jsonString(data["query"]),
	}
}

// ParseIPInfo adapts the ipinfo.io shape: a combined "lat,lon" string under
// "loc" plus the caller's address under "ip". A malformed loc degrades to
// zero coordinates with the address preserved.
func ParseIPInfo(data map[string]any) Location {
	addr := jsonString(data["ip"])

	parts := strings.Split(jsonString(data["loc"]), ",")
	if len(parts) != 2 {
		return Location{Address: addr}
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return Location{Address: addr}
	}
	return Location{Lat: lat, Lon: lon, Address: addr}
}

// jsonFloat extracts a float from a decoded JSON value, accepting numbers
// and numeric strings, degrading to zero otherwise.
func jsonFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func jsonString(v any) string {
	s, _ := v.(string)
	return s
}
