// Package geocode turns coordinates into a postal address using a
// Nominatim-compatible reverse geocoding service. Results only prefill the
// checkout form and are never validated.
package geocode

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the public OpenStreetMap Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// ErrInvalidCoordinates is returned for latitudes or longitudes out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Address is the structured result of a reverse lookup.
type Address struct {
	DisplayName string
	Street      string
	City        string
	State       string
	PostalCode  string
}

// Client calls the reverse geocoding endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// Options configure a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	// HTTPClient defaults to an otelhttp-instrumented client.
	HTTPClient     *http.Client
	TracerProvider trace.TracerProvider
}

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		var tOpts []otelhttp.Option
		if opts.TracerProvider != nil {
			tOpts = append(tOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
		}
		c.http = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport, tOpts...)}
	}
	return c
}

// Reverse looks up the address at lat, lon. The request is bounded by ctx;
// there are no retries.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrInvalidCoordinates
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return decode(body)
}

func decode(body []byte) (*Address, error) {
	var (
		addr                Address
		apiErr              string
		city, town, village string
	)
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "display_name":
			return str(d, &addr.DisplayName)
		case "error":
			return str(d, &apiErr)
		case "address":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "road":
					return str(d, &addr.Street)
				case "city":
					return str(d, &city)
				case "town":
					return str(d, &town)
				case "village":
					return str(d, &village)
				case "state":
					return str(d, &addr.State)
				case "postcode":
					return str(d, &addr.PostalCode)
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if apiErr != "" {
		return nil, errors.Errorf("geocoder: %s", apiErr)
	}
	for _, v := range []string{city, town, village} {
		if v != "" {
			addr.City = v
			break
		}
	}
	return &addr, nil
}

func str(d *jx.Decoder, dst *string) error {
	if d.Next() != jx.String {
		return d.Skip()
	}
	v, err := d.Str()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
