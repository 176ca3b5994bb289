package wastenotapi

import (
	"context"
	"fmt"
	"time"
	"wastenot-e2e/internal/components/assert"
	"wastenot-e2e/internal/components/telemetry"
	"wastenot-e2e/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch = "client.fetch"
)

const DefaultTimeout = 2 * time.Minute

type Config struct {
	BaseURL    string `json:"base_url"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	ClientName string `json:"client_name"`
	ClientKey  string `json:"client_key"`
	// Go duration string, ex. "90s", defaults to 2m
	Timeout string `json:"timeout"`
	// zero disables rate limiting
	RequestsPerSecond float64 `json:"requests_per_second"`
}

func (c Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parse api timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

type Response struct {
	Status int
	Body   []byte
}

// Fetcher issues an authenticated GET for an absolute URL.
//
// note: fault injection point
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Response, error)
}

// Client is the resty-backed Fetcher. It never retries, a non-200 status is
// returned as a normal Response.
type Client struct {
	http *resty.Client
	tel  telemetry.API
}

type ClientOptions struct {
	// when set, every HTTP message is dumped here
	Output restyutil.InstrumentOutput
}

func NewClient(config Config, tel telemetry.API, opts ClientOptions) (Client, error) {
	assert.NotNil(tel, "tel")
	tel = telemetry.NewScopedAPI("wastenotapi", tel)

	timeout, err := config.timeout()
	if err != nil {
		return Client{}, err
	}

	httpClient := resty.New()
	httpClient.SetTimeout(timeout)
	httpClient.SetBasicAuth(config.Username, config.Password)
	httpClient.SetHeader("Client-Name", config.ClientName)
	httpClient.SetHeader("Client-Key", config.ClientKey)
	httpClient.SetHeader("Accept", "application/json")

	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	restyutil.InstrumentClient(httpClient, tel, nil, opts.Output)

	return Client{
		http: httpClient,
		tel:  tel,
	}, nil
}

func (c Client) Fetch(ctx context.Context, url string) (Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, err, url)
		return Response{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	return Response{
		Status: res.StatusCode(),
		Body:   res.Body(),
	}, nil
}
