package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/util"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	iso8601 "github.com/senseyeio/duration"
)

const vendorDateFormat = "2006-01-02"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"

type MultipassConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

func (config *MultipassConfig) ApplyDefaults() {
	env := util.GetEnvironmentVariables()

	if config.BaseURL == "" {
		config.BaseURL = env["AIRHOP_MULTIPASS_URL"]
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}
}

// MultipassChecker drives the subscription-pass availability endpoint of
// the vendor. A session is an anti-CSRF token plus the cookies handed out
// by the availability search page; the token is read back out of the page
// markup. Sessions go stale under rate limiting, ResetSession derives a
// fresh one.
type MultipassChecker struct {
	config MultipassConfig

	httpClient  *http.Client
	sessionID   string
	csrfToken   string
	sessionOpen bool
}

func NewMultipassChecker(ctx context.Context, config MultipassConfig) (*MultipassChecker, error) {
	config.ApplyDefaults()

	if config.BaseURL == "" {
		return nil, fmt.Errorf("multipass base url not configured")
	}

	multipassChecker := &MultipassChecker{
		config: config,
	}

	if err := multipassChecker.ResetSession(ctx); err != nil {
		return nil, err
	}

	return multipassChecker, nil
}

// MultipassFactory returns a checker factory for the orchestrator, one
// session per worker.
func MultipassFactory(config MultipassConfig) Factory {
	return func(ctx context.Context) (AvailabilityChecker, error) {
		return NewMultipassChecker(ctx, config)
	}
}

func (multipassChecker *MultipassChecker) ResetSession(ctx context.Context) error {
	multipassChecker.Close()

	// A fresh cookie jar drops every cookie from the previous session
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}

	multipassChecker.httpClient = &http.Client{
		Timeout: multipassChecker.config.RequestTimeout,
		Jar:     jar,
	}

	// The search page occasionally 503s right after a rate limit window,
	// retry the bootstrap briefly before giving up on the session
	bootstrap := backoff.NewExponentialBackOff()
	bootstrap.MaxElapsedTime = 2 * time.Minute

	err = backoff.Retry(func() error {
		return multipassChecker.deriveSession(ctx)
	}, backoff.WithContext(bootstrap, ctx))
	if err != nil {
		return fmt.Errorf("failed to establish vendor session: %w", err)
	}

	multipassChecker.sessionOpen = true

	log.Debug().Str("session", multipassChecker.sessionID).Msg("Vendor session established")

	return nil
}

func (multipassChecker *MultipassChecker) deriveSession(ctx context.Context) error {
	requestURL := fmt.Sprintf("%s/subscriptions/availability", multipassChecker.config.BaseURL)

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := multipassChecker.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("availability page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	csrfToken, exists := doc.Find("meta[name=csrf-token]").Attr("content")
	if !exists || csrfToken == "" {
		return fmt.Errorf("availability page carries no csrf token")
	}

	sessionID, exists := doc.Find("div[data-session-id]").Attr("data-session-id")
	if !exists || sessionID == "" {
		return fmt.Errorf("availability page carries no session id")
	}

	multipassChecker.csrfToken = csrfToken
	multipassChecker.sessionID = sessionID

	return nil
}

func (multipassChecker *MultipassChecker) Close() {
	if multipassChecker.httpClient != nil {
		multipassChecker.httpClient.CloseIdleConnections()
	}

	multipassChecker.sessionOpen = false
}

type availabilityRequest struct {
	FlightType  string  `json:"flightType"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Departure   string  `json:"departure"`
	Arrival     *string `json:"arrival"`
}

type availabilityResponse struct {
	FlightsOutbound []vendorFlight `json:"flightsOutbound"`
}

type vendorFlight struct {
	FlightCode           string  `json:"flightCode"`
	Carrier              string  `json:"carrier"`
	DepartureStationText string  `json:"departureStationText"`
	ArrivalStationText   string  `json:"arrivalStationText"`
	Departure            string  `json:"departure"`
	DepartureOffsetText  string  `json:"departureOffsetText"`
	Arrival              string  `json:"arrival"`
	ArrivalOffsetText    string  `json:"arrivalOffsetText"`
	Duration             string  `json:"duration"`
	Price                float64 `json:"price"`
	Currency             string  `json:"currency"`
}

func (multipassChecker *MultipassChecker) Check(ctx context.Context, leg cfdf.Leg, date string) ([]cfdf.FlightOccurrence, error) {
	if !multipassChecker.sessionOpen {
		return nil, fmt.Errorf("no vendor session: %w", ErrTransient)
	}

	departureDate, err := time.Parse(util.ScanDateFormat, date)
	if err != nil {
		return nil, fmt.Errorf("invalid check date %q: %v", date, err)
	}

	requestBody, err := json.Marshal(availabilityRequest{
		FlightType:  "OW",
		Origin:      leg.Origin,
		Destination: leg.Destination,
		Departure:   departureDate.Format(vendorDateFormat),
	})
	if err != nil {
		return nil, err
	}

	requestURL := fmt.Sprintf("%s/subscriptions/json/availability/%s", multipassChecker.config.BaseURL, multipassChecker.sessionID)

	req, err := http.NewRequestWithContext(ctx, "POST", requestURL, bytes.NewReader(requestBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-XSRF-TOKEN", multipassChecker.csrfToken)

	resp, err := multipassChecker.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection drops are retried under a fresh session
		return nil, fmt.Errorf("availability request failed: %v: %w", err, ErrTransient)
	}
	defer resp.Body.Close()

	// 200 carries flights, 400 is the vendor's way of saying the pair has
	// no availability on that date. Everything else is a stale session or
	// a rate limit.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return nil, fmt.Errorf("availability request returned %s: %w", resp.Status, ErrTransient)
	}

	var response availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("malformed availability response: %v: %w", err, ErrTransient)
	}

	var occurrences []cfdf.FlightOccurrence
	for _, flight := range response.FlightsOutbound {
		occurrence, err := convertVendorFlight(flight, departureDate)
		if err != nil {
			log.Error().Err(err).Str("leg", leg.String()).Msg("Skipping unparseable vendor flight")
			continue
		}

		occurrences = append(occurrences, occurrence)
	}

	return occurrences, nil
}

func convertVendorFlight(flight vendorFlight, departureDate time.Time) (cfdf.FlightOccurrence, error) {
	duration, err := vendorDuration(flight.Duration)
	if err != nil {
		return cfdf.FlightOccurrence{}, err
	}

	return cfdf.FlightOccurrence{
		Date: departureDate.Format(cfdf.OccurrenceDateFormat),

		Departure: cfdf.OccurrenceEndpoint{
			City:      flight.DepartureStationText,
			Time:      flight.Departure,
			UTCOffset: flight.DepartureOffsetText,
		},
		Arrival: cfdf.OccurrenceEndpoint{
			City:      flight.ArrivalStationText,
			Time:      flight.Arrival,
			UTCOffset: flight.ArrivalOffsetText,
		},

		Duration: duration,

		Carrier:    flight.Carrier,
		FlightCode: flight.FlightCode,
		Price: cfdf.Price{
			Amount:   flight.Price,
			Currency: flight.Currency,
		},
	}, nil
}

// vendorDuration normalises the ISO 8601 duration the vendor sends
// ("PT2H35M") into the "02h 35m" form occurrences carry.
func vendorDuration(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("vendor flight carries no duration")
	}

	// Some responses already use the display form
	if !strings.HasPrefix(value, "P") {
		if _, err := util.ParseLegDuration(value); err != nil {
			return "", err
		}
		return value, nil
	}

	parsed, err := iso8601.ParseISO8601(value)
	if err != nil {
		return "", fmt.Errorf("invalid vendor duration %q: %w", value, err)
	}

	epoch := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	return util.FormatLegDuration(parsed.Shift(epoch).Sub(epoch)), nil
}
