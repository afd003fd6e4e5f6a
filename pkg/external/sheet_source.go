package external

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/biomarker-range-server/internal/domain"
)

const (
	defaultSheetTimeout      = 15 * time.Second
	defaultSheetMaxRedirects = 5
	defaultSheetRateLimit    = 2
)

// Failures of the spreadsheet export, each carrying the message shown to the user.
var (
	ErrSheetTimeout       = errors.New("connection timeout, please check your internet connection")
	ErrSheetForbidden     = errors.New("access denied, the sheet may not be publicly accessible")
	ErrSheetNotFound      = errors.New("CSV export not found, please check the sheet URL")
	ErrSheetStatus        = errors.New("failed to fetch data")
	ErrSheetEmpty         = errors.New("empty response from CSV URL")
	ErrSheetHTML          = errors.New("received HTML instead of CSV, the sheet URL may be incorrect or the sheet may not be publicly accessible")
	ErrSheetNoResponse    = errors.New("no response from server, please check your internet connection")
	ErrSheetCircuitOpen   = errors.New("sheet temporarily unavailable (circuit breaker open)")
	ErrSheetTooManyHops   = errors.New("too many redirects")
	ErrSheetNotConfigured = errors.New("sheet URL is not configured")
)

// SheetSource fetches the published CSV export of the biomarker spreadsheet.
type SheetSource struct {
	sheetURL   string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
	now        func() time.Time
}

// NewSheetSource creates the primary ingestion source from its configuration.
func NewSheetSource(config domain.SourceConfig, logger *logrus.Logger) *SheetSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if config.Timeout == 0 {
		config.Timeout = defaultSheetTimeout
	}
	if config.MaxRedirects == 0 {
		config.MaxRedirects = defaultSheetMaxRedirects
	}
	limit := rate.Limit(defaultSheetRateLimit)
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	maxRedirects := config.MaxRedirects

	return &SheetSource{
		sheetURL: config.SheetURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("%w: stopped after %d", ErrSheetTooManyHops, maxRedirects)
				}
				return nil
			},
		},
		rateLimit: rate.NewLimiter(limit, 1),
		breaker:   newCircuitBreaker("sheet", config.Breaker, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// FetchRows downloads, decodes and filters the sheet.
func (s *SheetSource) FetchRows(ctx context.Context) (*domain.RowBatch, error) {
	if s.sheetURL == "" {
		return nil, ErrSheetNotConfigured
	}

	if err := s.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.download(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrSheetCircuitOpen
		}
		return nil, err
	}

	rows, err := DecodeCSV(bytes.NewReader(result.([]byte)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	valid := FilterRows(rows)
	s.logger.WithFields(logrus.Fields{
		"source": "sheet",
		"total":  len(rows),
		"valid":  len(valid),
	}).Info("Parsed CSV rows")

	if len(valid) == 0 {
		return nil, domain.NewNoValidRowsError("CSV", len(rows))
	}

	return &domain.RowBatch{Rows: valid, Origin: domain.OriginPrimary}, nil
}

// download performs one GET of the export and validates the payload.
func (s *SheetSource) download(ctx context.Context) ([]byte, error) {
	fullURL, err := s.requestURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrSheetForbidden
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrSheetNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: %d %s", ErrSheetStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrSheetEmpty
	}
	if bytes.Contains(body, []byte("<HTML>")) || bytes.Contains(body, []byte("<html>")) {
		return nil, ErrSheetHTML
	}

	return body, nil
}

// requestURL appends the cache-busting timestamp to the export URL.
func (s *SheetSource) requestURL() (string, error) {
	u, err := url.Parse(s.sheetURL)
	if err != nil {
		return "", fmt.Errorf("invalid sheet URL: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(s.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, ErrSheetTooManyHops) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrSheetTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSheetNoResponse, err)
}

// BreakerState exposes the breaker state for health reporting.
func (s *SheetSource) BreakerState() gobreaker.State {
	return s.breaker.State()
}
