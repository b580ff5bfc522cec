package ical

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hostkeep/pkg/logger"
	"hostkeep/pkg/model"
)

// Fetcher retrieves and parses a property's calendar feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]model.CalendarEvent, error)
}

type httpFetcher struct {
	client *http.Client
	log    *logger.Logger
}

func NewHTTPFetcher(timeout time.Duration, log *logger.Logger) Fetcher {
	return &httpFetcher{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, url string) ([]model.CalendarEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	bodyStr := string(body)
	if err := validateFeedFormat(bodyStr); err != nil {
		return nil, err
	}

	events, err := ParseEvents(strings.NewReader(bodyStr))
	if err != nil {
		return nil, err
	}

	f.log.Debug("Calendar feed fetched", "url", url, "events", len(events))
	return events, nil
}

func validateFeedFormat(bodyStr string) error {
	trimmed := strings.TrimSpace(bodyStr)

	// Login pages and error pages come back as HTML with a 200.
	upperBody := strings.ToUpper(trimmed)
	if strings.HasPrefix(upperBody, "<!DOCTYPE") || strings.HasPrefix(upperBody, "<HTML") {
		return fmt.Errorf("received HTML instead of iCalendar data - check if URL requires authentication")
	}

	if !strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") {
		previewLen := 100
		if len(trimmed) < previewLen {
			previewLen = len(trimmed)
		}
		return fmt.Errorf("invalid iCalendar format - expected BEGIN:VCALENDAR, got: %s", trimmed[:previewLen])
	}

	return nil
}
