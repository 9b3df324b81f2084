package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/starford/daybook/internal/apperr"
	"github.com/starford/daybook/internal/models"
)

// HTTPError is a non-2xx response from the document store.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("remote: http %d: %s", e.StatusCode, e.Message)
}

// HTTPGateway talks to the hosted document store's REST API. Mutating
// calls are rate limited and stamp the watermark after the write lands.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
	writes  *rate.Limiter
}

// HTTPOptions configures an HTTPGateway.
type HTTPOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// WritesPerSecond caps mutating calls; zero means no cap.
	WritesPerSecond float64
}

// NewHTTPGateway creates a gateway against the given base URL.
func NewHTTPGateway(opts HTTPOptions) *HTTPGateway {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.WritesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.WritesPerSecond), int(opts.WritesPerSecond)+1)
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		client:  &http.Client{Timeout: timeout},
		writes:  limiter,
	}
}

// doJSON performs one request. A nil out discards the body. notFoundOK
// turns a 404 into (found=false, nil error).
func (g *HTTPGateway) doJSON(ctx context.Context, method, path string, body, out any, notFoundOK bool) (found bool, err error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("remote: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return false, fmt.Errorf("remote: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("remote: %s %s: %w: %w", method, path, apperr.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFoundOK {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("remote: decode response: %w", err)
		}
	}
	return true, nil
}

// write performs one rate-limited mutating request and stamps the
// watermark afterwards.
func (g *HTTPGateway) write(ctx context.Context, userID, method, path string, body, out any) error {
	if err := g.writes.Wait(ctx); err != nil {
		return err
	}
	if _, err := g.doJSON(ctx, method, path, body, out, false); err != nil {
		return err
	}
	_, err := g.TouchLastModified(ctx, userID)
	return err
}

func userPath(userID string, parts ...string) string {
	b := strings.Builder{}
	b.WriteString("/v1/users/")
	b.WriteString(url.PathEscape(userID))
	for _, p := range parts {
		b.WriteString("/")
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// FetchJournalEntries fetches the whole journal collection.
func (g *HTTPGateway) FetchJournalEntries(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	var out struct {
		Entries []models.JournalEntry `json:"entries"`
	}
	if _, err := g.doJSON(ctx, http.MethodGet, userPath(userID, "journal"), nil, &out, false); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// AddJournalEntry creates an entry and returns its server-assigned id.
func (g *HTTPGateway) AddJournalEntry(ctx context.Context, userID string, entry models.JournalEntry) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := g.write(ctx, userID, http.MethodPost, userPath(userID, "journal"), entry, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateJournalEntry patches the given fields of an entry.
func (g *HTTPGateway) UpdateJournalEntry(ctx context.Context, userID, id string, upd models.JournalUpdate) error {
	return g.write(ctx, userID, http.MethodPatch, userPath(userID, "journal", id), upd, nil)
}

// DeleteJournalEntry removes an entry.
func (g *HTTPGateway) DeleteJournalEntry(ctx context.Context, userID, id string) error {
	return g.write(ctx, userID, http.MethodDelete, userPath(userID, "journal", id), nil, nil)
}

// FetchHabitMonth returns nil for an absent month document.
func (g *HTTPGateway) FetchHabitMonth(ctx context.Context, userID, monthKey string) (models.HabitMonth, error) {
	var out models.HabitMonth
	found, err := g.doJSON(ctx, http.MethodGet, userPath(userID, "habits", monthKey), nil, &out, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return out, nil
}

// CreateHabitMonth creates a month document seeded from habitIDs.
func (g *HTTPGateway) CreateHabitMonth(ctx context.Context, userID, monthKey string, habitIDs []string) (models.HabitMonth, error) {
	body := struct {
		HabitIDs []string `json:"habit_ids"`
	}{HabitIDs: habitIDs}
	var out models.HabitMonth
	if err := g.write(ctx, userID, http.MethodPut, userPath(userID, "habits", monthKey), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateHabitCell sets one day/habit flag on a month document.
func (g *HTTPGateway) UpdateHabitCell(ctx context.Context, userID, monthKey string, day int, habitID string, done bool) error {
	body := struct {
		Day     int    `json:"day"`
		HabitID string `json:"habit_id"`
		Done    bool   `json:"done"`
	}{Day: day, HabitID: habitID, Done: done}
	return g.write(ctx, userID, http.MethodPatch, userPath(userID, "habits", monthKey), body, nil)
}

// FetchMomentsMonth fetches a sparse moments month; absent months come
// back empty.
func (g *HTTPGateway) FetchMomentsMonth(ctx context.Context, userID, monthKey string) (models.MomentsMonth, error) {
	var out models.MomentsMonth
	found, err := g.doJSON(ctx, http.MethodGet, userPath(userID, "moments", monthKey), nil, &out, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return models.MomentsMonth{}, nil
	}
	return out, nil
}

// SaveMoment writes one day's moment.
func (g *HTTPGateway) SaveMoment(ctx context.Context, userID, monthKey string, day int, moment string, date time.Time) error {
	body := struct {
		Moment string    `json:"moment"`
		Date   time.Time `json:"date"`
	}{Moment: moment, Date: date}
	return g.write(ctx, userID, http.MethodPut, userPath(userID, "moments", monthKey, "days", strconv.Itoa(day)), body, nil)
}

// FetchTrackerYear fetches the raw year document for (trackerID, yearKey).
func (g *HTTPGateway) FetchTrackerYear(ctx context.Context, userID, trackerID, yearKey string) (any, bool, error) {
	var out any
	found, err := g.doJSON(ctx, http.MethodGet, userPath(userID, "trackers", trackerID, yearKey), nil, &out, true)
	if err != nil {
		return nil, false, err
	}
	return out, found, nil
}

// CreateTrackerYear creates a year document.
func (g *HTTPGateway) CreateTrackerYear(ctx context.Context, userID, trackerID, yearKey string, doc models.TrackerYear) error {
	return g.write(ctx, userID, http.MethodPut, userPath(userID, "trackers", trackerID, yearKey), doc, nil)
}

// UpdateTrackerCell sets one value key on one day cell.
func (g *HTTPGateway) UpdateTrackerCell(ctx context.Context, userID, trackerID, yearKey string, month, dayIndex int, valueKey string, value any) error {
	body := struct {
		Month    int    `json:"month"`
		DayIndex int    `json:"day_index"`
		ValueKey string `json:"value_key"`
		Value    any    `json:"value"`
	}{Month: month, DayIndex: dayIndex, ValueKey: valueKey, Value: value}
	return g.write(ctx, userID, http.MethodPatch, userPath(userID, "trackers", trackerID, yearKey), body, nil)
}

// FetchHabitSettings returns the settings list, seeding the default
// template for first-time users.
func (g *HTTPGateway) FetchHabitSettings(ctx context.Context, userID string) ([]models.HabitSetting, error) {
	var out struct {
		Habits []models.HabitSetting `json:"habits"`
	}
	found, err := g.doJSON(ctx, http.MethodGet, userPath(userID, "settings", "habits"), nil, &out, true)
	if err != nil {
		return nil, err
	}
	if !found {
		defaults := models.DefaultHabitSettings()
		if err := g.UpdateHabitSettings(ctx, userID, defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	return out.Habits, nil
}

// UpdateHabitSettings replaces the settings list.
func (g *HTTPGateway) UpdateHabitSettings(ctx context.Context, userID string, habits []models.HabitSetting) error {
	body := struct {
		Habits []models.HabitSetting `json:"habits"`
	}{Habits: habits}
	return g.write(ctx, userID, http.MethodPut, userPath(userID, "settings", "habits"), body, nil)
}

// LastModified fetches the server watermark, nil when none exists yet.
func (g *HTTPGateway) LastModified(ctx context.Context, userID string) (*time.Time, error) {
	var out struct {
		LastModified *time.Time `json:"last_modified"`
	}
	found, err := g.doJSON(ctx, http.MethodGet, userPath(userID, "sync", "lastModified"), nil, &out, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return out.LastModified, nil
}

// TouchLastModified stamps a fresh server watermark and returns it.
func (g *HTTPGateway) TouchLastModified(ctx context.Context, userID string) (time.Time, error) {
	var out struct {
		LastModified time.Time `json:"last_modified"`
	}
	if _, err := g.doJSON(ctx, http.MethodPost, userPath(userID, "sync", "touch"), nil, &out, false); err != nil {
		return time.Time{}, err
	}
	return out.LastModified, nil
}

var _ Gateway = (*HTTPGateway)(nil)
