package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/nateberkopec/jobalert/internal/siteurl"
)

// SessionCookie is the name of the web application's session cookie.
const SessionCookie = "session"

// Client talks to the job tracker's notification API.
type Client struct {
	httpClient *http.Client
	site       siteurl.Site
	userAgent  string
}

// Options configures a Client.
type Options struct {
	// Session is the value of the tracker's session cookie. Requests are
	// rejected with ErrUnauthorized without it.
	Session   string
	Timeout   time.Duration
	UserAgent string
}

// New creates a gateway client for the given site.
func New(site siteurl.Site, opts Options) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	if opts.Session != "" {
		u, err := url.Parse(site.URL("/", nil))
		if err != nil {
			return nil, fmt.Errorf("invalid site URL: %w", err)
		}
		jar.SetCookies(u, []*http.Cookie{{
			Name:  SessionCookie,
			Value: opts.Session,
			Path:  "/",
		}})
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	userAgent := firstNonEmpty(opts.UserAgent, "jobalert")

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		site:      site,
		userAgent: userAgent,
	}, nil
}

// FetchUnread returns at most limit unread notifications. A response with
// success=false is reported as ErrRejected.
func (c *Client) FetchUnread(ctx context.Context, limit int) (Batch, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := map[string]string{
		"unread_only": "true",
		"limit":       strconv.Itoa(limit),
	}

	var payload notificationsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications", query, nil, &payload); err != nil {
		return Batch{}, err
	}
	if !payload.Success {
		return Batch{}, rejected(payload.Error)
	}

	items := make([]Item, 0, len(payload.Notifications))
	for _, n := range payload.Notifications {
		items = append(items, convertItem(n))
	}
	return Batch{
		Items:       items,
		UnreadCount: payload.UnreadCount,
	}, nil
}

// MarkRead flags a single notification as read on the server.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/notifications/%d/read", id)
	return c.post(ctx, path, nil)
}

// MarkAllRead flags every unread notification as read on the server.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.post(ctx, "/api/notifications/mark-all-read", nil)
}

// TriggerTest asks the server to create a test notification for the current
// user. The poll loop picks it up like any other notification.
func (c *Client) TriggerTest(ctx context.Context, category Category, title, message string) error {
	body := triggerTestRequest{
		Type:    string(category),
		Title:   title,
		Message: message,
	}
	return c.post(ctx, "/api/trigger-test-notification", body)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	var payload statusResponse
	if err := c.doJSON(ctx, http.MethodPost, path, nil, body, &payload); err != nil {
		return err
	}
	if !payload.Success {
		return rejected(payload.Error)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query map[string]string, body, v any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		msg := strings.TrimSpace(string(data))
		switch res.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return fmt.Errorf("notification api error (%d): %s", res.StatusCode, msg)
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, resource string, query map[string]string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.site.URL(resource, query), reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func convertItem(payload notificationPayload) Item {
	item := Item{
		ID:       payload.NotificationID,
		Title:    strings.TrimSpace(payload.Title),
		Body:     strings.TrimSpace(payload.Message),
		Category: ParseCategory(payload.Type),
		JobID:    payload.JobID,
		Company:  payload.Company,
		Position: payload.Position,
		Deadline: payload.Deadline,
	}
	if item.Title == "" {
		item.Title = fmt.Sprintf("Notification %d", payload.NotificationID)
	}
	if t, ok := parseTimestamp(payload.CreatedAt); ok {
		item.CreatedAt = t
	}
	return item
}

// parseTimestamp accepts the formats the tracker emits for created_at.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC1123} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func rejected(msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ErrRejected
	}
	return fmt.Errorf("%w: %s", ErrRejected, msg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type notificationsResponse struct {
	Success       bool                  `json:"success"`
	Error         string                `json:"error"`
	Notifications []notificationPayload `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

type notificationPayload struct {
	NotificationID int64  `json:"notification_id"`
	UserID         int64  `json:"user_id"`
	JobID          *int64 `json:"job_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      string `json:"created_at"`
	Company        string `json:"company"`
	Position       string `json:"position"`
	Deadline       string `json:"deadline"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type triggerTestRequest struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

var (
	// ErrNotFound is returned when the server responds with 404.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized is returned when the session cookie is missing or expired.
	ErrUnauthorized = errors.New("not authenticated")
	// ErrRejected is returned when the server answers with success=false.
	ErrRejected = errors.New("request rejected by server")
	// ErrMalformed is returned when the response body cannot be decoded.
	ErrMalformed = errors.New("malformed response")
)
