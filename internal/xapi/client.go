package xapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"golang.org/x/time/rate"
)

// Credentials are the browser session cookies the API accepts.
type Credentials struct {
	AuthToken   string
	CT0         string
	BearerToken string
}

type Client struct {
	baseURL  string
	creds    Credentials
	http     *http.Client
	limiter  *rate.Limiter
	pageSize int
	logger   *slog.Logger
}

// NewClient builds a client. A nil httpClient gets a memory-cached
// transport so conditional GETs are answered locally.
func NewClient(baseURL string, creds Credentials, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: httpcache.NewMemoryCacheTransport(),
		}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		creds:    creds,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		pageSize: 20,
		logger:   slog.Default(),
	}
}

// SetRequestRate caps outgoing requests per second. Zero or less disables the cap.
func (c *Client) SetRequestRate(perSecond float64) {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

func (c *Client) SetPageSize(n int) {
	if n > 0 {
		c.pageSize = n
	}
}

func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

func (c *Client) HomeTimeline(ctx context.Context, cursor string) ([]Tweet, string, error) {
	return c.listTweets(ctx, "/timeline/home", cursor, "home timeline")
}

func (c *Client) Bookmarks(ctx context.Context, cursor string) ([]Tweet, string, error) {
	return c.listTweets(ctx, "/bookmarks", cursor, "bookmarks")
}

func (c *Client) Replies(ctx context.Context, tweetID, cursor string) ([]Tweet, string, error) {
	return c.listTweets(ctx, "/tweets/"+url.PathEscape(tweetID)+"/replies", cursor, "replies")
}

func (c *Client) UserTweets(ctx context.Context, handle, cursor string) ([]Tweet, string, error) {
	return c.listTweets(ctx, "/users/"+url.PathEscape(handle)+"/tweets", cursor, "user tweets")
}

func (c *Client) Notifications(ctx context.Context, cursor string) ([]Notification, string, error) {
	items, next, err := getList[Notification](ctx, c, "/notifications", cursor, "notifications")
	if err != nil {
		return nil, "", err
	}
	for i := range items {
		normalizeNotification(&items[i])
	}
	return items, next, nil
}

func (c *Client) Tweet(ctx context.Context, id string) (Tweet, error) {
	var tweet Tweet
	if err := c.getJSON(ctx, "/tweets/"+url.PathEscape(id), "tweet", &tweet); err != nil {
		return Tweet{}, err
	}
	normalizeTweet(&tweet)
	return tweet, nil
}

func (c *Client) User(ctx context.Context, handle string) (User, error) {
	var user User
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(handle), "user profile", &user); err != nil {
		return User{}, err
	}
	user.Bio = strings.TrimSpace(user.Bio)
	return user, nil
}

// VerifySession returns the account the credentials belong to.
func (c *Client) VerifySession(ctx context.Context) (User, error) {
	var user User
	if err := c.getJSON(ctx, "/account/verify", "verify session", &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) Like(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodPost, "/tweets/"+url.PathEscape(id)+"/like", "like")
}

func (c *Client) Unlike(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, "/tweets/"+url.PathEscape(id)+"/like", "unlike")
}

func (c *Client) Bookmark(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodPost, "/tweets/"+url.PathEscape(id)+"/bookmark", "bookmark")
}

func (c *Client) Unbookmark(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, "/tweets/"+url.PathEscape(id)+"/bookmark", "unbookmark")
}

func (c *Client) listTweets(ctx context.Context, path, cursor, resource string) ([]Tweet, string, error) {
	items, next, err := getList[Tweet](ctx, c, path, cursor, resource)
	if err != nil {
		return nil, "", err
	}
	for i := range items {
		normalizeTweet(&items[i])
	}
	return items, next, nil
}

func getList[T any](ctx context.Context, c *Client, path, cursor, resource string) ([]T, string, error) {
	q := make(url.Values)
	q.Set("count", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var env listEnvelope[T]
	if err := c.getJSON(ctx, path+"?"+q.Encode(), resource, &env); err != nil {
		return nil, "", err
	}
	return env.Items, env.NextCursor, nil
}

func (c *Client) getJSON(ctx context.Context, path, resource string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, resource)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

// mutate reconciles "already liked" style answers into sentinels. Some
// endpoints report them as errors inside a 200 body.
func (c *Client) mutate(ctx context.Context, method, path, resource string) error {
	resp, err := c.do(ctx, method, path, resource)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Err == nil {
			apiErr.Err = mutationOutcome(apiErr)
		}
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var env errorEnvelope
	if len(body) == 0 || json.Unmarshal(body, &env) != nil || env.message() == "" {
		return nil
	}
	apiErr := &APIError{
		Kind:       KindUnknown,
		StatusCode: resp.StatusCode,
		Detail:     env.message(),
		Message:    fmt.Sprintf("%s failed: %s", resource, env.message()),
	}
	apiErr.Err = mutationOutcome(apiErr)
	return apiErr
}

func (c *Client) do(ctx context.Context, method, path, resource string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Kind: KindNetwork, Message: fmt.Sprintf("%s request not sent: %v", resource, err), Err: err}
	}

	req, err := c.newRequest(ctx, method, path)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Message: fmt.Sprintf("%s request failed: %v", resource, err), Err: err}
	}
	c.logger.Debug("api call",
		"resource", resource,
		"method", method,
		"status", resp.StatusCode,
		"rate_remaining", resp.Header.Get("x-rate-limit-remaining"),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, c.errorFromResponse(resp, resource)
}

func (c *Client) errorFromResponse(resp *http.Response, resource string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(body))
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.message() != "" {
		detail = env.message()
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	apiErr := &APIError{
		Kind:       kindForStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Detail:     detail,
		Message:    fmt.Sprintf("%s failed with status %d: %s", resource, resp.StatusCode, detail),
	}
	if apiErr.Kind == KindRateLimit {
		if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		if epoch, err := strconv.ParseInt(strings.TrimSpace(resp.Header.Get("x-rate-limit-reset")), 10, 64); err == nil && epoch > 0 {
			apiErr.RateLimitReset = time.Unix(epoch, 0)
		}
		c.logger.Warn("rate limited",
			"resource", resource,
			"retry_after", apiErr.RetryAfter,
			"reset", apiErr.RateLimitReset,
		)
	}
	return apiErr
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: c.creds.AuthToken})
	req.AddCookie(&http.Cookie{Name: "ct0", Value: c.creds.CT0})
	req.Header.Set("x-csrf-token", c.creds.CT0)
	if c.creds.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.BearerToken)
	}
	return req, nil
}
