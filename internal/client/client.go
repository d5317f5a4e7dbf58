// Package client is a typed HTTP client for the WildNest API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wildnest/wildnest/internal/discovery"
	"github.com/wildnest/wildnest/internal/likes"
	"github.com/wildnest/wildnest/internal/posts"
	"github.com/wildnest/wildnest/internal/profile"
)

const maxErrorBody = 64 * 1024

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the WildNest API on behalf of one bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL, token string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticated reports whether a token is configured.
func (c *Client) Authenticated() bool { return c.token != "" }

func (c *Client) Me(ctx context.Context) (profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodGet, "/v1/profiles/me", nil, &p)
	return p, err
}

func (c *Client) Profile(ctx context.Context, userID string) (profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodGet, "/v1/profiles/"+url.PathEscape(userID), nil, &p)
	return p, err
}

type profilePatch struct {
	DisplayName     *string `json:"display_name,omitempty"`
	Username        *string `json:"username,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, in profile.UpdateInput) (profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodPatch, "/v1/profiles/me", profilePatch{
		DisplayName:     in.DisplayName,
		Username:        in.Username,
		Bio:             in.Bio,
		ProfileImageURL: in.ProfileImageURL,
	}, &p)
	return p, err
}

// UploadAvatar sends raw image bytes and returns the updated profile.
func (c *Client) UploadAvatar(ctx context.Context, image []byte) (profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodPost, "/v1/profiles/me/avatar", map[string]string{
		"image_base64": encodeBase64(image),
	}, &p)
	return p, err
}

func (c *Client) Identify(ctx context.Context, imageBase64 string) (discovery.Identification, error) {
	var res discovery.Identification
	err := c.do(ctx, http.MethodPost, "/v1/identify", map[string]string{"image_base64": imageBase64}, &res)
	return res, err
}

// CreatePost returns the stored post and whether it is new.
func (c *Client) CreatePost(ctx context.Context, in posts.CreateInput) (posts.Post, bool, error) {
	body := struct {
		AnimalID *string `json:"animal_id,omitempty"`
		ImageURL string  `json:"image_url"`
		Location *string `json:"location,omitempty"`
		Quality  float64 `json:"quality"`
		Caption  *string `json:"caption,omitempty"`
	}{in.AnimalID, in.ImageURL, in.Location, in.Quality, in.Caption}

	var p posts.Post
	status, err := c.doStatus(ctx, http.MethodPost, "/v1/posts", body, &p)
	return p, status == http.StatusCreated, err
}

func (c *Client) LatestPosts(ctx context.Context) ([]posts.View, error) {
	var out struct {
		Posts []posts.View `json:"posts"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/posts/latest", nil, &out)
	return out.Posts, err
}

func (c *Client) UserPosts(ctx context.Context, userID string) ([]posts.View, error) {
	var out struct {
		Posts []posts.View `json:"posts"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID)+"/posts", nil, &out)
	return out.Posts, err
}

func (c *Client) Post(ctx context.Context, id string) (posts.View, error) {
	var v posts.View
	err := c.do(ctx, http.MethodGet, "/v1/posts/"+url.PathEscape(id), nil, &v)
	return v, err
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/posts/"+url.PathEscape(id), nil, nil)
}

// ToggleLike likes or unlikes a post. Ids that are not UUIDs, such as local discovery
// ids, fail with likes.ErrInvalidPostID without a request.
func (c *Client) ToggleLike(ctx context.Context, postID string) (likes.Status, error) {
	if err := likes.ValidatePostID(postID); err != nil {
		return likes.Status{}, err
	}
	var st likes.Status
	err := c.do(ctx, http.MethodPost, "/v1/posts/"+url.PathEscape(postID)+"/like", nil, &st)
	return st, err
}

func (c *Client) Likes(ctx context.Context, postID string) (likes.Status, error) {
	if err := likes.ValidatePostID(postID); err != nil {
		return likes.Status{}, err
	}
	var st likes.Status
	err := c.do(ctx, http.MethodGet, "/v1/posts/"+url.PathEscape(postID)+"/likes", nil, &st)
	return st, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	_, err := c.doStatus(ctx, method, path, body, out)
	return err
}

func (c *Client) doStatus(ctx context.Context, method, path string, body, out any) (int, error) {
	if c.baseURL == "" {
		return 0, errors.New("api url not configured")
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, newAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return resp.StatusCode, nil
}

// newAPIError extracts a readable message: the JSON "message" field, then "error",
// then the plain-text body, then a generic line naming the status.
func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	text := strings.TrimSpace(string(raw))

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &payload) == nil {
		apiErr.Code = payload.Code
		switch {
		case strings.TrimSpace(payload.Message) != "":
			apiErr.Message = strings.TrimSpace(payload.Message)
		case strings.TrimSpace(payload.Error) != "":
			apiErr.Message = strings.TrimSpace(payload.Error)
		}
	} else if text != "" {
		apiErr.Message = text
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with %d", status)
	}
	return apiErr
}
