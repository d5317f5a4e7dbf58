package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildnest/wildnest/internal/database"
	"github.com/wildnest/wildnest/internal/discovery"
	"github.com/wildnest/wildnest/internal/identify"
	"github.com/wildnest/wildnest/internal/likes"
	"github.com/wildnest/wildnest/internal/posts"
	"github.com/wildnest/wildnest/internal/profile"
	"github.com/wildnest/wildnest/internal/rarity"
	"github.com/wildnest/wildnest/internal/shared/apierror"
	"github.com/wildnest/wildnest/internal/shared/auth"
	"github.com/wildnest/wildnest/internal/storage"
)

type fakeProfiles struct {
	getFn    func(ctx context.Context, id, email string) (*profile.Profile, error)
	findFn   func(ctx context.Context, id string) (*profile.Profile, error)
	updateFn func(ctx context.Context, id string, input profile.UpdateInput) (*profile.Profile, error)
	avatarFn func(ctx context.Context, id string, image []byte) (*profile.Profile, error)
}

func (f *fakeProfiles) Get(ctx context.Context, id, email string) (*profile.Profile, error) {
	return f.getFn(ctx, id, email)
}
func (f *fakeProfiles) Find(ctx context.Context, id string) (*profile.Profile, error) {
	return f.findFn(ctx, id)
}
func (f *fakeProfiles) Update(ctx context.Context, id string, input profile.UpdateInput) (*profile.Profile, error) {
	return f.updateFn(ctx, id, input)
}
func (f *fakeProfiles) UploadAvatar(ctx context.Context, id string, image []byte) (*profile.Profile, error) {
	return f.avatarFn(ctx, id, image)
}

type fakePosts struct {
	createFn func(ctx context.Context, in posts.CreateInput) (*posts.Post, bool, error)
	latestFn func(ctx context.Context) ([]posts.View, error)
	byUserFn func(ctx context.Context, userID string) ([]posts.View, error)
	getFn    func(ctx context.Context, id string) (*posts.View, error)
	deleteFn func(ctx context.Context, id, userID string) error
}

func (f *fakePosts) Create(ctx context.Context, in posts.CreateInput) (*posts.Post, bool, error) {
	return f.createFn(ctx, in)
}
func (f *fakePosts) Latest(ctx context.Context) ([]posts.View, error) { return f.latestFn(ctx) }
func (f *fakePosts) ByUser(ctx context.Context, userID string) ([]posts.View, error) {
	return f.byUserFn(ctx, userID)
}
func (f *fakePosts) Get(ctx context.Context, id string) (*posts.View, error) { return f.getFn(ctx, id) }
func (f *fakePosts) Delete(ctx context.Context, id, userID string) error {
	return f.deleteFn(ctx, id, userID)
}

type countingRecorder struct {
	identifications map[string]int
	posts           map[bool]int
	likes           map[bool]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{identifications: map[string]int{}, posts: map[bool]int{}, likes: map[bool]int{}}
}

func (c *countingRecorder) RecordIdentification(result string) { c.identifications[result]++ }
func (c *countingRecorder) RecordPost(created bool)             { c.posts[created]++ }
func (c *countingRecorder) RecordLikeToggle(liked bool)         { c.likes[liked]++ }

func newRouter(t *testing.T, svc Services) http.Handler {
	t.Helper()
	verifier, err := auth.NewVerifier(auth.Config{Mode: auth.ModeNoop})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		RegisterRoutes(r, svc, nil)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apierror.ErrorResponse {
	t.Helper()
	var env apierror.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRoutes_RequireAuth(t *testing.T) {
	h := newRouter(t, Services{})
	rec := do(t, h, http.MethodGet, "/v1/profiles/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_IgnoreForwardedUserHeader(t *testing.T) {
	called := false
	svc := Services{Profiles: &fakeProfiles{
		getFn: func(context.Context, string, string) (*profile.Profile, error) {
			called = true
			return &profile.Profile{}, nil
		},
	}}
	r := chi.NewRouter()
	RegisterRoutes(r, svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles/me", nil)
	req.Header.Set("X-User-ID", "user_victim")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestGetMyProfile_UsesAuthenticatedUser(t *testing.T) {
	var gotID string
	h := newRouter(t, Services{Profiles: &fakeProfiles{
		getFn: func(_ context.Context, id, _ string) (*profile.Profile, error) {
			gotID = id
			return &profile.Profile{ID: id, DisplayName: "Ada"}, nil
		},
	}})

	rec := do(t, h, http.MethodGet, "/v1/profiles/me", "user_ada", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_ada", gotID)

	var p profile.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Ada", p.DisplayName)
}

func TestGetProfile_HidesEmailAndMapsNotFound(t *testing.T) {
	h := newRouter(t, Services{Profiles: &fakeProfiles{
		findFn: func(_ context.Context, id string) (*profile.Profile, error) {
			if id == "ghost" {
				return nil, profile.ErrNotFound
			}
			return &profile.Profile{ID: id, Email: "secret@example.com"}, nil
		},
	}})

	rec := do(t, h, http.MethodGet, "/v1/profiles/user_b", "user_a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret@example.com")

	rec = do(t, h, http.MethodGet, "/v1/profiles/ghost", "user_a", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, apierror.CodeNotFound, env.Code)
	assert.NotEmpty(t, env.RequestID)
}

func TestUpdateMyProfile(t *testing.T) {
	var got profile.UpdateInput
	h := newRouter(t, Services{Profiles: &fakeProfiles{
		updateFn: func(_ context.Context, id string, in profile.UpdateInput) (*profile.Profile, error) {
			got = in
			return &profile.Profile{ID: id, DisplayName: *in.DisplayName}, nil
		},
	}})

	rec := do(t, h, http.MethodPatch, "/v1/profiles/me", "user_a", map[string]string{"display_name": "Ada"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.DisplayName)
	assert.Equal(t, "Ada", *got.DisplayName)
	assert.Nil(t, got.Bio)

	cases := map[string]string{
		"empty patch":   `{}`,
		"unknown field": `{"points": 5000}`,
		"bad url":       `{"profile_image_url": "not a url"}`,
		"trailing data": `{"bio": "x"} {"bio": "y"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPatch, "/v1/profiles/me", "user_a", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apierror.CodeBadRequest, decodeEnvelope(t, rec).Code)
		})
	}
}

func TestUploadAvatar_DecodesBase64(t *testing.T) {
	var got []byte
	h := newRouter(t, Services{Profiles: &fakeProfiles{
		avatarFn: func(_ context.Context, id string, image []byte) (*profile.Profile, error) {
			got = image
			return &profile.Profile{ID: id, ProfileImageURL: "http://media/profile/" + id}, nil
		},
	}})

	raw := []byte("\x89PNG\r\n\x1a\nrest")
	rec := do(t, h, http.MethodPost, "/v1/profiles/me/avatar", "user_a",
		map[string]string{"image_base64": base64.StdEncoding.EncodeToString(raw), "extension": "png"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, raw, got)

	rec = do(t, h, http.MethodPost, "/v1/profiles/me/avatar", "user_a", map[string]string{"image_base64": "***"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePost_StatusReflectsDedupe(t *testing.T) {
	rec0 := newCountingRecorder()
	seen := map[string]bool{}
	h := newRouter(t, Services{Metrics: rec0, Posts: &fakePosts{
		createFn: func(_ context.Context, in posts.CreateInput) (*posts.Post, bool, error) {
			key := in.UserID + "|" + in.ImageURL
			created := !seen[key]
			seen[key] = true
			return &posts.Post{ID: "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", UserID: in.UserID, ImageURL: in.ImageURL}, created, nil
		},
	}})

	body := map[string]any{"image_url": "https://cdn.example.com/fox.jpg", "quality": 7}
	rec := do(t, h, http.MethodPost, "/v1/posts", "user_a", body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodPost, "/v1/posts", "user_a", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, rec0.posts[true])
	assert.Equal(t, 1, rec0.posts[false])

	rec = do(t, h, http.MethodPost, "/v1/posts", "user_a", map[string]any{"quality": 7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/v1/posts", "user_a", map[string]any{"image_url": "https://x.test/a.jpg", "quality": 11})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeletePost_MapsErrors(t *testing.T) {
	h := newRouter(t, Services{Posts: &fakePosts{
		deleteFn: func(_ context.Context, id, userID string) error {
			switch id {
			case "missing":
				return posts.ErrNotFound
			case "theirs":
				return posts.ErrForbidden
			case "broken":
				return errors.New("connection reset by peer")
			}
			return nil
		},
	}})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/v1/posts/mine", "user_a", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/v1/posts/missing", "user_a", nil).Code)

	rec := do(t, h, http.MethodDelete, "/v1/posts/theirs", "user_a", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "unauthorized to delete this post", decodeEnvelope(t, rec).Message)

	rec = do(t, h, http.MethodDelete, "/v1/posts/broken", "user_a", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestLatestPosts_EmptyIsArray(t *testing.T) {
	h := newRouter(t, Services{Posts: &fakePosts{
		latestFn: func(context.Context) ([]posts.View, error) { return nil, nil },
	}})
	rec := do(t, h, http.MethodGet, "/v1/posts/latest", "user_a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts": []}`, rec.Body.String())
}

func TestIdentify_RecordsOutcome(t *testing.T) {
	recorder := newCountingRecorder()
	fail := false
	h := newRouter(t, Services{Metrics: recorder, Identify: identifyFunc(func(_ context.Context, userID, img string) (discovery.Identification, error) {
		if fail {
			return discovery.Identification{}, identify.ErrUnidentified
		}
		return discovery.Identification{PostID: "p1", Identified: discovery.Identified{Species: "Tyto alba", Rarity: rarity.String("uncommon")}}, nil
	})})

	rec := do(t, h, http.MethodPost, "/v1/identify", "user_a", map[string]string{"image_base64": "aGVsbG8="})
	require.Equal(t, http.StatusOK, rec.Code)
	var res discovery.Identification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, rarity.Uncommon, rarity.Parse(res.Identified.Rarity))

	fail = true
	rec = do(t, h, http.MethodPost, "/v1/identify", "user_a", map[string]string{"image_base64": "aGVsbG8="})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/identify", "user_a", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 1, recorder.identifications["success"])
	assert.Equal(t, 1, recorder.identifications["error"])
}

type identifyFunc func(ctx context.Context, userID, imageBase64 string) (discovery.Identification, error)

func (f identifyFunc) Identify(ctx context.Context, userID, imageBase64 string) (discovery.Identification, error) {
	return f(ctx, userID, imageBase64)
}

func TestEndToEnd_IdentifyFeedAndLikes(t *testing.T) {
	dir := t.TempDir()
	db, err := database.OpenSQLite(filepath.Join(dir, "api.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store, err := storage.NewDisk(filepath.Join(dir, "media"), "http://localhost/media")
	require.NoError(t, err)

	profiles := profile.NewService(profile.NewGormRepository(db), store)
	postSvc := posts.NewService(posts.NewGormRepository(db), profile.NewGormRepository(db),
		posts.NewSystemClock(), posts.NewUUIDGenerator(), nil)
	h := newRouter(t, Services{
		Profiles: profiles,
		Posts:    postSvc,
		Likes:    likes.NewService(likes.NewGormRepository(db)),
		Identify: identify.NewService(store, postSvc, identify.NewMock(), nil),
	})

	rec := do(t, h, http.MethodPatch, "/v1/profiles/me", "user_ada", map[string]string{"display_name": "Ada"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	img := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nheron"))
	rec = do(t, h, http.MethodPost, "/v1/identify", "user_ada", map[string]string{"image_base64": img})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first discovery.Identification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	rec = do(t, h, http.MethodPost, "/v1/identify", "user_ada", map[string]string{"image_base64": img})
	require.Equal(t, http.StatusOK, rec.Code)
	var second discovery.Identification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.PostID, second.PostID)

	rec = do(t, h, http.MethodGet, "/v1/posts/latest", "user_bo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed struct {
		Posts []posts.View `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, "Ada", feed.Posts[0].User.Name)
	require.NotNil(t, feed.Posts[0].Animal)

	likePath := "/v1/posts/" + first.PostID + "/like"
	rec = do(t, h, http.MethodPost, likePath, "user_bo", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"liked": true, "count": 1}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/posts/"+first.PostID+"/likes", "user_bo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var likeStatus struct {
		Count int          `json:"count"`
		Liked bool         `json:"liked"`
		Likes []likes.Like `json:"likes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &likeStatus))
	assert.Equal(t, 1, likeStatus.Count)
	assert.True(t, likeStatus.Liked)
	require.Len(t, likeStatus.Likes, 1)
	assert.Equal(t, "user_bo", likeStatus.Likes[0].UserID)

	rec = do(t, h, http.MethodPost, "/v1/posts/1714000000000/like", "user_bo", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(decodeEnvelope(t, rec).Message, "Expected UUID"))

	rec = do(t, h, http.MethodDelete, "/v1/posts/"+first.PostID, "user_bo", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, h, http.MethodDelete, "/v1/posts/"+first.PostID, "user_ada", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/v1/posts/"+first.PostID, "user_ada", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
