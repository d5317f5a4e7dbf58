package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/wildnest/wildnest/internal/discovery"
	"github.com/wildnest/wildnest/internal/identify"
	"github.com/wildnest/wildnest/internal/likes"
	"github.com/wildnest/wildnest/internal/posts"
	"github.com/wildnest/wildnest/internal/profile"
	"github.com/wildnest/wildnest/internal/shared/apierror"
	"github.com/wildnest/wildnest/internal/shared/auth"
)

const (
	serviceTimeout    = 8 * time.Second
	identifyTimeout   = 45 * time.Second
	maxPatchBodyBytes = 64 * 1024
	// base64 inflates by 4/3; leave headroom for the JSON wrapper.
	maxImageBodyBytes = identify.MaxImageBytes/3*4 + 64*1024
)

var validate = validator.New()

// PostService is the posts surface used by the handlers.
type PostService interface {
	Create(ctx context.Context, in posts.CreateInput) (*posts.Post, bool, error)
	Latest(ctx context.Context) ([]posts.View, error)
	ByUser(ctx context.Context, userID string) ([]posts.View, error)
	Get(ctx context.Context, id string) (*posts.View, error)
	Delete(ctx context.Context, id, userID string) error
}

// LikeService is the likes surface used by the handlers.
type LikeService interface {
	Toggle(ctx context.Context, postID, userID string) (likes.Status, error)
	Get(ctx context.Context, postID, userID string) (likes.Status, error)
}

// IdentifyService runs photo identification.
type IdentifyService interface {
	Identify(ctx context.Context, userID, imageBase64 string) (discovery.Identification, error)
}

// Recorder receives domain events for metrics.
type Recorder interface {
	RecordIdentification(result string)
	RecordPost(created bool)
	RecordLikeToggle(liked bool)
}

// Services bundles the handler dependencies.
type Services struct {
	Profiles profile.Service
	Posts    PostService
	Likes    LikeService
	Identify IdentifyService
	Metrics  Recorder
}

// RegisterRoutes registers the authenticated WildNest API.
func RegisterRoutes(r chi.Router, svc Services, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if svc.Metrics == nil {
		svc.Metrics = noopRecorder{}
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Post("/identify", identifyImage(svc, logger))

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/me", getMyProfile(svc.Profiles, logger))
			r.Patch("/me", updateMyProfile(svc.Profiles, logger))
			r.Post("/me/avatar", uploadAvatar(svc.Profiles, logger))
			r.Get("/{userID}", getProfile(svc.Profiles, logger))
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", createPost(svc, logger))
			r.Get("/latest", latestPosts(svc.Posts, logger))
			r.Get("/{postID}", getPost(svc.Posts, logger))
			r.Delete("/{postID}", deletePost(svc.Posts, logger))
			r.Post("/{postID}/like", toggleLike(svc, logger))
			r.Get("/{postID}/likes", getLikes(svc.Likes, logger))
		})

		r.Get("/users/{userID}/posts", userPosts(svc.Posts, logger))
	})
}

type noopRecorder struct{}

func (noopRecorder) RecordIdentification(string) {}
func (noopRecorder) RecordPost(bool)             {}
func (noopRecorder) RecordLikeToggle(bool)       {}

var errInvalidPayload = errors.New("invalid request body")

// decodeJSON reads exactly one JSON value from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, strict bool, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return errInvalidPayload
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errInvalidPayload
	}
	return nil
}

// requestUserID is the authenticated subject, or "" when the request carries none.
func requestUserID(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user.UserID
	}
	return ""
}

func requestEmail(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user.Email
	}
	return ""
}

// errorCode maps a domain error onto the shared envelope code.
func errorCode(err error) string {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, posts.ErrNotFound):
		return apierror.CodeNotFound
	case errors.Is(err, posts.ErrForbidden):
		return apierror.CodeForbidden
	case errors.Is(err, identify.ErrImageTooLarge), errors.As(err, &maxErr):
		return apierror.CodeTooLarge
	case errors.Is(err, identify.ErrUnidentified):
		return apierror.CodeUnprocessable
	case errors.Is(err, errInvalidPayload),
		errors.Is(err, profile.ErrInvalidInput),
		errors.Is(err, posts.ErrInvalidInput),
		errors.Is(err, likes.ErrInvalidPostID),
		errors.Is(err, identify.ErrInvalidImage),
		errors.Is(err, identify.ErrMissingUser):
		return apierror.CodeBadRequest
	default:
		return apierror.CodeInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	writeJSON(w, apierror.ToStatusCode(code), apierror.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// failRequest writes err in the error envelope. Internal errors are logged and
// replaced by fallback so storage details do not leak to clients.
func failRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, fallback string, err error, userID string) {
	code := errorCode(err)
	if code == apierror.CodeInternal {
		logRequestError(r.Context(), logger, fallback, err, userID)
		writeError(w, r, code, fallback)
		return
	}
	if code == apierror.CodeTooLarge {
		writeError(w, r, code, "payload too large")
		return
	}
	writeError(w, r, code, err.Error())
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	attrs := []any{
		slog.String("userId", userID),
		slog.Any("error", err),
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("requestId", reqID))
	}
	logger.Error(message, attrs...)
}
