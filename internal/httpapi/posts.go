package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wildnest/wildnest/internal/posts"
	"github.com/wildnest/wildnest/internal/shared/apierror"
)

type createPostRequest struct {
	AnimalID *string `json:"animal_id"`
	ImageURL string  `json:"image_url" validate:"required,url"`
	Location *string `json:"location"`
	Quality  float64 `json:"quality" validate:"gte=0,lte=10"`
	Caption  *string `json:"caption" validate:"omitempty,max=500"`
}

func createPost(svc Services, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
			return
		}

		var body createPostRequest
		if err := decodeJSON(w, r, maxPatchBodyBytes, true, &body); err != nil {
			failRequest(w, r, logger, "failed to decode post", err, userID)
			return
		}
		if err := validate.Struct(body); err != nil {
			writeError(w, r, apierror.CodeBadRequest, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		post, created, err := svc.Posts.Create(ctx, posts.CreateInput{
			UserID:   userID,
			AnimalID: body.AnimalID,
			ImageURL: body.ImageURL,
			Location: body.Location,
			Quality:  body.Quality,
			Caption:  body.Caption,
		})
		if err != nil {
			failRequest(w, r, logger, "failed to create post", err, userID)
			return
		}
		svc.Metrics.RecordPost(created)

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, post)
	}
}

func latestPosts(service PostService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		views, err := service.Latest(ctx)
		if err != nil {
			failRequest(w, r, logger, "failed to load posts", err, requestUserID(r))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": nonNil(views)})
	}
}

func userPosts(service PostService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(chi.URLParam(r, "userID"))
		if userID == "" {
			writeError(w, r, apierror.CodeBadRequest, "missing user id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		views, err := service.ByUser(ctx, userID)
		if err != nil {
			failRequest(w, r, logger, "failed to load user posts", err, requestUserID(r))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": nonNil(views)})
	}
}

func getPost(service PostService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		view, err := service.Get(ctx, chi.URLParam(r, "postID"))
		if err != nil {
			failRequest(w, r, logger, "failed to load post", err, requestUserID(r))
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func deletePost(service PostService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		if err := service.Delete(ctx, chi.URLParam(r, "postID"), userID); err != nil {
			failRequest(w, r, logger, "failed to delete post", err, userID)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func nonNil(views []posts.View) []posts.View {
	if views == nil {
		return []posts.View{}
	}
	return views
}
