package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wildnest/wildnest/internal/likes"
	"github.com/wildnest/wildnest/internal/shared/apierror"
)

func toggleLike(svc Services, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		status, err := svc.Likes.Toggle(ctx, chi.URLParam(r, "postID"), userID)
		if err != nil {
			failRequest(w, r, logger, "failed to toggle like", err, userID)
			return
		}
		svc.Metrics.RecordLikeToggle(status.Liked)
		writeJSON(w, http.StatusOK, map[string]any{"liked": status.Liked, "count": status.Count})
	}
}

func getLikes(service LikeService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		status, err := service.Get(ctx, chi.URLParam(r, "postID"), userID)
		if err != nil {
			failRequest(w, r, logger, "failed to load likes", err, userID)
			return
		}
		if status.Likes == nil {
			status.Likes = []likes.Like{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count": status.Count,
			"liked": status.Liked,
			"likes": status.Likes,
		})
	}
}
