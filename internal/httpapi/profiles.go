package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wildnest/wildnest/internal/identify"
	"github.com/wildnest/wildnest/internal/profile"
	"github.com/wildnest/wildnest/internal/shared/apierror"
)

func getMyProfile(service profile.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		p, err := service.Get(ctx, userID, requestEmail(r))
		if err != nil {
			failRequest(w, r, logger, "failed to load profile", err, userID)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func getProfile(service profile.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "userID"))
		if id == "" {
			writeError(w, r, apierror.CodeBadRequest, "missing user id")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		p, err := service.Find(ctx, id)
		if err != nil {
			failRequest(w, r, logger, "failed to load profile", err, requestUserID(r))
			return
		}
		// Email is private to its owner.
		p.Email = ""
		writeJSON(w, http.StatusOK, p)
	}
}

type profilePatch struct {
	DisplayName     *string `json:"display_name"`
	Username        *string `json:"username" validate:"omitempty,min=3,max=30"`
	Bio             *string `json:"bio" validate:"omitempty,max=500"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,url"`
}

func updateMyProfile(service profile.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
			return
		}

		var body profilePatch
		if err := decodeJSON(w, r, maxPatchBodyBytes, true, &body); err != nil {
			failRequest(w, r, logger, "failed to decode profile update", err, userID)
			return
		}
		if err := validate.Struct(body); err != nil {
			writeError(w, r, apierror.CodeBadRequest, err.Error())
			return
		}
		input := profile.UpdateInput{
			DisplayName:     body.DisplayName,
			Username:        body.Username,
			Bio:             body.Bio,
			ProfileImageURL: body.ProfileImageURL,
		}
		if input.Empty() {
			writeError(w, r, apierror.CodeBadRequest, errInvalidPayload.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		p, err := service.Update(ctx, userID, input)
		if err != nil {
			failRequest(w, r, logger, "failed to update profile", err, userID)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func uploadAvatar(service profile.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
			return
		}

		var body struct {
			ImageBase64 string `json:"image_base64"`
			Extension   string `json:"extension"`
		}
		if err := decodeJSON(w, r, maxImageBodyBytes, false, &body); err != nil {
			failRequest(w, r, logger, "failed to decode avatar upload", err, userID)
			return
		}
		image, err := identify.DecodeImage(body.ImageBase64)
		if err != nil {
			failRequest(w, r, logger, "failed to decode avatar", err, userID)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		p, err := service.UploadAvatar(ctx, userID, image)
		if err != nil {
			failRequest(w, r, logger, "failed to upload avatar", err, userID)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
