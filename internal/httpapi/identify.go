package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wildnest/wildnest/internal/metrics"
	"github.com/wildnest/wildnest/internal/shared/apierror"
)

type identifyRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
}

func identifyImage(svc Services, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUserID(r)
		if userID == "" {
			writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
			return
		}

		var body identifyRequest
		if err := decodeJSON(w, r, maxImageBodyBytes, false, &body); err != nil {
			failRequest(w, r, logger, "failed to decode identify request", err, userID)
			return
		}
		if err := validate.Struct(body); err != nil {
			writeError(w, r, apierror.CodeBadRequest, "image_base64 is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), identifyTimeout)
		defer cancel()

		res, err := svc.Identify.Identify(ctx, userID, body.ImageBase64)
		if err != nil {
			svc.Metrics.RecordIdentification(metrics.ResultError)
			failRequest(w, r, logger, "failed to identify image", err, userID)
			return
		}
		svc.Metrics.RecordIdentification(metrics.ResultSuccess)
		writeJSON(w, http.StatusOK, res)
	}
}
