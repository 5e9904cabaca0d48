package http

import (
	"net/http"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/gitsumitsinghpw/auth-app/pkg/authsdk"
	"github.com/gitsumitsinghpw/auth-app/pkg/httpx"
	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
)

// APIHealthHandler godoc
//
//	@Summary		Application health
//	@Description	Reports the database state and which directory backend is configured
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.APIHealthResponse
//	@Failure		503	{object}	authsdk.APIHealthResponse
//	@Router			/api/health [get].
func APIHealthHandler(version string, st store.Store, directoryMode string) http.HandlerFunc {
	directory := "disabled"
	if directoryMode != "" {
		directory = directoryMode
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := authsdk.APIHealthResponse{
			Status:    "healthy",
			Database:  "healthy",
			Directory: directory,
			Timestamp: time.Now().UTC(),
			Version:   version,
		}
		status := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			slogx.FromContext(r.Context()).Error("health check: database ping failed", "error", err)
			resp.Status = "unhealthy"
			resp.Database = "unhealthy"
			status = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, status, resp)
	}
}
