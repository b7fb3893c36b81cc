package handler

import (
	"net/http"

	"coopshares-backend/bootstrap"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Handler is the serverless entry point; the host rewrites every path here.
func Handler(w http.ResponseWriter, r *http.Request) {
	app, err := bootstrap.Shared()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error","error":{"message":"Service unavailable","statusCode":503}}`))
		return
	}
	r.RequestURI = r.URL.String()
	adaptor.FiberApp(app)(w, r)
}
