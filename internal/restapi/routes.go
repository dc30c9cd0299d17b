package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"overyonder.app/internal/appconf"
	"overyonder.app/internal/metrics"
	"overyonder.app/internal/utils"
	"overyonder.app/internal/webui"
)

func validateAPIKey(api *RestAPI, finalHandler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler.ServeHTTP(w, r)
	})
}

// validateSessionID rejects malformed :id parameters before they reach the store.
func validateSessionID(api *RestAPI, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := utils.ValidateID(utils.ExtractIDFromParams(r, "id")); err != nil {
			api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
			return
		}
		next(w, r)
	}
}

// protected applies API key checks, per-key rate limiting and compression.
func (api *RestAPI) protected(h http.HandlerFunc) http.Handler {
	var next http.Handler = CompressionMiddleware(h)
	if api.rateLimiter != nil {
		next = api.rateLimiter(next)
	}
	return validateAPIKey(api, next)
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())

	router.Handler(http.MethodPost, "/api/sessions", api.protected(api.createSessionHandler))
	router.Handler(http.MethodGet, "/api/sessions/:id", api.protected(validateSessionID(api, api.getSessionHandler)))
	router.Handler(http.MethodDelete, "/api/sessions/:id", api.protected(validateSessionID(api, api.deleteSessionHandler)))
	router.Handler(http.MethodPut, "/api/sessions/:id/position", api.protected(validateSessionID(api, api.updatePositionHandler)))
	router.Handler(http.MethodPut, "/api/sessions/:id/heading", api.protected(validateSessionID(api, api.updateHeadingHandler)))
	router.Handler(http.MethodPost, "/api/sessions/:id/lock", api.protected(validateSessionID(api, api.toggleLockHandler)))
	router.Handler(http.MethodPut, "/api/sessions/:id/increment", api.protected(validateSessionID(api, api.setIncrementHandler)))
	router.Handler(http.MethodPost, "/api/sessions/:id/reset", api.protected(validateSessionID(api, api.resetSessionHandler)))
	router.Handler(http.MethodPost, "/api/sessions/:id/search", api.protected(validateSessionID(api, api.searchHandler)))

	router.Handler(http.MethodGet, "/api/classify", api.protected(api.classifyHandler))
	router.Handler(http.MethodGet, "/api/project", api.protected(api.projectHandler))
	router.Handler(http.MethodGet, "/api/describe", api.protected(api.describeHandler))
}

// Handler returns the fully wrapped HTTP handler for the service.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(api.sendNotFound)
	api.SetRoutes(router)
	if api.Config.Env != appconf.Production {
		(&webui.WebUI{Application: api.Application}).SetWebUIRoutes(router, api.protected)
	}

	return metrics.Middleware(
		NewRequestLoggingMiddleware(api.Logger)(
			securityHeaders(router)))
}
