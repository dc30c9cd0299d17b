// Package webui serves plain HTML debug pages for development builds.
package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"overyonder.app/internal/app"
)

type WebUI struct {
	*app.Application
}

// SetWebUIRoutes mounts the debug pages behind wrap, which applies authentication.
func (webUI *WebUI) SetWebUIRoutes(router *httprouter.Router, wrap func(http.HandlerFunc) http.Handler) {
	router.Handler(http.MethodGet, "/debug/", wrap(webUI.debugIndexHandler))
}
