package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

type debugData struct {
	Title string
	Pre   string
}

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   dumper.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "config":
		cfg := webUI.Config
		cfg.ApiKeys = []string{"[redacted]"}
		data = cfg
		title = "Configuration"
	case "session":
		id := r.URL.Query().Get("id")
		s, err := webUI.Sessions.Get(r.Context(), id)
		if err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = s
		}
		title = "Session " + id
	default:
		data = map[string]string{
			"error": "Please use one of the following: config, session (with id).",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
