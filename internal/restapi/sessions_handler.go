package restapi

import (
	"net/http"

	"overyonder.app/internal/geodesy"
	"overyonder.app/internal/models"
	"overyonder.app/internal/session"
	"overyonder.app/internal/utils"
)

// sessionView adds derived display fields to a session.
type sessionView struct {
	*session.Session
	NextDistanceKm float64 `json:"nextDistanceKm"`
	Compass        string  `json:"compass,omitempty"`
}

func newSessionView(s *session.Session) sessionView {
	v := sessionView{Session: s, NextDistanceKm: s.NextDistanceKm()}
	if s.Heading != nil {
		v.Compass = geodesy.BearingToCompass(s.Heading.Degrees)
	}
	return v
}

func (api *RestAPI) sendSession(w http.ResponseWriter, r *http.Request, s *session.Session, err error) {
	if err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(newSessionView(s)))
}

func (api *RestAPI) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := api.Sessions.Create(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewResponse(http.StatusCreated, map[string]interface{}{"entry": newSessionView(s)}, "Created"))
}

func (api *RestAPI) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := api.Sessions.Get(r.Context(), utils.ExtractIDFromParams(r, "id"))
	api.sendSession(w, r, s, err)
}

func (api *RestAPI) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := api.Sessions.Delete(r.Context(), utils.ExtractIDFromParams(r, "id")); err != nil {
		api.sessionErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewOKResponse(nil))
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

func (api *RestAPI) updatePositionHandler(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"body": {"Invalid JSON body."}})
		return
	}

	fieldErrors := make(map[string][]string)
	if req.Latitude == nil {
		fieldErrors["latitude"] = append(fieldErrors["latitude"], `Missing required field "latitude".`)
	} else if err := utils.ValidateLatitude(*req.Latitude); err != nil {
		fieldErrors["latitude"] = append(fieldErrors["latitude"], err.Error())
	}
	if req.Longitude == nil {
		fieldErrors["longitude"] = append(fieldErrors["longitude"], `Missing required field "longitude".`)
	} else if err := utils.ValidateLongitude(*req.Longitude); err != nil {
		fieldErrors["longitude"] = append(fieldErrors["longitude"], err.Error())
	}
	if err := utils.ValidateAccuracy(req.Accuracy); err != nil {
		fieldErrors["accuracy"] = append(fieldErrors["accuracy"], err.Error())
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	pos := models.Position{
		Coordinate: models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude},
		Accuracy:   req.Accuracy,
	}
	s, err := api.Sessions.UpdatePosition(r.Context(), utils.ExtractIDFromParams(r, "id"), pos)
	api.sendSession(w, r, s, err)
}

type headingRequest struct {
	Heading  *float64 `json:"heading"`
	Accuracy *float64 `json:"accuracy"`
	Source   string   `json:"source"`
}

// updateHeadingHandler records a compass reading. A body without a heading falls back
// to the configured default heading.
func (api *RestAPI) updateHeadingHandler(w http.ResponseWriter, r *http.Request) {
	var req headingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"body": {"Invalid JSON body."}})
		return
	}

	fieldErrors := make(map[string][]string)
	if req.Heading != nil {
		if err := utils.ValidateHeading(*req.Heading); err != nil {
			fieldErrors["heading"] = append(fieldErrors["heading"], err.Error())
		}
	}
	if err := utils.ValidateAccuracy(req.Accuracy); err != nil {
		fieldErrors["accuracy"] = append(fieldErrors["accuracy"], err.Error())
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	heading := models.Heading{
		Degrees:  api.Config.Search.DefaultHeadingDeg,
		Accuracy: req.Accuracy,
		Source:   models.HeadingSourceDefault,
	}
	if req.Heading != nil {
		heading.Degrees = *req.Heading
		heading.Source = models.ParseHeadingSource(req.Source)
	}

	s, err := api.Sessions.UpdateHeading(r.Context(), utils.ExtractIDFromParams(r, "id"), heading)
	api.sendSession(w, r, s, err)
}

func (api *RestAPI) toggleLockHandler(w http.ResponseWriter, r *http.Request) {
	s, err := api.Sessions.ToggleLock(r.Context(), utils.ExtractIDFromParams(r, "id"))
	api.sendSession(w, r, s, err)
}

type incrementRequest struct {
	IncrementKm *float64 `json:"incrementKm"`
}

func (api *RestAPI) setIncrementHandler(w http.ResponseWriter, r *http.Request) {
	var req incrementRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"body": {"Invalid JSON body."}})
		return
	}
	if req.IncrementKm == nil {
		api.validationErrorResponse(w, r, map[string][]string{"incrementKm": {`Missing required field "incrementKm".`}})
		return
	}
	if err := utils.ValidateDistance(*req.IncrementKm); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"incrementKm": {err.Error()}})
		return
	}

	s, err := api.Sessions.SetIncrement(r.Context(), utils.ExtractIDFromParams(r, "id"), *req.IncrementKm)
	api.sendSession(w, r, s, err)
}

func (api *RestAPI) resetSessionHandler(w http.ResponseWriter, r *http.Request) {
	s, err := api.Sessions.Reset(r.Context(), utils.ExtractIDFromParams(r, "id"))
	api.sendSession(w, r, s, err)
}
