package restapi

import (
	"net/http"

	"overyonder.app/internal/geodesy"
	"overyonder.app/internal/models"
	"overyonder.app/internal/utils"
)

// parseCoordinate reads the required lat/lon query parameters.
func parseCoordinate(r *http.Request, fieldErrors map[string][]string) (models.Coordinate, map[string][]string) {
	query := r.URL.Query()
	lat, fieldErrors := utils.RequireFloatParam(query, "lat", fieldErrors)
	lon, fieldErrors := utils.RequireFloatParam(query, "lon", fieldErrors)
	if len(fieldErrors) == 0 {
		for k, v := range utils.ValidateCoordinateParams(lat, lon) {
			fieldErrors[k] = append(fieldErrors[k], v...)
		}
	}
	return models.Coordinate{Latitude: lat, Longitude: lon}, fieldErrors
}

func (api *RestAPI) classifyHandler(w http.ResponseWriter, r *http.Request) {
	coord, fieldErrors := parseCoordinate(r, nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.Geocoder.Classify(r.Context(), coord)
	if err != nil {
		api.oracleErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(struct {
		Location models.Coordinate `json:"location"`
		Name     string            `json:"name"`
		IsLand   bool              `json:"isLand"`
		Kind     string            `json:"kind"`
		Display  string            `json:"displayName"`
		Details  string            `json:"description"`
	}{
		Location: coord,
		Name:     result.PrimaryName(),
		IsLand:   result.IsLand,
		Kind:     string(result.Kind),
		Display:  result.DisplayName,
		Details:  result.Description,
	}))
}

type projection struct {
	Origin             models.Coordinate `json:"origin"`
	Location           models.Coordinate `json:"location"`
	Heading            float64           `json:"heading"`
	Compass            string            `json:"compass"`
	DistanceKm         float64           `json:"distanceKm"`
	GeodesicDistanceKm float64           `json:"geodesicDistanceKm"`
}

// projectHandler previews the point a search step would classify.
func (api *RestAPI) projectHandler(w http.ResponseWriter, r *http.Request) {
	origin, fieldErrors := parseCoordinate(r, nil)
	query := r.URL.Query()
	heading, fieldErrors := utils.RequireFloatParam(query, "heading", fieldErrors)
	distance, fieldErrors := utils.RequireFloatParam(query, "distance", fieldErrors)
	if _, bad := fieldErrors["heading"]; !bad {
		if err := utils.ValidateHeading(heading); err != nil {
			fieldErrors["heading"] = append(fieldErrors["heading"], err.Error())
		}
	}
	if _, bad := fieldErrors["distance"]; !bad {
		if err := utils.ValidateDistance(distance); err != nil {
			fieldErrors["distance"] = append(fieldErrors["distance"], err.Error())
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	heading = geodesy.NormalizeHeading(heading)
	location := geodesy.Project(origin, distance, heading)

	api.sendResponse(w, r, models.NewEntryResponse(projection{
		Origin:             origin,
		Location:           location,
		Heading:            heading,
		Compass:            geodesy.BearingToCompass(heading),
		DistanceKm:         distance,
		GeodesicDistanceKm: models.RoundDistance(geodesy.DistanceBetween(origin, location)),
	}))
}

// describeHandler names an arbitrary coordinate, typically the user's position.
func (api *RestAPI) describeHandler(w http.ResponseWriter, r *http.Request) {
	coord, fieldErrors := parseCoordinate(r, nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	name, err := api.Geocoder.Describe(r.Context(), coord)
	if err != nil {
		api.oracleErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(struct {
		Location models.Coordinate `json:"location"`
		Name     string            `json:"name"`
	}{Location: coord, Name: name}))
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewOKResponse(map[string]string{"status": "ok"}))
}
