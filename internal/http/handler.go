package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"go.ngs.io/tidecalc/internal/domain"
	"go.ngs.io/tidecalc/internal/usecase"
)

// Handler handles HTTP requests for tide predictions.
type Handler struct {
	predictionUC *usecase.PredictionUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(predictionUC *usecase.PredictionUseCase) *Handler {
	return &Handler{
		predictionUC: predictionUC,
	}
}

// PredictionBody is the JSON body of POST /v1/tides/predictions.
type PredictionBody struct {
	Start           time.Time             `json:"start"`
	End             *time.Time            `json:"end,omitempty"`
	DurationMinutes float64               `json:"durationMinutes"`
	StepMinutes     float64               `json:"stepMinutes"`
	StationID       *string               `json:"stationId,omitempty"`
	Lat             *float64              `json:"lat,omitempty"`
	Lon             *float64              `json:"lon,omitempty"`
	Profile         *domain.ProfileConfig `json:"profile,omitempty"`
}

// GetPredictions handles GET /v1/tides/predictions.
func (h *Handler) GetPredictions(c *gin.Context) {
	sel, ok := parseSelector(c)
	if !ok {
		return
	}
	req := usecase.PredictionRequest{ProfileSelector: sel}

	// Parse time range.
	startStr := c.Query("start")
	if startStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start parameter is required"})
		return
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start time (expected RFC3339): %v", err)})
		return
	}
	req.Start = start.UTC()

	if endStr := c.Query("end"); endStr != "" {
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end time (expected RFC3339): %v", err)})
			return
		}
		req.End = end.UTC()
	} else if req.DurationMinutes, ok = queryFloat(c, "duration_minutes"); !ok {
		return
	}

	// Step is either step_minutes or a Go duration in interval (default: 10m).
	if intervalStr := c.Query("interval"); intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid interval: %v", err)})
			return
		}
		req.StepMinutes = interval.Minutes()
	} else if req.StepMinutes, ok = queryFloat(c, "step_minutes"); !ok {
		return
	}

	response, err := h.predictionUC.Execute(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// PostPredictions handles POST /v1/tides/predictions.
func (h *Handler) PostPredictions(c *gin.Context) {
	var body PredictionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	req := usecase.PredictionRequest{
		ProfileSelector: usecase.ProfileSelector{
			Lat:       body.Lat,
			Lon:       body.Lon,
			StationID: body.StationID,
			Profile:   body.Profile,
		},
		Start:           body.Start.UTC(),
		DurationMinutes: body.DurationMinutes,
		StepMinutes:     body.StepMinutes,
	}
	if body.End != nil {
		req.End = body.End.UTC()
	}

	response, err := h.predictionUC.Execute(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetHeight handles GET /v1/tides/height.
func (h *Handler) GetHeight(c *gin.Context) {
	sel, ok := parseSelector(c)
	if !ok {
		return
	}

	at := time.Now().UTC()
	if atStr := c.Query("at"); atStr != "" {
		parsed, err := time.Parse(time.RFC3339, atStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid at time (expected RFC3339): %v", err)})
			return
		}
		at = parsed.UTC()
	}

	response, err := h.predictionUC.HeightAt(usecase.HeightRequest{ProfileSelector: sel, At: at})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetStations handles GET /v1/stations.
func (h *Handler) GetStations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stations": h.predictionUC.Stations()})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ConstituentListResponse is the response for listing constituents.
type ConstituentListResponse struct {
	Name          string  `json:"name"`
	SpeedDegPerHr float64 `json:"speed_deg_per_hr"`
	Doodson       [5]int  `json:"doodson"`
	Description   string  `json:"description,omitempty"`
}

// GetConstituentsList returns a detailed list of all constituents.
func (h *Handler) GetConstituentsList(c *gin.Context) {
	constituents := h.predictionUC.GetAllConstituents()

	response := make([]ConstituentListResponse, len(constituents))
	for i, ci := range constituents {
		response[i] = ConstituentListResponse{
			Name:          ci.Name,
			SpeedDegPerHr: ci.SpeedDegPerHr(),
			Doodson:       ci.Doodson,
			Description:   ci.Description,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"constituents": response,
		"count":        len(response),
	})
}

// parseSelector reads station_id or lat/lon from the query. It writes a 400
// response and returns false on malformed input.
func parseSelector(c *gin.Context) (usecase.ProfileSelector, bool) {
	var sel usecase.ProfileSelector

	if stationID := c.Query("station_id"); stationID != "" {
		sel.StationID = &stationID
	}

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		return sel, true
	}
	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon must be given together"})
		return sel, false
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return sel, false
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return sel, false
	}
	sel.Lat = &lat
	sel.Lon = &lon
	return sel, true
}

func queryFloat(c *gin.Context, key string) (float64, bool) {
	s := c.Query(key)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s: %v", key, err)})
		return 0, false
	}
	return v, true
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrConfiguration):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
