package restserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/agromesh/cottonwatch/internal/database"
	"github.com/agromesh/cottonwatch/internal/forecast"
	"github.com/agromesh/cottonwatch/internal/model"
	"github.com/gorilla/mux"
)

const dateLayout = "2006-01-02"

var errNoDatabase = errors.New("no database client configured")

type predictRequest struct {
	Date string   `json:"date,omitempty"`
	LocX *float64 `json:"loc_x,omitempty"`
	LocY *float64 `json:"loc_y,omitempty"`
}

type simulateRequest struct {
	BaseDate  string `json:"base_date,omitempty"`
	DaysAhead int    `json:"days_ahead"`
}

type predictResponse struct {
	FieldID      int              `json:"field_id"`
	Date         string           `json:"date"`
	ModelVersion string           `json:"model_version"`
	Predictions  []predictionItem `json:"predictions"`
}

type simulateResponse struct {
	FieldID      int              `json:"field_id"`
	BaseDate     string           `json:"base_date"`
	DaysAhead    int              `json:"days_ahead"`
	ModelVersion string           `json:"model_version"`
	Predictions  []predictionItem `json:"predictions"`
}

type predictionItem struct {
	Date              string   `json:"date"`
	LocX              float64  `json:"loc_x"`
	LocY              float64  `json:"loc_y"`
	PredictedHumidity float64  `json:"predicted_humidity"`
	CurrentHumidity   *float64 `json:"current_humidity,omitempty"`
	RiskLevel         string   `json:"risk_level"`
	Action            string   `json:"action"`
	RecommendedAmount float64  `json:"recommended_amount"`
	IsFuture          bool     `json:"is_future"`
}

type healthResponse struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	ModelVersion string `json:"model_version,omitempty"`
}

func (c *Controller) getHealth(w http.ResponseWriter, req *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		Database:     "ok",
		ModelVersion: c.service.ModelVersion(),
	}
	err := errNoDatabase
	if c.db != nil {
		err = c.db.Health()
	}
	if err != nil {
		c.logger.Errorf("database health check failed: %v", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		c.formatter.WriteResponseStatus(w, req, http.StatusServiceUnavailable, resp, nil)
		return
	}

	c.formatter.WriteResponse(w, req, resp, nil)
}

func (c *Controller) postPredict(w http.ResponseWriter, req *http.Request) {
	fieldID, ok := c.fieldID(w, req)
	if !ok {
		return
	}

	var body predictRequest
	if req.ContentLength > 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			c.formatter.WriteError(w, req, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	date, ok := c.parseDate(w, req, body.Date)
	if !ok {
		return
	}

	// A single location predicts one point; otherwise the whole field
	var predictions []database.IrrigationPrediction
	var err error
	if body.LocX != nil && body.LocY != nil {
		var p *database.IrrigationPrediction
		p, err = c.service.PredictOne(fieldID, *body.LocX, *body.LocY, date)
		if p != nil {
			predictions = []database.IrrigationPrediction{*p}
		}
	} else if body.LocX != nil || body.LocY != nil {
		c.formatter.WriteError(w, req, http.StatusBadRequest, "loc_x and loc_y must be supplied together")
		return
	} else {
		predictions, err = c.service.PredictField(fieldID, date)
	}
	if err != nil {
		c.writeServiceError(w, req, err)
		return
	}

	resp := predictResponse{
		FieldID:      fieldID,
		ModelVersion: c.service.ModelVersion(),
		Predictions:  toPredictionItems(predictions),
	}
	if len(predictions) > 0 {
		resp.Date = predictions[0].Date.Format(dateLayout)
	}
	c.formatter.WriteResponse(w, req, resp, nil)
}

func (c *Controller) postSimulate(w http.ResponseWriter, req *http.Request) {
	fieldID, ok := c.fieldID(w, req)
	if !ok {
		return
	}

	var body simulateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		c.formatter.WriteError(w, req, http.StatusBadRequest, "invalid request body")
		return
	}

	baseDate, ok := c.parseDate(w, req, body.BaseDate)
	if !ok {
		return
	}

	predictions, err := c.service.Simulate(fieldID, baseDate, body.DaysAhead)
	if err != nil {
		c.writeServiceError(w, req, err)
		return
	}

	resp := simulateResponse{
		FieldID:      fieldID,
		DaysAhead:    body.DaysAhead,
		ModelVersion: c.service.ModelVersion(),
		Predictions:  toPredictionItems(predictions),
	}
	if body.BaseDate != "" {
		resp.BaseDate = body.BaseDate
	} else if len(predictions) > 0 {
		resp.BaseDate = predictions[0].Date.AddDate(0, 0, -1).Format(dateLayout)
	}
	c.formatter.WriteResponse(w, req, resp, nil)
}

func (c *Controller) getMap(w http.ResponseWriter, req *http.Request) {
	fieldID, ok := c.fieldID(w, req)
	if !ok {
		return
	}

	dateStr := req.URL.Query().Get("date")
	if dateStr == "" {
		c.formatter.WriteError(w, req, http.StatusBadRequest, "date query parameter is required")
		return
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		c.formatter.WriteError(w, req, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
		return
	}

	snapshot, err := c.service.MapSnapshot(fieldID, date)
	if err != nil {
		c.writeServiceError(w, req, err)
		return
	}
	c.formatter.WriteResponse(w, req, snapshot, nil)
}

func (c *Controller) getTimeseries(w http.ResponseWriter, req *http.Request) {
	fieldID, ok := c.fieldID(w, req)
	if !ok {
		return
	}

	q := req.URL.Query()
	locX, errX := strconv.ParseFloat(q.Get("loc_x"), 64)
	locY, errY := strconv.ParseFloat(q.Get("loc_y"), 64)
	if errX != nil || errY != nil {
		c.formatter.WriteError(w, req, http.StatusBadRequest, "loc_x and loc_y query parameters are required")
		return
	}

	var from, to time.Time
	if v := q.Get("from"); v != "" {
		var err error
		if from, err = time.Parse(dateLayout, v); err != nil {
			c.formatter.WriteError(w, req, http.StatusBadRequest, "invalid from date: expected YYYY-MM-DD")
			return
		}
	}
	if v := q.Get("to"); v != "" {
		var err error
		if to, err = time.Parse(dateLayout, v); err != nil {
			c.formatter.WriteError(w, req, http.StatusBadRequest, "invalid to date: expected YYYY-MM-DD")
			return
		}
	}

	ts, err := c.service.Timeseries(fieldID, locX, locY, from, to)
	if err != nil {
		c.writeServiceError(w, req, err)
		return
	}
	c.formatter.WriteResponse(w, req, ts, nil)
}

func (c *Controller) getSummary(w http.ResponseWriter, req *http.Request) {
	fieldID, ok := c.fieldID(w, req)
	if !ok {
		return
	}

	entries, err := c.service.DateSummary(fieldID)
	if err != nil {
		c.writeServiceError(w, req, err)
		return
	}
	c.formatter.WriteResponse(w, req, map[string]any{
		"field_id": fieldID,
		"summary":  entries,
	}, nil)
}

func (c *Controller) getDates(w http.ResponseWriter, req *http.Request) {
	fieldID, ok := c.fieldID(w, req)
	if !ok {
		return
	}

	index, err := c.service.DateIndex(fieldID)
	if err != nil {
		c.writeServiceError(w, req, err)
		return
	}
	c.formatter.WriteResponse(w, req, index, nil)
}

func (c *Controller) fieldID(w http.ResponseWriter, req *http.Request) (int, bool) {
	vars := mux.Vars(req)
	id, err := strconv.Atoi(vars["field_id"])
	if err != nil {
		c.formatter.WriteError(w, req, http.StatusBadRequest, "invalid field_id")
		return 0, false
	}
	return id, true
}

// parseDate parses an optional YYYY-MM-DD string; empty means "let the
// service pick the latest observed date"
func (c *Controller) parseDate(w http.ResponseWriter, req *http.Request, v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, true
	}
	date, err := time.Parse(dateLayout, v)
	if err != nil {
		c.formatter.WriteError(w, req, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

func (c *Controller) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, forecast.ErrInvalidRequest):
		c.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
	case errors.Is(err, forecast.ErrDataUnavailable):
		c.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrUnavailable):
		c.formatter.WriteError(w, req, http.StatusServiceUnavailable, "prediction model is not available")
	default:
		c.logger.Errorf("request failed: %v", err)
		c.formatter.WriteError(w, req, http.StatusInternalServerError, "internal error")
	}
}

func toPredictionItems(predictions []database.IrrigationPrediction) []predictionItem {
	items := make([]predictionItem, len(predictions))
	for i, p := range predictions {
		items[i] = predictionItem{
			Date:              p.Date.Format(dateLayout),
			LocX:              p.LocX,
			LocY:              p.LocY,
			PredictedHumidity: p.PredictedHumidity,
			CurrentHumidity:   p.CurrentHumidity,
			RiskLevel:         p.RiskLevel,
			Action:            p.Action,
			RecommendedAmount: p.RecommendedAmount,
			IsFuture:          p.IsFuture,
		}
	}
	return items
}
