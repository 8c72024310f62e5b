package handlers

import (
	"errors"
	"net/http"

	"fridge_monitor"
	"fridge_monitor/internal/models"
	"fridge_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errInvalidQuery    = "invalid query: page and limit must be integers"
	errListRecords     = "failed to load records"
	errAddRecord       = "failed to store record"
	errLoadAnalytics   = "failed to load analytics"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// AddRecordRequest is the body of POST /fridges.
type AddRecordRequest struct {
	FridgeID       int     `json:"fridge_id" binding:"required" example:"1"`
	InstrumentName string  `json:"instrument_name" binding:"required" example:"instrument_one"`
	ParameterName  string  `json:"parameter_name" binding:"required" example:"flux_bias"`
	AppliedValue   float64 `json:"applied_value" example:"0.37"`
	// Epoch millis; zero or omitted means now.
	Timestamp int64 `json:"timestamp,omitempty" example:"1739596596000"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List fridge readings
// @Description  Newest first. Filters match as substrings; fridge_id against the decimal id, names case-insensitively.
// @Tags         records
// @Produce      json
// @Param        page             query  int     false  "1-based page"            default(1)
// @Param        limit            query  int     false  "Page size (max 100)"     default(20)
// @Param        fridge_id        query  string  false  "Fridge id substring"
// @Param        instrument_name  query  string  false  "Instrument name substring"
// @Param        parameter_name   query  string  false  "Parameter name substring"
// @Success      200  {object}  fridge_monitor.FridgePage
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /fridges [get]
func (h *Handler) listFridges(c *gin.Context) {
	h.listRecords(c, "fridges")
}

// @Summary      List settings
// @Description  Same contract as /fridges.
// @Tags         records
// @Produce      json
// @Param        page             query  int     false  "1-based page"            default(1)
// @Param        limit            query  int     false  "Page size (max 100)"     default(20)
// @Param        fridge_id        query  string  false  "Fridge id substring"
// @Param        instrument_name  query  string  false  "Instrument name substring"
// @Param        parameter_name   query  string  false  "Parameter name substring"
// @Success      200  {object}  fridge_monitor.FridgePage
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /settings [get]
func (h *Handler) listSettings(c *gin.Context) {
	h.listRecords(c, "settings")
}

func (h *Handler) listRecords(c *gin.Context, view string) {
	var q models.RecordQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidQuery})
		return
	}
	page, err := h.services.Records.List(c.Request.Context(), q.Normalize())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListRecords, "records_list_failed", err,
			"view", view, "page", q.Page, "limit", q.Limit)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary      Add a reading
// @Description  Stores one reading and pushes it to /ws subscribers.
// @Tags         records
// @Accept       json
// @Produce      json
// @Param        body  body      AddRecordRequest  true  "Reading"
// @Success      201   {object}  fridge_monitor.Record
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /fridges [post]
func (h *Handler) addFridge(c *gin.Context) {
	var req AddRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	rec, err := h.services.Records.Add(c.Request.Context(), fridge_monitor.Record{
		FridgeID:       req.FridgeID,
		InstrumentName: req.InstrumentName,
		ParameterName:  req.ParameterName,
		AppliedValue:   req.AppliedValue,
		Timestamp:      req.Timestamp,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRecord) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errAddRecord, "record_add_failed", err,
			"fridge_id", req.FridgeID)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// @Summary      Aggregate statistics
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  fridge_monitor.Analytics
// @Failure      500  {object}  map[string]string
// @Router       /analytics [get]
func (h *Handler) getAnalytics(c *gin.Context) {
	a, err := h.services.Analytics.Summary(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadAnalytics, "analytics_failed", err)
		return
	}
	c.JSON(http.StatusOK, a)
}
