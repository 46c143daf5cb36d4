package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var queryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseQueryTime accepts a few common timestamp shapes. A bare date used as
// an upper bound is pushed to the end of that day so the whole day counts.
func parseQueryTime(raw string, endOfDay bool) (time.Time, error) {
	var lastErr error
	for _, layout := range queryTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			lastErr = err
			continue
		}
		if endOfDay && layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	return time.Time{}, lastErr
}

func (h *Handler) timeRangeFromQuery(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = parseQueryTime(raw, false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' timestamp"})
			return time.Time{}, time.Time{}, false
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = parseQueryTime(raw, true); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' timestamp"})
			return time.Time{}, time.Time{}, false
		}
	}
	return from, to, true
}

// @Summary      Device control logs
// @Description  Returns control-log entries, oldest first. All filters are optional.
// @Tags         logs
// @Produce      json
// @Param        deviceId  query  string  false  "Filter by device"
// @Param        from      query  string  false  "Start of period (RFC3339 or YYYY-MM-DD)"
// @Param        to        query  string  false  "End of period (RFC3339 or YYYY-MM-DD)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getDeviceLogs(c *gin.Context) {
	from, to, ok := h.timeRangeFromQuery(c)
	if !ok {
		return
	}

	logs, err := h.services.Devices.Logs(c.Request.Context(), c.Query("deviceId"), from, to)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(logs), "logs": logs})
}

// @Summary      Energy report
// @Description  Folds a device's control log into watt-hours over the requested period.
// @Tags         logs
// @Produce      json
// @Param        deviceId  query  string  true   "Device id"
// @Param        from      query  string  false  "Start of period (RFC3339 or YYYY-MM-DD)"
// @Param        to        query  string  false  "End of period (RFC3339 or YYYY-MM-DD)"
// @Success      200  {object}  service.EnergyReport
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/energy-report [get]
// @Security     BearerAuth
func (h *Handler) getEnergyReport(c *gin.Context) {
	deviceID := c.Query("deviceId")
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deviceId is required"})
		return
	}

	from, to, ok := h.timeRangeFromQuery(c)
	if !ok {
		return
	}
	if to.IsZero() {
		to = time.Now()
	}

	report, err := h.services.Energy.Report(c.Request.Context(), deviceID, from, to)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to build report", "energy_report_failed", err,
			"device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, report)
}
