package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smarthouse/internal/service"
)

type addDeviceRequest struct {
	UserName   string  `json:"userName" binding:"required"`
	RoomID     string  `json:"roomId" binding:"required"`
	DeviceName string  `json:"deviceName" binding:"required"`
	PinNumber  int     `json:"pinNumber" binding:"required"`
	Wattage    float64 `json:"wattage"`
}

type switchDeviceRequest struct {
	UserName string `json:"userName" binding:"required"`
	StatusTo *bool  `json:"statusTo" binding:"required"`
}

type configureDeviceRequest struct {
	UserName      string  `json:"userName" binding:"required"`
	DeviceName    string  `json:"deviceName" binding:"required"`
	PinNumber     int     `json:"pinNumber" binding:"required"`
	Status        bool    `json:"status"`
	IsDefault     bool    `json:"isDefault"`
	IsScheduled   bool    `json:"isScheduled"`
	DaysScheduled string  `json:"daysScheduled"`
	StartTime     string  `json:"startTime"`
	OffTime       string  `json:"offTime"`
	Wattage       float64 `json:"wattage"`
}

type removeDeviceRequest struct {
	UserName string `json:"userName" binding:"required"`
	RoomID   string `json:"roomId" binding:"required"`
}

// @Summary      Add device
// @Description  Persists the device and binds its GPIO output. Fails with 409 when the pin is already in use.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        body  body  addDeviceRequest  true  "Device payload"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/devices [post]
// @Security     BearerAuth
func (h *Handler) addDevice(c *gin.Context) {
	var req addDeviceRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	device, err := h.services.Devices.Add(c.Request.Context(), actorFromContext(c, req.UserName),
		req.RoomID, req.DeviceName, req.PinNumber, req.Wattage)
	if err != nil {
		h.logAndJSONError(c, statusForError(err), "failed to add device", "device_add_failed", err,
			"room_id", req.RoomID, "pin", req.PinNumber)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"device": device})
}

// @Summary      Switch device
// @Description  Applies a manual on/off transition. A request matching the current status is a no-op.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        deviceID  path  string  true  "Device id"
// @Param        body      body  switchDeviceRequest  true  "Switch payload"
// @Success      202  {object}  map[string]interface{}  "device, applied"
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/devices/{deviceID}/switch [patch]
// @Security     BearerAuth
func (h *Handler) switchDevice(c *gin.Context) {
	var req switchDeviceRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	deviceID := c.Param("deviceID")
	device, applied, err := h.services.Devices.Switch(c.Request.Context(),
		actorFromContext(c, req.UserName), deviceID, *req.StatusTo)
	if err != nil {
		h.logAndJSONError(c, statusForError(err), "failed to switch device", "device_switch_failed", err,
			"device_id", deviceID)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"device": device, "applied": applied})
}

// @Summary      Configure device
// @Description  Rewrites device settings including the schedule. Scheduled devices get their status recomputed from the schedule window.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        deviceID  path  string  true  "Device id"
// @Param        body      body  configureDeviceRequest  true  "Configuration payload"
// @Success      202  {object}  map[string]interface{}  "device, statusChanged"
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{deviceID} [put]
// @Security     BearerAuth
func (h *Handler) configureDevice(c *gin.Context) {
	var req configureDeviceRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	deviceID := c.Param("deviceID")
	device, statusChanged, err := h.services.Devices.Configure(c.Request.Context(),
		actorFromContext(c, req.UserName), service.ConfigureDeviceParams{
			DeviceID:      deviceID,
			DeviceName:    req.DeviceName,
			PinNumber:     req.PinNumber,
			Status:        req.Status,
			IsDefault:     req.IsDefault,
			IsScheduled:   req.IsScheduled,
			DaysScheduled: req.DaysScheduled,
			StartTime:     req.StartTime,
			OffTime:       req.OffTime,
			Wattage:       req.Wattage,
		})
	if err != nil {
		h.logAndJSONError(c, statusForError(err), "failed to configure device", "device_configure_failed", err,
			"device_id", deviceID)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"device": device, "statusChanged": statusChanged})
}

// @Summary      Remove device
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        deviceID  path  string  true  "Device id"
// @Param        body      body  removeDeviceRequest  true  "Actor payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{deviceID} [delete]
// @Security     BearerAuth
func (h *Handler) removeDevice(c *gin.Context) {
	var req removeDeviceRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	deviceID := c.Param("deviceID")
	if err := h.services.Devices.Remove(c.Request.Context(),
		actorFromContext(c, req.UserName), req.RoomID, deviceID); err != nil {
		h.logAndJSONError(c, statusForError(err), "failed to remove device", "device_remove_failed", err,
			"device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deviceId": deviceID})
}

// @Summary      Available GPIO pins
// @Description  Returns the 40-pin header layout minus the GPIO pins already bound by live devices.
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/gpio-pins [get]
// @Security     BearerAuth
func (h *Handler) getAvailablePins(c *gin.Context) {
	pins := h.services.Devices.AvailablePins()
	c.JSON(http.StatusOK, gin.H{"count": len(pins), "pins": pins})
}
