package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"smarthouse/internal/logger"
	"smarthouse/internal/registry"
	"smarthouse/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// House login is the only unauthenticated API call.
	router.POST("/house-login", h.houseLogin)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket observers share the HTTP port.
	router.GET("/ws/:userID", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIDMiddleware)
	{
		api.GET("/house", h.getHouse)
		api.GET("/house-members/:userID", h.getHouseMember)
		api.DELETE("/house-members/:userID", h.deleteHouseMember)

		api.POST("/rooms", h.addRoom)
		api.DELETE("/rooms/:roomID", h.removeRoom)

		api.POST("/devices", h.addDevice)
		api.PATCH("/devices/:deviceID/switch", h.switchDevice)
		api.PUT("/devices/:deviceID", h.configureDevice)
		api.DELETE("/devices/:deviceID", h.removeDevice)

		api.GET("/gpio-pins", h.getAvailablePins)

		api.GET("/logs", h.getDeviceLogs)
		api.GET("/energy-report", h.getEnergyReport)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusForError maps typed domain failures to HTTP codes; everything else
// is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrDeviceNotFound), errors.Is(err, registry.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrPinConflict):
		return http.StatusConflict
	case errors.Is(err, registry.ErrOutputNotBound):
		return http.StatusConflict
	case errors.Is(err, service.ErrMalformedTime):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrHouseNotInitialized):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// actorFromContext builds the acting identity from the verified token id
// and the caller-supplied display name.
func actorFromContext(c *gin.Context, userName string) service.Actor {
	return service.Actor{
		UserID:   c.GetString(ctxUserIDKey),
		UserName: userName,
	}
}
