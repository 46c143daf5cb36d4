package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addRoomRequest struct {
	UserName string `json:"userName" binding:"required"`
	RoomName string `json:"roomName" binding:"required"`
}

type removeRoomRequest struct {
	UserName string `json:"userName" binding:"required"`
}

// @Summary      Add room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        body  body  addRoomRequest  true  "Room payload"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/rooms [post]
// @Security     BearerAuth
func (h *Handler) addRoom(c *gin.Context) {
	var req addRoomRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	room, err := h.services.Rooms.Add(c.Request.Context(), actorFromContext(c, req.UserName), req.RoomName)
	if err != nil {
		h.logAndJSONError(c, statusForError(err), "failed to add room", "room_add_failed", err, "room_name", req.RoomName)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

// @Summary      Remove room
// @Description  Releases the outputs of every contained device before detaching the room.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        roomID  path  string  true  "Room id"
// @Param        body    body  removeRoomRequest  true  "Actor payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{roomID} [delete]
// @Security     BearerAuth
func (h *Handler) removeRoom(c *gin.Context) {
	var req removeRoomRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	roomID := c.Param("roomID")
	if err := h.services.Rooms.Remove(c.Request.Context(), actorFromContext(c, req.UserName), roomID); err != nil {
		h.logAndJSONError(c, statusForError(err), "failed to remove room", "room_remove_failed", err, "room_id", roomID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": roomID})
}
