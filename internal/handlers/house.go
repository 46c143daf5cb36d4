package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type houseLoginRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary      House login
// @Description  Verifies the house password, grants membership and returns a session token with the house snapshot.
// @Tags         house
// @Accept       json
// @Produce      json
// @Param        body  body  houseLoginRequest  true  "Credentials"
// @Success      200  {object}  map[string]interface{}  "token, house"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /house-login [post]
func (h *Handler) houseLogin(c *gin.Context) {
	var req houseLoginRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	token, house, err := h.services.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		h.logAndJSONError(c, statusForError(err), "house login failed", "house_login_failed", err, "user_id", req.UserID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "house": house})
}

// @Summary      Get house tree
// @Tags         house
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/house [get]
// @Security     BearerAuth
func (h *Handler) getHouse(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"house": h.services.Snapshot()})
}

// @Summary      Get house member
// @Tags         house
// @Produce      json
// @Param        userID  path  string  true  "User id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/house-members/{userID} [get]
// @Security     BearerAuth
func (h *Handler) getHouseMember(c *gin.Context) {
	member, err := h.services.GetMember(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load member", "member_get_failed", err)
		return
	}
	if member == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member})
}

// @Summary      Remove house member
// @Tags         house
// @Produce      json
// @Param        userID  path  string  true  "User id"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/house-members/{userID} [delete]
// @Security     BearerAuth
func (h *Handler) deleteHouseMember(c *gin.Context) {
	count, err := h.services.RemoveMember(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to remove member", "member_delete_failed", err)
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": count})
}
