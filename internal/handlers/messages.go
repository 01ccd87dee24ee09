package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nhankey2000/auto-post/internal/util"
)

// ListMessages returns recent conversation messages of the page
// GET /api/v1/accounts/:id/messages
func (h *Handlers) ListMessages(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}
	messages, err := h.messages.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// ReplyMessage answers a user who messaged the page
// POST /api/v1/accounts/:id/messages/reply
func (h *Handlers) ReplyMessage(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		RecipientID string `json:"recipient_id"`
		Message     string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if err := h.messages.Reply(c.Request.Context(), id, req.RecipientID, req.Message); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// GetAvatar returns the page picture URL
// GET /api/v1/accounts/:id/avatar
func (h *Handlers) GetAvatar(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}
	url, err := h.messages.Avatar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
