package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/nhankey2000/auto-post/internal/util"
)

// ListAccounts returns the connected pages
// GET /api/v1/accounts
func (h *Handlers) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// CreateAccount connects a page
// POST /api/v1/accounts
func (h *Handlers) CreateAccount(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Platform    string `json:"platform"`
		PageID      string `json:"page_id" binding:"required"`
		AccessToken string `json:"access_token" binding:"required"`
		AppID       string `json:"app_id"`
		AppSecret   string `json:"app_secret"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	account := &models.PlatformAccount{
		Name:        req.Name,
		Platform:    req.Platform,
		PageID:      req.PageID,
		AccessToken: req.AccessToken,
		AppID:       req.AppID,
		AppSecret:   req.AppSecret,
	}
	if err := h.accounts.Add(c.Request.Context(), account); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// GetAccount returns one page connection
// GET /api/v1/accounts/:id
func (h *Handlers) GetAccount(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}
	account, err := h.accounts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// CheckAccount runs a connection check and stores the token expiry
// POST /api/v1/accounts/:id/check
func (h *Handlers) CheckAccount(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}
	account, valid, err := h.accounts.CheckConnection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      valid,
		"expires_at": account.ExpiresAt,
		"account":    account,
	})
}

// CheckAccounts checks several accounts, or all active ones when ids is empty
// POST /api/v1/accounts/check
func (h *Handlers) CheckAccounts(c *gin.Context) {
	var req idsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBadRequest(c, err.Error())
			return
		}
	}
	result, err := h.accounts.CheckAll(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
