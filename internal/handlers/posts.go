package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nhankey2000/auto-post/internal/content"
	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/nhankey2000/auto-post/internal/repository"
	"github.com/nhankey2000/auto-post/internal/service"
	"github.com/nhankey2000/auto-post/internal/util"
)

// ListPosts returns stored posts
// GET /api/v1/posts?account_id=&status=&limit=&offset=
func (h *Handlers) ListPosts(c *gin.Context) {
	filter := repository.PostFilter{
		AccountID: uint(util.ParseInt(c.Query("account_id"), 0)),
		Status:    models.PostStatus(c.Query("status")),
		Limit:     util.ParseInt(c.DefaultQuery("limit", "50"), 50),
		Offset:    util.ParseInt(c.Query("offset"), 0),
	}
	posts, err := h.posts.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CreatePost stores a draft. Media files arrive as multipart "media" parts.
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	var req struct {
		AccountID uint   `form:"account_id" binding:"required"`
		Title     string `form:"title"`
		Content   string `form:"content"`
		Hashtags  string `form:"hashtags"`
	}
	if err := c.ShouldBind(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var media []string
	if form, err := c.MultipartForm(); err == nil {
		for _, file := range form.File["media"] {
			path, err := util.SaveUploadedFile(file, h.uploadDir)
			if err != nil {
				util.RespondInternalError(c, "failed to store upload")
				return
			}
			media = append(media, path)
		}
	}

	post := &models.Post{
		PlatformAccountID: req.AccountID,
		Title:             req.Title,
		Content:           req.Content,
		Hashtags:          []string{req.Hashtags},
		Media:             media,
	}
	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GeneratePost creates a draft from the content generator
// POST /api/v1/posts/generate
func (h *Handlers) GeneratePost(c *gin.Context) {
	var req struct {
		AccountID uint   `json:"account_id" binding:"required"`
		Topic     string `json:"topic" binding:"required"`
		Tone      string `json:"tone"`
		Language  string `json:"language"`
		MaxLength int    `json:"max_length"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post, err := h.posts.CreateFromPrompt(c.Request.Context(), req.AccountID, content.Prompt{
		Topic:     req.Topic,
		Tone:      req.Tone,
		Language:  req.Language,
		Platform:  "facebook",
		MaxLength: req.MaxLength,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns one post
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// UpdatePost edits a post; live posts are updated on the page too
// PUT /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title    *string   `json:"title"`
		Content  *string   `json:"content"`
		Hashtags *[]string `json:"hashtags"`
		Media    *[]string `json:"media"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if req.Media != nil {
		for _, p := range *req.Media {
			if strings.Contains(p, "..") {
				util.RespondValidationError(c, "media", "media paths must not contain '..'")
				return
			}
		}
	}

	post, err := h.posts.Update(c.Request.Context(), id, service.UpdateInput{
		Title:    req.Title,
		Content:  req.Content,
		Hashtags: req.Hashtags,
		Media:    req.Media,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// PublishPost publishes a stored post now
// POST /api/v1/posts/:id/publish
func (h *Handlers) PublishPost(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}
	post, err := h.posts.Publish(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeleteRemotePost removes a post from its page and keeps it as a draft
// DELETE /api/v1/posts/:id/remote
func (h *Handlers) DeleteRemotePost(c *gin.Context) {
	id, ok := util.GetIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PublishPosts publishes several posts
// POST /api/v1/posts/publish
func (h *Handlers) PublishPosts(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		util.RespondValidationError(c, "ids", "ids is required")
		return
	}
	c.JSON(http.StatusOK, h.posts.PublishAll(c.Request.Context(), req.IDs))
}

// DeletePosts removes several posts from their pages
// POST /api/v1/posts/delete
func (h *Handlers) DeletePosts(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		util.RespondValidationError(c, "ids", "ids is required")
		return
	}
	c.JSON(http.StatusOK, h.posts.DeleteAll(c.Request.Context(), req.IDs))
}
