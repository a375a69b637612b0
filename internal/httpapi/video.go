package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meeplevault/catalog/internal/service/video"
)

type VideoHandler struct {
	svc *video.Service
}

func NewVideoHandler(svc *video.Service) *VideoHandler {
	return &VideoHandler{svc: svc}
}

type videoCreateRequest struct {
	Title string `json:"title" binding:"required"`
	URL   string `json:"url" binding:"required"`
}

func (h *VideoHandler) Create(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	var req videoCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.svc.Create(c.Request.Context(), identityFrom(c), gameID, video.CreateInput{
		Title: req.Title,
		URL:   req.URL,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *VideoHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type videoUpdateRequest struct {
	Title *string `json:"title"`
	URL   *string `json:"url"`
}

func (h *VideoHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req videoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Update(c.Request.Context(), identityFrom(c), id, video.UpdateInput{
		Title: req.Title,
		URL:   req.URL,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VideoHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), identityFrom(c), id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VideoHandler) ListByGame(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	videos, err := h.svc.ListByGame(c.Request.Context(), gameID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

func (h *VideoHandler) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entries, err := h.svc.History(c.Request.Context(), id, historyFilter(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
