package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meeplevault/catalog/internal/service/mechanic"
)

type MechanicHandler struct {
	svc *mechanic.Service
}

func NewMechanicHandler(svc *mechanic.Service) *MechanicHandler {
	return &MechanicHandler{svc: svc}
}

type mechanicCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImgURL      string `json:"img_url"`
}

func (h *MechanicHandler) Create(c *gin.Context) {
	var req mechanicCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.svc.Create(c.Request.Context(), identityFrom(c), mechanic.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		ImgURL:      req.ImgURL,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *MechanicHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type mechanicUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImgURL      *string `json:"img_url"`
}

func (h *MechanicHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req mechanicUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Update(c.Request.Context(), identityFrom(c), id, mechanic.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		ImgURL:      req.ImgURL,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MechanicHandler) Delete(c *gin.Context) {
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

func (h *MechanicHandler) Like(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Like(c.Request.Context(), identityFrom(c).UserID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MechanicHandler) Unlike(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Unlike(c.Request.Context(), identityFrom(c).UserID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MechanicHandler) HasLiked(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	liked, err := h.svc.HasLiked(c.Request.Context(), identityFrom(c).UserID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *MechanicHandler) History(c *gin.Context) {
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
