package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/service/game"
)

type GameHandler struct {
	svc *game.Service
}

func NewGameHandler(svc *game.Service) *GameHandler {
	return &GameHandler{svc: svc}
}

type gameCreateRequest struct {
	Name   string `json:"name" binding:"required"`
	BGGURL string `json:"bgg_url"`
}

func (h *GameHandler) Create(c *gin.Context) {
	var req gameCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.svc.Create(c.Request.Context(), identityFrom(c), game.CreateInput{
		Name:   req.Name,
		BGGURL: req.BGGURL,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *GameHandler) Get(c *gin.Context) {
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

type gameUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	BGGURL      *string `json:"bgg_url"`
}

func (h *GameHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req gameUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Update(c.Request.Context(), identityFrom(c), id, game.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		BGGURL:      req.BGGURL,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GameHandler) Delete(c *gin.Context) {
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

// mapping routes take both ids from the path: /games/:id/categories/:mappedID

func (h *GameHandler) AddCategory(c *gin.Context) {
	h.mapping(c, h.svc.AddCategory)
}

func (h *GameHandler) RemoveCategory(c *gin.Context) {
	h.mapping(c, h.svc.RemoveCategory)
}

func (h *GameHandler) AddMechanic(c *gin.Context) {
	h.mapping(c, h.svc.AddMechanic)
}

func (h *GameHandler) RemoveMechanic(c *gin.Context) {
	h.mapping(c, h.svc.RemoveMechanic)
}

func (h *GameHandler) Categories(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	categories, err := h.svc.Categories(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *GameHandler) Mechanics(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	mechanics, err := h.svc.Mechanics(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mechanics": mechanics})
}

func (h *GameHandler) History(c *gin.Context) {
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

func (h *GameHandler) mapping(c *gin.Context, op func(context.Context, *authz.Identity, uint64, uint64) error) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	mappedID, err := strconv.ParseUint(c.Param("mappedID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mapped id must be numeric"})
		return
	}

	if err := op(c.Request.Context(), identityFrom(c), gameID, mappedID); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
