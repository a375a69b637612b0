package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	svcErr "github.com/meeplevault/catalog/internal/errors"
	"github.com/meeplevault/catalog/internal/history"
	"github.com/meeplevault/catalog/internal/service/category"
)

type CategoryHandler struct {
	svc *category.Service
}

func NewCategoryHandler(svc *category.Service) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

type categoryCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImgURL      string `json:"img_url"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.svc.Create(c.Request.Context(), identityFrom(c), category.CreateInput{
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

func (h *CategoryHandler) Get(c *gin.Context) {
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

type categoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImgURL      *string `json:"img_url"`
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req categoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Update(c.Request.Context(), identityFrom(c), id, category.UpdateInput{
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

func (h *CategoryHandler) ToggleStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	next, err := h.svc.ToggleStatus(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": next})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
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

func (h *CategoryHandler) List(c *gin.Context) {
	f := category.ListFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	if raw := c.Query("owner_id"); raw != "" {
		owner, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id must be numeric"})
			return
		}
		f.OwnerID = &owner
	}

	items, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *CategoryHandler) Like(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ident := identityFrom(c)
	if err := h.svc.Like(c.Request.Context(), ident.UserID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CategoryHandler) Unlike(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ident := identityFrom(c)
	if err := h.svc.Unlike(c.Request.Context(), ident.UserID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Liked lists the ids of categories the caller has liked.
func (h *CategoryHandler) Liked(c *gin.Context) {
	ids, err := h.svc.LikedIDs(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}

func (h *CategoryHandler) HasLiked(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ident := identityFrom(c)
	liked, err := h.svc.HasLiked(c.Request.Context(), ident.UserID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *CategoryHandler) History(c *gin.Context) {
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

// --- shared helpers ---

func respondErr(c *gin.Context, err error) {
	c.JSON(svcErr.HTTPStatus(err), gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be numeric"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}

func historyFilter(c *gin.Context) history.ListFilter {
	f := history.ListFilter{
		Action: c.Query("action"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	if raw := c.Query("updated_by"); raw != "" {
		f.UpdatedBy, _ = strconv.ParseUint(raw, 10, 64)
	}
	return f
}
