package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meeplevault/catalog/internal/service/rule"
)

type RuleHandler struct {
	svc *rule.Service
}

func NewRuleHandler(svc *rule.Service) *RuleHandler {
	return &RuleHandler{svc: svc}
}

type ruleCreateRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

// Create attaches a rule to the game in the path.
func (h *RuleHandler) Create(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	var req ruleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.svc.Create(c.Request.Context(), identityFrom(c), gameID, rule.CreateInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *RuleHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type ruleUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *RuleHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ruleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.Update(c.Request.Context(), identityFrom(c), id, rule.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RuleHandler) Delete(c *gin.Context) {
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

func (h *RuleHandler) ListByGame(c *gin.Context) {
	gameID, ok := pathID(c)
	if !ok {
		return
	}
	rules, err := h.svc.ListByGame(c.Request.Context(), gameID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (h *RuleHandler) History(c *gin.Context) {
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
