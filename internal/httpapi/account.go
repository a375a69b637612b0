package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meeplevault/catalog/internal/service/account"
)

type AccountHandler struct {
	svc    *account.Service
	tokens *TokenIssuer
}

func NewAccountHandler(svc *account.Service, tokens *TokenIssuer) *AccountHandler {
	return &AccountHandler{svc: svc, tokens: tokens}
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AccountHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.svc.Signup(c.Request.Context(), account.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident, err := h.svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}

	token, err := h.tokens.Issue(ident)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Me returns the authenticated caller's profile.
func (h *AccountHandler) Me(c *gin.Context) {
	profile, err := h.svc.GetProfile(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CheckEmail answers the O(1) bitmap probe used by signup forms.
func (h *AccountHandler) CheckEmail(c *gin.Context) {
	taken, err := h.svc.EmailTaken(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"taken": taken})
}

func (h *AccountHandler) CheckUsername(c *gin.Context) {
	taken, err := h.svc.UsernameTaken(c.Request.Context(), c.Query("username"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"taken": taken})
}
