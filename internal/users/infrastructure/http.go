package infrastructure

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ecomart/internal/users/application"
	"ecomart/internal/users/domain"
	"ecomart/pkg/errors"
	"ecomart/pkg/middleware"
)

// HTTPHandler handles HTTP requests for reward accounts
type HTTPHandler struct {
	useCase *application.UserUseCase
	auth    gin.HandlerFunc
}

// NewHTTPHandler creates a new HTTP handler. auth guards account provisioning.
func NewHTTPHandler(useCase *application.UserUseCase, auth gin.HandlerFunc) *HTTPHandler {
	return &HTTPHandler{useCase: useCase, auth: auth}
}

// RegisterRoutes registers the user routes
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.POST("", h.auth, h.CreateUser)
		users.GET("/leaderboard", h.Leaderboard)
		users.GET("/:id", h.GetUser)
	}
}

// CreateUserRequest is the request body for provisioning an account.
// ID defaults to the authenticated caller.
type CreateUserRequest struct {
	ID       uint   `json:"id" example:"3"`
	Username string `json:"username" binding:"required" example:"asha"`
	Email    string `json:"email" binding:"required,email" example:"asha@example.com"`
	Role     string `json:"role" example:"user"`
}

// UserResponse is a reward account
type UserResponse struct {
	ID                   uint    `json:"id" example:"3"`
	Username             string  `json:"username" example:"asha"`
	Email                string  `json:"email" example:"asha@example.com"`
	Role                 string  `json:"role" example:"user"`
	GreenCoins           int     `json:"greenCoins" example:"120"`
	CarbonFootprintSaved float64 `json:"carbonFootprintSaved" example:"18.4"`
	CreatedAt            string  `json:"createdAt" example:"2024-01-15T10:30:00Z"`
}

// LeaderboardEntry is one ranked shopper
type LeaderboardEntry struct {
	Rank                 int     `json:"rank" example:"1"`
	ID                   uint    `json:"id" example:"3"`
	Username             string  `json:"username" example:"asha"`
	GreenCoins           int     `json:"greenCoins" example:"120"`
	CarbonFootprintSaved float64 `json:"carbonFootprintSaved" example:"18.4"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:                   u.ID,
		Username:             u.Username,
		Email:                u.Email,
		Role:                 u.Role,
		GreenCoins:           u.GreenCoins,
		CarbonFootprintSaved: u.CarbonFootprintSaved,
		CreatedAt:            u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateUser provisions a reward account
// @Summary Provision a reward account
// @Description Idempotent: provisioning an existing account returns it unchanged
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "Account"
// @Success 201 {object} map[string]interface{} "Account created"
// @Success 200 {object} map[string]interface{} "Account already existed"
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "Email already exists"
// @Router /api/users [post]
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	caller, ok := middleware.UserID(c)
	if !ok {
		c.Error(errors.NewUnauthorized("authentication required"))
		return
	}
	if middleware.Role(c) != domain.RoleAdmin {
		if req.ID != 0 && req.ID != caller {
			c.Error(errors.NewForbidden("cannot provision another user's account"))
			return
		}
		if req.Role != "" && req.Role != domain.RoleUser {
			c.Error(errors.NewForbidden("only admins may assign roles"))
			return
		}
	}
	if req.ID == 0 {
		req.ID = caller
	}

	output, err := h.useCase.Provision(c.Request.Context(), application.ProvisionInput{
		ID:       req.ID,
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		c.Error(err)
		return
	}

	status, message := http.StatusOK, "account already provisioned"
	if output.Created {
		status, message = http.StatusCreated, "account provisioned"
	}

	c.JSON(status, gin.H{
		"message":  message,
		"data":     toUserResponse(output.User),
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// GetUser returns an account and its reward balance
// @Summary Get a reward account
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/users/{id} [get]
func (h *HTTPHandler) GetUser(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.Error(errors.NewValidation("invalid user id", nil))
		return
	}

	output, err := h.useCase.GetUser(c.Request.Context(), application.GetUserInput{
		ID: uint(id),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "user retrieved",
		"data":     toUserResponse(output.User),
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}

// Leaderboard ranks shoppers by green coins
// @Summary Green coin leaderboard
// @Tags users
// @Produce json
// @Param limit query int false "Maximum entries (default and cap 100)"
// @Success 200 {object} map[string]interface{}
// @Router /api/users/leaderboard [get]
func (h *HTTPHandler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.Error(errors.NewValidation("invalid limit", nil))
			return
		}
		limit = n
	}

	users, err := h.useCase.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:                 i + 1,
			ID:                   u.ID,
			Username:             u.Username,
			GreenCoins:           u.GreenCoins,
			CarbonFootprintSaved: u.CarbonFootprintSaved,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "leaderboard",
		"data":     entries,
		"trace_id": c.GetString(middleware.TraceIDKey),
	})
}
