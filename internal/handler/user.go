package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"starkride/internal/domain"
	"starkride/internal/middleware"
	"starkride/internal/service"
)

// UserHandler handles HTTP requests for rider accounts.
type UserHandler struct {
	userService *service.UserService
	auth        *middleware.Auth
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, auth *middleware.Auth) *UserHandler {
	return &UserHandler{
		userService: userService,
		auth:        auth,
	}
}

// RegisterUserRequest is the HTTP request body for rider registration.
type RegisterUserRequest struct {
	Name string `json:"name"`
}

// UserResponse is the HTTP response for rider operations.
type UserResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Ratings      float64 `json:"ratings"`
	TotalRatings int64   `json:"total_ratings"`
	TotalRides   int64   `json:"total_rides"`
	PendingRides int64   `json:"pending_rides"`
	CancelRides  int64   `json:"cancel_rides"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Ratings:      user.Ratings,
		TotalRatings: user.TotalRatings,
		TotalRides:   user.TotalRides,
		PendingRides: user.PendingRides,
		CancelRides:  user.CancelRides,
	}
}

// Register handles POST /v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.auth.IssueToken(user.ID, middleware.RoleUser, authTokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"user":  toUserResponse(user),
		"token": token,
	})
}

// Me handles GET /v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toUserResponse(user))
}
