package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"starkride/internal/domain"
	"starkride/internal/service"
)

// RideRequestHandler handles HTTP requests for the ride request pool.
type RideRequestHandler struct {
	requestService *service.RideRequestService
}

// NewRideRequestHandler creates a new RideRequestHandler.
func NewRideRequestHandler(requestService *service.RideRequestService) *RideRequestHandler {
	return &RideRequestHandler{requestService: requestService}
}

// CreateRequestRequest is the HTTP request body for opening a ride request.
type CreateRequestRequest struct {
	UniqueRideKey string `json:"unique_ride_key"`
}

// RideRequestResponse is the HTTP response for ride request operations.
type RideRequestResponse struct {
	ID            string    `json:"id"`
	UniqueRideKey string    `json:"unique_ride_key"`
	Status        string    `json:"status"`
	AcceptedBy    string    `json:"accepted_by,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func toRideRequestResponse(request *domain.RideRequest) RideRequestResponse {
	return RideRequestResponse{
		ID:            request.ID,
		UniqueRideKey: request.UniqueRideKey,
		Status:        string(request.Status),
		AcceptedBy:    request.AcceptedBy,
		ExpiresAt:     request.ExpiresAt,
	}
}

// Create handles POST /v1/ride-requests
func (h *RideRequestHandler) Create(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	request, err := h.requestService.CreateRequest(c.Request.Context(), service.CreateRequestRequest{
		UserID:        c.GetString("user_id"),
		UniqueRideKey: req.UniqueRideKey,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideRequestResponse(request))
}

// Claim handles POST /v1/ride-requests/:key/claim
func (h *RideRequestHandler) Claim(c *gin.Context) {
	request, err := h.requestService.Claim(c.Request.Context(), c.Param("key"), c.GetString("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideRequestResponse(request))
}

// Expire handles POST /v1/ride-requests/:key/expire
func (h *RideRequestHandler) Expire(c *gin.Context) {
	err := h.requestService.Expire(c.Request.Context(), c.Param("key"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "expired"})
}

// Get handles GET /v1/ride-requests/:key
func (h *RideRequestHandler) Get(c *gin.Context) {
	request, err := h.requestService.GetByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideRequestResponse(request))
}
