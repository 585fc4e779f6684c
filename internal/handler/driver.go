package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"starkride/internal/domain"
	"starkride/internal/middleware"
	"starkride/internal/service"
)

const authTokenTTL = 24 * time.Hour

// DriverHandler handles HTTP requests for driver accounts.
type DriverHandler struct {
	driverService *service.DriverService
	auth          *middleware.Auth
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService, auth *middleware.Auth) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		auth:          auth,
	}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Name        string `json:"name"`
	VehicleType string `json:"vehicle_type"`
}

// DriverResponse is the HTTP response for driver operations.
type DriverResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	VehicleType  string  `json:"vehicle_type"`
	Status       string  `json:"status"`
	IsApproved   bool    `json:"is_approved"`
	Ratings      float64 `json:"ratings"`
	TotalRatings int64   `json:"total_ratings"`
	TotalEarning int64   `json:"total_earning"`
	TotalRides   int64   `json:"total_rides"`
	PendingRides int64   `json:"pending_rides"`
	CancelRides  int64   `json:"cancel_rides"`
}

func toDriverResponse(driver *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:           driver.ID,
		Name:         driver.Name,
		VehicleType:  string(driver.VehicleType),
		Status:       string(driver.Status),
		IsApproved:   driver.IsApproved,
		Ratings:      driver.Ratings,
		TotalRatings: driver.TotalRatings,
		TotalEarning: driver.TotalEarning,
		TotalRides:   driver.TotalRides,
		PendingRides: driver.PendingRides,
		CancelRides:  driver.CancelRides,
	}
}

func validVehicleType(v string) bool {
	switch domain.VehicleType(v) {
	case domain.VehicleAuto, domain.VehicleHatchback, domain.VehicleSedan, domain.VehicleSuv:
		return true
	}
	return false
}

// Register handles POST /v1/drivers/register
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}
	if !validVehicleType(req.VehicleType) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vehicle_type"})
		return
	}

	driver, err := h.driverService.Register(c.Request.Context(), service.RegisterDriverRequest{
		Name:        req.Name,
		VehicleType: domain.VehicleType(req.VehicleType),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := h.auth.IssueToken(driver.ID, middleware.RoleDriver, authTokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"driver": toDriverResponse(driver),
		"token":  token,
	})
}

// Me handles GET /v1/drivers/me
func (h *DriverHandler) Me(c *gin.Context) {
	driver, err := h.driverService.GetProfile(c.Request.Context(), c.GetString("driver_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// UpdateDriverStatusRequest is the HTTP request body for availability changes.
type UpdateDriverStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /v1/drivers/me/status
func (h *DriverHandler) UpdateStatus(c *gin.Context) {
	var req UpdateDriverStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	status := domain.DriverStatus(req.Status)
	if status != domain.DriverStatusActive && status != domain.DriverStatusInactive {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "status must be active or inactive"})
		return
	}

	driver, err := h.driverService.UpdateWorkingStatus(c.Request.Context(), c.GetString("driver_id"), status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}
