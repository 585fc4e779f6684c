package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"starkride/internal/domain"
	"starkride/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// LocationPayload is a named coordinate on the wire.
type LocationPayload struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p LocationPayload) toDomain() domain.Location {
	return domain.Location{
		Name:      p.Name,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	}
}

func toLocationPayload(l domain.Location) LocationPayload {
	return LocationPayload{
		Name:      l.Name,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
	}
}

// CreateRideRequest is the HTTP request body for creating a ride.
type CreateRideRequest struct {
	UniqueRideKey string          `json:"unique_ride_key"`
	Pickup        LocationPayload `json:"pickup"`
	Destination   LocationPayload `json:"destination"`
	DistanceKm    float64         `json:"distance_km"`
	District      string          `json:"district"`
}

// CancelDetailsResponse is the cancel snapshot on the wire.
type CancelDetailsResponse struct {
	CancelledBy       string    `json:"cancelled_by"`
	Reason            string    `json:"reason"`
	TotalFare         int64     `json:"total_fare"`
	RefundedAmount    int64     `json:"refunded_amount"`
	TravelledDistance float64   `json:"travelled_distance"`
	CancelledAt       time.Time `json:"cancelled_at"`
}

// RideResponse is the HTTP response for ride operations.
type RideResponse struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	DriverID       string                 `json:"driver_id"`
	TotalFare      int64                  `json:"total_fare"`
	DriverEarnings int64                  `json:"driver_earnings"`
	PlatformShare  int64                  `json:"platform_share"`
	Status         string                 `json:"status"`
	OTP            string                 `json:"otp,omitempty"`
	Pickup         LocationPayload        `json:"pickup"`
	Destination    LocationPayload        `json:"destination"`
	DistanceKm     float64                `json:"distance_km"`
	UserRating     float64                `json:"user_rating,omitempty"`
	DriverRating   float64                `json:"driver_rating,omitempty"`
	Rating         float64                `json:"rating,omitempty"`
	Cancel         *CancelDetailsResponse `json:"cancel,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

func toRideResponse(ride *domain.Ride, includeOtp bool) RideResponse {
	resp := RideResponse{
		ID:             ride.ID,
		UserID:         ride.UserID,
		DriverID:       ride.DriverID,
		TotalFare:      ride.TotalFare,
		DriverEarnings: ride.DriverEarnings,
		PlatformShare:  ride.PlatformShare,
		Status:         string(ride.Status),
		Pickup:         toLocationPayload(ride.Pickup),
		Destination:    toLocationPayload(ride.Destination),
		DistanceKm:     ride.DistanceKm,
		UserRating:     ride.UserRating,
		DriverRating:   ride.DriverRating,
		Rating:         ride.Rating,
		CreatedAt:      ride.CreatedAt,
	}
	if includeOtp {
		resp.OTP = ride.OTP
	}
	if ride.Cancel != nil {
		resp.Cancel = &CancelDetailsResponse{
			CancelledBy:       ride.Cancel.CancelledBy,
			Reason:            ride.Cancel.Reason,
			TotalFare:         ride.Cancel.TotalFare,
			RefundedAmount:    ride.Cancel.RefundedAmount,
			TravelledDistance: ride.Cancel.TravelledDistance,
			CancelledAt:       ride.Cancel.CancelledAt,
		}
	}
	return resp
}

// Create handles POST /v1/rides
func (h *RideHandler) Create(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.DistanceKm <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "distance_km must be positive"})
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		DriverID:      c.GetString("driver_id"),
		UniqueRideKey: req.UniqueRideKey,
		Pickup:        req.Pickup.toDomain(),
		Destination:   req.Destination.toDomain(),
		DistanceKm:    req.DistanceKm,
		District:      req.District,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// The OTP goes to the rider through the booked notification, never
	// to the driver.
	respondJSON(c, http.StatusCreated, toRideResponse(ride, false))
}

// StartRideRequest is the HTTP request body for OTP verification.
type StartRideRequest struct {
	Otp string `json:"otp"`
}

// Start handles POST /v1/rides/:id/start
func (h *RideHandler) Start(c *gin.Context) {
	var req StartRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.VerifyStartOtp(c.Request.Context(), c.Param("id"), c.GetString("driver_id"), req.Otp)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, false))
}

// UpdateStatusRequest is the HTTP request body for a lifecycle transition.
type UpdateStatusRequest struct {
	Status   string          `json:"status"`
	Location LocationPayload `json:"location"`
}

// UpdateStatus handles POST /v1/rides/:id/status
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.UpdateStatus(c.Request.Context(), service.UpdateStatusRequest{
		RideID:   c.Param("id"),
		DriverID: c.GetString("driver_id"),
		Status:   domain.RideStatus(req.Status),
		Location: req.Location.toDomain(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, false))
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	Reason            string          `json:"reason"`
	TravelledDistance float64         `json:"travelled_distance"`
	Location          LocationPayload `json:"location"`
	District          string          `json:"district"`
}

// Cancel handles POST /v1/rides/:id/cancel
func (h *RideHandler) Cancel(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Cancel(c.Request.Context(), service.CancelRideRequest{
		RideID:            c.Param("id"),
		CancelledBy:       callerID(c),
		Reason:            req.Reason,
		TravelledDistance: req.TravelledDistance,
		Location:          req.Location.toDomain(),
		District:          req.District,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, false))
}

// RateRideRequest is the HTTP request body for rating a ride.
type RateRideRequest struct {
	Rating float64 `json:"rating"`
}

// Rate handles POST /v1/rides/:id/rate
func (h *RideHandler) Rate(c *gin.Context) {
	var req RateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Rate(c.Request.Context(), service.RateRideRequest{
		RideID:  c.Param("id"),
		RaterID: callerID(c),
		Rating:  req.Rating,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride, false))
}

// Get handles GET /v1/rides/:id
func (h *RideHandler) Get(c *gin.Context) {
	caller := callerID(c)

	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	// The rider sees the OTP so they can hand it to the driver.
	respondJSON(c, http.StatusOK, toRideResponse(ride, caller == ride.UserID))
}

// ListForUser handles GET /v1/rides
func (h *RideHandler) ListForUser(c *gin.Context) {
	rides, err := h.rideService.ListUserRides(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]RideResponse, 0, len(rides))
	for _, ride := range rides {
		responses = append(responses, toRideResponse(ride, false))
	}

	respondJSON(c, http.StatusOK, gin.H{"rides": responses})
}

// Active handles GET /v1/rides/active for both riders and drivers.
func (h *RideHandler) Active(c *gin.Context) {
	var (
		ride *domain.Ride
		err  error
	)

	if driverID := c.GetString("driver_id"); driverID != "" {
		ride, err = h.rideService.ActiveRideForDriver(c.Request.Context(), driverID)
	} else {
		ride, err = h.rideService.ActiveRideForUser(c.Request.Context(), c.GetString("user_id"))
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if ride == nil {
		respondJSON(c, http.StatusOK, gin.H{"ride": nil})
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"ride": toRideResponse(ride, callerID(c) == ride.UserID)})
}
