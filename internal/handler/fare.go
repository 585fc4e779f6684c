package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"starkride/internal/domain"
	"starkride/internal/service"
)

// FareHandler handles HTTP requests for fare quotes and fare config.
type FareHandler struct {
	fareService *service.FareService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(fareService *service.FareService) *FareHandler {
	return &FareHandler{fareService: fareService}
}

// QuoteResponse is the HTTP response for a fare quote.
type QuoteResponse struct {
	VehicleType    string  `json:"vehicle_type"`
	District       string  `json:"district"`
	DistanceKm     float64 `json:"distance_km"`
	TotalFare      int64   `json:"total_fare"`
	DriverEarnings int64   `json:"driver_earnings"`
	PlatformShare  int64   `json:"platform_share"`
}

// Quote handles GET /v1/fares/quote
func (h *FareHandler) Quote(c *gin.Context) {
	vehicleType := c.Query("vehicle_type")
	if !validVehicleType(vehicleType) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vehicle_type"})
		return
	}

	distanceKm, err := strconv.ParseFloat(c.Query("distance_km"), 64)
	if err != nil || distanceKm <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "distance_km must be positive"})
		return
	}

	district := c.Query("district")

	quote, err := h.fareService.Quote(c.Request.Context(), domain.VehicleType(vehicleType), district, distanceKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{
		VehicleType:    vehicleType,
		District:       quote.Fare.District,
		DistanceKm:     distanceKm,
		TotalFare:      quote.Breakdown.TotalFare,
		DriverEarnings: quote.Breakdown.DriverEarnings,
		PlatformShare:  quote.Breakdown.PlatformShare,
	})
}

// FarePayload is a fare config row on the wire.
type FarePayload struct {
	VehicleType     string  `json:"vehicle_type"`
	District        string  `json:"district"`
	BaseFare        float64 `json:"base_fare"`
	BaseFareUptoKm  float64 `json:"base_fare_upto_km"`
	PerKmRate       float64 `json:"per_km_rate"`
	PerMinRate      float64 `json:"per_min_rate"`
	MinFare         float64 `json:"min_fare"`
	SurgeMultiplier float64 `json:"surge_multiplier"`
}

func toFarePayload(fare *domain.Fare) FarePayload {
	return FarePayload{
		VehicleType:     string(fare.VehicleType),
		District:        fare.District,
		BaseFare:        fare.BaseFare,
		BaseFareUptoKm:  fare.BaseFareUptoKm,
		PerKmRate:       fare.PerKmRate,
		PerMinRate:      fare.PerMinRate,
		MinFare:         fare.MinFare,
		SurgeMultiplier: fare.SurgeMultiplier,
	}
}

func (p FarePayload) toServiceRequest() service.CreateFareRequest {
	return service.CreateFareRequest{
		VehicleType:     domain.VehicleType(p.VehicleType),
		District:        p.District,
		BaseFare:        p.BaseFare,
		BaseFareUptoKm:  p.BaseFareUptoKm,
		PerKmRate:       p.PerKmRate,
		PerMinRate:      p.PerMinRate,
		MinFare:         p.MinFare,
		SurgeMultiplier: p.SurgeMultiplier,
	}
}

// Create handles POST /v1/admin/fares
func (h *FareHandler) Create(c *gin.Context) {
	var req FarePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if !validVehicleType(req.VehicleType) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vehicle_type"})
		return
	}
	if req.BaseFare <= 0 || req.PerKmRate <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "base_fare and per_km_rate must be positive"})
		return
	}

	fare, err := h.fareService.CreateFare(c.Request.Context(), req.toServiceRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toFarePayload(fare))
}

// Update handles PUT /v1/admin/fares
func (h *FareHandler) Update(c *gin.Context) {
	var req FarePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if !validVehicleType(req.VehicleType) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid vehicle_type"})
		return
	}

	fare, err := h.fareService.UpdateFare(c.Request.Context(), req.toServiceRequest())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toFarePayload(fare))
}

// List handles GET /v1/fares
func (h *FareHandler) List(c *gin.Context) {
	fares, err := h.fareService.ListFares(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	payloads := make([]FarePayload, 0, len(fares))
	for _, fare := range fares {
		payloads = append(payloads, toFarePayload(fare))
	}

	respondJSON(c, http.StatusOK, gin.H{"fares": payloads})
}
