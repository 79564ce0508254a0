package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cab/internal/domain"
	"cab/internal/repository"
)

// VehicleHandler handles HTTP requests for the vehicle pool.
type VehicleHandler struct {
	vehicleRepo repository.VehicleRepository
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleRepo repository.VehicleRepository) *VehicleHandler {
	return &VehicleHandler{vehicleRepo: vehicleRepo}
}

// VehicleResponse is the HTTP response for a vehicle.
type VehicleResponse struct {
	ID        string  `json:"id"`
	Number    string  `json:"number"`
	Type      string  `json:"type"`
	RatePerKm float64 `json:"rate_per_km"`
	Electric  bool    `json:"electric"`
	Seats     int     `json:"seats"`
	Available bool    `json:"available"`
	DriverID  string  `json:"driver_id,omitempty"`
}

func toVehicleResponse(v *domain.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:        v.ID,
		Number:    v.Number,
		Type:      string(v.Type),
		RatePerKm: v.RatePerKm,
		Electric:  v.Electric,
		Seats:     v.Seats,
		Available: v.Available,
		DriverID:  v.DriverID,
	}
}

// GetAll handles GET /v1/vehicles
// Optional query params: available=true, electric=true.
func (h *VehicleHandler) GetAll(c *gin.Context) {
	availableOnly, err := parseBoolQuery(c, "available")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid available parameter"})
		return
	}
	electricOnly, err := parseBoolQuery(c, "electric")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid electric parameter"})
		return
	}

	var vehicles []*domain.Vehicle
	if availableOnly {
		vehicles, err = h.vehicleRepo.FindAvailable(c.Request.Context(), electricOnly)
	} else {
		vehicles, err = h.vehicleRepo.GetAll(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		if electricOnly && !v.Electric {
			continue
		}
		response = append(response, toVehicleResponse(v))
	}

	c.JSON(http.StatusOK, response)
}

// GetVehicle handles GET /v1/vehicles/:id
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toVehicleResponse(vehicle))
}

func parseBoolQuery(c *gin.Context, key string) (bool, error) {
	value := c.Query(key)
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}
