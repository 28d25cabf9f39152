package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/agriops/farmops-api/internal/core/domain"
)

// --- Service result → HTTP response ---

func toAnimalResponse(a *domain.Animal) animalResponse {
	return animalResponse{
		ID:        a.ID,
		RFIDTag:   a.RFIDTag,
		Name:      a.Name,
		Species:   a.Species,
		Breed:     a.Breed,
		BirthDate: a.BirthDate,
		WeightKg:  a.WeightKg,
		Status:    string(a.Status),
		Notes:     a.Notes,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// intQueryParam parses an integer query parameter, returning 0 when absent or
// malformed so the service applies its defaults.
func intQueryParam(c echo.Context, name string) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}
