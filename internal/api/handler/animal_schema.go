package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type createAnimalRequest struct {
	RFIDTag   string    `json:"rfid_tag"   validate:"required"`
	Name      string    `json:"name"       validate:"required"`
	Species   string    `json:"species"    validate:"required,oneof=cattle sheep goat pig poultry horse"`
	Breed     string    `json:"breed"`
	BirthDate time.Time `json:"birth_date"`
	WeightKg  float64   `json:"weight_kg"  validate:"omitempty,gt=0"`
	Notes     string    `json:"notes"`
}

type updateAnimalRequest struct {
	Name     *string  `json:"name"      validate:"omitempty,min=1"`
	Breed    *string  `json:"breed"`
	WeightKg *float64 `json:"weight_kg" validate:"omitempty,gt=0"`
	Status   *string  `json:"status"    validate:"omitempty,oneof=active sold deceased"`
	Notes    *string  `json:"notes"`
}

// Response-only types owned by the transport layer.
// These are intentionally separate from domain types so the JSON contract is
// not coupled to internal service changes.

type animalResponse struct {
	ID        string    `json:"id"`
	RFIDTag   string    `json:"rfid_tag"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed,omitempty"`
	BirthDate time.Time `json:"birth_date"`
	WeightKg  float64   `json:"weight_kg,omitempty"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listAnimalsResponse struct {
	Data       []animalResponse   `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}
