package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriops/farmops-api/internal/core/domain"
	"github.com/agriops/farmops-api/internal/core/ports"
)

// AnimalHandler handles HTTP requests for animal operations.
type AnimalHandler struct {
	service ports.AnimalService
}

func NewAnimalHandler(service ports.AnimalService) *AnimalHandler {
	return &AnimalHandler{service: service}
}

// Create handles POST /v1/animals.
//
// @Summary      Register a new animal
// @Tags         animals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createAnimalRequest  true  "Animal details"
// @Success      201   {object}  animalResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /v1/animals [post]
func (h *AnimalHandler) Create(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	var req createAnimalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	animal, err := h.service.CreateAnimal(c.Request().Context(), tctx, ports.CreateAnimalInput{
		RFIDTag:   req.RFIDTag,
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		BirthDate: req.BirthDate,
		WeightKg:  req.WeightKg,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAnimalResponse(animal))
}

// Get handles GET /v1/animals/:id.
//
// @Summary      Get one animal
// @Tags         animals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Animal ID"
// @Success      200  {object}  animalResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/animals/{id} [get]
func (h *AnimalHandler) Get(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	animal, err := h.service.GetAnimal(c.Request().Context(), tctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAnimalResponse(animal))
}

// List handles GET /v1/animals.
//
// @Summary      List the tenant's animals
// @Tags         animals
// @Produce      json
// @Security     BearerAuth
// @Param        species  query     string  false  "Filter by species"
// @Param        status   query     string  false  "Filter by status"
// @Param        search   query     string  false  "Search name or RFID tag"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Page size (default 20, max 100)"
// @Success      200      {object}  listAnimalsResponse
// @Router       /v1/animals [get]
func (h *AnimalHandler) List(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	result, err := h.service.ListAnimals(c.Request().Context(), tctx, ports.ListAnimalsInput{
		Species: c.QueryParam("species"),
		Status:  c.QueryParam("status"),
		Search:  c.QueryParam("search"),
		Page:    intQueryParam(c, "page"),
		Limit:   intQueryParam(c, "limit"),
	})
	if err != nil {
		return err
	}

	data := make([]animalResponse, 0, len(result.Items))
	for _, a := range result.Items {
		data = append(data, toAnimalResponse(a))
	}
	return c.JSON(http.StatusOK, listAnimalsResponse{
		Data: data,
		Pagination: paginationResponse{
			Total:      result.Total,
			Page:       result.Page,
			Limit:      result.Limit,
			TotalPages: result.TotalPages,
		},
	})
}

// Update handles PATCH /v1/animals/:id.
//
// @Summary      Update an animal
// @Tags         animals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Animal ID"
// @Param        body  body      updateAnimalRequest  true  "Fields to change"
// @Success      200   {object}  animalResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/animals/{id} [patch]
func (h *AnimalHandler) Update(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	var req updateAnimalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := ports.UpdateAnimalInput{
		Name:     req.Name,
		Breed:    req.Breed,
		WeightKg: req.WeightKg,
		Notes:    req.Notes,
	}
	if req.Status != nil {
		status := domain.AnimalStatus(*req.Status)
		input.Status = &status
	}

	animal, err := h.service.UpdateAnimal(c.Request().Context(), tctx, c.Param("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAnimalResponse(animal))
}

// Delete handles DELETE /v1/animals/:id.
//
// @Summary      Delete an animal
// @Tags         animals
// @Security     BearerAuth
// @Param        id  path  string  true  "Animal ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/animals/{id} [delete]
func (h *AnimalHandler) Delete(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteAnimal(c.Request().Context(), tctx, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
