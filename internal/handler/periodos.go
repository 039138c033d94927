package handler

import (
	"net/http"

	"nominapro/internal/apierror"
	"nominapro/internal/dto"
	"nominapro/internal/middleware"
	"nominapro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PeriodosHandler struct{ svc service.PeriodoService }

func NewPeriodosHandler(svc service.PeriodoService) *PeriodosHandler {
	return &PeriodosHandler{svc: svc}
}

// Crear godoc
// @Summary Crea un período de nómina en borrador
// @Tags periodos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearPeriodoRequest true "Período"
// @Success 201 {object} dto.PeriodoResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/periodos [post]
func (h *PeriodosHandler) Crear(c *gin.Context) {
	var req dto.CrearPeriodoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PeriodosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar períodos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PeriodosHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary Cierra un período (drena ajustes pendientes si venía reabierto)
// @Tags periodos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de período"
// @Success 200 {object} dto.CerrarPeriodoResponse
// @Failure 409 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/periodos/{id}/cerrar [post]
func (h *PeriodosHandler) Cerrar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reabrir godoc
// @Summary Reabre un período cerrado para corrección
// @Description Requiere rol supervisor o administrador. Queda auditado quién, cuándo y por qué.
// @Tags periodos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de período"
// @Param body body dto.ReabrirPeriodoRequest true "Motivo"
// @Success 200 {object} dto.PeriodoResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/periodos/{id}/reabrir [post]
func (h *PeriodosHandler) Reabrir(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.ReabrirPeriodoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	usuarioID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Reabrir(c.Request.Context(), id, usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
