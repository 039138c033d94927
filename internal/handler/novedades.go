package handler

import (
	"errors"
	"net/http"

	"nominapro/internal/apierror"
	"nominapro/internal/dto"
	"nominapro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NovedadesHandler struct {
	svc     service.NovedadService
	preview *service.Previsualizador
}

func NewNovedadesHandler(svc service.NovedadService, preview *service.Previsualizador) *NovedadesHandler {
	return &NovedadesHandler{svc: svc, preview: preview}
}

// Registrar godoc
// @Summary Registra una novedad de nómina
// @Description Sobre un período cerrado la novedad se encola como ajuste pendiente (es_pendiente=true).
// @Tags novedades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.NovedadDraft true "Novedad"
// @Success 201 {object} dto.RegistrarNovedadResponse
// @Failure 422 {object} apierror.ValidationError
// @Failure 503 {object} apierror.APIError
// @Router /v1/novedades [post]
func (h *NovedadesHandler) Registrar(c *gin.Context) {
	var req dto.NovedadDraft
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if resp.EsPendiente {
		status = http.StatusAccepted
	}
	c.JSON(status, resp)
}

// RegistrarLote godoc
// @Summary Registra un lote de novedades en orden estricto
// @Tags novedades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.LoteNovedadesRequest true "Lote"
// @Success 200 {object} dto.LoteNovedadesResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/novedades/lote [post]
func (h *NovedadesHandler) RegistrarLote(c *gin.Context) {
	var req dto.LoteNovedadesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarLote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Preview godoc
// @Summary Previsualiza el valor de una novedad
// @Description Las solicitudes con el mismo sesion_id se debotan; una solicitud superada devuelve 204.
// @Tags novedades
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PreviewRequest true "Borrador"
// @Success 200 {object} dto.PreviewResponse
// @Success 204
// @Failure 422 {object} apierror.ValidationError
// @Failure 503 {object} apierror.APIError
// @Router /v1/novedades/preview [post]
func (h *NovedadesHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.preview.Previsualizar(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrPreviewSuperada) {
			c.Status(http.StatusNoContent)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Elimina una novedad
// @Description Sobre un período cerrado la eliminación se encola como ajuste pendiente.
// @Tags novedades
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de novedad"
// @Success 200 {object} dto.RegistrarNovedadResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/novedades/{id} [delete]
func (h *NovedadesHandler) Eliminar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Eliminar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if resp.EsPendiente {
		status = http.StatusAccepted
	}
	c.JSON(status, resp)
}

// DescartarAjuste godoc
// @Summary Descarta un ajuste pendiente
// @Description Retira de la cola un ajuste aún no aplicado, p.ej. uno que bloquea el cierre de un período reabierto.
// @Tags novedades
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de ajuste pendiente"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/ajustes/{id} [delete]
func (h *NovedadesHandler) DescartarAjuste(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.DescartarAjuste(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
