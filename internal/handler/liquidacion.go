package handler

import (
	"net/http"

	"nominapro/internal/apierror"
	"nominapro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LiquidacionHandler struct{ svc service.ReconciliadorService }

func NewLiquidacionHandler(svc service.ReconciliadorService) *LiquidacionHandler {
	return &LiquidacionHandler{svc: svc}
}

// Novedades godoc
// @Summary Lista las novedades de un empleado en un período
// @Description Devuelve confirmadas y ajustes pendientes por separado.
// @Tags liquidacion
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de período"
// @Param empleadoId path string true "ID de empleado"
// @Success 200 {object} dto.NovedadesEmpleadoResponse
// @Router /v1/periodos/{id}/empleados/{empleadoId}/novedades [get]
func (h *LiquidacionHandler) Novedades(c *gin.Context) {
	periodoID, empleadoID, ok := pathIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListarParaMostrar(c.Request.Context(), empleadoID, periodoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Totales godoc
// @Summary Totales de liquidación de un empleado en un período
// @Description Confirmado pliega solo novedades registradas; estimado aplica los ajustes en cola.
// @Tags liquidacion
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de período"
// @Param empleadoId path string true "ID de empleado"
// @Success 200 {object} dto.TotalesLiquidacion
// @Router /v1/periodos/{id}/empleados/{empleadoId}/totales [get]
func (h *LiquidacionHandler) Totales(c *gin.Context) {
	periodoID, empleadoID, ok := pathIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Totales(c.Request.Context(), empleadoID, periodoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func pathIDs(c *gin.Context) (periodoID, empleadoID uuid.UUID, ok bool) {
	periodoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de período inválido"))
		return uuid.Nil, uuid.Nil, false
	}
	empleadoID, err = uuid.Parse(c.Param("empleadoId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de empleado inválido"))
		return uuid.Nil, uuid.Nil, false
	}
	return periodoID, empleadoID, true
}
