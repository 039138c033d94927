package handler

import (
	"errors"
	"net/http"
	"reflect"

	"nominapro/internal/apierror"
	"nominapro/internal/nomina"
	"nominapro/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps domain errors onto HTTP statuses with the standard
// envelope. Validation failures carry their per-field detail.
func respondError(c *gin.Context, err error) {
	var v *nomina.ValidacionError
	if errors.As(err, &v) {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(v.Campos))
		return
	}
	switch {
	case errors.Is(err, nomina.ErrTipoDesconocido),
		errors.Is(err, nomina.ErrSinReglaAplicable):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNovedadNoEncontrada),
		errors.Is(err, service.ErrPeriodoNoEncontrado),
		errors.Is(err, service.ErrEmpleadoNoEncontrado),
		errors.Is(err, service.ErrAjusteNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrTransicionInvalida),
		errors.Is(err, service.ErrCierreBloqueado):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, nomina.ErrCalculoNoDisponible):
		c.JSON(http.StatusServiceUnavailable, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}
