package service

import (
	"context"
	"testing"

	"nominapro/internal/dto"
	"nominapro/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrearPeriodo(t *testing.T) {
	e := nuevoEntorno(t)

	resp, err := e.periodos.Crear(context.Background(), dto.CrearPeriodoRequest{
		Nombre:      "Septiembre 2025",
		FechaInicio: "2025-09-01",
		FechaFin:    "2025-09-30",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PeriodoBorrador, resp.Estado)

	_, err = e.periodos.Crear(context.Background(), dto.CrearPeriodoRequest{
		Nombre:      "Invertido",
		FechaInicio: "2025-09-30",
		FechaFin:    "2025-09-01",
	})
	assert.True(t, EsValidacion(err))
}

func TestCerrarGuardaSnapshot(t *testing.T) {
	e := nuevoEntorno(t)

	_, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err)

	resp, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PeriodoCerrado, resp.Periodo.Estado)
	assert.Equal(t, 0, resp.AjustesAplicados, "el primer cierre no drena nada")
	require.NotNil(t, resp.Periodo.TotalDevengos)
	assert.Equal(t, "100000.00", resp.Periodo.TotalDevengos.StringFixed(2))
	assert.Equal(t, "100000.00", resp.Periodo.TotalNeto.StringFixed(2))
	assert.NotNil(t, resp.Periodo.CerradoEn)
}

func TestCerrarTransicionesInvalidas(t *testing.T) {
	e := nuevoEntorno(t)

	_, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)

	// cerrado → cerrado is not a legal move.
	_, err = e.periodos.Cerrar(context.Background(), e.periodo.ID)
	assert.ErrorIs(t, err, ErrTransicionInvalida)

	// borrador → reabierto tampoco.
	otro := &model.PeriodoNomina{Nombre: "Otro", Estado: model.PeriodoBorrador,
		FechaInicio: fechaTest("2025-09-01"), FechaFin: fechaTest("2025-09-30")}
	require.NoError(t, e.periodoRepo.Create(context.Background(), otro))
	_, err = e.periodos.Reabrir(context.Background(), otro.ID, uuid.New(), dto.ReabrirPeriodoRequest{Motivo: "no aplica"})
	assert.ErrorIs(t, err, ErrTransicionInvalida)
}

func TestCerrarBloqueadoPorSalarioInvalido(t *testing.T) {
	e := nuevoEntorno(t)

	sinSalario := &model.Empleado{Documento: "CC-2002", Nombre: "Sin Salario", SalarioBase: decimal.Zero, Activo: true}
	require.NoError(t, e.empleadoRepo.Create(context.Background(), sinSalario))

	_, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	assert.ErrorIs(t, err, ErrCierreBloqueado)
}

func TestReabrirAuditado(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)

	usuario := uuid.New()
	resp, err := e.periodos.Reabrir(context.Background(), e.periodo.ID, usuario, dto.ReabrirPeriodoRequest{
		Motivo: "incapacidad reportada tarde",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PeriodoReabierto, resp.Estado)
	require.NotNil(t, resp.ReabiertoPor)
	assert.Equal(t, usuario.String(), *resp.ReabiertoPor)
	require.NotNil(t, resp.MotivoReapertura)
	assert.Equal(t, "incapacidad reportada tarde", *resp.MotivoReapertura)
	assert.NotNil(t, resp.ReabiertoEn)
}

func TestCierreDrenaAjustes(t *testing.T) {
	e := nuevoEntorno(t)

	// One record lives in the open period.
	creado, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err)
	original := uuid.MustParse(creado.Novedad.ID)

	_, err = e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)

	// Against the closed period: one create and one delete pile up.
	nuevo := e.draft()
	nuevo.Tipo = "recargo_nocturno"
	nuevo.Subtipo = nil
	nuevo.Horas = ptrDec("6")
	encolado, err := e.novedades.Registrar(context.Background(), nuevo)
	require.NoError(t, err)
	require.True(t, encolado.EsPendiente)
	ajusteID := uuid.MustParse(*encolado.AjusteID)

	borrado, err := e.novedades.Eliminar(context.Background(), original)
	require.NoError(t, err)
	require.True(t, borrado.EsPendiente)

	_, err = e.periodos.Reabrir(context.Background(), e.periodo.ID, uuid.New(), dto.ReabrirPeriodoRequest{Motivo: "ajustes acumulados"})
	require.NoError(t, err)

	resp, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.AjustesAplicados)

	// The created record reuses the adjustment's ID; the deleted one is gone.
	materializada, err := e.novedadRepo.FindByID(context.Background(), ajusteID)
	require.NoError(t, err)
	assert.Equal(t, "recargo_nocturno", materializada.Tipo)

	_, err = e.novedadRepo.FindByID(context.Background(), original)
	assert.Error(t, err)

	// The queue drains completely: applied markers are purged.
	pendientes, _ := e.ajusteRepo.ListPendientes(context.Background(), e.periodo.ID)
	assert.Empty(t, pendientes)
	assert.Empty(t, e.ajusteRepo.ajustes)
}

func TestDrenajeIdempotenteTrasCaida(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)

	encolado, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err)
	ajusteID := uuid.MustParse(*encolado.AjusteID)

	_, err = e.periodos.Reabrir(context.Background(), e.periodo.ID, uuid.New(), dto.ReabrirPeriodoRequest{Motivo: "reproceso"})
	require.NoError(t, err)

	// Simulate a crash after the record committed but before the adjustment
	// was marked applied: the row already exists with the adjustment's ID.
	yaAplicada := &model.Novedad{
		ID:             ajusteID,
		EmpleadoID:     e.empleado.ID,
		PeriodoID:      e.periodo.ID,
		Tipo:           "hora_extra",
		Subtipo:        ptrStr("diurna"),
		Valor:          decimal.RequireFromString("100000"),
		DetalleCalculo: "detalle remoto",
		Estado:         model.NovedadRegistrada,
		OrigenCalculo:  model.OrigenRemoto,
	}
	require.NoError(t, e.novedadRepo.Create(context.Background(), yaAplicada))

	resp, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err, "reaplicar un ajuste ya materializado no debe fallar")
	assert.Equal(t, 1, resp.AjustesAplicados)

	// Applying twice did not duplicate the record.
	novedades, _ := e.novedadRepo.ListByEmpleadoPeriodo(context.Background(), e.empleado.ID, e.periodo.ID)
	assert.Len(t, novedades, 1)
}

func TestDrenajeAbortaYDejaReabierto(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)

	incapacidad := e.draft()
	incapacidad.Tipo = "incapacidad"
	incapacidad.Subtipo = ptrStr("general")
	incapacidad.Horas = nil
	incapacidad.Dias = ptrInt(5)
	encolado, err := e.novedades.Registrar(context.Background(), incapacidad)
	require.NoError(t, err)
	require.True(t, encolado.EsPendiente)

	_, err = e.periodos.Reabrir(context.Background(), e.periodo.ID, uuid.New(), dto.ReabrirPeriodoRequest{Motivo: "incapacidad tardía"})
	require.NoError(t, err)

	// The calculation service goes down: incapacidades have no local
	// fallback, so the drain cannot value the adjustment.
	e.remoto.caido = true

	_, err = e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.Error(t, err)

	p, _ := e.periodoRepo.FindByID(context.Background(), e.periodo.ID)
	assert.Equal(t, model.PeriodoReabierto, p.Estado, "el período queda reabierto para reintentar")

	pendientes, _ := e.ajusteRepo.ListPendientes(context.Background(), e.periodo.ID)
	assert.Len(t, pendientes, 1, "el ajuste sigue pendiente")
}

func TestDescartarAjusteDesbloqueaCierre(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)

	incapacidad := e.draft()
	incapacidad.Tipo = "incapacidad"
	incapacidad.Subtipo = ptrStr("general")
	incapacidad.Horas = nil
	incapacidad.Dias = ptrInt(5)
	encolado, err := e.novedades.Registrar(context.Background(), incapacidad)
	require.NoError(t, err)
	ajusteID := uuid.MustParse(*encolado.AjusteID)

	_, err = e.periodos.Reabrir(context.Background(), e.periodo.ID, uuid.New(), dto.ReabrirPeriodoRequest{Motivo: "incapacidad tardía"})
	require.NoError(t, err)

	// Servicio de cálculo caído: el drenaje no puede valorar la incapacidad
	// y el cierre queda bloqueado.
	e.remoto.caido = true
	_, err = e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.Error(t, err)

	// El descarte explícito es la salida: la cola se vacía y el período
	// vuelve a cerrar aunque el servicio siga caído.
	require.NoError(t, e.novedades.DescartarAjuste(context.Background(), ajusteID))

	resp, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PeriodoCerrado, resp.Periodo.Estado)
	assert.Equal(t, 0, resp.AjustesAplicados)

	pendientes, _ := e.ajusteRepo.ListPendientes(context.Background(), e.periodo.ID)
	assert.Empty(t, pendientes)
}

func TestDescartarAjusteInexistente(t *testing.T) {
	e := nuevoEntorno(t)
	err := e.novedades.DescartarAjuste(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAjusteNoEncontrado)
}

func TestIdaYVueltaRestauraTotales(t *testing.T) {
	e := nuevoEntorno(t)

	creado, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err)
	base := creado.Totales.Confirmado

	cierre, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)
	require.Equal(t, base.Neto.StringFixed(2), cierre.Periodo.TotalNeto.StringFixed(2))

	// Create through the queue, drain, then delete through the queue and
	// drain again: totals come back to base.
	extra := e.draft()
	extra.Horas = ptrDec("4")
	encolado, err := e.novedades.Registrar(context.Background(), extra)
	require.NoError(t, err)
	materializadaID := uuid.MustParse(*encolado.AjusteID)

	_, err = e.periodos.Reabrir(context.Background(), e.periodo.ID, uuid.New(), dto.ReabrirPeriodoRequest{Motivo: "alta tardía"})
	require.NoError(t, err)
	_, err = e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)

	eliminado, err := e.novedades.Eliminar(context.Background(), materializadaID)
	require.NoError(t, err)
	require.True(t, eliminado.EsPendiente)

	_, err = e.periodos.Reabrir(context.Background(), e.periodo.ID, uuid.New(), dto.ReabrirPeriodoRequest{Motivo: "corrección de alta"})
	require.NoError(t, err)
	final, err := e.periodos.Cerrar(context.Background(), e.periodo.ID)
	require.NoError(t, err)

	assert.Equal(t, base.Devengos.StringFixed(2), final.Periodo.TotalDevengos.StringFixed(2))
	assert.Equal(t, base.Neto.StringFixed(2), final.Periodo.TotalNeto.StringFixed(2))
}
