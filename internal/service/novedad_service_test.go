package service

import (
	"context"
	"testing"
	"time"

	"nominapro/internal/dto"
	"nominapro/internal/infra"
	"nominapro/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entorno bundles the fakes and services most novelty tests need.
type entorno struct {
	novedadRepo  *fakeNovedadRepo
	ajusteRepo   *fakeAjusteRepo
	periodoRepo  *fakePeriodoRepo
	empleadoRepo *fakeEmpleadoRepo
	remoto       *stubRemoto

	novedades     NovedadService
	periodos      PeriodoService
	reconciliador ReconciliadorService

	empleado *model.Empleado
	periodo  *model.PeriodoNomina
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	e := &entorno{
		novedadRepo:  newFakeNovedadRepo(),
		ajusteRepo:   newFakeAjusteRepo(),
		periodoRepo:  newFakePeriodoRepo(),
		empleadoRepo: newFakeEmpleadoRepo(),
		remoto: &stubRemoto{resp: infra.CalculoResponse{
			Valor:          decimal.RequireFromString("100000"),
			DetalleCalculo: "detalle remoto",
		}},
	}

	calc := NewCalculoService(e.remoto, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	e.reconciliador = NewReconciliadorService(e.novedadRepo, e.ajusteRepo)
	e.novedades = NewNovedadService(e.novedadRepo, e.ajusteRepo, e.periodoRepo, e.empleadoRepo, calc, e.reconciliador)
	e.periodos = NewPeriodoService(e.periodoRepo, e.ajusteRepo, e.novedadRepo, e.empleadoRepo, calc, e.reconciliador, nil)

	e.empleado = &model.Empleado{
		Documento:   "CC-1001",
		Nombre:      "Laura Gómez",
		SalarioBase: decimal.NewFromInt(2_300_000),
		Activo:      true,
	}
	require.NoError(t, e.empleadoRepo.Create(context.Background(), e.empleado))

	e.periodo = &model.PeriodoNomina{
		Nombre:      "Agosto 2025",
		FechaInicio: fechaTest("2025-08-01"),
		FechaFin:    fechaTest("2025-08-31"),
		Estado:      model.PeriodoBorrador,
	}
	require.NoError(t, e.periodoRepo.Create(context.Background(), e.periodo))
	return e
}

func (e *entorno) draft() dto.NovedadDraft {
	return dto.NovedadDraft{
		EmpleadoID:  e.empleado.ID.String(),
		PeriodoID:   e.periodo.ID.String(),
		Tipo:        "hora_extra",
		Subtipo:     ptrStr("diurna"),
		Horas:       ptrDec("10"),
		FechaInicio: ptrStr("2025-08-04"),
	}
}

func (e *entorno) cerrarPeriodo(t *testing.T) {
	t.Helper()
	p, err := e.periodoRepo.FindByID(context.Background(), e.periodo.ID)
	require.NoError(t, err)
	p.Estado = model.PeriodoCerrado
	require.NoError(t, e.periodoRepo.Update(context.Background(), p))
}

func TestRegistrarDirectoEnBorrador(t *testing.T) {
	e := nuevoEntorno(t)

	resp, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err)
	assert.False(t, resp.EsPendiente)
	require.NotNil(t, resp.Novedad)
	assert.Equal(t, "100000.00", resp.Novedad.Valor.StringFixed(2))
	assert.Equal(t, model.OrigenRemoto, resp.Novedad.OrigenCalculo)
	assert.Equal(t, "devengo", resp.Novedad.Categoria)

	// Totals come back recomputed with the new record included.
	require.NotNil(t, resp.Totales)
	assert.Equal(t, "100000.00", resp.Totales.Confirmado.Devengos.StringFixed(2))
	assert.Equal(t, "100000.00", resp.Totales.Confirmado.Neto.StringFixed(2))
}

func TestRegistrarEnCerradoEncola(t *testing.T) {
	e := nuevoEntorno(t)
	e.cerrarPeriodo(t)

	resp, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err, "la redirección a la cola no es un error")
	assert.True(t, resp.EsPendiente)
	assert.Nil(t, resp.Novedad)
	require.NotNil(t, resp.AjusteID)

	// Nothing lands in the record table.
	novedades, _ := e.novedadRepo.ListByEmpleadoPeriodo(context.Background(), e.empleado.ID, e.periodo.ID)
	assert.Empty(t, novedades)

	ajustes, _ := e.ajusteRepo.ListPendientes(context.Background(), e.periodo.ID)
	require.Len(t, ajustes, 1)
	assert.Equal(t, model.AjusteCrear, ajustes[0].Operacion)
	assert.NotEmpty(t, ajustes[0].Payload)
}

func TestRegistrarEnCerradoValidaAntes(t *testing.T) {
	e := nuevoEntorno(t)
	e.cerrarPeriodo(t)

	malo := e.draft()
	malo.Tipo = "tipo_fantasma"
	_, err := e.novedades.Registrar(context.Background(), malo)
	assert.Error(t, err, "un borrador inválido no debe encolarse")

	ajustes, _ := e.ajusteRepo.ListPendientes(context.Background(), e.periodo.ID)
	assert.Empty(t, ajustes)
}

func TestRegistrarRechazaEstructuraInvalida(t *testing.T) {
	e := nuevoEntorno(t)

	sinHoras := e.draft()
	sinHoras.Horas = nil
	_, err := e.novedades.Registrar(context.Background(), sinHoras)
	assert.True(t, EsValidacion(err))

	subtipoMalo := e.draft()
	subtipoMalo.Subtipo = ptrStr("festiva")
	_, err = e.novedades.Registrar(context.Background(), subtipoMalo)
	assert.True(t, EsValidacion(err))

	fechasInvertidas := e.draft()
	fechasInvertidas.FechaInicio = ptrStr("2025-08-20")
	fechasInvertidas.FechaFin = ptrStr("2025-08-10")
	_, err = e.novedades.Registrar(context.Background(), fechasInvertidas)
	assert.True(t, EsValidacion(err))

	// Structural failures never reach the calculation service.
	assert.Zero(t, e.remoto.vecesLlamado())
}

func TestEliminarDirecto(t *testing.T) {
	e := nuevoEntorno(t)

	creado, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err)
	novedadID := uuid.MustParse(creado.Novedad.ID)

	resp, err := e.novedades.Eliminar(context.Background(), novedadID)
	require.NoError(t, err)
	assert.False(t, resp.EsPendiente)
	assert.Equal(t, "0.00", resp.Totales.Confirmado.Neto.StringFixed(2))

	_, err = e.novedadRepo.FindByID(context.Background(), novedadID)
	assert.Error(t, err)
}

func TestEliminarEnCerradoEncola(t *testing.T) {
	e := nuevoEntorno(t)

	creado, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err)
	novedadID := uuid.MustParse(creado.Novedad.ID)

	e.cerrarPeriodo(t)

	resp, err := e.novedades.Eliminar(context.Background(), novedadID)
	require.NoError(t, err)
	assert.True(t, resp.EsPendiente)

	// The record survives until the queue drains.
	_, err = e.novedadRepo.FindByID(context.Background(), novedadID)
	assert.NoError(t, err)

	ajustes, _ := e.ajusteRepo.ListPendientes(context.Background(), e.periodo.ID)
	require.Len(t, ajustes, 1)
	assert.Equal(t, model.AjusteEliminar, ajustes[0].Operacion)
	require.NotNil(t, ajustes[0].NovedadRef)
	assert.Equal(t, novedadID, *ajustes[0].NovedadRef)
}

func TestEliminarEnCerradoNoDuplicaAjuste(t *testing.T) {
	e := nuevoEntorno(t)

	creado, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err)
	novedadID := uuid.MustParse(creado.Novedad.ID)

	e.cerrarPeriodo(t)

	primera, err := e.novedades.Eliminar(context.Background(), novedadID)
	require.NoError(t, err)
	segunda, err := e.novedades.Eliminar(context.Background(), novedadID)
	require.NoError(t, err)

	// Repetir el borrado devuelve el ajuste ya encolado, no uno nuevo.
	assert.True(t, segunda.EsPendiente)
	assert.Equal(t, *primera.AjusteID, *segunda.AjusteID)

	ajustes, _ := e.ajusteRepo.ListPendientes(context.Background(), e.periodo.ID)
	assert.Len(t, ajustes, 1)
}

func TestEliminarNoExistente(t *testing.T) {
	e := nuevoEntorno(t)
	_, err := e.novedades.Eliminar(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNovedadNoEncontrada)
}

func TestRegistrarLoteAislaFallas(t *testing.T) {
	e := nuevoEntorno(t)

	valido := e.draft()
	invalido := e.draft()
	invalido.Tipo = "no_existe"
	otroValido := e.draft()
	otroValido.Tipo = "bonificacion"
	otroValido.Subtipo = nil
	otroValido.Horas = nil
	otroValido.ValorManual = ptrDec("80000")

	resp, err := e.novedades.RegistrarLote(context.Background(), dto.LoteNovedadesRequest{
		Entradas: []dto.NovedadDraft{valido, invalido, otroValido},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Exitosas)
	assert.Equal(t, 1, resp.Fallidas)
	require.Len(t, resp.Resultados, 3)
	assert.Nil(t, resp.Resultados[0].Error)
	assert.NotNil(t, resp.Resultados[1].Error)
	assert.Nil(t, resp.Resultados[2].Error)

	// Entries before and after the failure landed, in submission order.
	novedades, _ := e.novedadRepo.ListByEmpleadoPeriodo(context.Background(), e.empleado.ID, e.periodo.ID)
	require.Len(t, novedades, 2)
	assert.Equal(t, "hora_extra", novedades[0].Tipo)
	assert.Equal(t, "bonificacion", novedades[1].Tipo)
	assert.True(t, novedades[0].CreatedAt.Before(novedades[1].CreatedAt))
}

func TestRegistrarFallbackProgramaReintento(t *testing.T) {
	e := nuevoEntorno(t)
	e.remoto.caido = true

	resp, err := e.novedades.Registrar(context.Background(), e.draft())
	require.NoError(t, err)
	assert.Equal(t, model.OrigenLocal, resp.Novedad.OrigenCalculo)

	pendientes, _ := e.novedadRepo.ListPendingRetries(context.Background(), time.Now().Add(time.Hour), 10)
	require.Len(t, pendientes, 1, "el valor degradado debe quedar agendado para reintento")
}
