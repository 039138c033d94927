package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"nominapro/internal/dto"
	"nominapro/internal/infra"
	"nominapro/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *entorno) previsualizador(espera time.Duration) *Previsualizador {
	calc := NewCalculoService(e.remoto, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	return NewPrevisualizador(calc, e.empleadoRepo, espera)
}

func TestPreviewFinalSinEspera(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.previsualizador(time.Hour) // una espera que el test jamás agotaría

	inicio := time.Now()
	resp, err := p.Previsualizar(context.Background(), dto.PreviewRequest{
		SesionID: "sesion-1",
		Final:    true,
		Draft:    e.draft(),
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(inicio), time.Second, "Final no debe esperar la ventana")
	assert.Equal(t, "100000.00", resp.Valor.StringFixed(2))
	assert.Equal(t, model.OrigenRemoto, resp.Origen)
}

func TestPreviewSuperadaPorSolicitudNueva(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.previsualizador(300 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	var primeraErr error
	go func() {
		defer wg.Done()
		_, primeraErr = p.Previsualizar(context.Background(), dto.PreviewRequest{
			SesionID: "sesion-1",
			Draft:    e.draft(),
		})
	}()

	// La segunda llega dentro de la ventana de la primera y la supera.
	time.Sleep(50 * time.Millisecond)
	segunda := e.draft()
	segunda.Horas = ptrDec("12")
	resp, err := p.Previsualizar(context.Background(), dto.PreviewRequest{
		SesionID: "sesion-1",
		Final:    true,
		Draft:    segunda,
	})
	require.NoError(t, err)
	assert.Equal(t, "100000.00", resp.Valor.StringFixed(2))

	wg.Wait()
	assert.ErrorIs(t, primeraErr, ErrPreviewSuperada)
}

func TestPreviewCacheaBorradorIdentico(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.previsualizador(0)

	req := dto.PreviewRequest{SesionID: "sesion-1", Draft: e.draft()}
	primera, err := p.Previsualizar(context.Background(), req)
	require.NoError(t, err)
	segunda, err := p.Previsualizar(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, primera.Valor.Equal(segunda.Valor))
	assert.Equal(t, 1, e.remoto.vecesLlamado(), "el borrador idéntico sale de caché")

	// Un borrador distinto sí vuelve a calcular.
	otra := dto.PreviewRequest{SesionID: "sesion-1", Draft: e.draft()}
	otra.Draft.Horas = ptrDec("3")
	_, err = p.Previsualizar(context.Background(), otra)
	require.NoError(t, err)
	assert.Equal(t, 2, e.remoto.vecesLlamado())
}

func TestPreviewSesionesIndependientes(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.previsualizador(0)

	_, err := p.Previsualizar(context.Background(), dto.PreviewRequest{SesionID: "a", Draft: e.draft()})
	require.NoError(t, err)
	_, err = p.Previsualizar(context.Background(), dto.PreviewRequest{SesionID: "b", Draft: e.draft()})
	require.NoError(t, err)

	// Mismo borrador, sesiones distintas: cada una calcula la suya.
	assert.Equal(t, 2, e.remoto.vecesLlamado())
}

func TestPreviewLimpiarDescartaCache(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.previsualizador(0)

	req := dto.PreviewRequest{SesionID: "sesion-1", Draft: e.draft()}
	_, err := p.Previsualizar(context.Background(), req)
	require.NoError(t, err)

	p.Limpiar("sesion-1")

	_, err = p.Previsualizar(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, e.remoto.vecesLlamado())
}

func TestPreviewRechazaBorradorInvalido(t *testing.T) {
	e := nuevoEntorno(t)
	p := e.previsualizador(0)

	malo := e.draft()
	malo.Horas = nil
	_, err := p.Previsualizar(context.Background(), dto.PreviewRequest{SesionID: "sesion-1", Draft: malo})
	assert.True(t, EsValidacion(err))
	assert.Equal(t, 0, e.remoto.vecesLlamado(), "un borrador inválido nunca llega al servicio de cálculo")
}
