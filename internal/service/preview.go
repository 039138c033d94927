package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"nominapro/internal/dto"
	"nominapro/internal/repository"

	"github.com/google/uuid"
)

// ErrPreviewSuperada — a newer request for the same session arrived while
// this one waited out its debounce window. The caller simply drops it.
var ErrPreviewSuperada = errors.New("previsualización superada por una solicitud más reciente")

// Previsualizador serves value suggestions while the user is still typing.
// Requests are debounced per session: only the latest request in a window
// reaches the calculation service. A request marked Final skips the window
// entirely. Repeating the exact same draft returns the cached answer without
// recalculating.
type Previsualizador struct {
	calc         CalculoService
	empleadoRepo repository.EmpleadoRepository
	espera       time.Duration

	mu       sync.Mutex
	sesiones map[string]*sesionPreview
}

type sesionPreview struct {
	gen      uint64
	hash     string
	cacheado *dto.PreviewResponse
}

func NewPrevisualizador(calc CalculoService, empleadoRepo repository.EmpleadoRepository, espera time.Duration) *Previsualizador {
	return &Previsualizador{
		calc:         calc,
		empleadoRepo: empleadoRepo,
		espera:       espera,
		sesiones:     make(map[string]*sesionPreview),
	}
}

func (p *Previsualizador) Previsualizar(ctx context.Context, req dto.PreviewRequest) (*dto.PreviewResponse, error) {
	if err := ValidarEstructura(req.Draft); err != nil {
		return nil, err
	}

	hash := hashDraft(req.Draft)

	p.mu.Lock()
	ses, ok := p.sesiones[req.SesionID]
	if !ok {
		ses = &sesionPreview{}
		p.sesiones[req.SesionID] = ses
	}
	if ses.cacheado != nil && ses.hash == hash {
		cached := *ses.cacheado
		p.mu.Unlock()
		return &cached, nil
	}
	ses.gen++
	miGen := ses.gen
	p.mu.Unlock()

	if !req.Final && p.espera > 0 {
		timer := time.NewTimer(p.espera)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		p.mu.Lock()
		superada := ses.gen != miGen
		p.mu.Unlock()
		if superada {
			return nil, ErrPreviewSuperada
		}
	}

	resp, err := p.calcular(ctx, req.Draft)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	// A later request may have completed while this one computed; never
	// overwrite a fresher cache entry.
	if ses.gen == miGen {
		ses.hash = hash
		ses.cacheado = resp
	}
	p.mu.Unlock()
	return resp, nil
}

// Limpiar descarta el estado de una sesión (p.ej. al cerrar el formulario).
func (p *Previsualizador) Limpiar(sesionID string) {
	p.mu.Lock()
	delete(p.sesiones, sesionID)
	p.mu.Unlock()
}

func (p *Previsualizador) calcular(ctx context.Context, draft dto.NovedadDraft) (*dto.PreviewResponse, error) {
	empleadoID, err := uuid.Parse(draft.EmpleadoID)
	if err != nil {
		return nil, ErrEmpleadoNoEncontrado
	}
	empleado, err := p.empleadoRepo.FindByID(ctx, empleadoID)
	if err != nil {
		return nil, ErrEmpleadoNoEncontrado
	}
	val, err := p.calc.Valorar(ctx, empleado.SalarioBase, draft, fechaEfectiva(draft))
	if err != nil {
		return nil, err
	}
	return &dto.PreviewResponse{Valor: val.Valor, DetalleCalculo: val.Detalle, Origen: val.Origen}, nil
}

func hashDraft(draft dto.NovedadDraft) string {
	raw, _ := json.Marshal(draft)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
