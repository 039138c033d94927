package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// CalculoRequest is sent to the remote calculation service. The service owns
// the authoritative legal tables; this backend only mirrors them for the
// degraded-mode fallback.
type CalculoRequest struct {
	Tipo        string           `json:"tipo"`
	Subtipo     *string          `json:"subtipo,omitempty"`
	SalarioBase decimal.Decimal  `json:"salario_base"`
	Dias        *int             `json:"dias,omitempty"`
	Horas       *decimal.Decimal `json:"horas,omitempty"`
	Fecha       string           `json:"fecha"` // YYYY-MM-DD
	ValorManual *decimal.Decimal `json:"valor_manual,omitempty"`
}

// CalculoResponse carries the computed value and its audit trace.
type CalculoResponse struct {
	Valor          decimal.Decimal `json:"valor"`
	DetalleCalculo string          `json:"detalle_calculo"`
}

// CalculoClient delegates novelty valuation to the calculation service over
// HTTP. Failures are isolated from the core (the caller decides between the
// local fallback and blocking the submission).
type CalculoClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCalculoClient(baseURL string, timeout time.Duration) *CalculoClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CalculoClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Calcular sends a POST /calcular and returns the valuation.
func (c *CalculoClient) Calcular(ctx context.Context, payload CalculoRequest) (*CalculoResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("calculo: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/calcular", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("calculo: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calculo: servicio inaccesible: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calculo: servicio respondió %d", resp.StatusCode)
	}

	var result CalculoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("calculo: decode response: %w", err)
	}
	return &result, nil
}
