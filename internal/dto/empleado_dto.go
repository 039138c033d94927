package dto

import "github.com/shopspring/decimal"

type CrearEmpleadoRequest struct {
	Documento   string          `json:"documento"    validate:"required,min=3,max=30"`
	Nombre      string          `json:"nombre"       validate:"required,min=2,max=150"`
	Email       *string         `json:"email"        validate:"omitempty,email"`
	SalarioBase decimal.Decimal `json:"salario_base" validate:"required,gt=0"`
}

type ActualizarSalarioRequest struct {
	SalarioBase decimal.Decimal `json:"salario_base" validate:"required,gt=0"`
}

type EmpleadoResponse struct {
	ID          string          `json:"id"`
	Documento   string          `json:"documento"`
	Nombre      string          `json:"nombre"`
	Email       *string         `json:"email"`
	SalarioBase decimal.Decimal `json:"salario_base"`
	Activo      bool            `json:"activo"`
}
