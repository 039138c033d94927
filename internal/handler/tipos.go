package handler

import (
	"net/http"
	"sort"

	"nominapro/internal/nomina"

	"github.com/gin-gonic/gin"
)

type tipoNovedad struct {
	Tipo              string   `json:"tipo"`
	Categoria         string   `json:"categoria"`
	RequiereDias      bool     `json:"requiere_dias"`
	RequiereHoras     bool     `json:"requiere_horas"`
	CalculoAutomatico bool     `json:"calculo_automatico"`
	Subtipos          []string `json:"subtipos"`
}

// TiposNovedad exposes the novelty type catalog so clients can build their
// capture forms from it instead of hardcoding the taxonomy.
func TiposNovedad() gin.HandlerFunc {
	tipos := nomina.Tipos()
	sort.Slice(tipos, func(i, j int) bool { return tipos[i] < tipos[j] })

	out := make([]tipoNovedad, 0, len(tipos))
	for _, t := range tipos {
		d, err := nomina.Describir(t)
		if err != nil {
			continue
		}
		subtipos := d.Subtipos
		if subtipos == nil {
			subtipos = []string{}
		}
		out = append(out, tipoNovedad{
			Tipo:              string(t),
			Categoria:         string(d.Categoria),
			RequiereDias:      d.RequiereDias,
			RequiereHoras:     d.RequiereHoras,
			CalculoAutomatico: d.CalculoAutomatico,
			Subtipos:          subtipos,
		})
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tipos": out})
	}
}
