package api

import (
	"encoding/json"
	"net/http"

	"github.com/sisoputnfrba/tp-golang/ejecucion/utils/log"
)

// EstadoKernel devuelve el snapshot del núcleo.
func (h *Handler) EstadoKernel(w http.ResponseWriter, r *http.Request) {
	estado := h.Nucleo.Estado()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(estado); err != nil {
		h.Log.Error("Error al serializar el estado del núcleo", log.ErrAttr(err))
	}
}
