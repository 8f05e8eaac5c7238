package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/maquina"
	"github.com/sisoputnfrba/tp-golang/ejecucion/utils/log"
)

// EnviarEvento recibe el estímulo de un dispositivo externo y lo inyecta al
// núcleo. El manejador correspondiente corre dentro del lazo de despacho.
func (h *Handler) EnviarEvento(w http.ResponseWriter, r *http.Request) {
	var req EventoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Log.Error("Error al decodificar el evento", log.ErrAttr(err))
		http.Error(w, "cuerpo de la petición inválido", http.StatusBadRequest)
		return
	}

	if err := h.Nucleo.EnviarEvento(req.Evento); err != nil {
		h.Log.Error("No se pudo enviar el evento",
			log.IntAttr("evento", req.Evento),
			log.ErrAttr(err),
		)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.Log.Debug("Evento externo encolado", log.IntAttr("evento", req.Evento))

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(MensajeResponse{
		Mensaje: fmt.Sprintf("Evento %d enviado", req.Evento),
	})
}

// RegistrarManejador instala un manejador de logging para el evento pedido.
// El código de usuario no viaja por HTTP: lo que se elige desde afuera es qué
// evento existe y con qué prioridad se atiende.
func (h *Handler) RegistrarManejador(w http.ResponseWriter, r *http.Request) {
	var req RegistroRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Log.Error("Error al decodificar el registro", log.ErrAttr(err))
		http.Error(w, "cuerpo de la petición inválido", http.StatusBadRequest)
		return
	}

	evento := req.Evento
	manejador := func(u *maquina.Usuario) {
		h.Log.Info(fmt.Sprintf("## (%d) Evento atendido", evento))
	}

	if err := h.Nucleo.RegistrarManejador(evento, req.Prioridad, manejador); err != nil {
		h.Log.Error("No se pudo registrar el manejador",
			log.IntAttr("evento", evento),
			log.ErrAttr(err),
		)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(MensajeResponse{
		Mensaje: fmt.Sprintf("Manejador del evento %d registrado", evento),
	})
}
