// Package eventos es el cliente HTTP que un dispositivo externo usa para
// hablar con la superficie de syscalls del kernel: registrar eventos,
// dispararlos y consultar el estado del núcleo.
package eventos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-golang/ejecucion/utils/log"
)

type Emisor struct {
	IP     string
	Puerto int
	Log    *slog.Logger
}

type EstadoKernel struct {
	Algoritmo             string `json:"algoritmo"`
	PunteroPilaCompartida uint32 `json:"puntero_pila_compartida"`
	CambiosDeContexto     uint64 `json:"cambios_de_contexto"`
	CantidadEventos       int    `json:"cantidad_eventos"`
	EventosRegistrados    []int  `json:"eventos_registrados"`
}

func NewEmisor(ip string, puerto int, logger *slog.Logger) *Emisor {
	return &Emisor{
		IP:     ip,
		Puerto: puerto,
		Log:    logger,
	}
}

// EnviarEvento dispara un evento en el kernel.
func (e *Emisor) EnviarEvento(evento int) error {
	url := fmt.Sprintf("http://%s:%d/eventos/enviar", e.IP, e.Puerto)

	body, _ := json.Marshal(map[string]int{"evento": evento})
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		e.Log.Error("Error al enviar el evento al kernel",
			log.ErrAttr(err),
			log.StringAttr("ip", e.IP),
			log.IntAttr("puerto", e.Puerto),
			log.IntAttr("evento", evento),
		)
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		e.Log.Error("El kernel rechazó el evento",
			log.IntAttr("evento", evento),
			log.IntAttr("status_code", resp.StatusCode),
		)
		return fmt.Errorf("el kernel respondió con status %d", resp.StatusCode)
	}

	e.Log.Debug("Evento enviado al kernel",
		log.IntAttr("evento", evento),
		log.IntAttr("status_code", resp.StatusCode),
	)

	return nil
}

// RegistrarManejador pide al kernel instalar el manejador de un evento con la
// prioridad dada.
func (e *Emisor) RegistrarManejador(evento int, prioridad uint32) error {
	url := fmt.Sprintf("http://%s:%d/eventos/registrar", e.IP, e.Puerto)

	body, _ := json.Marshal(map[string]any{"evento": evento, "prioridad": prioridad})
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		e.Log.Error("Error al registrar el manejador",
			log.ErrAttr(err),
			log.IntAttr("evento", evento),
		)
		return err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("el kernel respondió con status %d", resp.StatusCode)
	}

	return nil
}

// ConsultarEstado trae el snapshot del núcleo.
func (e *Emisor) ConsultarEstado() (*EstadoKernel, error) {
	url := fmt.Sprintf("http://%s:%d/kernel/estado", e.IP, e.Puerto)

	resp, err := http.Get(url)
	if err != nil {
		e.Log.Error("Error al consultar el estado del kernel", log.ErrAttr(err))
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("el kernel respondió con status %d", resp.StatusCode)
	}

	estado := &EstadoKernel{}
	if err := json.NewDecoder(resp.Body).Decode(estado); err != nil {
		e.Log.Error("Error al decodificar el estado del kernel", log.ErrAttr(err))
		return nil, err
	}

	return estado, nil
}
