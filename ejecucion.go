package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/sisoputnfrba/tp-golang/ejecucion/cmd/api"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/maquina"
)

func main() {
	configFile := "configs/config.json"
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	h := api.NewHandler(configFile)

	// Manejadores de arranque: el resto se registra por la API
	if err := h.Nucleo.RegistrarManejador(0, 1, func(u *maquina.Usuario) {
		h.Log.Info("## (0) Evento de diagnóstico atendido")
	}); err != nil {
		panic(err)
	}

	h.Nucleo.Iniciar()

	direccion := fmt.Sprintf("%s:%d", h.Config.IPKernel, h.Config.PortKernel)
	h.Log.Info("## Superficie de syscalls del kernel escuchando",
		"direccion", direccion,
	)

	if err := http.ListenAndServe(direccion, h.Router()); err != nil {
		h.Log.Error("Error starting server", "err", err)
		panic(err)
	}
}
