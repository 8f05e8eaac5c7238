package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/nucleo"
	"github.com/sisoputnfrba/tp-golang/ejecucion/utils/config"
	"github.com/sisoputnfrba/tp-golang/ejecucion/utils/log"
)

type Handler struct {
	Log    *slog.Logger
	Config *Config
	Nucleo *nucleo.Nucleo
}

func NewHandler(configFile string) *Handler {
	c := config.IniciarConfiguracion(configFile, &Config{})
	if c == nil {
		panic("Error loading configuration")
	}

	// Cast the configuration to the specific type
	configStruct, ok := c.(*Config)
	if !ok {
		panic("Error casting configuration")
	}

	// Initialize the logger with the log level from the configuration
	logger := log.BuildLogger(configStruct.LogLevel)

	n, err := nucleo.Nuevo(nucleo.Config{
		Algoritmo:             configStruct.SchedulerAlgorithm,
		TamanioMemoria:        configStruct.MemorySize,
		TamanioPilaCompartida: configStruct.SharedStackSize,
		CantidadEventos:       configStruct.EventCount,
	}, logger)
	if err != nil {
		panic(err)
	}

	return &Handler{
		Config: configStruct,
		Log:    logger,
		Nucleo: n,
	}
}

// Router arma las rutas de la superficie de syscalls del kernel.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Post("/eventos/enviar", h.EnviarEvento) // Dispositivo --> Kernel
	r.Post("/eventos/registrar", h.RegistrarManejador)
	r.Get("/kernel/estado", h.EstadoKernel)

	return r
}
