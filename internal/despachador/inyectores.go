package despachador

import (
	"log/slog"
	"sync/atomic"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
)

// InyectorTrampolinExpropiativo prepara el contexto del trampolín para un
// manejador de eventos expropiativo: construye si y solo si la próxima tarea
// tiene prioridad estrictamente mayor que la interrumpida. Solo un manejador
// de mayor prioridad puede expropiar a uno de menor.
func InyectorTrampolinExpropiativo[T interface {
	comparable
	tcb.ConPrioridad
}](constructor ConstructorContexto[T], log *slog.Logger) Inyector[T] {
	return func(prev, next T) {
		if next.Prioridad() > prev.Prioridad() {
			log.Debug("El próximo manejador tiene mayor prioridad que el interrumpido",
				slog.Int("prioridad_next", int(next.Prioridad())),
				slog.Int("prioridad_prev", int(prev.Prioridad())),
			)
			constructor.Construir(prev, next)
		}
	}
}

// InyectorTrampolinCooperativo prepara el contexto del trampolín para un
// manejador de eventos cooperativo: construye si y solo si la próxima tarea no
// es la interrumpida. Se asume que ninguna tarea expropia a otra.
func InyectorTrampolinCooperativo[T comparable](constructor ConstructorContexto[T], log *slog.Logger) Inyector[T] {
	return func(prev, next T) {
		if next != prev {
			log.Debug("El próximo manejador no es el interrumpido")
			constructor.Construir(prev, next)
		}
	}
}

// InyectorContadorCambios cuenta los cambios de contexto efectivos
// (next distinta de prev). Compone con los otros inyectores.
func InyectorContadorCambios[T comparable](contador *atomic.Uint64) Inyector[T] {
	return func(prev, next T) {
		if next != prev {
			contador.Add(1)
		}
	}
}
