package rutinas

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/despachador"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
)

// ControladorEventosTabla mapea cada número de evento (0..N-1) a un TCB
// pre-asignado. Registrar un evento guarda el manejador dentro del TCB del
// evento; el reemplazo es atómico para el que registra, porque el registro
// puede llegar desde fuera del lazo del kernel.
type ControladorEventosTabla[T interface {
	comparable
	tcb.ConManejador[M]
}, M any] struct {
	mu     sync.RWMutex
	tareas []T
}

func NuevoControladorEventosTabla[T interface {
	comparable
	tcb.ConManejador[M]
}, M any](tareas []T) *ControladorEventosTabla[T, M] {
	return &ControladorEventosTabla[T, M]{tareas: tareas}
}

func (c *ControladorEventosTabla[T, M]) RegistrarEvento(evento int, manejador M) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if evento < 0 || evento >= len(c.tareas) {
		return fmt.Errorf("evento %d fuera de rango (la tabla tiene %d entradas)", evento, len(c.tareas))
	}

	c.tareas[evento].SetManejador(manejador)
	return nil
}

func (c *ControladorEventosTabla[T, M]) TareaRegistrada(evento int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if evento < 0 || evento >= len(c.tareas) {
		var nulo T
		return nulo, false
	}
	return c.tareas[evento], true
}

func (c *ControladorEventosTabla[T, M]) CantidadEventos() int {
	return len(c.tareas)
}

// EnviarEvento construye la rutina que atiende la syscall de enviar un
// evento: resuelve el TCB del manejador y deja que el planificador decida si
// la tarea actual sigue o el manejador la expropia.
func EnviarEvento[T interface {
	comparable
	tcb.AccesoSyscall
}](planificador Planificador[T], eventos MapeadorEventos[T], log *slog.Logger) despachador.Rutina[T] {
	return func(tarea T) T {
		evento := tcb.ArgumentoSyscall[int](tarea)

		registrada, ok := eventos.TareaRegistrada(evento)
		if !ok {
			log.Error("Se envió un evento fuera de rango",
				slog.Int("evento", evento),
			)
			panic(fmt.Sprintf("evento %d no reconocido por la tabla de eventos", evento))
		}

		log.Info(fmt.Sprintf("## Syscall enviar-evento: evento %d", evento))

		return planificador.AlCrearTarea(tarea, registrada)
	}
}

// RetornoManejadorEvento construye la rutina que atiende el retorno del
// trampolín: restaura el tope de la pila compartida al valor que tenía antes
// de que el manejador arrancara y notifica al planificador. Solo el trampolín
// emite esta syscall.
func RetornoManejadorEvento[T interface {
	comparable
	tcb.AccesoSyscall
	tcb.AccesoPila
}](planificador Planificador[T], log *slog.Logger) despachador.Rutina[T] {
	return func(tarea T) T {
		viejoSP := tcb.ArgumentoSyscall[contexto.Direccion](tarea)

		tarea.SetPunteroPila(viejoSP)

		log.Debug("Puntero de pila restaurado",
			slog.Int("sp", int(viejoSP)),
		)

		return planificador.AlFinalizarTarea(tarea)
	}
}

// EstablecerManejador construye la rutina que instala o reemplaza el
// manejador de un evento. La tarea que la invoca sigue ejecutando.
func EstablecerManejador[T interface {
	comparable
	tcb.AccesoSyscall
}, M any](registro RegistroEventos[T, M], log *slog.Logger) despachador.Rutina[T] {
	return func(tarea T) T {
		evento := tcb.ArgumentoSyscall[int](tarea)
		manejador := tcb.ArgumentoSyscall[M](tarea)

		if err := registro.RegistrarEvento(evento, manejador); err != nil {
			log.Error("No se pudo registrar el manejador",
				slog.Int("evento", evento),
				slog.Any("error", err),
			)
			tarea.SetRetornoKernel(RetornoSinMemoria)
			return tarea
		}

		log.Info(fmt.Sprintf("## Syscall establecer-manejador: evento %d", evento))

		tarea.SetRetornoKernel(RetornoOK)
		return tarea
	}
}

// CederCPU construye la rutina de cesión voluntaria: el planificador decide
// quién sigue (posiblemente la misma tarea). El retorno de kernel le dice al
// llamador si la cesión entregó la CPU, así la tarea ociosa puede ceder en un
// lazo hasta drenar los manejadores pendientes.
func CederCPU[T interface {
	comparable
	tcb.AccesoSyscall
}](planificador PlanificadorConCesion[T], log *slog.Logger) despachador.Rutina[T] {
	return func(tarea T) T {
		siguiente := planificador.AlCederCPU(tarea)

		if siguiente == tarea {
			tarea.SetRetornoKernel(RetornoOK)
		} else {
			tarea.SetRetornoKernel(RetornoHayPendientes)
		}

		return siguiente
	}
}
