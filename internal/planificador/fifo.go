// Package planificador implementa los planificadores que consumen las rutinas
// de servicio. El núcleo solo los ve a través de los hooks AlCrearTarea /
// AlFinalizarTarea / AlCederCPU; acá viven las políticas concretas.
package planificador

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
)

// TareaPlanificable es lo mínimo que un planificador necesita de un TCB.
type TareaPlanificable interface {
	comparable
	tcb.ConEstado
	tcb.ConIdentificador
}

// FIFO es el planificador cooperativo: la tarea ociosa cede el lugar a
// cualquier manejador nuevo, los manejadores corren a término y los eventos
// enviados mientras tanto esperan en una cola FIFO.
type FIFO[T TareaPlanificable] struct {
	mu     sync.Mutex
	listos []T
	ociosa T
	log    *slog.Logger
}

func NuevoFIFO[T TareaPlanificable](ociosa T, log *slog.Logger) *FIFO[T] {
	return &FIFO[T]{
		listos: make([]T, 0),
		ociosa: ociosa,
		log:    log,
	}
}

func (p *FIFO[T]) AlCrearTarea(actual, nueva T) T {
	p.mu.Lock()
	defer p.mu.Unlock()

	if actual == p.ociosa {
		p.ejecutar(nueva)
		return nueva
	}

	nueva.SetEstado(tcb.EstadoListo)
	p.listos = append(p.listos, nueva)

	p.log.Info(fmt.Sprintf("## (%d) Pasa del estado NEW al estado READY", nueva.Identificador()))

	return actual
}

func (p *FIFO[T]) AlFinalizarTarea(actual T) T {
	p.mu.Lock()
	defer p.mu.Unlock()

	actual.SetEstado(tcb.EstadoFinalizado)
	p.log.Info(fmt.Sprintf("## (%d) Pasa del estado EXEC al estado EXIT", actual.Identificador()))

	return p.proximoListo()
}

func (p *FIFO[T]) AlCederCPU(actual T) T {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.listos) == 0 {
		return actual
	}

	if actual != p.ociosa {
		// Round-robin: la que cede vuelve al final de la cola
		actual.SetEstado(tcb.EstadoListo)
		p.listos = append(p.listos, actual)
		p.log.Info(fmt.Sprintf("## (%d) Pasa del estado EXEC al estado READY", actual.Identificador()))
	}

	return p.proximoListo()
}

// Encolar suma una tarea a la cola de listos sin pasar por AlCrearTarea.
// Lo usa el kernel durante su inicialización, cuando todavía no hay ninguna
// tarea ejecutando que pueda figurar como creadora.
func (p *FIFO[T]) Encolar(tarea T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tarea.SetEstado(tcb.EstadoListo)
	p.listos = append(p.listos, tarea)

	p.log.Info(fmt.Sprintf("## (%d) Pasa del estado NEW al estado READY", tarea.Identificador()))
}

// Pendientes informa cuántas tareas esperan en la cola de listos.
func (p *FIFO[T]) Pendientes() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.listos)
}

func (p *FIFO[T]) proximoListo() T {
	if len(p.listos) == 0 {
		return p.ociosa
	}

	proxima := p.listos[0]
	p.listos = p.listos[1:]
	p.ejecutar(proxima)
	return proxima
}

func (p *FIFO[T]) ejecutar(tarea T) {
	tarea.SetEstado(tcb.EstadoEjecutando)
	p.log.Info(fmt.Sprintf("## (%d) Pasa del estado READY al estado EXEC", tarea.Identificador()))
}
