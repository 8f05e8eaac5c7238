package planificador

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
)

// TareaPrioritaria agrega la prioridad a lo que pide el planificador.
type TareaPrioritaria interface {
	tcb.ConEstado
	tcb.ConIdentificador
	tcb.ConPrioridad
}

// Prioridades es el planificador expropiativo del modelo de eventos: un
// manejador nuevo con prioridad estrictamente mayor que el que está corriendo
// lo desaloja; el desalojado queda en una pila LIFO porque su contexto quedó
// anidado en la pila compartida y solo puede reanudarse en orden inverso.
// Los manejadores que no pudieron arrancar esperan en la cola de listos y se
// drenan cuando la tarea ociosa cede la CPU: así el inyector expropiativo
// siempre ve prio(next) > prio(prev).
type Prioridades[T interface {
	comparable
	TareaPrioritaria
}] struct {
	mu          sync.Mutex
	expropiadas []T
	listos      []T
	ociosa      T
	log         *slog.Logger
}

func NuevoPrioridades[T interface {
	comparable
	TareaPrioritaria
}](ociosa T, log *slog.Logger) *Prioridades[T] {
	return &Prioridades[T]{
		expropiadas: make([]T, 0),
		listos:      make([]T, 0),
		ociosa:      ociosa,
		log:         log,
	}
}

func (p *Prioridades[T]) AlCrearTarea(actual, nueva T) T {
	p.mu.Lock()
	defer p.mu.Unlock()

	if nueva.Prioridad() > actual.Prioridad() {
		if actual != p.ociosa {
			actual.SetEstado(tcb.EstadoExpropiado)
			p.expropiadas = append(p.expropiadas, actual)
			p.log.Info(fmt.Sprintf("## (%d) - Desalojado por prioridad", actual.Identificador()))
		}

		p.ejecutar(nueva)
		return nueva
	}

	nueva.SetEstado(tcb.EstadoListo)
	p.listos = append(p.listos, nueva)

	p.log.Info(fmt.Sprintf("## (%d) Pasa del estado NEW al estado READY", nueva.Identificador()))

	return actual
}

func (p *Prioridades[T]) AlFinalizarTarea(actual T) T {
	p.mu.Lock()
	defer p.mu.Unlock()

	actual.SetEstado(tcb.EstadoFinalizado)
	p.log.Info(fmt.Sprintf("## (%d) Pasa del estado EXEC al estado EXIT", actual.Identificador()))

	if cantidad := len(p.expropiadas); cantidad > 0 {
		reanudada := p.expropiadas[cantidad-1]
		p.expropiadas = p.expropiadas[:cantidad-1]
		p.ejecutar(reanudada)
		return reanudada
	}

	return p.ociosa
}

func (p *Prioridades[T]) AlCederCPU(actual T) T {
	p.mu.Lock()
	defer p.mu.Unlock()

	indice := p.indiceMayorPrioridad()
	if indice < 0 {
		return actual
	}

	candidata := p.listos[indice]
	if candidata.Prioridad() <= actual.Prioridad() {
		// Arrancarla acá violaría la compuerta del inyector expropiativo
		return actual
	}

	p.listos = append(p.listos[:indice], p.listos[indice+1:]...)
	p.ejecutar(candidata)
	return candidata
}

// Pendientes informa cuántas tareas esperan en la cola de listos.
func (p *Prioridades[T]) Pendientes() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.listos)
}

// indiceMayorPrioridad devuelve la posición de la tarea lista de mayor
// prioridad; en empate gana la más vieja. -1 si no hay listas.
func (p *Prioridades[T]) indiceMayorPrioridad() int {
	indice := -1
	for i, tarea := range p.listos {
		if indice < 0 || tarea.Prioridad() > p.listos[indice].Prioridad() {
			indice = i
		}
	}
	return indice
}

func (p *Prioridades[T]) ejecutar(tarea T) {
	tarea.SetEstado(tcb.EstadoEjecutando)
	p.log.Info(fmt.Sprintf("## (%d) Pasa del estado READY al estado EXEC", tarea.Identificador()))
}
