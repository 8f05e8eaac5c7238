package maquina

import (
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
)

// TareaEvento es la vista que el constructor de eventos necesita de un TCB:
// pila (compartida) y manejador registrado.
type TareaEvento interface {
	Tarea
	tcb.ConManejador[Programa]
}

// ConstructorEvento es el constructor de contexto del modelo dirigido a
// eventos: captura el puntero de la pila compartida antes de rebasarlo,
// escribe el marco fresco del trampolín y deja preparado el arranque
// `trampolin(manejador, viejoSP)`. Lo invocan los inyectores del despachador.
type ConstructorEvento[T interface {
	comparable
	TareaEvento
}] struct {
	Cambiador *Cambiador[T]
}

func (c *ConstructorEvento[T]) Construir(prev, next T) {
	// El snapshot se toma ANTES de rebasar: es el punto exacto al que el
	// retorno del manejador tiene que rebobinar la pila compartida
	viejoSP := next.PunteroPila()

	manejador := next.Manejador()
	if manejador == nil {
		panic("el evento no tiene manejador registrado")
	}

	next.SetPunteroPila(viejoSP - TamanioContexto)

	c.Cambiador.PrepararArranque(next, trampolin(manejador, viejoSP))
}

// ConstructorContextoInicial es el constructor del modelo basado en hilos:
// deja la pila del hilo nuevo lista para que su primera reanudación arranque
// el programa en el punto de entrada. Si el programa retorna sin más, el
// retorno implícito da de baja al hilo.
type ConstructorContextoInicial[T interface {
	comparable
	Tarea
}] struct {
	Cambiador *Cambiador[T]
}

func (c *ConstructorContextoInicial[T]) ConstruirInicial(tarea T, puntoEntrada any) {
	programa, ok := puntoEntrada.(Programa)
	if !ok {
		panic("el punto de entrada no es un programa de esta arquitectura")
	}

	c.Cambiador.PrepararArranque(tarea, func(u *Usuario) {
		programa(u)
		u.trapFinal(TrapTerminarHilo)
	})
}
