package tcb

import "github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"

// TCBEvento es el bloque de control del modelo dirigido a eventos: pila
// compartida por proceso, prioridad, estado, manejador one-shot y acceso a
// syscalls. M es el tipo del manejador (lo fija la arquitectura).
type TCBEvento[M any] struct {
	PilaCompartida
	SoporteIdentificador
	SoportePrioridad
	SoporteEstado
	SoporteManejador[M]
	SoporteSyscall
}

func NuevoTCBEvento[M any](celda *contexto.CeldaPila, memoria contexto.MemoriaContextos) *TCBEvento[M] {
	t := &TCBEvento[M]{PilaCompartida: NuevaPilaCompartida(celda)}
	t.SoporteSyscall = NuevoSoporteSyscall(&t.PilaCompartida, memoria)
	t.SetEstado(EstadoNew)
	return t
}

// TCBHilo es el bloque de control del modelo basado en hilos: pila dedicada
// reciclable, identificador único, prioridad, estado y acceso a syscalls.
type TCBHilo struct {
	PilaDedicadaReciclable
	SoporteIdentificador
	SoportePrioridad
	SoporteEstado
	SoporteSyscall
}

func NuevoTCBHilo(memoria contexto.MemoriaContextos) *TCBHilo {
	t := &TCBHilo{}
	t.SoporteSyscall = NuevoSoporteSyscall(&t.PilaDedicadaReciclable, memoria)
	t.SetEstado(EstadoNew)
	return t
}
