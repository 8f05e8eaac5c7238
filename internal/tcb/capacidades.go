// Package tcb define los componentes con los que se arma un bloque de control
// de tarea (TCB). Cada capacidad es una interfaz chica; un TCB concreto opta
// por un subconjunto embebiendo los componentes que la implementan, y las
// rutinas del kernel declaran las capacidades que necesitan como constraints
// de sus parámetros de tipo, así el chequeo es estático.
package tcb

import "github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"

// AccesoPila da lectura y escritura del puntero de pila de la tarea
// (el tope actual, no la base).
type AccesoPila interface {
	PunteroPila() contexto.Direccion
	SetPunteroPila(contexto.Direccion)
}

// PilaReciclable extiende el acceso a pila con la base y el tamaño de la
// asignación, para que el kernel pueda liberarla cuando la tarea termina.
// Invariante: base <= sp <= base+tamanio mientras la base esté asignada.
type PilaReciclable interface {
	AccesoPila
	BasePila() contexto.Direccion
	SetBasePila(base contexto.Direccion, tamanio int)
	TamanioPila() int
}

// AccesoSyscall permite al kernel leer la syscall pendiente de la tarea
// (reinterpretando el tope de su pila como contexto guardado) y escribirle el
// valor de retorno.
type AccesoSyscall interface {
	ContextoActual() *contexto.ContextoEjecucion
	SetRetornoKernel(int32)
}

type ConIdentificador interface {
	Identificador() uint32
	SetIdentificador(uint32)
}

type ConPrioridad interface {
	Prioridad() uint32
	SetPrioridad(uint32)
}

type ConEstado interface {
	Estado() Estado
	SetEstado(Estado)
}

// ConManejador expone el manejador de evento one-shot de la tarea. El tipo del
// manejador lo fija el kernel concreto (acá la arquitectura simulada).
type ConManejador[M any] interface {
	Manejador() M
	SetManejador(M)
}

// ArgumentoSyscall consume el próximo argumento del cursor de syscall de la
// tarea, interpretado como T.
func ArgumentoSyscall[T any](tarea AccesoSyscall) T {
	return contexto.Siguiente[T](tarea.ContextoActual().ListaArgumentosSyscall())
}
