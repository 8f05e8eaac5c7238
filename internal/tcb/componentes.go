package tcb

import (
	"sync/atomic"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
)

const (
	EstadoNew        Estado = "NEW"
	EstadoListo      Estado = "READY"
	EstadoEjecutando Estado = "EXEC"
	EstadoExpropiado Estado = "PREEMPTED"
	EstadoFinalizado Estado = "EXIT"
)

type Estado string

// PilaCompartida implementa AccesoPila sobre la celda única del proceso: todas
// las tareas del modelo de eventos leen y escriben el mismo puntero.
type PilaCompartida struct {
	celda *contexto.CeldaPila
}

func NuevaPilaCompartida(celda *contexto.CeldaPila) PilaCompartida {
	return PilaCompartida{celda: celda}
}

func (p *PilaCompartida) PunteroPila() contexto.Direccion {
	return p.celda.Cargar()
}

func (p *PilaCompartida) SetPunteroPila(nuevo contexto.Direccion) {
	p.celda.Guardar(nuevo)
}

// PilaDedicada implementa AccesoPila sobre un campo propio del TCB.
type PilaDedicada struct {
	puntero contexto.Direccion
}

func (p *PilaDedicada) PunteroPila() contexto.Direccion {
	return p.puntero
}

func (p *PilaDedicada) SetPunteroPila(nuevo contexto.Direccion) {
	p.puntero = nuevo
}

// PilaDedicadaReciclable agrega la base y el tamaño de la asignación para que
// el kernel pueda devolver la pila a la memoria.
type PilaDedicadaReciclable struct {
	PilaDedicada
	base    contexto.Direccion
	tamanio int
}

func (p *PilaDedicadaReciclable) BasePila() contexto.Direccion {
	return p.base
}

func (p *PilaDedicadaReciclable) SetBasePila(base contexto.Direccion, tamanio int) {
	p.base = base
	p.tamanio = tamanio
}

func (p *PilaDedicadaReciclable) TamanioPila() int {
	return p.tamanio
}

// SoporteSyscall implementa AccesoSyscall reinterpretando el tope de la pila
// de la tarea como el contexto guardado. Se cablea en el constructor del TCB
// concreto con la vista de pila del propio TCB y la memoria de contextos.
type SoporteSyscall struct {
	pila    AccesoPila
	memoria contexto.MemoriaContextos
}

func NuevoSoporteSyscall(pila AccesoPila, memoria contexto.MemoriaContextos) SoporteSyscall {
	return SoporteSyscall{pila: pila, memoria: memoria}
}

func (s *SoporteSyscall) ContextoActual() *contexto.ContextoEjecucion {
	ctx := s.memoria.ContextoEn(s.pila.PunteroPila())
	if ctx == nil {
		panic("no hay contexto guardado en el tope de la pila de la tarea")
	}
	return ctx
}

func (s *SoporteSyscall) SetRetornoKernel(valor int32) {
	s.ContextoActual().SetRetornoKernel(valor)
}

type SoporteIdentificador struct {
	identificador uint32
}

func (s *SoporteIdentificador) Identificador() uint32 {
	return s.identificador
}

func (s *SoporteIdentificador) SetIdentificador(nuevo uint32) {
	s.identificador = nuevo
}

type SoportePrioridad struct {
	prioridad uint32
}

func (s *SoportePrioridad) Prioridad() uint32 {
	return s.prioridad
}

func (s *SoportePrioridad) SetPrioridad(nueva uint32) {
	s.prioridad = nueva
}

type SoporteEstado struct {
	estado Estado
}

func (s *SoporteEstado) Estado() Estado {
	return s.estado
}

func (s *SoporteEstado) SetEstado(nuevo Estado) {
	s.estado = nuevo
}

// SoporteManejador guarda el manejador con un atomic.Value: el registro puede
// llegar desde fuera del lazo del kernel y el reemplazo tiene que ser atómico
// para el que registra.
type SoporteManejador[M any] struct {
	manejador atomic.Value
}

func (s *SoporteManejador[M]) Manejador() M {
	var cero M
	valor := s.manejador.Load()
	if valor == nil {
		return cero
	}

	manejador, ok := valor.(M)
	if !ok {
		return cero
	}
	return manejador
}

func (s *SoporteManejador[M]) SetManejador(nuevo M) {
	s.manejador.Store(nuevo)
}
