// Package despachador implementa el lazo de despacho del kernel: la mesa de
// entrada de todas las syscalls, interrupciones y excepciones. El despachador
// no sabe de arquitectura: delega el cambio de contexto en el Cambiador y la
// resolución de rutinas en el Mapeador.
package despachador

import (
	"fmt"
	"log/slog"
)

// Rutina es una rutina de servicio del kernel: consume la tarea interrumpida
// y devuelve la próxima tarea a ejecutar (puede ser la misma).
type Rutina[T comparable] func(tarea T) T

// Inyector corre antes de cada cambio de contexto, en orden de declaración.
type Inyector[T comparable] func(prev, next T)

// Cambiador es el conmutador de contexto de la arquitectura: guarda el estado
// de prev, reanuda next y bloquea hasta que el kernel vuelva a entrar,
// devolviendo el identificador de servicio que nombra el motivo.
type Cambiador[T comparable, ID any] interface {
	Cambiar(prev, next T) ID
}

// Mapeador resuelve un identificador de servicio a su rutina. Debe devolver
// siempre una rutina no nula.
type Mapeador[T comparable, ID any] interface {
	Rutina(identificador ID) Rutina[T]
}

// ConstructorContexto es la primitiva de arquitectura que escribe un contexto
// de ejecución fresco en la pila de next para que al reanudarse arranque en el
// punto de entrada designado.
type ConstructorContexto[T comparable] interface {
	Construir(prev, next T)
}

type Despachador[T comparable, ID any] struct {
	prev T // la tarea interrumpida
	next T // la tarea elegida para ejecutar

	cambiador  Cambiador[T, ID]
	mapeador   Mapeador[T, ID]
	inyectores []Inyector[T]
	log        *slog.Logger
}

// Nuevo crea un despachador con las tareas iniciales. Si el sistema tiene
// tarea ociosa, pasarla como prev; next es la primera tarea que va a correr.
func Nuevo[T comparable, ID any](
	prev, next T,
	cambiador Cambiador[T, ID],
	mapeador Mapeador[T, ID],
	log *slog.Logger,
	inyectores ...Inyector[T],
) *Despachador[T, ID] {
	return &Despachador[T, ID]{
		prev:       prev,
		next:       next,
		cambiador:  cambiador,
		mapeador:   mapeador,
		inyectores: inyectores,
		log:        log,
	}
}

// Ciclo ejecuta exactamente una vuelta del lazo de despacho: inyectores,
// cambio de contexto (el código de usuario corre acá), y rutina de servicio.
func (d *Despachador[T, ID]) Ciclo() {
	for _, inyector := range d.inyectores {
		inyector(d.prev, d.next)
	}

	// Cambiar la tarea y salir del kernel; cuando retorna, volvimos a entrar
	identificador := d.cambiador.Cambiar(d.prev, d.next)

	d.prev = d.next

	d.next = d.mapeador.Rutina(identificador)(d.prev)

	var nulo T
	if d.next == nulo {
		d.log.Error("Una rutina de servicio devolvió una tarea nula",
			slog.Any("identificador", identificador),
		)
		panic(fmt.Sprintf("rutina de servicio del identificador %v devolvió una tarea nula", identificador))
	}
}

// Ejecutar corre el lazo de despacho. No retorna.
func (d *Despachador[T, ID]) Ejecutar() {
	for {
		d.Ciclo()
	}
}

// Tareas devuelve el par (prev, next) actual.
func (d *Despachador[T, ID]) Tareas() (prev, next T) {
	return d.prev, d.next
}
