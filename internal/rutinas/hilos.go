package rutinas

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/despachador"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
)

// Inicializador es un paso de construcción de un TCB nuevo en crear-hilo.
// Declara cómo leer su argumento del cursor de syscall y cómo aplicarlo.
// El orden de declaración de los inicializadores es el orden en que se
// consumen los argumentos del cursor: es semántica, no convención.
type Inicializador[T comparable] interface {
	LeerArgumento(cursor *contexto.ListaArgumentos) any
	Aplicar(tarea T, argumento any) bool
}

// CrearHiloEnKernel construye la forma en-kernel de la rutina de crear hilo:
// recibe los argumentos ya materializados. Útil para crear hilos durante la
// inicialización del kernel.
func CrearHiloEnKernel[T interface {
	comparable
	tcb.AccesoSyscall
}](
	planificador Planificador[T],
	controlador Controlador[T],
	log *slog.Logger,
	inicializadores ...Inicializador[T],
) func(tarea T, argumentos ...any) T {
	return func(tarea T, argumentos ...any) T {
		if len(argumentos) != len(inicializadores) {
			panic(fmt.Sprintf("crear-hilo: %d argumentos para %d inicializadores", len(argumentos), len(inicializadores)))
		}

		var nulo T

		nueva := controlador.Asignar()
		if nueva == nulo {
			log.Error("No se pudo asignar un TCB para el hilo nuevo")
			tarea.SetRetornoKernel(RetornoSinMemoria)
			return tarea
		}

		for i, inicializador := range inicializadores {
			if inicializador.Aplicar(nueva, argumentos[i]) {
				continue
			}

			log.Error("Falló un inicializador del TCB",
				slog.Int("inicializador", i),
			)

			// Deshacer la asignación parcial
			controlador.Liberar(nueva)
			tarea.SetRetornoKernel(RetornoSinMemoria)
			return tarea
		}

		log.Info("## Syscall crear-hilo: hilo nuevo creado")

		return planificador.AlCrearTarea(tarea, nueva)
	}
}

// CrearHilo construye la forma syscall de crear-hilo: junta los argumentos del
// cursor de la tarea llamadora y delega en la forma en-kernel. Los argumentos
// se materializan TODOS primero, en el orden de declaración de los
// inicializadores: el cursor es stateful y desordenarlo produce basura.
func CrearHilo[T interface {
	comparable
	tcb.AccesoSyscall
}](
	planificador Planificador[T],
	controlador Controlador[T],
	log *slog.Logger,
	inicializadores ...Inicializador[T],
) despachador.Rutina[T] {
	enKernel := CrearHiloEnKernel(planificador, controlador, log, inicializadores...)

	return func(tarea T) T {
		cursor := tarea.ContextoActual().ListaArgumentosSyscall()

		argumentos := make([]any, len(inicializadores))
		for i, inicializador := range inicializadores {
			argumentos[i] = inicializador.LeerArgumento(cursor)
		}

		return enKernel(tarea, argumentos...)
	}
}

// TerminarHilo construye la rutina que da de baja al hilo actual: devuelve la
// pila reciclable a la memoria, libera el TCB y deja que el planificador
// elija al próximo.
func TerminarHilo[T interface {
	comparable
	tcb.PilaReciclable
}](
	planificador Planificador[T],
	controlador Controlador[T],
	memoria AsignadorPilas,
	log *slog.Logger,
) despachador.Rutina[T] {
	return func(tarea T) T {
		if base := tarea.BasePila(); base != 0 {
			memoria.LiberarPila(base)
			tarea.SetBasePila(0, 0)
		}

		log.Info("## Syscall terminar-hilo")

		siguiente := planificador.AlFinalizarTarea(tarea)

		controlador.Liberar(tarea)

		return siguiente
	}
}

// InfoPila describe una pila provista por el llamador.
type InfoPila struct {
	Base    contexto.Direccion
	Tamanio int
}

// AsignarPilaDinamica asigna una pila nueva de la memoria y deja el puntero en
// el fondo (base + tamaño). Falla si la memoria se agotó; el kernel no
// reclama esta pila.
type AsignarPilaDinamica[T interface {
	comparable
	tcb.AccesoPila
}] struct {
	Memoria AsignadorPilas
}

func (a AsignarPilaDinamica[T]) LeerArgumento(cursor *contexto.ListaArgumentos) any {
	return contexto.Siguiente[int](cursor)
}

func (a AsignarPilaDinamica[T]) Aplicar(tarea T, argumento any) bool {
	tamanio := argumento.(int)

	base, ok := a.Memoria.AsignarPila(tamanio)
	if !ok {
		return false
	}

	tarea.SetPunteroPila(base + contexto.Direccion(tamanio))
	return true
}

// AsignarPilaReciclable asigna una pila nueva y además recuerda la base en el
// TCB para que terminar-hilo pueda devolverla.
type AsignarPilaReciclable[T interface {
	comparable
	tcb.PilaReciclable
}] struct {
	Memoria AsignadorPilas
}

func (a AsignarPilaReciclable[T]) LeerArgumento(cursor *contexto.ListaArgumentos) any {
	return contexto.Siguiente[int](cursor)
}

func (a AsignarPilaReciclable[T]) Aplicar(tarea T, argumento any) bool {
	tamanio := argumento.(int)

	base, ok := a.Memoria.AsignarPila(tamanio)
	if !ok {
		return false
	}

	tarea.SetBasePila(base, tamanio)
	tarea.SetPunteroPila(base + contexto.Direccion(tamanio))
	return true
}

// AsignarPilaExistente instala una pila provista por el llamador; el kernel no
// es dueño de esa memoria.
type AsignarPilaExistente[T interface {
	comparable
	tcb.PilaReciclable
}] struct{}

func (a AsignarPilaExistente[T]) LeerArgumento(cursor *contexto.ListaArgumentos) any {
	return contexto.Siguiente[InfoPila](cursor)
}

func (a AsignarPilaExistente[T]) Aplicar(tarea T, argumento any) bool {
	info := argumento.(InfoPila)

	tarea.SetBasePila(info.Base, info.Tamanio)
	tarea.SetPunteroPila(info.Base + contexto.Direccion(info.Tamanio))
	return true
}

// ConfigurarContexto invoca al constructor de contexto de la arquitectura para
// que el hilo arranque en su punto de entrada. Precondición: la tarea ya tiene
// pila asignada.
type ConfigurarContexto[T interface {
	comparable
	tcb.AccesoPila
}] struct {
	Constructor ConstructorInicial[T]
}

func (c ConfigurarContexto[T]) LeerArgumento(cursor *contexto.ListaArgumentos) any {
	return contexto.Siguiente[any](cursor)
}

func (c ConfigurarContexto[T]) Aplicar(tarea T, argumento any) bool {
	if tarea.PunteroPila() == 0 {
		panic("configurar-contexto: la tarea no tiene pila asignada")
	}

	c.Constructor.ConstruirInicial(tarea, argumento)
	return true
}

// AsignarIdentificador registra el identificador único del hilo.
type AsignarIdentificador[T interface {
	comparable
	tcb.ConIdentificador
}] struct{}

func (a AsignarIdentificador[T]) LeerArgumento(cursor *contexto.ListaArgumentos) any {
	return contexto.Siguiente[uint32](cursor)
}

func (a AsignarIdentificador[T]) Aplicar(tarea T, argumento any) bool {
	tarea.SetIdentificador(argumento.(uint32))
	return true
}

// AsignarPrioridad registra la prioridad del hilo.
type AsignarPrioridad[T interface {
	comparable
	tcb.ConPrioridad
}] struct{}

func (a AsignarPrioridad[T]) LeerArgumento(cursor *contexto.ListaArgumentos) any {
	return contexto.Siguiente[uint32](cursor)
}

func (a AsignarPrioridad[T]) Aplicar(tarea T, argumento any) bool {
	tarea.SetPrioridad(argumento.(uint32))
	return true
}
