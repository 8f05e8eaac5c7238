// Package rutinas implementa las rutinas de servicio del kernel: los bloques
// modulares que el despachador invoca cuando una tarea vuelve a entrar al
// kernel. Cada rutina declara las capacidades del TCB que necesita como
// constraints y recibe a sus colaboradores (planificador, controlador de
// tareas, memoria) por inyección, de modo que una configuración multi-core
// pueda instanciar un juego por core.
package rutinas

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/despachador"
)

// Valores de retorno de kernel que ven los llamadores.
const (
	RetornoOK         int32 = 0
	RetornoSinMemoria int32 = -1

	// RetornoHayPendientes lo devuelve ceder-cpu cuando la cesión entregó la
	// CPU a otra tarea: el llamador puede volver a ceder hasta drenar la cola.
	RetornoHayPendientes int32 = 1
)

// Planificador son los hooks de planificación que consume el núcleo.
type Planificador[T comparable] interface {
	// AlCrearTarea notifica que hay una tarea nueva y devuelve la próxima a
	// ejecutar: la actual (la nueva quedó encolada) o la nueva (expropiación).
	AlCrearTarea(actual, nueva T) T
	// AlFinalizarTarea notifica que la actual terminó y devuelve la próxima.
	AlFinalizarTarea(actual T) T
}

// PlanificadorConCesion agrega la cesión voluntaria de CPU.
type PlanificadorConCesion[T comparable] interface {
	Planificador[T]
	AlCederCPU(actual T) T
}

// Controlador administra el pool de TCBs.
type Controlador[T comparable] interface {
	// Asignar devuelve un TCB libre, o el handle nulo si el pool está agotado.
	Asignar() T
	Liberar(tarea T)
}

// AsignadorPilas asigna y libera pilas en la memoria de la máquina.
type AsignadorPilas interface {
	AsignarPila(tamanio int) (contexto.Direccion, bool)
	LiberarPila(base contexto.Direccion)
}

// MapeadorEventos resuelve un número de evento al TCB que lo atiende.
type MapeadorEventos[T comparable] interface {
	TareaRegistrada(evento int) (T, bool)
}

// RegistroEventos instala manejadores en la tabla de eventos.
type RegistroEventos[T comparable, M any] interface {
	RegistrarEvento(evento int, manejador M) error
}

// ConstructorInicial es la primitiva de arquitectura que deja la pila de una
// tarea nueva lista para arrancar en el punto de entrada dado.
type ConstructorInicial[T comparable] interface {
	ConstruirInicial(tarea T, puntoEntrada any)
}

// IdentificadorDesconocido fabrica la rutina fatal para un identificador de
// servicio que el mapeador no reconoce. Nunca retorna.
func IdentificadorDesconocido[T comparable](log *slog.Logger) func(identificador uint32) despachador.Rutina[T] {
	return func(identificador uint32) despachador.Rutina[T] {
		return func(tarea T) T {
			log.Error("Identificador de servicio desconocido",
				slog.Int("identificador", int(identificador)),
			)
			panic(fmt.Sprintf("identificador de servicio desconocido: %#x", identificador))
		}
	}
}
