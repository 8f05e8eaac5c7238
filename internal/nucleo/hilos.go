package nucleo

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/controlador"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/despachador"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/maquina"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/planificador"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/rutinas"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
	uniqueid "github.com/sisoputnfrba/tp-golang/ejecucion/utils/unique-id"
)

type ConfigHilos struct {
	TamanioMemoria    int
	TamanioPilaOciosa int
	CapacidadTCBs     int
}

// NucleoHilos es el núcleo basado en hilos: cada tarea tiene su pila dedicada
// reciclable, los hilos se crean con la syscall de crear-hilo (o desde el
// kernel durante la inicialización) y el planificador es round-robin
// cooperativo. Acá no hay inyectores de trampolín: el contexto de un hilo se
// construye una sola vez, al crearlo.
type NucleoHilos struct {
	Log          *slog.Logger
	Memoria      *maquina.Memoria
	Pool         *controlador.Pool[*tcb.TCBHilo]
	Planificador *planificador.FIFO[*tcb.TCBHilo]

	cambiador       *maquina.Cambiador[*tcb.TCBHilo]
	desp            *despachador.Despachador[*tcb.TCBHilo, uint32]
	ociosa          *tcb.TCBHilo
	ids             *uniqueid.UniqueID
	inicializadores []rutinas.Inicializador[*tcb.TCBHilo]
	cambios         atomic.Uint64
}

func NuevoHilos(config ConfigHilos, log *slog.Logger) (*NucleoHilos, error) {
	memoria := maquina.NuevaMemoria(config.TamanioMemoria, log)
	cambiador := maquina.NuevoCambiador[*tcb.TCBHilo](memoria, log)

	pool := controlador.NuevoPool(config.CapacidadTCBs, func() *tcb.TCBHilo {
		return tcb.NuevoTCBHilo(memoria)
	})

	base, ok := memoria.AsignarPila(config.TamanioPilaOciosa)
	if !ok {
		return nil, fmt.Errorf("no alcanza la memoria para la pila de la tarea ociosa")
	}

	ociosa := tcb.NuevoTCBHilo(memoria)
	ociosa.SetIdentificador(0)
	ociosa.SetPrioridad(0)
	ociosa.SetBasePila(base, config.TamanioPilaOciosa)
	ociosa.SetPunteroPila(base + contexto.Direccion(config.TamanioPilaOciosa))
	ociosa.SetEstado(tcb.EstadoEjecutando)

	plan := planificador.NuevoFIFO[*tcb.TCBHilo](ociosa, log)
	constructor := &maquina.ConstructorContextoInicial[*tcb.TCBHilo]{Cambiador: cambiador}

	// El orden de esta lista dicta el orden de los argumentos de la syscall
	inicializadores := []rutinas.Inicializador[*tcb.TCBHilo]{
		rutinas.AsignarPilaReciclable[*tcb.TCBHilo]{Memoria: memoria},
		rutinas.AsignarIdentificador[*tcb.TCBHilo]{},
		rutinas.AsignarPrioridad[*tcb.TCBHilo]{},
		rutinas.ConfigurarContexto[*tcb.TCBHilo]{Constructor: constructor},
	}

	n := &NucleoHilos{
		Log:             log,
		Memoria:         memoria,
		Pool:            pool,
		Planificador:    plan,
		cambiador:       cambiador,
		ociosa:          ociosa,
		ids:             uniqueid.Init(),
		inicializadores: inicializadores,
	}

	rutinasTabla := make([]despachador.Rutina[*tcb.TCBHilo], maquina.CantidadTraps)
	rutinasTabla[maquina.TrapCrearHilo] = rutinas.CrearHilo[*tcb.TCBHilo](plan, pool, log, inicializadores...)
	rutinasTabla[maquina.TrapTerminarHilo] = rutinas.TerminarHilo[*tcb.TCBHilo](plan, pool, memoria, log)
	rutinasTabla[maquina.TrapCederCPU] = rutinas.CederCPU[*tcb.TCBHilo](plan, log)

	mapeador := despachador.NuevoMapeadorTabla(
		rutinas.IdentificadorDesconocido[*tcb.TCBHilo](log),
		rutinasTabla,
	)

	n.desp = despachador.Nuevo[*tcb.TCBHilo, uint32](
		ociosa, ociosa,
		cambiador,
		mapeador,
		log,
		despachador.InyectorContadorCambios[*tcb.TCBHilo](&n.cambios),
	)

	cambiador.PrepararArranque(ociosa, func(u *maquina.Usuario) {
		for {
			u.CederCPU()
		}
	})

	return n, nil
}

// CrearHiloInicial crea un hilo desde el kernel, antes de (o entre) ciclos de
// despacho: aplica los mismos inicializadores que la syscall y encola el hilo
// nuevo en el planificador.
func (n *NucleoHilos) CrearHiloInicial(programa maquina.Programa, tamanioPila int, prioridad uint32) (uint32, error) {
	if programa == nil {
		return 0, fmt.Errorf("el programa del hilo no puede ser nulo")
	}

	nueva := n.Pool.Asignar()
	if nueva == nil {
		return 0, fmt.Errorf("no quedan TCBs libres")
	}

	tid := n.ids.GetUniqueID()
	argumentos := []any{tamanioPila, tid, prioridad, programa}

	for i, inicializador := range n.inicializadores {
		if inicializador.Aplicar(nueva, argumentos[i]) {
			continue
		}

		n.Pool.Liberar(nueva)
		return 0, fmt.Errorf("falló el inicializador %d del hilo nuevo", i)
	}

	n.Planificador.Encolar(nueva)
	return tid, nil
}

// Ciclo ejecuta una vuelta del lazo de despacho. Lo usan los tests y los
// kernels que quieren controlar el avance de a un paso.
func (n *NucleoHilos) Ciclo() {
	n.desp.Ciclo()
}

// Ejecutar corre el lazo de despacho. No retorna.
func (n *NucleoHilos) Ejecutar() {
	n.desp.Ejecutar()
}

// CambiosDeContexto informa cuántos cambios efectivos hubo.
func (n *NucleoHilos) CambiosDeContexto() uint64 {
	return n.cambios.Load()
}
