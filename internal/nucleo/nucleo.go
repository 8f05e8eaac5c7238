// Package nucleo ensambla los núcleos concretos a partir de las piezas del
// módulo: elige la forma del TCB, el planificador, los inyectores y la tabla
// de rutinas, y expone una fachada de servicio para la capa HTTP.
package nucleo

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/despachador"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/maquina"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/planificador"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/rutinas"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
)

// TareaEvento es el TCB concreto del núcleo dirigido a eventos: pila
// compartida, prioridad, estado, manejador y acceso a syscalls.
type TareaEvento = tcb.TCBEvento[maquina.Programa]

const (
	AlgoritmoFIFO        = "FIFO"
	AlgoritmoPrioridades = "PRIORIDADES"
)

type Config struct {
	Algoritmo             string
	TamanioMemoria        int
	TamanioPilaCompartida int
	CantidadEventos       int
	CapacidadColaExternos int
}

// Nucleo es el núcleo dirigido a eventos armado y listo para despachar. Los
// estímulos externos entran por EnviarEvento y los drena la tarea ociosa.
type Nucleo struct {
	log       *slog.Logger
	config    Config
	memoria   *maquina.Memoria
	cambiador *maquina.Cambiador[*TareaEvento]
	tabla     *rutinas.ControladorEventosTabla[*TareaEvento, maquina.Programa]
	desp      *despachador.Despachador[*TareaEvento, uint32]
	ociosa    *TareaEvento
	celda     *contexto.CeldaPila
	fondo     contexto.Direccion

	eventosExternos chan int
	cambios         atomic.Uint64
	iniciado        atomic.Bool
}

type EstadoNucleo struct {
	Algoritmo             string `json:"algoritmo"`
	PunteroPilaCompartida uint32 `json:"puntero_pila_compartida"`
	CambiosDeContexto     uint64 `json:"cambios_de_contexto"`
	CantidadEventos       int    `json:"cantidad_eventos"`
	EventosRegistrados    []int  `json:"eventos_registrados"`
}

func Nuevo(config Config, log *slog.Logger) (*Nucleo, error) {
	if config.CantidadEventos <= 0 {
		return nil, fmt.Errorf("la tabla de eventos necesita al menos una entrada")
	}
	if config.CapacidadColaExternos <= 0 {
		config.CapacidadColaExternos = 64
	}

	memoria := maquina.NuevaMemoria(config.TamanioMemoria, log)

	base, ok := memoria.AsignarPila(config.TamanioPilaCompartida)
	if !ok {
		return nil, fmt.Errorf("no alcanza la memoria para la pila compartida")
	}

	celda := &contexto.CeldaPila{}
	fondo := base + contexto.Direccion(config.TamanioPilaCompartida)
	celda.Guardar(fondo)

	cambiador := maquina.NuevoCambiador[*TareaEvento](memoria, log)

	// Un TCB pre-asignado por evento; registrar guarda el manejador adentro
	tareas := make([]*TareaEvento, config.CantidadEventos)
	for i := range tareas {
		tarea := tcb.NuevoTCBEvento[maquina.Programa](celda, memoria)
		tarea.SetIdentificador(uint32(i + 1))
		tareas[i] = tarea
	}
	tabla := rutinas.NuevoControladorEventosTabla[*TareaEvento, maquina.Programa](tareas)

	ociosa := tcb.NuevoTCBEvento[maquina.Programa](celda, memoria)
	ociosa.SetIdentificador(0)
	ociosa.SetPrioridad(0)
	ociosa.SetEstado(tcb.EstadoEjecutando)

	n := &Nucleo{
		log:             log,
		config:          config,
		memoria:         memoria,
		cambiador:       cambiador,
		tabla:           tabla,
		ociosa:          ociosa,
		celda:           celda,
		fondo:           fondo,
		eventosExternos: make(chan int, config.CapacidadColaExternos),
	}

	constructor := &maquina.ConstructorEvento[*TareaEvento]{Cambiador: cambiador}

	var plan rutinas.PlanificadorConCesion[*TareaEvento]
	var trampolin despachador.Inyector[*TareaEvento]

	switch config.Algoritmo {
	case AlgoritmoFIFO:
		plan = planificador.NuevoFIFO[*TareaEvento](ociosa, log)
		cooperativo := despachador.InyectorTrampolinCooperativo[*TareaEvento](constructor, log)
		// La ociosa no es un manejador: volver a ella reanuda su syscall
		// pendiente y no hay marco de trampolín que construir
		trampolin = func(prev, next *TareaEvento) {
			if next != ociosa {
				cooperativo(prev, next)
			}
		}
	case AlgoritmoPrioridades:
		plan = planificador.NuevoPrioridades[*TareaEvento](ociosa, log)
		trampolin = despachador.InyectorTrampolinExpropiativo[*TareaEvento](constructor, log)
	default:
		return nil, fmt.Errorf("algoritmo de planificación no reconocido: %s", config.Algoritmo)
	}

	rutinasTabla := make([]despachador.Rutina[*TareaEvento], maquina.CantidadTraps)
	rutinasTabla[maquina.TrapEnviarEvento] = rutinas.EnviarEvento[*TareaEvento](plan, tabla, log)
	rutinasTabla[maquina.TrapRetornoManejador] = rutinas.RetornoManejadorEvento[*TareaEvento](plan, log)
	rutinasTabla[maquina.TrapCederCPU] = rutinas.CederCPU[*TareaEvento](plan, log)
	rutinasTabla[maquina.TrapEstablecerManejador] = rutinas.EstablecerManejador[*TareaEvento, maquina.Programa](tabla, log)

	mapeador := despachador.NuevoMapeadorTabla(
		rutinas.IdentificadorDesconocido[*TareaEvento](log),
		rutinasTabla,
	)

	n.desp = despachador.Nuevo[*TareaEvento, uint32](
		ociosa, ociosa,
		cambiador,
		mapeador,
		log,
		despachador.InyectorContadorCambios[*TareaEvento](&n.cambios),
		trampolin,
	)

	// Contexto de arranque de la tarea ociosa
	cambiador.PrepararArranque(ociosa, n.programaOcioso())

	return n, nil
}

// programaOcioso drena los estímulos externos: cada evento recibido se envía
// con la syscall correspondiente y después se cede la CPU hasta que no quede
// ningún manejador pendiente.
func (n *Nucleo) programaOcioso() maquina.Programa {
	return func(u *maquina.Usuario) {
		for {
			evento := <-n.eventosExternos

			u.EnviarEvento(evento)

			for u.CederCPU() == rutinas.RetornoHayPendientes {
			}
		}
	}
}

// Iniciar arranca el lazo de despacho. Idempotente.
func (n *Nucleo) Iniciar() {
	if n.iniciado.Swap(true) {
		return
	}

	n.log.Info("## Núcleo de eventos iniciado",
		slog.String("algoritmo", n.config.Algoritmo),
		slog.Int("eventos", n.config.CantidadEventos),
	)

	go n.desp.Ejecutar()
}

// EnviarEvento inyecta un estímulo externo al núcleo (la interrupción que un
// dispositivo le manda al kernel). No bloquea: si la cola está llena devuelve
// error y el evento no se encola.
func (n *Nucleo) EnviarEvento(evento int) error {
	tarea, ok := n.tabla.TareaRegistrada(evento)
	if !ok {
		return fmt.Errorf("evento %d fuera de rango", evento)
	}
	if tarea.Manejador() == nil {
		return fmt.Errorf("el evento %d no tiene manejador registrado", evento)
	}

	select {
	case n.eventosExternos <- evento:
		return nil
	default:
		return fmt.Errorf("la cola de eventos externos está llena")
	}
}

// RegistrarManejador instala o reemplaza el manejador de un evento con la
// prioridad dada.
func (n *Nucleo) RegistrarManejador(evento int, prioridad uint32, programa maquina.Programa) error {
	if programa == nil {
		return fmt.Errorf("el manejador no puede ser nulo")
	}

	tarea, ok := n.tabla.TareaRegistrada(evento)
	if !ok {
		return fmt.Errorf("evento %d fuera de rango", evento)
	}

	tarea.SetPrioridad(prioridad)
	return n.tabla.RegistrarEvento(evento, programa)
}

// Estado devuelve un snapshot del núcleo para la capa de observación.
func (n *Nucleo) Estado() EstadoNucleo {
	registrados := make([]int, 0, n.tabla.CantidadEventos())
	for evento := 0; evento < n.tabla.CantidadEventos(); evento++ {
		if tarea, ok := n.tabla.TareaRegistrada(evento); ok && tarea.Manejador() != nil {
			registrados = append(registrados, evento)
		}
	}

	return EstadoNucleo{
		Algoritmo:             n.config.Algoritmo,
		PunteroPilaCompartida: uint32(n.celda.Cargar()),
		CambiosDeContexto:     n.cambios.Load(),
		CantidadEventos:       n.tabla.CantidadEventos(),
		EventosRegistrados:    registrados,
	}
}

// FondoPilaCompartida es el tope inicial de la pila compartida: el valor al
// que el puntero vuelve cuando no hay ningún manejador en vuelo.
func (n *Nucleo) FondoPilaCompartida() contexto.Direccion {
	return n.fondo
}
