package maquina

import (
	"log/slog"
	"sync"
)

// Cambiador es el conmutador de contexto de la arquitectura simulada. Guardar
// y cargar registros se reduce a bloquear y despertar la goroutine de cada
// tarea: una tarea que no está ejecutando quedó detenida dentro de su última
// syscall, con su contexto guardado en el tope de su pila.
type Cambiador[T interface {
	comparable
	Tarea
}] struct {
	mu          sync.Mutex
	memoria     *Memoria
	log         *slog.Logger
	trampas     chan trampa
	hilos       map[T]*hiloUsuario
	enEjecucion T
}

type hiloUsuario struct {
	reanudar  chan struct{}
	pendiente Programa
}

func NuevoCambiador[T interface {
	comparable
	Tarea
}](memoria *Memoria, log *slog.Logger) *Cambiador[T] {
	return &Cambiador[T]{
		memoria: memoria,
		log:     log,
		trampas: make(chan trampa),
		hilos:   make(map[T]*hiloUsuario),
	}
}

// PrepararArranque deja registrado el programa que la tarea va a ejecutar la
// próxima vez que sea reanudada. Es la mitad de software del constructor de
// contexto: el marco ya quedó escrito en la pila, acá queda el punto de
// entrada.
func (c *Cambiador[T]) PrepararArranque(tarea T, programa Programa) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hilo(tarea).pendiente = programa
}

// Cambiar reanuda a next y bloquea hasta que el kernel vuelva a entrar,
// devolviendo el identificador de servicio que nombra el motivo. Mientras
// este método está bloqueado, el código de usuario de next es el que ejecuta.
func (c *Cambiador[T]) Cambiar(prev, next T) uint32 {
	c.mu.Lock()
	hilo := c.hilo(next)
	c.enEjecucion = next

	var arranque Programa
	if hilo.pendiente != nil {
		arranque = hilo.pendiente
		hilo.pendiente = nil
	}
	c.mu.Unlock()

	if arranque != nil {
		usuario := &Usuario{
			tarea:    next,
			memoria:  c.memoria,
			trampas:  c.trampas,
			reanudar: hilo.reanudar,
		}
		go arranque(usuario)
	} else {
		hilo.reanudar <- struct{}{}
	}

	entrada := <-c.trampas
	if entrada.tarea != Tarea(next) {
		panic("trapeó una tarea que no estaba en ejecución")
	}

	c.log.Debug("Reentrada al kernel",
		slog.Int("identificador", int(entrada.identificador)),
	)

	return entrada.identificador
}

// EnEjecucion devuelve la tarea que tiene la CPU (a lo sumo una por core).
func (c *Cambiador[T]) EnEjecucion() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enEjecucion
}

func (c *Cambiador[T]) hilo(tarea T) *hiloUsuario {
	if hilo, ok := c.hilos[tarea]; ok {
		return hilo
	}

	hilo := &hiloUsuario{reanudar: make(chan struct{})}
	c.hilos[tarea] = hilo
	return hilo
}
