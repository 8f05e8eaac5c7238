// Package maquina es la arquitectura simulada sobre la que corre el núcleo:
// una memoria plana donde viven las pilas, un conmutador de contexto que
// ejecuta el código de usuario en goroutines sincronizadas por canales (la
// tarea "ejecuta" mientras el kernel está bloqueado esperando el próximo
// trap), y los constructores de contexto de los dos modelos de ejecución.
package maquina

import (
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
)

// TamanioContexto es lo que ocupa un contexto de ejecución guardado en la
// pila, en bytes de la memoria simulada.
const TamanioContexto = 64

// Memoria es el espacio de direcciones de la máquina. Asigna pilas por rangos
// y guarda los contextos de ejecución que las tareas dejan en sus topes de
// pila. Implementa contexto.MemoriaContextos y rutinas.AsignadorPilas.
type Memoria struct {
	mu          sync.Mutex
	capacidad   int
	usado       int
	proximaBase contexto.Direccion
	asignadas   map[contexto.Direccion]int
	contextos   map[contexto.Direccion]*contexto.ContextoEjecucion
	log         *slog.Logger
}

func NuevaMemoria(capacidad int, log *slog.Logger) *Memoria {
	return &Memoria{
		capacidad: capacidad,
		// La página cero queda sin asignar: la dirección 0 es el puntero nulo
		proximaBase: 0x1000,
		asignadas:   make(map[contexto.Direccion]int),
		contextos:   make(map[contexto.Direccion]*contexto.ContextoEjecucion),
		log:         log,
	}
}

// AsignarPila reserva un rango para una pila nueva y devuelve su base.
func (m *Memoria) AsignarPila(tamanio int) (contexto.Direccion, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.usado+tamanio > m.capacidad {
		m.log.Error("Sin memoria para asignar la pila",
			slog.Int("tamanio", tamanio),
			slog.Int("usado", m.usado),
			slog.Int("capacidad", m.capacidad),
		)
		return 0, false
	}

	base := m.proximaBase
	m.proximaBase += contexto.Direccion(tamanio)
	m.usado += tamanio
	m.asignadas[base] = tamanio

	m.log.Debug("Pila asignada",
		slog.Int("base", int(base)),
		slog.Int("tamanio", tamanio),
	)

	return base, true
}

// LiberarPila devuelve el rango de una pila asignada. Liberar una base que la
// memoria no conoce es un no-op (pilas provistas por el llamador).
func (m *Memoria) LiberarPila(base contexto.Direccion) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tamanio, ok := m.asignadas[base]
	if !ok {
		return
	}

	delete(m.asignadas, base)
	m.usado -= tamanio
}

// ContextoEn devuelve el contexto guardado en la dirección dada, o nil.
func (m *Memoria) ContextoEn(direccion contexto.Direccion) *contexto.ContextoEjecucion {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.contextos[direccion]
}

// PilasEnUso informa cuántas pilas asignadas siguen vivas.
func (m *Memoria) PilasEnUso() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.asignadas)
}

func (m *Memoria) guardarContexto(direccion contexto.Direccion, ctx *contexto.ContextoEjecucion) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.contextos[direccion] = ctx
}

func (m *Memoria) borrarContexto(direccion contexto.Direccion) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.contextos, direccion)
}
