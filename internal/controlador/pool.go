// Package controlador administra los bloques de control de tarea con un pool
// fijo: todos los TCBs se fabrican al crear el pool y asignar/liberar solo
// mueve handles, sin tocar el allocator de Go en el camino caliente.
package controlador

import "sync"

type Pool[T comparable] struct {
	mu     sync.Mutex
	libres []T
}

// NuevoPool fabrica capacidad TCBs por adelantado con la función dada.
func NuevoPool[T comparable](capacidad int, fabricar func() T) *Pool[T] {
	libres := make([]T, 0, capacidad)
	for i := 0; i < capacidad; i++ {
		libres = append(libres, fabricar())
	}
	return &Pool[T]{libres: libres}
}

// Asignar devuelve un TCB libre, o el handle nulo si el pool está agotado.
func (p *Pool[T]) Asignar() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	var nulo T
	if len(p.libres) == 0 {
		return nulo
	}

	tarea := p.libres[len(p.libres)-1]
	p.libres = p.libres[:len(p.libres)-1]
	return tarea
}

// Liberar devuelve un TCB al pool.
func (p *Pool[T]) Liberar(tarea T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.libres = append(p.libres, tarea)
}

// Disponibles informa cuántos TCBs libres quedan.
func (p *Pool[T]) Disponibles() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.libres)
}
