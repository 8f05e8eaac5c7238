package despachador

// MapeadorTabla resuelve rutinas con una tabla fija indexada por el
// identificador de servicio (el trap number de la arquitectura simulada).
// Un identificador fuera de rango o sin rutina asignada resuelve a la rutina
// de identificador desconocido, que es fatal.
type MapeadorTabla[T comparable] struct {
	rutinas     []Rutina[T]
	desconocido func(identificador uint32) Rutina[T]
}

func NuevoMapeadorTabla[T comparable](
	desconocido func(identificador uint32) Rutina[T],
	rutinas []Rutina[T],
) *MapeadorTabla[T] {
	return &MapeadorTabla[T]{
		rutinas:     rutinas,
		desconocido: desconocido,
	}
}

func (m *MapeadorTabla[T]) Rutina(identificador uint32) Rutina[T] {
	if int(identificador) < len(m.rutinas) && m.rutinas[identificador] != nil {
		return m.rutinas[identificador]
	}
	return m.desconocido(identificador)
}
