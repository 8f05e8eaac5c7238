package contexto

import "sync/atomic"

// Direccion es una dirección virtual dentro de la memoria simulada.
// La dirección 0 es inválida (equivale a un puntero nulo).
type Direccion uint32

// CeldaPila es la celda única del proceso donde vive el puntero de la pila
// compartida del modelo de eventos. El kernel la escribe desde su lazo y las
// capas de observación la leen desde afuera, así que el acceso es atómico.
type CeldaPila struct {
	valor atomic.Uint32
}

func (c *CeldaPila) Cargar() Direccion {
	return Direccion(c.valor.Load())
}

func (c *CeldaPila) Guardar(direccion Direccion) {
	c.valor.Store(uint32(direccion))
}

// ContextoEjecucion es el estado que una tarea deja guardado en el tope de su
// pila cuando no está ejecutando. El kernel lo lee para atender la syscall y
// escribe en él el valor de retorno que la tarea verá al reanudarse.
type ContextoEjecucion struct {
	identificadorSyscall uint32
	argumentos           *ListaArgumentos
	retornoKernel        int32
}

func NuevoContexto(identificadorSyscall uint32, argumentos ...any) *ContextoEjecucion {
	return &ContextoEjecucion{
		identificadorSyscall: identificadorSyscall,
		argumentos:           NuevaListaArgumentos(argumentos...),
	}
}

func (c *ContextoEjecucion) IdentificadorSyscall() uint32 {
	return c.identificadorSyscall
}

func (c *ContextoEjecucion) ListaArgumentosSyscall() *ListaArgumentos {
	return c.argumentos
}

func (c *ContextoEjecucion) SetRetornoKernel(valor int32) {
	c.retornoKernel = valor
}

func (c *ContextoEjecucion) RetornoKernel() int32 {
	return c.retornoKernel
}

// MemoriaContextos sabe recuperar el contexto guardado en una dirección de la
// memoria simulada. Lo implementa la memoria de la máquina; el componente de
// syscall del TCB lo usa para reinterpretar el tope de pila.
type MemoriaContextos interface {
	ContextoEn(direccion Direccion) *ContextoEjecucion
}
