package maquina

import (
	"runtime"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
)

// Identificadores de servicio que devuelve el conmutador al reentrar al
// kernel: el trap number de cada syscall de la arquitectura simulada.
const (
	TrapEnviarEvento        uint32 = 1
	TrapRetornoManejador    uint32 = 2
	TrapCrearHilo           uint32 = 3
	TrapCederCPU            uint32 = 4
	TrapEstablecerManejador uint32 = 5
	TrapTerminarHilo        uint32 = 6

	// CantidadTraps es el tamaño de la tabla del mapeador de rutinas.
	CantidadTraps = 7
)

// Tarea es la vista que la máquina necesita de un TCB para ejecutarlo.
type Tarea interface {
	tcb.AccesoPila
}

// Programa es código de usuario: lo que ejecuta un hilo o un manejador de
// evento. Corre en su propia goroutine y solo devuelve el control al kernel a
// través de las syscalls de su Usuario.
type Programa func(u *Usuario)

type trampa struct {
	tarea         Tarea
	identificador uint32
}

// Usuario es la superficie de syscalls del lado usuario de una tarea. Cada
// syscall empuja un contexto fresco al tope de la pila, trapea al kernel y,
// al ser reanudada, desapila el contexto y devuelve el retorno de kernel.
type Usuario struct {
	tarea    Tarea
	memoria  *Memoria
	trampas  chan<- trampa
	reanudar chan struct{}
}

// EnviarEvento pide al kernel despachar el manejador del evento dado. Puede
// ceder la CPU a un manejador de mayor prioridad.
func (u *Usuario) EnviarEvento(evento int) int32 {
	return u.syscall(TrapEnviarEvento, evento)
}

// EstablecerManejador instala o reemplaza el manejador de un evento.
func (u *Usuario) EstablecerManejador(evento int, manejador Programa) int32 {
	return u.syscall(TrapEstablecerManejador, evento, manejador)
}

// CederCPU cede la CPU voluntariamente.
func (u *Usuario) CederCPU() int32 {
	return u.syscall(TrapCederCPU)
}

// CrearHilo pide al kernel crear un hilo nuevo. El orden y el tipo de los
// argumentos los dicta la lista de inicializadores con la que el kernel armó
// la rutina de crear-hilo.
func (u *Usuario) CrearHilo(argumentos ...any) int32 {
	return u.syscall(TrapCrearHilo, argumentos...)
}

// TerminarHilo da de baja al hilo actual. No retorna.
func (u *Usuario) TerminarHilo() {
	u.trapFinal(TrapTerminarHilo)
	runtime.Goexit()
}

func (u *Usuario) syscall(identificador uint32, argumentos ...any) int32 {
	ctx, direccion := u.empujarContexto(identificador, argumentos...)

	u.trampas <- trampa{tarea: u.tarea, identificador: identificador}
	<-u.reanudar

	// Retorno de interrupción: desapilar el contexto guardado
	retorno := ctx.RetornoKernel()
	u.memoria.borrarContexto(direccion)
	u.tarea.SetPunteroPila(direccion + TamanioContexto)

	return retorno
}

// trapFinal entra al kernel sin esperar reanudación: la activación de la
// tarea terminó y su goroutine muere después del trap.
func (u *Usuario) trapFinal(identificador uint32, argumentos ...any) {
	u.empujarContexto(identificador, argumentos...)
	u.trampas <- trampa{tarea: u.tarea, identificador: identificador}
}

func (u *Usuario) empujarContexto(identificador uint32, argumentos ...any) (*contexto.ContextoEjecucion, contexto.Direccion) {
	direccion := u.tarea.PunteroPila() - TamanioContexto

	ctx := contexto.NuevoContexto(identificador, argumentos...)
	u.memoria.guardarContexto(direccion, ctx)
	u.tarea.SetPunteroPila(direccion)

	return ctx, direccion
}

// trampolin envuelve un manejador one-shot: lo ejecuta y devuelve el control
// al kernel con la syscall privada de retorno, llevando el puntero de pila
// capturado antes de que el manejador arrancara.
func trampolin(manejador Programa, viejoSP contexto.Direccion) Programa {
	return func(u *Usuario) {
		manejador(u)
		u.trapFinal(TrapRetornoManejador, viejoSP)
	}
}
