package tcb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
)

// memoriaFalsa implementa contexto.MemoriaContextos sobre un mapa.
type memoriaFalsa map[contexto.Direccion]*contexto.ContextoEjecucion

func (m memoriaFalsa) ContextoEn(direccion contexto.Direccion) *contexto.ContextoEjecucion {
	return m[direccion]
}

func TestPilaCompartida_TodasLasTareasVenLaMismaCelda(t *testing.T) {
	ass := assert.New(t)

	celda := &contexto.CeldaPila{}
	celda.Guardar(0x2000)
	memoria := memoriaFalsa{}

	a := NuevoTCBEvento[func()](celda, memoria)
	b := NuevoTCBEvento[func()](celda, memoria)

	a.SetPunteroPila(0x1F00)

	// El puntero es del proceso, no del TCB
	ass.Equal(contexto.Direccion(0x1F00), b.PunteroPila())
	ass.Equal(contexto.Direccion(0x1F00), celda.Cargar())
}

func TestPilaDedicada_CadaTareaTieneSuCampo(t *testing.T) {
	ass := assert.New(t)

	memoria := memoriaFalsa{}
	a := NuevoTCBHilo(memoria)
	b := NuevoTCBHilo(memoria)

	a.SetPunteroPila(0x3000)
	b.SetPunteroPila(0x4000)

	ass.Equal(contexto.Direccion(0x3000), a.PunteroPila())
	ass.Equal(contexto.Direccion(0x4000), b.PunteroPila())
}

func TestPilaReciclable_GuardaBaseYTamanio(t *testing.T) {
	ass := assert.New(t)

	hilo := NuevoTCBHilo(memoriaFalsa{})
	hilo.SetBasePila(0x5000, 1024)
	hilo.SetPunteroPila(0x5000 + 1024)

	ass.Equal(contexto.Direccion(0x5000), hilo.BasePila())
	ass.Equal(1024, hilo.TamanioPila())
	ass.GreaterOrEqual(hilo.PunteroPila(), hilo.BasePila())
	ass.LessOrEqual(int(hilo.PunteroPila()), int(hilo.BasePila())+hilo.TamanioPila())
}

func TestSoporteSyscall_ReinterpretaElTopeDePila(t *testing.T) {
	ass := assert.New(t)

	ctx := contexto.NuevoContexto(1, 42)
	memoria := memoriaFalsa{0x1FC0: ctx}

	celda := &contexto.CeldaPila{}
	celda.Guardar(0x1FC0)
	tarea := NuevoTCBEvento[func()](celda, memoria)

	ass.Equal(uint32(1), tarea.ContextoActual().IdentificadorSyscall())
	ass.Equal(42, ArgumentoSyscall[int](tarea))

	tarea.SetRetornoKernel(-1)
	ass.Equal(int32(-1), ctx.RetornoKernel())
}

func TestSoporteSyscall_SinContextoEsFatal(t *testing.T) {
	celda := &contexto.CeldaPila{}
	celda.Guardar(0x1000)
	tarea := NuevoTCBEvento[func()](celda, memoriaFalsa{})

	assert.Panics(t, func() {
		tarea.ContextoActual()
	})
}

func TestComponentesPlanos(t *testing.T) {
	ass := assert.New(t)

	hilo := NuevoTCBHilo(memoriaFalsa{})

	hilo.SetIdentificador(7)
	hilo.SetPrioridad(3)
	hilo.SetEstado(EstadoListo)

	ass.Equal(uint32(7), hilo.Identificador())
	ass.Equal(uint32(3), hilo.Prioridad())
	ass.Equal(EstadoListo, hilo.Estado())

	celda := &contexto.CeldaPila{}
	celda.Guardar(0x1000)
	evento := NuevoTCBEvento[func()](celda, memoriaFalsa{})

	llamado := false
	evento.SetManejador(func() { llamado = true })
	evento.Manejador()()
	ass.True(llamado)
}
