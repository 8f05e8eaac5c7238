package maquina

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/contexto"
	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/tcb"
	"github.com/sisoputnfrba/tp-golang/ejecucion/utils/log"
)

func TestMemoria_AsignarYLiberar(t *testing.T) {
	ass := assert.New(t)

	memoria := NuevaMemoria(8192, log.BuildLogger("error"))

	base, ok := memoria.AsignarPila(4096)
	ass.True(ok)
	ass.NotEqual(contexto.Direccion(0), base)
	ass.Equal(1, memoria.PilasEnUso())

	// Con 4096 en uso no entra una pila del tamaño de toda la memoria
	_, ok = memoria.AsignarPila(8192)
	ass.False(ok)

	memoria.LiberarPila(base)
	ass.Equal(0, memoria.PilasEnUso())

	// Liberó: ahora sí hay lugar
	_, ok = memoria.AsignarPila(8192)
	ass.True(ok)

	// Liberar una base desconocida (pila del llamador) es un no-op
	memoria.LiberarPila(0xDEAD)
	ass.Equal(1, memoria.PilasEnUso())
}

func hiloConPila(t *testing.T, memoria *Memoria, tamanio int) *tcb.TCBHilo {
	t.Helper()

	base, ok := memoria.AsignarPila(tamanio)
	if !ok {
		t.Fatal("sin memoria para la pila del hilo de prueba")
	}

	hilo := tcb.NuevoTCBHilo(memoria)
	hilo.SetBasePila(base, tamanio)
	hilo.SetPunteroPila(base + contexto.Direccion(tamanio))
	return hilo
}

func TestCambiador_ViajeRedondoDeUnaSyscall(t *testing.T) {
	ass := assert.New(t)

	memoria := NuevaMemoria(1<<16, log.BuildLogger("error"))
	cambiador := NuevoCambiador[*tcb.TCBHilo](memoria, log.BuildLogger("error"))

	hilo := hiloConPila(t, memoria, 4096)
	fondo := hilo.PunteroPila()

	var retornoVisto int32
	cambiador.PrepararArranque(hilo, func(u *Usuario) {
		retornoVisto = u.EnviarEvento(5)
		u.trapFinal(TrapTerminarHilo)
	})

	// Primera entrada: el programa trapea con enviar-evento
	identificador := cambiador.Cambiar(hilo, hilo)
	ass.Equal(TrapEnviarEvento, identificador)
	ass.Same(hilo, cambiador.EnEjecucion())

	// El contexto quedó en el tope de la pila, con el argumento inlineado
	ass.Equal(fondo-TamanioContexto, hilo.PunteroPila())
	ctx := hilo.ContextoActual()
	ass.Equal(TrapEnviarEvento, ctx.IdentificadorSyscall())
	ass.Equal(5, tcb.ArgumentoSyscall[int](hilo))

	// El kernel responde y reanuda
	ctx.SetRetornoKernel(-7)
	identificador = cambiador.Cambiar(hilo, hilo)

	// La tarea vio el retorno de kernel y desapiló antes de su último trap
	ass.Equal(TrapTerminarHilo, identificador)
	ass.Equal(int32(-7), retornoVisto)
	ass.Equal(fondo-TamanioContexto, hilo.PunteroPila())
}

func TestConstructorEvento_MarcoDelTrampolin(t *testing.T) {
	ass := assert.New(t)

	memoria := NuevaMemoria(1<<16, log.BuildLogger("error"))
	cambiador := NuevoCambiador[*tcb.TCBEvento[Programa]](memoria, log.BuildLogger("error"))

	base, _ := memoria.AsignarPila(4096)
	celda := &contexto.CeldaPila{}
	celda.Guardar(base + 4096)

	ociosa := tcb.NuevoTCBEvento[Programa](celda, memoria)
	manejadora := tcb.NuevoTCBEvento[Programa](celda, memoria)

	corrio := false
	manejadora.SetManejador(func(u *Usuario) { corrio = true })

	constructor := &ConstructorEvento[*tcb.TCBEvento[Programa]]{Cambiador: cambiador}

	spAntes := celda.Cargar()
	constructor.Construir(ociosa, manejadora)

	// El marco fresco del trampolín rebasó la pila compartida
	ass.Equal(spAntes-TamanioContexto, celda.Cargar())

	// Reanudar a la manejadora ejecuta el manejador y vuelve con el retorno
	identificador := cambiador.Cambiar(ociosa, manejadora)
	ass.Equal(TrapRetornoManejador, identificador)
	ass.True(corrio)

	// El trampolín llevó el puntero capturado antes de arrancar
	ass.Equal(spAntes, tcb.ArgumentoSyscall[contexto.Direccion](manejadora))
}

func TestConstructorEvento_SinManejadorEsFatal(t *testing.T) {
	memoria := NuevaMemoria(1<<16, log.BuildLogger("error"))
	cambiador := NuevoCambiador[*tcb.TCBEvento[Programa]](memoria, log.BuildLogger("error"))

	base, _ := memoria.AsignarPila(4096)
	celda := &contexto.CeldaPila{}
	celda.Guardar(base + 4096)

	ociosa := tcb.NuevoTCBEvento[Programa](celda, memoria)
	vacia := tcb.NuevoTCBEvento[Programa](celda, memoria)

	constructor := &ConstructorEvento[*tcb.TCBEvento[Programa]]{Cambiador: cambiador}

	assert.Panics(t, func() {
		constructor.Construir(ociosa, vacia)
	})
}

func TestConstructorContextoInicial_RetornoImplicito(t *testing.T) {
	ass := assert.New(t)

	memoria := NuevaMemoria(1<<16, log.BuildLogger("error"))
	cambiador := NuevoCambiador[*tcb.TCBHilo](memoria, log.BuildLogger("error"))

	hilo := hiloConPila(t, memoria, 4096)

	constructor := &ConstructorContextoInicial[*tcb.TCBHilo]{Cambiador: cambiador}
	constructor.ConstruirInicial(hilo, Programa(func(u *Usuario) {
		// El programa retorna sin pedir nada
	}))

	identificador := cambiador.Cambiar(hilo, hilo)
	ass.Equal(TrapTerminarHilo, identificador)
}

func TestConstructorContextoInicial_PuntoDeEntradaInvalido(t *testing.T) {
	memoria := NuevaMemoria(1<<16, log.BuildLogger("error"))
	cambiador := NuevoCambiador[*tcb.TCBHilo](memoria, log.BuildLogger("error"))

	hilo := hiloConPila(t, memoria, 4096)
	constructor := &ConstructorContextoInicial[*tcb.TCBHilo]{Cambiador: cambiador}

	assert.Panics(t, func() {
		constructor.ConstruirInicial(hilo, "no soy un programa")
	})
}

func TestUsuario_TerminarHiloExplicito(t *testing.T) {
	ass := assert.New(t)

	memoria := NuevaMemoria(1<<16, log.BuildLogger("error"))
	cambiador := NuevoCambiador[*tcb.TCBHilo](memoria, log.BuildLogger("error"))

	hilo := hiloConPila(t, memoria, 4096)

	constructor := &ConstructorContextoInicial[*tcb.TCBHilo]{Cambiador: cambiador}
	constructor.ConstruirInicial(hilo, Programa(func(u *Usuario) {
		u.TerminarHilo()
		t.Error("TerminarHilo retornó") // no debe ejecutarse
	}))

	// Un solo trap de terminar-hilo, aunque el retorno implícito exista
	identificador := cambiador.Cambiar(hilo, hilo)
	ass.Equal(TrapTerminarHilo, identificador)
}
