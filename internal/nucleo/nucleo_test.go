package nucleo

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sisoputnfrba/tp-golang/ejecucion/internal/maquina"
	"github.com/sisoputnfrba/tp-golang/ejecucion/utils/log"
)

// traza acumula marcas desde los manejadores (corren en goroutines de la
// máquina simulada).
type traza struct {
	mu     sync.Mutex
	marcas []string
}

func (t *traza) marcar(marca string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marcas = append(t.marcas, marca)
}

func (t *traza) ver() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.marcas...)
}

func nucleoDePrueba(t *testing.T, algoritmo string) *Nucleo {
	t.Helper()

	n, err := Nuevo(Config{
		Algoritmo:             algoritmo,
		TamanioMemoria:        1 << 16,
		TamanioPilaCompartida: 4096,
		CantidadEventos:       4,
	}, log.BuildLogger("error"))
	if err != nil {
		t.Fatalf("no se pudo armar el núcleo: %v", err)
	}
	return n
}

func esperarPilaEnReposo(t *testing.T, n *Nucleo) {
	t.Helper()

	fondo := uint32(n.FondoPilaCompartida())
	assert.Eventually(t, func() bool {
		return n.Estado().PunteroPilaCompartida == fondo
	}, 2*time.Second, time.Millisecond, "la pila compartida no volvió a su tope inicial")
}

func TestNucleo_ViajeRedondoDeUnEvento(t *testing.T) {
	ass := assert.New(t)

	n := nucleoDePrueba(t, AlgoritmoPrioridades)
	marcas := &traza{}

	err := n.RegistrarManejador(0, 1, func(u *maquina.Usuario) {
		marcas.marcar("h0")
	})
	ass.NoError(err)

	n.Iniciar()
	ass.NoError(n.EnviarEvento(0))

	esperarPilaEnReposo(t, n)
	ass.Equal([]string{"h0"}, marcas.ver())

	estado := n.Estado()
	ass.Equal([]int{0}, estado.EventosRegistrados)
	ass.Greater(estado.CambiosDeContexto, uint64(0))
}

func TestNucleo_ExpropiacionAnidada(t *testing.T) {
	ass := assert.New(t)

	n := nucleoDePrueba(t, AlgoritmoPrioridades)
	marcas := &traza{}

	ass.NoError(n.RegistrarManejador(1, 2, func(u *maquina.Usuario) {
		marcas.marcar("h1")
	}))
	ass.NoError(n.RegistrarManejador(0, 1, func(u *maquina.Usuario) {
		marcas.marcar("h0:antes")
		u.EnviarEvento(1) // mayor prioridad: expropia a h0
		marcas.marcar("h0:despues")
	}))

	n.Iniciar()
	ass.NoError(n.EnviarEvento(0))

	esperarPilaEnReposo(t, n)

	// h1 corrió en el medio de h0 y la pila quedó como al principio
	ass.Equal([]string{"h0:antes", "h1", "h0:despues"}, marcas.ver())
}

func TestNucleo_CooperativoCorreATermino(t *testing.T) {
	ass := assert.New(t)

	n := nucleoDePrueba(t, AlgoritmoFIFO)
	marcas := &traza{}

	ass.NoError(n.RegistrarManejador(1, 2, func(u *maquina.Usuario) {
		marcas.marcar("h1")
	}))
	ass.NoError(n.RegistrarManejador(0, 1, func(u *maquina.Usuario) {
		marcas.marcar("h0:antes")
		u.EnviarEvento(1) // cooperativo: h1 espera a que h0 termine
		marcas.marcar("h0:despues")
	}))

	n.Iniciar()
	ass.NoError(n.EnviarEvento(0))

	esperarPilaEnReposo(t, n)
	ass.Equal([]string{"h0:antes", "h0:despues", "h1"}, marcas.ver())
}

func TestNucleo_PendientesDeMenorPrioridadSeDrenan(t *testing.T) {
	ass := assert.New(t)

	n := nucleoDePrueba(t, AlgoritmoPrioridades)
	marcas := &traza{}

	ass.NoError(n.RegistrarManejador(1, 1, func(u *maquina.Usuario) {
		marcas.marcar("baja")
	}))
	ass.NoError(n.RegistrarManejador(2, 2, func(u *maquina.Usuario) {
		marcas.marcar("media")
	}))
	ass.NoError(n.RegistrarManejador(0, 3, func(u *maquina.Usuario) {
		marcas.marcar("alta")
		// Menor prioridad que la que corre: quedan pendientes
		u.EnviarEvento(1)
		u.EnviarEvento(2)
	}))

	n.Iniciar()
	ass.NoError(n.EnviarEvento(0))

	esperarPilaEnReposo(t, n)

	// La ociosa drenó los pendientes de mayor prioridad primero
	ass.Equal([]string{"alta", "media", "baja"}, marcas.ver())
}

func TestNucleo_EventosInvalidos(t *testing.T) {
	ass := assert.New(t)

	n := nucleoDePrueba(t, AlgoritmoPrioridades)

	// Fuera de rango
	ass.Error(n.EnviarEvento(99))

	// Sin manejador registrado
	ass.Error(n.EnviarEvento(0))

	// Registro inválido
	ass.Error(n.RegistrarManejador(99, 1, func(u *maquina.Usuario) {}))
	ass.Error(n.RegistrarManejador(0, 1, nil))
}

func TestNucleoHilos_CreacionCesionYBaja(t *testing.T) {
	ass := assert.New(t)

	n, err := NuevoHilos(ConfigHilos{
		TamanioMemoria:    1 << 16,
		TamanioPilaOciosa: 1024,
		CapacidadTCBs:     4,
	}, log.BuildLogger("error"))
	ass.NoError(err)

	marcas := &traza{}

	programaHijo := maquina.Programa(func(u *maquina.Usuario) {
		marcas.marcar("t2")
	})

	tid, err := n.CrearHiloInicial(func(u *maquina.Usuario) {
		marcas.marcar("t1:inicio")
		u.CrearHilo(2048, uint32(7), uint32(1), programaHijo)
		marcas.marcar("t1:fin")
	}, 1024, 1)
	ass.NoError(err)
	ass.Equal(uint32(1), tid)

	// El hilo inicial consumió un TCB del pool y su pila quedó asignada
	ass.Equal(3, n.Pool.Disponibles())
	ass.Equal(2, n.Memoria.PilasEnUso()) // ociosa + t1

	// Paso a paso: la ociosa cede, t1 corre y crea a t2, ambos terminan
	for i := 0; i < 5; i++ {
		n.Ciclo()
	}

	ass.Equal([]string{"t1:inicio", "t1:fin", "t2"}, marcas.ver())

	// Las pilas recicladas volvieron a la memoria y los TCBs al pool
	ass.Equal(4, n.Pool.Disponibles())
	ass.Equal(1, n.Memoria.PilasEnUso()) // solo la ociosa
	ass.Equal(uint64(3), n.CambiosDeContexto())
}

func TestNucleoHilos_SinTCBs(t *testing.T) {
	ass := assert.New(t)

	n, err := NuevoHilos(ConfigHilos{
		TamanioMemoria:    1 << 16,
		TamanioPilaOciosa: 1024,
		CapacidadTCBs:     0,
	}, log.BuildLogger("error"))
	ass.NoError(err)

	_, err = n.CrearHiloInicial(func(u *maquina.Usuario) {}, 1024, 1)
	ass.Error(err)
}
