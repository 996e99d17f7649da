package face

import (
	"context"
	"errors"
	"sync"
	"time"
)

// PollInterval es la cadencia del lazo de deteccion mientras la camara
// esta activa.
const PollInterval = 500 * time.Millisecond

var ErrNoCandidate = errors.New("no candidate frame captured")

// Frame es el resultado de un tick de deteccion: el embedding calculado
// y la imagen fija del cuadro (sin el espejado de la vista previa).
type Frame struct {
	Embedding Embedding
	Image     []byte
}

// FrameSource abstrae la camara mas el detector facial. Detect devuelve
// ErrNoFace cuando no hay un rostro unico en el cuadro; Close libera los
// tracks de la camara y debe poder llamarse una sola vez.
type FrameSource interface {
	Detect(ctx context.Context) (Frame, error)
	Close() error
}

// CaptureLoop es el lazo de registro: cada tick guarda el ultimo frame con
// rostro como candidato, sobreescribiendolo hasta que Capture lo congela.
// El source se libera en todas las salidas (captura, error o cancelacion).
type CaptureLoop struct {
	source   FrameSource
	interval time.Duration

	mu        sync.Mutex
	candidate *Frame
	captured  *Frame

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCaptureLoop crea el lazo de registro sobre una fuente de frames.
func NewCaptureLoop(source FrameSource, interval time.Duration) *CaptureLoop {
	if interval <= 0 {
		interval = PollInterval
	}
	return &CaptureLoop{
		source:   source,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Run ejecuta el lazo hasta que Capture lo detiene o el contexto se
// cancela. Los ticks sin rostro se reintentan en silencio.
func (l *CaptureLoop) Run(ctx context.Context) error {
	defer l.source.Close()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case <-ticker.C:
			frame, err := l.source.Detect(ctx)
			if err != nil {
				if errors.Is(err, ErrNoFace) {
					l.setCandidate(nil)
					continue
				}
				return err
			}
			l.setCandidate(&frame)
		}
	}
}

// Capture congela el ultimo candidato como referencia y detiene el lazo.
// Es el punto sin retorno del registro: el frame puede descartarse y
// recapturarse con un lazo nuevo, pero no modificarse parcialmente.
func (l *CaptureLoop) Capture() (Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.captured != nil {
		return *l.captured, nil
	}
	if l.candidate == nil {
		return Frame{}, ErrNoCandidate
	}
	l.captured = l.candidate
	l.stopOnce.Do(func() { close(l.stop) })
	return *l.captured, nil
}

func (l *CaptureLoop) setCandidate(f *Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.captured != nil {
		return
	}
	l.candidate = f
}

// RunVerification ejecuta el lazo de verificacion: cada tick alimenta el
// matcher y el lazo termina en la primera coincidencia. Devuelve la
// distancia del frame ganador. La fuente se libera en todas las salidas.
func RunVerification(ctx context.Context, source FrameSource, m *Matcher, interval time.Duration) (float64, error) {
	defer source.Close()

	if interval <= 0 {
		interval = PollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
			frame, err := source.Detect(ctx)
			if err != nil {
				if errors.Is(err, ErrNoFace) {
					continue
				}
				return 0, err
			}
			matched, dist, err := m.Observe(frame.Embedding)
			if err != nil {
				return 0, err
			}
			if matched {
				return dist, nil
			}
		}
	}
}
