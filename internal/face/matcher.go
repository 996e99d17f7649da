package face

import "sync"

// Matcher compara embeddings en vivo contra una referencia almacenada.
// El primer frame con distancia bajo el umbral gana: despues del exito el
// resultado queda fijo y los frames siguientes no se reevaluan.
type Matcher struct {
	mu        sync.Mutex
	reference Embedding
	threshold float64
	matched   bool
}

// NewMatcher crea un matcher sobre la referencia aprobada.
func NewMatcher(reference Embedding, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = MatchThreshold
	}
	ref := make(Embedding, len(reference))
	copy(ref, reference)
	return &Matcher{reference: ref, threshold: threshold}
}

// Observe evalua un embedding en vivo. Devuelve si hay coincidencia y la
// distancia calculada. Tras la primera coincidencia siempre devuelve
// matched=true sin recalcular el estado.
func (m *Matcher) Observe(live Embedding) (bool, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dist, err := Distance(live, m.reference)
	if err != nil {
		return m.matched, 0, err
	}
	if m.matched {
		return true, dist, nil
	}
	if dist < m.threshold {
		m.matched = true
	}
	return m.matched, dist, nil
}

// Matched indica si el matcher ya quedo fijado en exito.
func (m *Matcher) Matched() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matched
}
