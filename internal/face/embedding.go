package face

import (
	"errors"
	"math"

	pgvector "github.com/pgvector/pgvector-go"
)

// Dimension es el largo del vector que produce el modelo facial.
// Debe coincidir exactamente con los embeddings ya almacenados.
const Dimension = 128

// MatchThreshold clasifica una distancia euclidiana como coincidencia.
const MatchThreshold = 0.55

var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrNoFace            = errors.New("no face detected")
)

// Embedding es un vector facial de largo fijo.
type Embedding []float32

// NewEmbedding valida el largo del vector de entrada.
func NewEmbedding(values []float32) (Embedding, error) {
	if len(values) != Dimension {
		return nil, ErrDimensionMismatch
	}
	out := make(Embedding, Dimension)
	copy(out, values)
	return out, nil
}

// FromVector convierte un vector pgvector almacenado en un Embedding.
func FromVector(v pgvector.Vector) (Embedding, error) {
	return NewEmbedding(v.Slice())
}

// Vector convierte el embedding al tipo de columna de pgvector.
func (e Embedding) Vector() pgvector.Vector {
	return pgvector.NewVector([]float32(e))
}

// Distance calcula la distancia euclidiana entre dos embeddings.
func Distance(a, b Embedding) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrDimensionMismatch
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
