package knowledge

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Embeddings are stored as a JSON float array in a text column.

func encodeEmbedding(v []float64) (string, error) {
	if len(v) == 0 {
		return "", fmt.Errorf("empty embedding")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseEmbedding(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty embedding string")
	}
	var arr []float64
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil, err
	}
	// remove NaNs/Infs
	for _, v := range arr {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid embedding value")
		}
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("empty embedding array")
	}
	return arr, nil
}

func cosineSimilarity(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}
	// só computa até o menor tamanho
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
