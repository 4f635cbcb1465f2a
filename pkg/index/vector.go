package index

import (
	"encoding/binary"
	"math"
	"sort"
)

// serializeVector converts a float32 slice to little-endian bytes.
func serializeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func deserializeVector(data []byte) []float32 {
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}

// cosineSimilarity returns 0 for vectors of different length or zero norm.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// topHits sorts hits by descending score, keeping insertion order among
// equal scores, and truncates to limit. limit <= 0 keeps all hits.
func topHits(hits []Hit, limit int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}

func searchRecords(records []record, query []float32, limit int) []Hit {
	hits := make([]Hit, 0, len(records))
	for _, r := range records {
		hits = append(hits, Hit{ID: r.ID, Score: cosineSimilarity(query, r.Vector), Text: r.Text})
	}
	return topHits(hits, limit)
}
