package rag

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/utils/safe"
)

const (
	vectorsFileName = "vectors.bin"
	chunksFileName  = "chunks.jsonl"
)

// Index is an in-memory inner-product index over normalized embedding
// vectors. vectors[i] always corresponds to chunks[i]; the two slices are
// persisted and loaded together to keep that invariant.
type Index struct {
	dim     int
	vectors [][]float32
	chunks  []model.Chunk
}

// NewIndex creates an empty index for vectors of the given dimension
func NewIndex(dim int) *Index {
	return &Index{dim: dim}
}

// Len returns the number of indexed chunks
func (x *Index) Len() int {
	return len(x.chunks)
}

// Dimension returns the vector dimension of the index
func (x *Index) Dimension() int {
	return x.dim
}

// Add appends a chunk and its embedding to the index. The vector is
// normalized to unit length, so Search scores are cosine similarities.
func (x *Index) Add(chunk model.Chunk, vector []float32) error {
	if len(vector) != x.dim {
		return goerr.New("embedding dimension mismatch",
			goerr.V("expected", x.dim),
			goerr.V("actual", len(vector)),
			goerr.V("doc_id", chunk.DocID),
		)
	}

	x.vectors = append(x.vectors, normalizeVector(vector))
	x.chunks = append(x.chunks, chunk)
	return nil
}

// ScoredChunk is one search result: a chunk and its similarity score
type ScoredChunk struct {
	Score float64     `json:"score"`
	Chunk model.Chunk `json:"chunk"`
}

// Search returns the top k chunks by inner product with the query vector,
// highest score first. Ties keep insertion order. Asking for more results
// than the index holds returns everything.
func (x *Index) Search(query []float32, k int) ([]ScoredChunk, error) {
	if len(query) != x.dim {
		return nil, goerr.New("query dimension mismatch",
			goerr.V("expected", x.dim),
			goerr.V("actual", len(query)),
		)
	}
	if k <= 0 || x.Len() == 0 {
		return nil, nil
	}

	q := normalizeVector(query)
	results := make([]ScoredChunk, 0, x.Len())
	for i, vec := range x.vectors {
		results = append(results, ScoredChunk{
			Score: dotProduct(q, vec),
			Chunk: x.chunks[i],
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Save writes the index to dir as two artifacts: vectors.bin holds the
// raw vectors, chunks.jsonl holds one chunk record per line. Record i of
// each file describes the same chunk.
func (x *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return goerr.Wrap(err, "failed to create index directory", goerr.V("dir", dir))
	}

	if err := x.saveVectors(filepath.Join(dir, vectorsFileName)); err != nil {
		return err
	}
	return x.saveChunks(filepath.Join(dir, chunksFileName))
}

func (x *Index) saveVectors(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create vectors file", goerr.V("path", path))
	}
	defer safe.Close(context.Background(), f)

	w := bufio.NewWriter(f)
	header := []uint32{uint32(x.dim), uint32(len(x.vectors))}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return goerr.Wrap(err, "failed to write vectors header")
	}
	for _, vec := range x.vectors {
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			return goerr.Wrap(err, "failed to write vector")
		}
	}
	if err := w.Flush(); err != nil {
		return goerr.Wrap(err, "failed to flush vectors file")
	}
	return nil
}

func (x *Index) saveChunks(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create chunks file", goerr.V("path", path))
	}
	defer safe.Close(context.Background(), f)

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, chunk := range x.chunks {
		if err := enc.Encode(chunk); err != nil {
			return goerr.Wrap(err, "failed to encode chunk",
				goerr.V("doc_id", chunk.DocID),
				goerr.V("chunk_index", chunk.Index),
			)
		}
	}
	if err := w.Flush(); err != nil {
		return goerr.Wrap(err, "failed to flush chunks file")
	}
	return nil
}

// LoadIndex reads an index saved by Save. The vector count and the chunk
// count must agree; a mismatch means the artifact pair is corrupt.
func LoadIndex(dir string) (*Index, error) {
	vectors, dim, err := loadVectors(filepath.Join(dir, vectorsFileName))
	if err != nil {
		return nil, err
	}

	chunks, err := loadChunks(filepath.Join(dir, chunksFileName))
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(chunks) {
		return nil, goerr.New("index artifacts out of sync",
			goerr.V("vectors", len(vectors)),
			goerr.V("chunks", len(chunks)),
			goerr.V("dir", dir),
		)
	}

	return &Index{dim: dim, vectors: vectors, chunks: chunks}, nil
}

func loadVectors(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to open vectors file", goerr.V("path", path))
	}
	defer safe.Close(context.Background(), f)

	r := bufio.NewReader(f)
	var header [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, 0, goerr.Wrap(err, "failed to read vectors header", goerr.V("path", path))
	}

	dim, count := int(header[0]), int(header[1])
	if dim <= 0 {
		return nil, 0, goerr.New("invalid vector dimension", goerr.V("dim", dim), goerr.V("path", path))
	}

	vectors := make([][]float32, 0, count)
	for i := 0; i < count; i++ {
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, 0, goerr.Wrap(err, "failed to read vector", goerr.V("position", i))
		}
		vectors = append(vectors, vec)
	}
	return vectors, dim, nil
}

func loadChunks(path string) ([]model.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open chunks file", goerr.V("path", path))
	}
	defer safe.Close(context.Background(), f)

	var chunks []model.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk model.Chunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return nil, goerr.Wrap(err, "failed to decode chunk record", goerr.V("position", len(chunks)))
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read chunks file", goerr.V("path", path))
	}
	return chunks, nil
}

func normalizeVector(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}

	norm := math.Sqrt(sum)
	normalized := make([]float32, len(vec))
	if norm == 0 {
		return normalized
	}
	for i, v := range vec {
		normalized[i] = float32(float64(v) / norm)
	}
	return normalized
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
