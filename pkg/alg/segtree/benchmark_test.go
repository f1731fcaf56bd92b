package segtree

import (
	"testing"
)

// Benchmark constants.
const (
	benchSize   = 1 << 16
	benchStride = 7919
	benchWidth  = 4096
)

func benchTree() *Tree[int64, int64] {
	seq := make([]int64, benchSize)
	for i := range seq {
		seq[i] = int64(i % benchStride)
	}

	return New(seq, Sum[int64]())
}

// BenchmarkNew benchmarks building a tree.
func BenchmarkNew(b *testing.B) {
	seq := make([]int64, benchSize)

	b.ResetTimer()

	for range b.N {
		New(seq, Sum[int64]())
	}
}

// BenchmarkAssign benchmarks range writes at shifting offsets.
func BenchmarkAssign(b *testing.B) {
	tree := benchTree()

	b.ResetTimer()

	for i := range b.N {
		lo := (i * benchStride) % (benchSize - benchWidth)

		_ = tree.Assign(lo, lo+benchWidth, int64(i))
	}
}

// BenchmarkQuery benchmarks range reads interleaved with writes.
func BenchmarkQuery(b *testing.B) {
	tree := benchTree()

	b.ResetTimer()

	for i := range b.N {
		lo := (i * benchStride) % (benchSize - benchWidth)

		if i%2 == 0 {
			_ = tree.Assign(lo, lo+benchWidth/2, int64(i))
		}

		_, _ = tree.Query(lo/2, lo+benchWidth)
	}
}
