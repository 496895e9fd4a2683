package transpose

import (
	"fmt"
	"math"
)

// InPlace transposes buf, a row-major rows x cols matrix of size-byte
// elements, into a row-major cols x rows matrix without a second buffer.
//
// Each element i is moved along its permutation cycle i -> rows*i mod (n-1),
// where n = rows*cols; indexes 0 and n-1 never move. Calling InPlace again
// with rows and cols swapped restores the original layout.
func InPlace(buf []byte, rows, cols, size int) error {
	if rows < 0 || cols < 0 || size <= 0 {
		return fmt.Errorf("transpose: invalid shape %dx%d of %d-byte elements", rows, cols, size)
	}
	if cols != 0 && rows > math.MaxInt/cols {
		return fmt.Errorf("transpose: %dx%d overflows", rows, cols)
	}
	n := rows * cols
	if n != 0 && size > math.MaxInt/n {
		return fmt.Errorf("transpose: %dx%dx%d overflows", rows, cols, size)
	}
	if len(buf) != n*size {
		return fmt.Errorf("transpose: buffer is %d bytes, %dx%dx%d needs %d", len(buf), rows, cols, size, n*size)
	}
	if rows <= 1 || cols <= 1 {
		return nil
	}
	if rows > math.MaxInt/n {
		return fmt.Errorf("transpose: %dx%d overflows the cycle index", rows, cols)
	}

	last := n - 1
	visited := newBitSet(n)
	hold := make([]byte, size)
	swap := make([]byte, size)

	for start := 1; start < last; start++ {
		if visited.has(start) {
			continue
		}
		copy(hold, chunk(buf, start, size))
		i := start
		for {
			next := (i * rows) % last
			dst := chunk(buf, next, size)
			copy(swap, dst)
			copy(dst, hold)
			copy(hold, swap)
			visited.set(next)
			i = next
			if i == start {
				break
			}
		}
	}
	return nil
}

func chunk(buf []byte, i, size int) []byte {
	return buf[i*size : (i+1)*size]
}
