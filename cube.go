// This is free and unencumbered software released into the public domain.
//
// Anyone is free to copy, modify, publish, use, compile, sell, or
// distribute this software, either in source code form or as a compiled
// binary, for any purpose, commercial or non-commercial, and by any
// means.
//
// In jurisdictions that recognize copyright laws, the author or authors
// of this software dedicate any and all copyright interest in the
// software to the public domain. We make this dedication for the benefit
// of the public at large and to the detriment of our heirs and
// successors. We intend this dedication to be an overt act of
// relinquishment in perpetuity of all present and future rights to this
// software under copyright law.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// For more information, please refer to <https://unlicense.org>

package dendro

import "errors"

var (
	ErrInvalidDimensionality = errors.New("input must be 2- or 3-dimensional")
	ErrShapeMismatch         = errors.New("value count does not match the given shape")
)

// Cube is a rectilinear grid of flux samples in row-major (z, y, x)
// order. A 2-dimensional input is held as a single z-plane; the
// original rank is kept so maps can be surfaced in the input shape.
type Cube struct {
	values     []float64
	nz, ny, nx int
	ndim       int
}

// NewCube wraps a flat row-major value slice with a 2D (ny, nx) or
// 3D (nz, ny, nx) shape.
func NewCube(values []float64, shape ...int) (*Cube, error) {
	c := &Cube{values: values}
	switch len(shape) {
	case 2:
		c.ndim, c.nz, c.ny, c.nx = 2, 1, shape[0], shape[1]
	case 3:
		c.ndim, c.nz, c.ny, c.nx = 3, shape[0], shape[1], shape[2]
	default:
		return nil, ErrInvalidDimensionality
	}
	if c.nz <= 0 || c.ny <= 0 || c.nx <= 0 {
		return nil, ErrInvalidDimensionality
	}
	if len(values) != c.nz*c.ny*c.nx {
		return nil, ErrShapeMismatch
	}
	return c, nil
}

// NewCube2D copies a [y][x] grid into a cube.
func NewCube2D(rows [][]float64) (*Cube, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrInvalidDimensionality
	}
	nx := len(rows[0])
	values := make([]float64, 0, len(rows)*nx)
	for _, row := range rows {
		if len(row) != nx {
			return nil, ErrShapeMismatch
		}
		values = append(values, row...)
	}
	return NewCube(values, len(rows), nx)
}

// NewCube3D copies a [z][y][x] grid into a cube.
func NewCube3D(planes [][][]float64) (*Cube, error) {
	if len(planes) == 0 || len(planes[0]) == 0 || len(planes[0][0]) == 0 {
		return nil, ErrInvalidDimensionality
	}
	ny, nx := len(planes[0]), len(planes[0][0])
	values := make([]float64, 0, len(planes)*ny*nx)
	for _, plane := range planes {
		if len(plane) != ny {
			return nil, ErrShapeMismatch
		}
		for _, row := range plane {
			if len(row) != nx {
				return nil, ErrShapeMismatch
			}
			values = append(values, row...)
		}
	}
	return NewCube(values, len(planes), ny, nx)
}

func (c *Cube) NDim() int { return c.ndim }

// Shape returns the cube extents in the original dimensionality:
// (ny, nx) for 2D input, (nz, ny, nx) for 3D.
func (c *Cube) Shape() []int {
	if c.ndim == 2 {
		return []int{c.ny, c.nx}
	}
	return []int{c.nz, c.ny, c.nx}
}

func (c *Cube) Size() int { return len(c.values) }

// Values exposes the backing slice; callers must not mutate it.
func (c *Cube) Values() []float64 { return c.values }

func (c *Cube) At(z, y, x int) float64 {
	return c.values[(z*c.ny+y)*c.nx+x]
}

func (c *Cube) lin(z, y, x int) int {
	return (z*c.ny+y)*c.nx + x
}

func (c *Cube) coord(lin int) (z, y, x int) {
	x = lin % c.nx
	lin /= c.nx
	y = lin % c.ny
	z = lin / c.ny
	return z, y, x
}
