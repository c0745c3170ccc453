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

// VoxelIndex maps each voxel of a cube to the id of the item that owns
// it, 0 meaning unassigned. The grid is padded by one cell on every
// side and coordinates are biased by +1 into the padded layout, so
// neighbour reads at z, y or x equal to -1 or N land on a sentinel
// cell that stays 0 forever. This removes all bounds checks from the
// 6-neighbour queries in the scan loop.
type VoxelIndex struct {
	ids        []int32
	nz, ny, nx int
}

func newVoxelIndex(nz, ny, nx int) *VoxelIndex {
	return &VoxelIndex{
		ids: make([]int32, (nz+2)*(ny+2)*(nx+2)),
		nz:  nz,
		ny:  ny,
		nx:  nx,
	}
}

func (ix *VoxelIndex) pos(z, y, x int) int {
	return ((z+1)*(ix.ny+2)+y+1)*(ix.nx+2) + x + 1
}

// Get returns the id stored at (z, y, x). Coordinates one step outside
// the cube are valid and return 0.
func (ix *VoxelIndex) Get(z, y, x int) int32 {
	return ix.ids[ix.pos(z, y, x)]
}

func (ix *VoxelIndex) Set(z, y, x int, id int32) {
	ix.ids[ix.pos(z, y, x)] = id
}

// Dense returns an unpadded row-major copy of the grid.
func (ix *VoxelIndex) Dense() []int32 {
	out := make([]int32, ix.nz*ix.ny*ix.nx)
	i := 0
	for z := 0; z < ix.nz; z++ {
		for y := 0; y < ix.ny; y++ {
			row := ix.pos(z, y, 0)
			copy(out[i:i+ix.nx], ix.ids[row:row+ix.nx])
			i += ix.nx
		}
	}
	return out
}
