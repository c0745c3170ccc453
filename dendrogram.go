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

// Package dendro computes dendrograms: hierarchical trees of nested
// local maxima over 2D and 3D flux cubes. A single descending-flux
// scan grows a forest of leaves and merges them into branches at the
// saddles where their iso-contours first connect, subject to three
// significance thresholds.
package dendro

import (
	"errors"
	"math"

	"github.com/bits-and-blooms/bitset"
)

// ErrInvalidThreshold is returned by Build when MinNpix or MinDelta is
// negative, or MinFlux is NaN.
var ErrInvalidThreshold = errors.New("invalid significance threshold")

// Options are the three significance thresholds of the construction.
//
//   - MinFlux: only voxels with flux strictly above it take part.
//   - MinNpix: a leaf smaller than this cannot survive a merge and is
//     pruned if it stays a root.
//   - MinDelta: minimum prominence of a leaf's peak over the saddle it
//     merges at (and over its own minimum, for surviving roots).
type Options struct {
	MinFlux  float64
	MinNpix  int
	MinDelta float64
}

// DefaultOptions keeps every voxel except NaN samples and prunes
// nothing.
func DefaultOptions() Options {
	return Options{MinFlux: math.Inf(-1)}
}

func (o Options) validate() error {
	if o.MinNpix < 0 || o.MinDelta < 0 || math.IsNaN(o.MinFlux) {
		return ErrInvalidThreshold
	}
	return nil
}

// Dendrogram is the finished artefact of a Build: the surviving roots,
// the item table, and the index and type maps stamped over the cube.
// It is immutable; none of the accessors may be used to modify it.
type Dendrogram struct {
	cube     *Cube
	trunk    []Item
	items    map[int32]Item
	indexMap []int32
	typeMap  []uint8
	live     *bitset.BitSet
}

// Build computes the dendrogram of a cube. An input where no voxel
// exceeds MinFlux yields an empty dendrogram, not an error.
func Build(c *Cube, opts Options) (*Dendrogram, error) {
	if c == nil {
		return nil, ErrInvalidDimensionality
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	b := newBuilder(c, opts)
	b.run()
	b.prune()
	return b.assemble(), nil
}

// Cube returns the input data.
func (d *Dendrogram) Cube() *Cube { return d.cube }

// NDim reports the dimensionality of the original input.
func (d *Dendrogram) NDim() int { return d.cube.ndim }

// Shape returns the map extents in the original dimensionality.
func (d *Dendrogram) Shape() []int { return d.cube.Shape() }

// Trunk returns the surviving root items in ascending id order.
func (d *Dendrogram) Trunk() []Item { return d.trunk }

// Item looks up a surviving item by id.
func (d *Dendrogram) Item(id int32) (Item, bool) {
	it, ok := d.items[id]
	return it, ok
}

// Contains reports whether id names a surviving item. Index map
// entries whose id is not contained are background: the footprint of
// a leaf pruned after construction.
func (d *Dendrogram) Contains(id int32) bool {
	return id > 0 && d.live.Test(uint(id))
}

// Len returns the number of surviving items.
func (d *Dendrogram) Len() int { return len(d.items) }

// Leaves collects every leaf of the tree, walking the trunk in order.
func (d *Dendrogram) Leaves() []*Leaf {
	var leaves []*Leaf
	for _, it := range d.trunk {
		leaves = append(leaves, it.Leaves()...)
	}
	return leaves
}

// Branches collects every branch of the tree, walking the trunk in
// order, parents before children.
func (d *Dendrogram) Branches() []*Branch {
	var branches []*Branch
	var walk func(Item)
	walk = func(it Item) {
		if br, ok := it.(*Branch); ok {
			branches = append(branches, br)
			for _, c := range br.children {
				walk(c)
			}
		}
	}
	for _, it := range d.trunk {
		walk(it)
	}
	return branches
}

// IndexMap returns the per-voxel item ids in row-major order over the
// original shape. Ids of pruned leaves are left in place; check them
// with Contains before use.
func (d *Dendrogram) IndexMap() []int32 { return d.indexMap }

// ItemTypeMap returns a row-major map over the original shape holding
// LeafType for voxels directly owned by a leaf, BranchType for voxels
// directly owned by a branch and BackgroundType elsewhere.
func (d *Dendrogram) ItemTypeMap() []uint8 { return d.typeMap }

func (d *Dendrogram) stampType(voxels []Voxel, t uint8) {
	for _, v := range voxels {
		d.typeMap[d.cube.lin(v.Z, v.Y, v.X)] = t
	}
}
