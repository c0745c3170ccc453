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

// Voxel is a single cube cell owned by an item.
type Voxel struct {
	Z, Y, X int
	Flux    float64
}

// Values stamped into the item type map.
const (
	BackgroundType uint8 = 0
	BranchType     uint8 = 1
	LeafType       uint8 = 2
)

// Item is a node of the dendrogram, either a *Leaf or a *Branch. The
// first voxel of an item is its seed: the local maximum that created a
// leaf, or the merge saddle that created a branch. A branch directly
// owns only the voxels added at and below its saddle; everything above
// belongs to its children.
type Item interface {
	ID() int32
	// Npix counts the voxels of the item and, for a branch, of all
	// its descendants.
	Npix() int
	FMin() float64
	FMax() float64
	Seed() Voxel
	Children() []Item

	// Leaves collects the terminal items below this one in child
	// order. A leaf yields itself.
	Leaves() []*Leaf

	// Footprint returns the voxels of the item and all descendants.
	Footprint() []Voxel

	// AddVoxel appends one voxel to the item's own list and updates
	// the running statistics.
	AddVoxel(v Voxel)

	// Merge absorbs the voxels of other (and of its descendants,
	// should other be a branch) into the item's own list. It does not
	// touch any VoxelIndex; the caller must re-stamp other's
	// footprint afterwards.
	Merge(other Item)

	// StampFootprint rewrites the VoxelIndex cells of the item's own
	// voxels, and of descendant voxels if recursive, to id.
	StampFootprint(ix *VoxelIndex, id int32, recursive bool)

	own() []Voxel
}

// itemCore holds the bookkeeping shared by both variants.
type itemCore struct {
	id     int32
	voxels []Voxel
	npix   int
	fmin   float64
	fmax   float64
}

func (c *itemCore) ID() int32     { return c.id }
func (c *itemCore) Npix() int     { return c.npix }
func (c *itemCore) FMin() float64 { return c.fmin }
func (c *itemCore) FMax() float64 { return c.fmax }
func (c *itemCore) Seed() Voxel   { return c.voxels[0] }
func (c *itemCore) own() []Voxel  { return c.voxels }

func (c *itemCore) AddVoxel(v Voxel) {
	c.voxels = append(c.voxels, v)
	c.npix++
	if v.Flux < c.fmin {
		c.fmin = v.Flux
	}
	if v.Flux > c.fmax {
		c.fmax = v.Flux
	}
}

func (c *itemCore) Merge(other Item) {
	c.voxels = append(c.voxels, other.Footprint()...)
	c.npix += other.Npix()
	if other.FMin() < c.fmin {
		c.fmin = other.FMin()
	}
	if other.FMax() > c.fmax {
		c.fmax = other.FMax()
	}
}

type (
	// Leaf is a terminal item: a local cluster of voxels that never
	// merged with a significant sibling.
	Leaf struct {
		itemCore
	}

	// Branch is an internal item created at a merge saddle. Children
	// are ordered by ascending id and there are always at least two.
	Branch struct {
		itemCore
		children []Item
	}
)

func newLeaf(id int32, seed Voxel) *Leaf {
	return &Leaf{itemCore{
		id:     id,
		voxels: []Voxel{seed},
		npix:   1,
		fmin:   seed.Flux,
		fmax:   seed.Flux,
	}}
}

func (l *Leaf) Children() []Item { return nil }

func (l *Leaf) Leaves() []*Leaf { return []*Leaf{l} }

func (l *Leaf) Footprint() []Voxel { return l.voxels }

func (l *Leaf) StampFootprint(ix *VoxelIndex, id int32, _ bool) {
	for _, v := range l.voxels {
		ix.Set(v.Z, v.Y, v.X, id)
	}
}

// newBranch creates a branch over the given children, seeded with the
// merge voxel. Statistics start as the union of the children's.
func newBranch(id int32, children []Item, seed Voxel) *Branch {
	if len(children) < 2 {
		panic("dendro: branch needs at least two children")
	}
	b := &Branch{
		itemCore: itemCore{id: id, fmin: seed.Flux, fmax: seed.Flux},
		children: children,
	}
	for _, c := range children {
		b.npix += c.Npix()
		if c.FMin() < b.fmin {
			b.fmin = c.FMin()
		}
		if c.FMax() > b.fmax {
			b.fmax = c.FMax()
		}
	}
	b.AddVoxel(seed)
	return b
}

func (b *Branch) Children() []Item { return b.children }

func (b *Branch) Leaves() []*Leaf {
	var leaves []*Leaf
	for _, c := range b.children {
		leaves = append(leaves, c.Leaves()...)
	}
	return leaves
}

func (b *Branch) Footprint() []Voxel {
	out := make([]Voxel, 0, b.npix)
	out = append(out, b.voxels...)
	for _, c := range b.children {
		out = append(out, c.Footprint()...)
	}
	return out
}

func (b *Branch) StampFootprint(ix *VoxelIndex, id int32, recursive bool) {
	for _, v := range b.voxels {
		ix.Set(v.Z, v.Y, v.X, id)
	}
	if recursive {
		for _, c := range b.children {
			c.StampFootprint(ix, id, true)
		}
	}
}
