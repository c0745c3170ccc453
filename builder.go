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

import (
	"fmt"
	"runtime"
	"slices"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"
)

// builder owns all intermediate state of a single construction run:
// the padded index, the ancestor relation and the item table. Nothing
// escapes until assemble publishes the finished Dendrogram.
type builder struct {
	cube   *Cube
	opts   Options
	index  *VoxelIndex
	anc    ancestorSet
	items  map[int32]Item
	nextID int32

	touched *bitset.BitSet // scratch for per-voxel ancestor dedup
}

func newBuilder(c *Cube, opts Options) *builder {
	return &builder{
		cube:    c,
		opts:    opts,
		index:   newVoxelIndex(c.nz, c.ny, c.nx),
		anc:     newAncestorSet(),
		items:   make(map[int32]Item),
		touched: bitset.New(64),
	}
}

func (b *builder) newID() int32 {
	b.nextID++
	return b.nextID
}

// scanVoxel pairs a flux sample with its row-major position. The
// position doubles as the sort tie-break, so equal fluxes are always
// processed in cube order.
type scanVoxel struct {
	flux float64
	lin  int
}

// collect gathers every voxel above MinFlux and sorts the result by
// descending flux, ties broken by ascending linear index. NaN samples
// fail the > comparison and are dropped with the rest. The filter runs
// one goroutine per z-plane; planes are concatenated in order before
// the sort, so the output is independent of scheduling.
func (b *builder) collect() []scanVoxel {
	planeSize := b.cube.ny * b.cube.nx
	planes := make([][]scanVoxel, b.cube.nz)

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for z := 0; z < b.cube.nz; z++ {
		z := z
		g.Go(func() error {
			base := z * planeSize
			var keep []scanVoxel
			for i, f := range b.cube.values[base : base+planeSize] {
				if f > b.opts.MinFlux {
					keep = append(keep, scanVoxel{flux: f, lin: base + i})
				}
			}
			planes[z] = keep
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, p := range planes {
		total += len(p)
	}
	all := make([]scanVoxel, 0, total)
	for _, p := range planes {
		all = append(all, p...)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].flux != all[j].flux {
			return all[i].flux > all[j].flux
		}
		return all[i].lin < all[j].lin
	})
	return all
}

// run performs the single descending-flux scan. Every voxel either
// seeds a new leaf, extends the one item it touches, or triggers a
// merge of the items around it.
func (b *builder) run() {
	for _, sv := range b.collect() {
		z, y, x := b.cube.coord(sv.lin)
		v := Voxel{Z: z, Y: y, X: x, Flux: sv.flux}

		adjacent := b.adjacent(v)

		switch len(adjacent) {
		case 0:
			id := b.newID()
			b.items[id] = newLeaf(id, v)
			b.index.Set(z, y, x, id)
			b.anc.add(id)

		case 1:
			id := adjacent[0]
			b.items[id].AddVoxel(v)
			b.index.Set(z, y, x, id)

		default:
			b.merge(v, adjacent)
		}
	}
}

// adjacent returns the distinct live ancestor ids of the populated
// 6-neighbours of v, sorted ascending. Padding in the index makes the
// out-of-cube reads safe.
func (b *builder) adjacent(v Voxel) []int32 {
	neighbours := [6]int32{
		b.index.Get(v.Z, v.Y, v.X-1),
		b.index.Get(v.Z, v.Y, v.X+1),
		b.index.Get(v.Z, v.Y-1, v.X),
		b.index.Get(v.Z, v.Y+1, v.X),
		b.index.Get(v.Z-1, v.Y, v.X),
		b.index.Get(v.Z+1, v.Y, v.X),
	}

	var adjacent []int32
	for _, id := range neighbours {
		if id == 0 {
			continue
		}
		id = b.anc.resolve(id)
		if b.touched.Test(uint(id)) {
			continue
		}
		b.touched.Set(uint(id))
		adjacent = append(adjacent, id)
	}
	for _, id := range adjacent {
		b.touched.Clear(uint(id))
	}

	slices.Sort(adjacent)
	return adjacent
}

// merge handles a voxel touching two or more live items. Leaves that
// are too small or rise less than MinDelta above the current level are
// folded into whatever survives; two or more survivors become the
// children of a new branch seeded at v.
func (b *builder) merge(v Voxel, adjacent []int32) {
	var insignificant, significant []int32
	for _, id := range adjacent {
		if leaf, ok := b.items[id].(*Leaf); ok &&
			(leaf.Npix() < b.opts.MinNpix || leaf.FMax()-v.Flux < b.opts.MinDelta) {
			insignificant = append(insignificant, id)
		} else {
			significant = append(significant, id)
		}
	}

	switch len(significant) {
	case 0:
		// Only insignificant leaves touch v: the lowest id becomes
		// the reference and swallows the rest.
		ref := b.items[insignificant[0]]
		ref.AddVoxel(v)
		b.index.Set(v.Z, v.Y, v.X, ref.ID())
		for _, id := range insignificant[1:] {
			b.absorb(ref, id)
		}

	case 1:
		ref := b.items[significant[0]]
		ref.AddVoxel(v)
		b.index.Set(v.Z, v.Y, v.X, ref.ID())
		for _, id := range insignificant {
			b.absorb(ref, id)
		}

	default:
		children := make([]Item, len(significant))
		for i, id := range significant {
			children[i] = b.items[id]
		}
		id := b.newID()
		branch := newBranch(id, children, v)
		b.items[id] = branch
		b.index.Set(v.Z, v.Y, v.X, id)
		b.anc.add(id)
		for _, insig := range insignificant {
			b.absorb(branch, insig)
		}
		for _, child := range significant {
			b.anc.reparent(child, id)
		}
	}
}

// absorb merges the item with the given id into ref, re-stamps its
// footprint and retires the id.
func (b *builder) absorb(ref Item, id int32) {
	removed := b.items[id]
	if _, ok := removed.(*Leaf); !ok {
		panic(fmt.Sprintf("dendro: insignificant item %d is not a leaf", id))
	}
	if removed == ref {
		panic(fmt.Sprintf("dendro: item %d merging into itself", id))
	}
	delete(b.items, id)
	ref.Merge(removed)
	removed.StampFootprint(b.index, ref.ID(), true)
}

// prune drops root leaves that never reached the significance
// thresholds. Their footprints stay in the index; the item table is
// authoritative, so consumers treat the orphaned ids as background.
func (b *builder) prune() {
	var doomed []int32
	for id, it := range b.items {
		leaf, ok := it.(*Leaf)
		if !ok || b.anc.parentOf(id) != 0 {
			continue
		}
		if leaf.Npix() < b.opts.MinNpix || leaf.FMax()-leaf.FMin() < b.opts.MinDelta {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		delete(b.items, id)
	}
}

// assemble publishes the finished dendrogram: the trunk in ascending
// id order, a dense snapshot of the index and the leaf/branch type
// map.
func (b *builder) assemble() *Dendrogram {
	ids := make([]int32, 0, len(b.items))
	for id := range b.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	d := &Dendrogram{
		cube:     b.cube,
		items:    b.items,
		indexMap: b.index.Dense(),
		typeMap:  make([]uint8, b.cube.Size()),
		live:     bitset.New(uint(b.nextID) + 1),
	}
	for _, id := range ids {
		d.live.Set(uint(id))
		if b.anc.parentOf(id) == 0 {
			d.trunk = append(d.trunk, b.items[id])
		}
	}
	for _, id := range ids {
		switch it := b.items[id].(type) {
		case *Leaf:
			d.stampType(it.own(), LeafType)
		case *Branch:
			// Non-recursive: descendants stamp their own voxels.
			d.stampType(it.own(), BranchType)
		}
	}
	return d
}
