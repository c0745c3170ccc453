package main

import (
	"fmt"
	"math"

	dendro "github.com/astromap/go-dendro"
	fuzz "github.com/google/gofuzz"
)

const (
	ny = 24
	nx = 24
)

// Builds random 2D cubes forever, checking that a rebuild is
// bit-identical and that the published maps agree with the item table.
func main() {
	for attempt := 0; ; attempt++ {
		fmt.Println("attempt #", attempt)

		fuzzer := fuzz.NewWithSeed(int64(attempt)).NilChance(0).NumElements(ny*nx, ny*nx)
		var values []float64
		fuzzer.Fuzz(&values)
		// Quantise so flux ties actually occur.
		for i := range values {
			values[i] = math.Floor(values[i]*8) / 8
		}

		cube, err := dendro.NewCube(values, ny, nx)
		if err != nil {
			panic(err)
		}

		opts := dendro.Options{MinFlux: 0.25, MinNpix: 2, MinDelta: 0.125}
		ref, err := dendro.Build(cube, opts)
		if err != nil {
			panic(err)
		}
		again, err := dendro.Build(cube, opts)
		if err != nil {
			panic(err)
		}

		if ref.Newick() != again.Newick() {
			panic("differing topologies across rebuilds")
		}
		for i, id := range ref.IndexMap() {
			if id != again.IndexMap()[i] {
				panic(fmt.Sprintf("differing index maps at voxel %d", i))
			}
		}
		check(ref)
	}
}

// check verifies the published invariants: live footprints match item
// voxel counts, branch statistics dominate their children's, and
// stale index entries stay background in the type map.
func check(d *dendro.Dendrogram) {
	counts := make(map[int32]int)
	for i, id := range d.IndexMap() {
		if id == 0 {
			continue
		}
		if !d.Contains(id) {
			if d.ItemTypeMap()[i] != dendro.BackgroundType {
				panic(fmt.Sprintf("pruned id %d typed as foreground at voxel %d", id, i))
			}
			continue
		}
		counts[id] = counts[id] + 1
	}

	var walk func(it dendro.Item) int
	walk = func(it dendro.Item) int {
		total := counts[it.ID()]
		for _, child := range it.Children() {
			if child.FMax() > it.FMax() {
				panic(fmt.Sprintf("child %d brighter than parent %d", child.ID(), it.ID()))
			}
			if it.Seed().Flux > child.FMin() {
				panic(fmt.Sprintf("saddle of %d above minimum of child %d", it.ID(), child.ID()))
			}
			total += walk(child)
		}
		if len(it.Children()) == 1 {
			panic(fmt.Sprintf("branch %d with a single child", it.ID()))
		}
		if total != it.Npix() {
			panic(fmt.Sprintf("item %d claims %d voxels, footprint has %d", it.ID(), it.Npix(), total))
		}
		return total
	}
	for _, root := range d.Trunk() {
		walk(root)
	}
}
