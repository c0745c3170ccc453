package main

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime/pprof"
	"time"

	dendro "github.com/astromap/go-dendro"
)

const (
	nz = 48
	ny = 48
	nx = 96
)

func main() {
	benchmarkBuild()
	benchmarkRoundTrip()
}

// syntheticCube fills a cube with background noise below the flux
// cutoff and scatters bright gaussian clumps on top, so the filter
// step has realistic work to do.
func syntheticCube(rng *rand.Rand) *dendro.Cube {
	values := make([]float64, nz*ny*nx)
	for i := range values {
		values[i] = rng.NormFloat64() * 0.25
	}
	for clump := 0; clump < 40; clump++ {
		cz := rng.Intn(nz)
		cy := rng.Intn(ny)
		cx := rng.Intn(nx)
		peak := 1.5 + rng.Float64()*3
		for dz := -3; dz <= 3; dz++ {
			for dy := -3; dy <= 3; dy++ {
				for dx := -3; dx <= 3; dx++ {
					z, y, x := cz+dz, cy+dy, cx+dx
					if z < 0 || z >= nz || y < 0 || y >= ny || x < 0 || x >= nx {
						continue
					}
					r2 := float64(dz*dz + dy*dy + dx*dx)
					f := peak * math.Exp(-r2/4)
					i := (z*ny+y)*nx + x
					if f > values[i] {
						values[i] = f
					}
				}
			}
		}
	}
	cube, err := dendro.NewCube(values, nz, ny, nx)
	if err != nil {
		panic(err)
	}
	return cube
}

func benchmarkBuild() {
	f, _ := os.Create("cpu.prof")
	g, _ := os.Create("mem.prof")
	_ = pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()
	defer func() { _ = pprof.WriteHeapProfile(g) }()

	rng := rand.New(rand.NewSource(42))
	opts := dendro.Options{MinFlux: 1.4, MinNpix: 4, MinDelta: 0.3}

	for i := 0; i < 4; i++ {
		cube := syntheticCube(rng)
		fmt.Printf("Generated cube %d\n", i)

		for j := 0; j < 5; j++ {
			start := time.Now()
			d, err := dendro.Build(cube, opts)
			if err != nil {
				panic(err)
			}
			elapsed := time.Since(start)
			fmt.Printf("Took %v to build a dendrogram with %d leaves\n", elapsed, len(d.Leaves()))
		}
	}
}

func benchmarkRoundTrip() {
	rng := rand.New(rand.NewSource(43))
	cube := syntheticCube(rng)
	d, err := dendro.Build(cube, dendro.Options{MinFlux: 1.4, MinNpix: 2, MinDelta: 0.01})
	if err != nil {
		panic(err)
	}

	start := time.Now()
	var buf bytes.Buffer
	var size int
	for i := 0; i < 5; i++ {
		buf.Reset()
		if err := d.Save(&buf); err != nil {
			panic(err)
		}
		size = buf.Len()
		if _, err := dendro.Load(&buf); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Took %v for 5 save/load round trips of %d bytes\n", time.Since(start), size)
}
