package dendro

import "testing"

func TestTreeStats(t *testing.T) {
	t.Parallel()

	d := buildRow(t, []float64{1, 2, 3, 2, 1, 2, 3, 2, 1}, Options{MinFlux: 0, MinNpix: 1})

	depthMin, depthMax, leafCount, branchCount, voxelCount, err := TreeStats(d.Trunk()[0])
	if err != nil {
		t.Fatalf("error computing stats: %v", err)
	}
	if depthMin != 1 || depthMax != 1 {
		t.Fatalf("wrong depths: %d/%d", depthMin, depthMax)
	}
	if leafCount != 2 || branchCount != 1 {
		t.Fatalf("wrong counts: %d leaves, %d branches", leafCount, branchCount)
	}
	if voxelCount != d.Trunk()[0].Npix() {
		t.Fatalf("voxel total %d does not match npix %d", voxelCount, d.Trunk()[0].Npix())
	}
}

func TestTreeStatsNestedBranches(t *testing.T) {
	t.Parallel()

	// Two saddles at different levels give a two-deep tree.
	d := buildRow(t, []float64{5, 1, 4, 2, 5}, Options{MinFlux: 0})

	if len(d.Trunk()) != 1 {
		t.Fatalf("expected a single root, got %d", len(d.Trunk()))
	}
	depthMin, depthMax, leafCount, branchCount, voxelCount, err := TreeStats(d.Trunk()[0])
	if err != nil {
		t.Fatalf("error computing stats: %v", err)
	}
	if depthMin != 1 || depthMax != 2 {
		t.Fatalf("wrong depths: %d/%d", depthMin, depthMax)
	}
	if leafCount != 3 || branchCount != 2 {
		t.Fatalf("wrong counts: %d leaves, %d branches", leafCount, branchCount)
	}
	if voxelCount != 5 {
		t.Fatalf("wrong voxel total: %d", voxelCount)
	}
}
