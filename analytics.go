package dendro

import (
	"fmt"
)

// TreeStats walks an item and aggregates structural counters: the
// shallowest and deepest leaf depth below it, the number of leaves and
// branches, and the total voxel count of the subtree. The voxel total
// equals the recursive footprint, so it matches Npix of the root item.
func TreeStats(item Item) (int, int, int, int, int, error) {
	switch n := item.(type) {
	case *Branch:
		var depthMin, depthMax, leafCount, branchCount int
		voxelCount := len(n.voxels)
		for i, child := range n.children {
			childDepthMin, childDepthMax, childLeafCount, childBranchCount, childVoxelCount, err := TreeStats(child)
			if err != nil {
				return 0, 0, 0, 0, 0, fmt.Errorf("failed to get stats for child %d of item %d: %w", i, n.id, err)
			}
			if i == 0 || depthMin > childDepthMin+1 {
				depthMin = childDepthMin + 1
			}
			if depthMax < childDepthMax+1 {
				depthMax = childDepthMax + 1
			}
			leafCount += childLeafCount
			branchCount += childBranchCount
			voxelCount += childVoxelCount
		}
		return depthMin, depthMax, leafCount, branchCount + 1, voxelCount, nil
	case *Leaf:
		return 0, 0, 1, 0, len(n.voxels), nil
	default:
		return 0, 0, 0, 0, 0, fmt.Errorf("unknown item type: %T", n)
	}
}
