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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchItems asserts that two items carry the same nesting and
// statistics; seeds are not compared, since loading re-seeds every
// item with the first row-major voxel of its footprint.
func matchItems(t *testing.T, want, got Item) {
	t.Helper()
	require.Equal(t, want.ID(), got.ID())
	assert.Equal(t, want.Npix(), got.Npix())
	assert.Equal(t, want.FMin(), got.FMin())
	assert.Equal(t, want.FMax(), got.FMax())
	require.Len(t, got.Children(), len(want.Children()))
	for i, child := range want.Children() {
		matchItems(t, child, got.Children()[i])
	}
}

func roundTrip(t *testing.T, d *Dendrogram) *Dendrogram {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, d.Save(&buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	return loaded
}

func TestSaveLoadRow(t *testing.T) {
	t.Parallel()

	d := buildRow(t, []float64{1, 2, 3, 2, 1, 2, 3, 2, 1}, Options{MinFlux: 0, MinNpix: 1})
	loaded := roundTrip(t, d)

	assert.Equal(t, d.NDim(), loaded.NDim())
	assert.Equal(t, d.Shape(), loaded.Shape())
	assert.Equal(t, d.Cube().Values(), loaded.Cube().Values())
	assert.Equal(t, d.IndexMap(), loaded.IndexMap())
	assert.Equal(t, d.ItemTypeMap(), loaded.ItemTypeMap())

	require.Len(t, loaded.Trunk(), len(d.Trunk()))
	for i, root := range d.Trunk() {
		matchItems(t, root, loaded.Trunk()[i])
	}
}

func TestSaveLoadRandomCubes(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 4; seed++ {
		cube := randomCube(t, seed, 16, 16)
		d, err := Build(cube, Options{MinFlux: 0.25, MinNpix: 2, MinDelta: 0.125})
		require.NoError(t, err)

		loaded := roundTrip(t, d)
		assert.Equal(t, d.IndexMap(), loaded.IndexMap())
		assert.Equal(t, d.ItemTypeMap(), loaded.ItemTypeMap())
		require.Len(t, loaded.Trunk(), len(d.Trunk()))
		for i, root := range d.Trunk() {
			matchItems(t, root, loaded.Trunk()[i])
		}

		// A loaded dendrogram serialises its topology unchanged.
		reload := roundTrip(t, loaded)
		assert.Equal(t, loaded.Newick(), reload.Newick())
	}
}

func TestSaveLoad3D(t *testing.T) {
	t.Parallel()

	cube, err := NewCube3D([][][]float64{
		{{1, 1, 1}, {1, 5, 1}, {1, 1, 1}},
		{{1, 1, 1}, {1, 4, 1}, {1, 1, 1}},
	})
	require.NoError(t, err)
	d, err := Build(cube, Options{MinFlux: 0, MinDelta: 0.5})
	require.NoError(t, err)

	loaded := roundTrip(t, d)
	assert.Equal(t, 3, loaded.NDim())
	assert.Equal(t, d.Shape(), loaded.Shape())
	assert.Equal(t, d.IndexMap(), loaded.IndexMap())
}

func TestSaveLoadEmpty(t *testing.T) {
	t.Parallel()

	d := buildRow(t, []float64{1, 2, 3}, Options{MinFlux: 10})
	loaded := roundTrip(t, d)

	assert.Empty(t, loaded.Trunk())
	assert.Equal(t, d.IndexMap(), loaded.IndexMap())
	assert.Equal(t, "();", loaded.Newick())
}

// Stale ids of pruned leaves are kept in the stored index map but must
// not resurrect items on load.
func TestSaveLoadPruned(t *testing.T) {
	t.Parallel()

	d := buildRow(t, []float64{1, 2, 3, 2, 1, 2, 3, 2, 1}, Options{MinFlux: 0, MinNpix: 1, MinDelta: 3})
	require.Equal(t, 0, d.Len())

	loaded := roundTrip(t, d)
	assert.Empty(t, loaded.Trunk())
	assert.Equal(t, d.IndexMap(), loaded.IndexMap())
	assert.False(t, loaded.Contains(1))
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Load(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrCorruptContainer)

	_, err = Load(bytes.NewReader([]byte("NOTADENDROGRAM")))
	assert.ErrorIs(t, err, ErrCorruptContainer)

	// Right magic, wrong version.
	_, err = Load(bytes.NewReader([]byte{'D', 'N', 'D', 'R', 99, 0, 0, 0, 0}))
	assert.ErrorIs(t, err, ErrCorruptContainer)

	// Truncated body.
	d := buildRow(t, []float64{1, 2, 1}, Options{MinFlux: 0})
	var buf bytes.Buffer
	require.NoError(t, d.Save(&buf))
	_, err = Load(bytes.NewReader(buf.Bytes()[:buf.Len()/2]))
	assert.Error(t, err)
}

func TestCompressBlockRoundTrip(t *testing.T) {
	t.Parallel()

	// Compressible payload.
	raw := bytes.Repeat([]byte("dendrogram"), 100)
	blob := compressBlock(raw)
	require.Less(t, len(blob), len(raw))
	back, err := decompressBlock(blob)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	// Tiny payload falls back to raw storage.
	raw = []byte{1, 2, 3}
	back, err = decompressBlock(compressBlock(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, back)
}
