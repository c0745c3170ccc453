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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewickFormat(t *testing.T) {
	t.Parallel()

	d := buildRow(t, []float64{1, 2, 3, 2, 1, 2, 3, 2, 1}, Options{MinFlux: 0, MinNpix: 1})
	assert.Equal(t, "((1:3,2:3)3:1);", d.Newick())

	d = buildRow(t, []float64{5, 4, 0, 4, 5}, Options{MinFlux: 0.5})
	assert.Equal(t, "(1:5,2:5);", d.Newick())
}

// matchTopology asserts that the parsed nesting mirrors the item tree.
func matchTopology(t *testing.T, n *newickNode, it Item) {
	t.Helper()
	require.Equal(t, it.ID(), n.id)
	assert.InDelta(t, it.Seed().Flux, n.flux, 1e-12)
	require.Len(t, n.children, len(it.Children()))
	for i, child := range it.Children() {
		matchTopology(t, n.children[i], child)
	}
}

func TestNewickRoundTrip(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 8; seed++ {
		cube := randomCube(t, seed, 16, 16)
		d, err := Build(cube, Options{MinFlux: 0.25, MinNpix: 2, MinDelta: 0.125})
		require.NoError(t, err)

		roots, err := parseNewick(d.Newick())
		require.NoError(t, err)
		require.Len(t, roots, len(d.Trunk()))
		for i, root := range d.Trunk() {
			matchTopology(t, roots[i], root)
		}
	}
}

func TestParseNewickEmpty(t *testing.T) {
	t.Parallel()

	roots, err := parseNewick("();")
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestParseNewickErrors(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{
		"",
		"(",
		"(1:2",
		"(1:2);x",
		"(1);",
		"(0:1);",
		"(-3:1);",
		"((1:2)3:1);",
		"(1:2,)",
		"(:2);",
		"(1:);",
	} {
		_, err := parseNewick(bad)
		assert.ErrorIs(t, err, ErrInvalidNewick, "input %q", bad)
	}
}

func TestParseNewickScientificFlux(t *testing.T) {
	t.Parallel()

	roots, err := parseNewick("(7:1.25e-03);")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, int32(7), roots[0].id)
	assert.InDelta(t, 0.00125, roots[0].flux, 1e-15)
}
