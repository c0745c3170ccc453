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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/karalabe/ssz"
	lzf "github.com/zhuyie/golzf"
)

var ErrCorruptContainer = errors.New("corrupt container file")

// Container layout: a fixed header (magic, format version, body size)
// followed by one SSZ-encoded containerFile. The three datasets are
// LZF blocks; the newick string is stored verbatim.
const (
	containerMagic   = "DNDR"
	containerVersion = byte(1)

	maxNewickLen  = 1 << 30
	maxDatasetLen = 1 << 36
)

// LZF block: flag byte, uncompressed length, payload. Incompressible
// payloads are stored raw, like redis does for short RDB strings.
const (
	blockRaw = byte(0)
	blockLZF = byte(1)
)

type containerFile struct {
	NDim     uint64
	Nz       uint64
	Ny       uint64
	Nx       uint64
	Newick   []byte
	Data     []byte
	IndexMap []byte
	TypeMap  []byte
}

func (c *containerFile) SizeSSZ(fixed bool) uint32 {
	size := uint32(4*8 + 4*4)
	if fixed {
		return size
	}
	size += ssz.SizeDynamicBytes(c.Newick)
	size += ssz.SizeDynamicBytes(c.Data)
	size += ssz.SizeDynamicBytes(c.IndexMap)
	size += ssz.SizeDynamicBytes(c.TypeMap)
	return size
}

func (c *containerFile) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineUint64(codec, &c.NDim)
	ssz.DefineUint64(codec, &c.Nz)
	ssz.DefineUint64(codec, &c.Ny)
	ssz.DefineUint64(codec, &c.Nx)
	ssz.DefineDynamicBytesOffset(codec, &c.Newick, maxNewickLen)
	ssz.DefineDynamicBytesOffset(codec, &c.Data, maxDatasetLen)
	ssz.DefineDynamicBytesOffset(codec, &c.IndexMap, maxDatasetLen)
	ssz.DefineDynamicBytesOffset(codec, &c.TypeMap, maxDatasetLen)
	ssz.DefineDynamicBytesContent(codec, &c.Newick, maxNewickLen)
	ssz.DefineDynamicBytesContent(codec, &c.Data, maxDatasetLen)
	ssz.DefineDynamicBytesContent(codec, &c.IndexMap, maxDatasetLen)
	ssz.DefineDynamicBytesContent(codec, &c.TypeMap, maxDatasetLen)
}

func compressBlock(raw []byte) []byte {
	blob := make([]byte, 9, 9+len(raw))
	binary.LittleEndian.PutUint64(blob[1:9], uint64(len(raw)))

	out := make([]byte, len(raw)+len(raw)/16+67)
	n, err := lzf.Compress(raw, out)
	if err != nil || n == 0 || n >= len(raw) {
		blob[0] = blockRaw
		return append(blob, raw...)
	}
	blob[0] = blockLZF
	return append(blob, out[:n]...)
}

func decompressBlock(blob []byte) ([]byte, error) {
	if len(blob) < 9 {
		return nil, fmt.Errorf("%w: truncated dataset block", ErrCorruptContainer)
	}
	rawLen := binary.LittleEndian.Uint64(blob[1:9])
	payload := blob[9:]

	switch blob[0] {
	case blockRaw:
		if uint64(len(payload)) != rawLen {
			return nil, fmt.Errorf("%w: raw block length mismatch", ErrCorruptContainer)
		}
		return payload, nil
	case blockLZF:
		out := make([]byte, rawLen)
		n, err := lzf.Decompress(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptContainer, err)
		}
		if uint64(n) != rawLen {
			return nil, fmt.Errorf("%w: lzf block length mismatch", ErrCorruptContainer)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown block encoding %d", ErrCorruptContainer, blob[0])
	}
}

func floatsToBytes(values []float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(v))
	}
	return out
}

func bytesToFloats(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("%w: data dataset not 8-byte aligned", ErrCorruptContainer)
	}
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return out, nil
}

func idsToBytes(ids []int32) []byte {
	out := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(id))
	}
	return out
}

func bytesToIDs(blob []byte) ([]int32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("%w: index dataset not 4-byte aligned", ErrCorruptContainer)
	}
	out := make([]int32, len(blob)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return out, nil
}

// Save writes the dendrogram to w: dimensionality, newick string and
// the three compressed datasets (data, index map, item type map).
func (d *Dendrogram) Save(w io.Writer) error {
	cf := &containerFile{
		NDim:     uint64(d.cube.ndim),
		Nz:       uint64(d.cube.nz),
		Ny:       uint64(d.cube.ny),
		Nx:       uint64(d.cube.nx),
		Newick:   []byte(d.Newick()),
		Data:     compressBlock(floatsToBytes(d.cube.values)),
		IndexMap: compressBlock(idsToBytes(d.indexMap)),
		TypeMap:  compressBlock(d.typeMap),
	}

	header := make([]byte, 0, 9)
	header = append(header, containerMagic...)
	header = append(header, containerVersion)
	header = binary.LittleEndian.AppendUint32(header, ssz.Size(cf))
	if _, err := w.Write(header); err != nil {
		return err
	}
	return ssz.EncodeToStream(w, cf)
}

// Load reads a container written by Save and reconstructs the full
// dendrogram: the newick string gives the id nesting, and each item's
// voxels are gathered from the index map in row-major order, the first
// one acting as the seed.
func Load(r io.Reader) (*Dendrogram, error) {
	header := make([]byte, 9)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptContainer, err)
	}
	if string(header[:4]) != containerMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptContainer)
	}
	if header[4] != containerVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptContainer, header[4])
	}
	size := binary.LittleEndian.Uint32(header[5:9])

	cf := new(containerFile)
	if err := ssz.DecodeFromStream(r, cf, size); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptContainer, err)
	}
	if cf.NDim != 2 && cf.NDim != 3 {
		return nil, ErrInvalidDimensionality
	}
	if cf.NDim == 2 && cf.Nz != 1 {
		return nil, fmt.Errorf("%w: 2D container with %d planes", ErrCorruptContainer, cf.Nz)
	}

	dataRaw, err := decompressBlock(cf.Data)
	if err != nil {
		return nil, err
	}
	values, err := bytesToFloats(dataRaw)
	if err != nil {
		return nil, err
	}
	indexRaw, err := decompressBlock(cf.IndexMap)
	if err != nil {
		return nil, err
	}
	indexMap, err := bytesToIDs(indexRaw)
	if err != nil {
		return nil, err
	}
	typeMap, err := decompressBlock(cf.TypeMap)
	if err != nil {
		return nil, err
	}

	size3 := int(cf.Nz * cf.Ny * cf.Nx)
	if len(values) != size3 || len(indexMap) != size3 || len(typeMap) != size3 {
		return nil, fmt.Errorf("%w: dataset shape mismatch", ErrCorruptContainer)
	}

	cube := &Cube{
		values: values,
		nz:     int(cf.Nz),
		ny:     int(cf.Ny),
		nx:     int(cf.Nx),
		ndim:   int(cf.NDim),
	}

	roots, err := parseNewick(string(cf.Newick))
	if err != nil {
		return nil, err
	}

	// Bucket each assigned voxel under its id, in row-major order.
	footprints := make(map[int32][]Voxel)
	for i, id := range indexMap {
		if id == 0 {
			continue
		}
		z, y, x := cube.coord(i)
		footprints[id] = append(footprints[id], Voxel{Z: z, Y: y, X: x, Flux: values[i]})
	}

	maxID := int32(0)
	var scan func(*newickNode)
	scan = func(n *newickNode) {
		if n.id > maxID {
			maxID = n.id
		}
		for _, c := range n.children {
			scan(c)
		}
	}
	for _, root := range roots {
		scan(root)
	}

	d := &Dendrogram{
		cube:     cube,
		items:    make(map[int32]Item),
		indexMap: indexMap,
		typeMap:  typeMap,
		live:     bitset.New(uint(maxID) + 1),
	}

	var reconstruct func(n *newickNode) (Item, error)
	reconstruct = func(n *newickNode) (Item, error) {
		voxels := footprints[n.id]
		if len(voxels) == 0 {
			return nil, fmt.Errorf("%w: item %d has no footprint", ErrCorruptContainer, n.id)
		}
		var it Item
		if len(n.children) == 0 {
			it = newLeaf(n.id, voxels[0])
		} else {
			children := make([]Item, len(n.children))
			for i, cn := range n.children {
				child, err := reconstruct(cn)
				if err != nil {
					return nil, err
				}
				children[i] = child
			}
			it = newBranch(n.id, children, voxels[0])
		}
		for _, v := range voxels[1:] {
			it.AddVoxel(v)
		}
		d.items[n.id] = it
		d.live.Set(uint(n.id))
		return it, nil
	}
	for _, root := range roots {
		it, err := reconstruct(root)
		if err != nil {
			return nil, err
		}
		d.trunk = append(d.trunk, it)
	}
	return d, nil
}
