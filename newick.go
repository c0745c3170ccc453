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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidNewick = errors.New("invalid newick string")

// Newick serialises the trunk: "(c1,c2)id:flux" for a branch,
// "id:flux" for a leaf, where flux is the seed flux of the item. The
// whole trunk is wrapped in one set of parentheses and terminated with
// a semicolon, so "();" is the empty dendrogram.
func (d *Dendrogram) Newick() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, it := range d.trunk {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeNewick(&sb, it)
	}
	sb.WriteString(");")
	return sb.String()
}

func writeNewick(sb *strings.Builder, it Item) {
	if br, ok := it.(*Branch); ok {
		sb.WriteByte('(')
		for i, c := range br.children {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeNewick(sb, c)
		}
		sb.WriteByte(')')
	}
	sb.WriteString(strconv.FormatInt(int64(it.ID()), 10))
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatFloat(it.Seed().Flux, 'g', -1, 64))
}

// newickNode is the parsed form: the id/flux label of one item plus
// its nested children. Containers rebuild the item tree from it.
type newickNode struct {
	id       int32
	flux     float64
	children []*newickNode
}

// parseNewick recovers the trunk nesting from a string produced by
// Newick.
func parseNewick(s string) ([]*newickNode, error) {
	p := &newickParser{s: s}
	if !p.eat('(') {
		return nil, fmt.Errorf("%w: missing trunk opening", ErrInvalidNewick)
	}
	var roots []*newickNode
	if !p.peek(')') {
		for {
			n, err := p.node()
			if err != nil {
				return nil, err
			}
			roots = append(roots, n)
			if !p.eat(',') {
				break
			}
		}
	}
	if !p.eat(')') || !p.eat(';') {
		return nil, fmt.Errorf("%w: missing trunk closing at offset %d", ErrInvalidNewick, p.pos)
	}
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("%w: trailing data at offset %d", ErrInvalidNewick, p.pos)
	}
	return roots, nil
}

type newickParser struct {
	s   string
	pos int
}

func (p *newickParser) peek(c byte) bool {
	return p.pos < len(p.s) && p.s[p.pos] == c
}

func (p *newickParser) eat(c byte) bool {
	if p.peek(c) {
		p.pos++
		return true
	}
	return false
}

func (p *newickParser) node() (*newickNode, error) {
	n := new(newickNode)
	if p.eat('(') {
		for {
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
			if !p.eat(',') {
				break
			}
		}
		if !p.eat(')') {
			return nil, fmt.Errorf("%w: unclosed child list at offset %d", ErrInvalidNewick, p.pos)
		}
		if len(n.children) < 2 {
			return nil, fmt.Errorf("%w: branch with fewer than two children at offset %d", ErrInvalidNewick, p.pos)
		}
	}

	id, err := p.number("0123456789")
	if err != nil {
		return nil, err
	}
	parsed, err := strconv.ParseInt(id, 10, 32)
	if err != nil || parsed <= 0 {
		return nil, fmt.Errorf("%w: bad item id %q", ErrInvalidNewick, id)
	}
	n.id = int32(parsed)

	if !p.eat(':') {
		return nil, fmt.Errorf("%w: missing flux separator at offset %d", ErrInvalidNewick, p.pos)
	}
	flux, err := p.number("0123456789+-.eEinfINF")
	if err != nil {
		return nil, err
	}
	n.flux, err = strconv.ParseFloat(flux, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad seed flux %q", ErrInvalidNewick, flux)
	}
	return n, nil
}

func (p *newickParser) number(alphabet string) (string, error) {
	start := p.pos
	for p.pos < len(p.s) && strings.IndexByte(alphabet, p.s[p.pos]) >= 0 {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("%w: expected number at offset %d", ErrInvalidNewick, p.pos)
	}
	return p.s[start:p.pos], nil
}
