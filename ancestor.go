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

import "fmt"

// ancestorSet tracks, for every item created so far, the id of the
// outermost live branch containing it. A parent value of 0 marks a
// root. Reparent rewrites eagerly, so chains stay one link long; the
// loop in resolve is kept as a guard against partial rewrites.
type ancestorSet struct {
	parent map[int32]int32
}

func newAncestorSet() ancestorSet {
	return ancestorSet{parent: make(map[int32]int32)}
}

// add registers a freshly created item as its own root.
func (a ancestorSet) add(id int32) {
	a.parent[id] = 0
}

func (a ancestorSet) parentOf(id int32) int32 {
	return a.parent[id]
}

// resolve follows the parent chain from id to its terminal root.
func (a ancestorSet) resolve(id int32) int32 {
	for steps := 0; ; steps++ {
		p := a.parent[id]
		if p == 0 {
			return id
		}
		if steps > len(a.parent) {
			panic(fmt.Sprintf("dendro: ancestor cycle at id %d", id))
		}
		id = p
	}
}

// reparent makes newRoot the ancestor of oldRoot and of every id that
// currently points at oldRoot. After the call, any resolve that used
// to terminate at oldRoot terminates at newRoot.
func (a ancestorSet) reparent(oldRoot, newRoot int32) {
	a.parent[oldRoot] = newRoot
	for k, v := range a.parent {
		if v == oldRoot {
			a.parent[k] = newRoot
		}
	}
}
