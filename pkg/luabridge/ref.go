package luabridge

import (
	lua "github.com/yuin/gopher-lua"
)

// refTableKey names the interpreter registry entry holding referenced values.
const refTableKey = "luabridge.refs"

// refTable keeps values alive in the interpreter's persistent registry under
// integer slots. Freed slots are reused.
type refTable struct {
	tbl  *lua.LTable
	used map[int]bool
	free []int
	next int
}

func newRefTable(L *lua.LState) *refTable {
	tbl := L.NewTable()
	L.G.Registry.RawSetString(refTableKey, tbl)
	return &refTable{tbl: tbl, used: map[int]bool{}, next: 1}
}

func (t *refTable) ref(v lua.LValue) int {
	var slot int
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		slot = t.next
		t.next++
	}
	t.used[slot] = true
	t.tbl.RawSetInt(slot, v)
	return slot
}

// unref clears slot. Clearing an empty slot is a no-op.
func (t *refTable) unref(slot int) {
	if !t.used[slot] {
		return
	}
	delete(t.used, slot)
	t.tbl.RawSetInt(slot, lua.LNil)
	t.free = append(t.free, slot)
}

func (t *refTable) get(slot int) lua.LValue {
	return t.tbl.RawGetInt(slot)
}

// live returns the number of occupied slots.
func (t *refTable) live() int {
	return len(t.used)
}

type sharedSlot struct {
	index   int
	holders int
	vtype   lua.LValueType
}

// Ref is a handle to a value held in the interpreter's reference table. All
// handles cloned from the same Ref share one slot, which is cleared when the
// last of them is released.
type Ref struct {
	state    *State
	shared   *sharedSlot
	released bool
}

// refTop registers the value on top of the stack and pops it.
func (s *State) refTop() *Ref {
	v := s.L.Get(-1)
	s.L.Pop(1)
	return s.newRef(v)
}

func (s *State) newRef(v lua.LValue) *Ref {
	shared := &sharedSlot{
		index:   s.refs.ref(v),
		holders: 1,
		vtype:   v.Type(),
	}
	return &Ref{state: s, shared: shared}
}

// Clone returns another holder of the same slot.
func (r *Ref) Clone() *Ref {
	if r == nil {
		return nil
	}
	if r.released {
		return &Ref{state: r.state, shared: r.shared, released: true}
	}
	r.shared.holders++
	return &Ref{state: r.state, shared: r.shared}
}

// Release drops this holder. The slot is cleared when no holders remain.
// Calling Release more than once is a no-op.
func (r *Ref) Release() {
	if r == nil || r.released {
		return
	}
	r.released = true
	r.shared.holders--
	if r.shared.holders > 0 || r.state.Closed() {
		return
	}
	r.state.refs.unref(r.shared.index)
}

// Released reports whether this holder was released.
func (r *Ref) Released() bool {
	return r == nil || r.released
}

// Holders returns the number of live handles sharing the slot.
func (r *Ref) Holders() int {
	if r == nil {
		return 0
	}
	return r.shared.holders
}

// Type returns the interpreter type name of the referenced value.
func (r *Ref) Type() string {
	if r == nil {
		return lua.LTNil.String()
	}
	return r.shared.vtype.String()
}

// IsNil reports whether the referenced value is nil.
func (r *Ref) IsNil() bool {
	return r == nil || r.shared.vtype == lua.LTNil
}

// IsTable reports whether the referenced value is a table.
func (r *Ref) IsTable() bool {
	return r != nil && r.shared.vtype == lua.LTTable
}

// IsFunction reports whether the referenced value is callable.
func (r *Ref) IsFunction() bool {
	return r != nil && r.shared.vtype == lua.LTFunction
}

// Len returns the current sequence length of a referenced table, or 0 for
// any other value.
func (r *Ref) Len() int {
	if r == nil || r.released || r.state.Closed() {
		return 0
	}
	if tbl, ok := r.state.refs.get(r.shared.index).(*lua.LTable); ok {
		return tbl.Len()
	}
	return 0
}

// Same reports whether a and b hold the identical interpreter value. Tables
// and functions compare by identity.
func (s *State) Same(a, b *Ref) bool {
	if a == nil || b == nil || a.released || b.released || s.Closed() {
		return false
	}
	return s.refs.get(a.shared.index) == s.refs.get(b.shared.index)
}

// PushRef pushes the referenced value onto the stack.
func (s *State) PushRef(r *Ref) error {
	if r == nil || r.released {
		return ErrReleasedRef
	}
	if err := s.ensureHeadroom(1); err != nil {
		return err
	}
	s.L.Push(s.refs.get(r.shared.index))
	return nil
}

// ReleaseAll releases every ref in refs.
func ReleaseAll(refs []*Ref) {
	for _, ref := range refs {
		ref.Release()
	}
}

// LiveRefs returns the number of occupied reference slots.
func (s *State) LiveRefs() int {
	return s.refs.live()
}
