// Package luabridge wraps a single embedded Lua execution context and converts
// native values to and from its shared evaluation stack.
//
// Every operation leaves the stack as it found it: encoders push, decoders
// pop (also on mismatch), and table access pops the table after fetching a
// member. Values that must outlive a stack frame are stored in a reference
// table kept in the interpreter registry and handed out as *Ref handles:
//
//	ref, _ := state.Global("initial_state")
//	defer ref.Release()
//	results, err := state.Call(ref, []float64{-1, -2}, 23.0)
//	defer luabridge.ReleaseAll(results)
//
// Handles created with Clone share one slot, which is cleared when the last
// holder releases it. Close makes every outstanding handle inert.
package luabridge
