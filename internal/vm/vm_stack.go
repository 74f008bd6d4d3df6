package vm

import "github.com/ecmago/engine/internal/value"

func (vm *VM) push(v value.Value) error {
	if len(vm.stack) >= vm.MaxStack {
		return vm.rangeError("operand stack overflow")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) popN(n int) []value.Value {
	start := len(vm.stack) - n
	out := append([]value.Value(nil), vm.stack[start:]...)
	vm.stack = vm.stack[:start]
	return out
}

func (vm *VM) peek(distanceFromTop int) value.Value {
	return vm.stack[len(vm.stack)-1-distanceFromTop]
}

// replaceTop rewrites the top of the stack in place, for the unary
// operators whose net stack effect is zero.
func (vm *VM) replaceTop(v value.Value) {
	vm.stack[len(vm.stack)-1] = v
}

// markSpread tags the stack slot at absolute index idx as holding a
// spread-expanded argument array, consumed (and flattened) by the next
// popArgs over that slot.
func (vm *VM) markSpread(idx int) {
	if vm.spreadMarks == nil {
		vm.spreadMarks = make(map[int]bool)
	}
	vm.spreadMarks[idx] = true
}

// popArgs pops one call's argc argument slots, splicing any slot the
// Spread instruction marked into its individual elements, so `f(a, ...b, c)`
// reaches the callee as the fully flattened vector.
func (vm *VM) popArgs(argc int) []value.Value {
	start := len(vm.stack) - argc
	args := make([]value.Value, 0, argc)
	for i := start; i < len(vm.stack); i++ {
		v := vm.stack[i]
		if vm.spreadMarks[i] {
			delete(vm.spreadMarks, i)
			args = append(args, vm.heap.Get(v.AsHandle()).Elements...)
			continue
		}
		args = append(args, v)
	}
	vm.stack = vm.stack[:start]
	return args
}

// trimStack discards down to depth, used when a handler dispatch unwinds
// whatever a try block had pushed since PushHandler ran; spread marks above
// the new depth are stale and dropped with the values they tagged.
func (vm *VM) trimStack(depth int) {
	if depth >= len(vm.stack) {
		return
	}
	for i := depth; i < len(vm.stack); i++ {
		delete(vm.spreadMarks, i)
	}
	vm.stack = vm.stack[:depth]
}

func (vm *VM) pushFrame(f frame) error {
	if len(vm.frames) >= vm.MaxFrames {
		return vm.rangeError("maximum call stack size exceeded")
	}
	vm.frames = append(vm.frames, f)
	return nil
}
