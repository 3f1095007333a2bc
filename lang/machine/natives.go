package machine

import "time"

// defineNatives installs the built-ins available in every fresh VM.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", nativeClock)
}

func (vm *VM) defineNative(name string, fn NativeFn) {
	str := vm.newString(name)
	vm.globals.Set(str, ObjValue(vm.newNative(name, fn)))
}

var startTime = time.Now()

// nativeClock returns the number of seconds since this package was loaded
// (shared by every VM in the process), as a Number, mirroring the reference implementation's use of the platform
// clock for the built-in of the same name.
func nativeClock(args []Value) (Value, error) {
	return Number(time.Since(startTime).Seconds()), nil
}
