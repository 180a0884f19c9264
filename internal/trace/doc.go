// Package trace models call stacks and renders them as numbered,
// human-readable traces.
//
// A trace is a list of Frames, innermost call first. Frames either come from
// the running goroutine (Capture) or are carried by fault objects that
// recorded their own stack when they were created. Arguments attached to a
// frame are a closed tagged variant (Arg) so rendering never has to guess at
// a value's shape:
//
//	scalar     rendered literally:        42, true, 'text', nil
//	composite  rendered as:               Array
//	handle     rendered as:               Resource
//	object     rendered as its type name; when the object carries frames
//	           of its own, its trace follows on the next lines.
//
// Rendering follows the classic one-line-per-frame layout:
//
//	#1 /src/app/store.go(42): Store->Save('orders', Array)
//	#2 [internal function]: main.run()
//
// Nested object traces are bounded by Reconstructor.MaxDepth, so an argument
// graph that refers back to itself cannot recurse forever.
package trace
