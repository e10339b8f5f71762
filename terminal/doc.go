// Package terminal bridges an embedded terminal widget to pull-based input.
//
// Features:
//   - Byte relay for host push callbacks (onData/onBinary) into a bounded queue
//   - Escape sequence decoding: keys, modifiers, kitty release, SGR/X10 mouse,
//     bracketed paste, window size reports
//   - Event stream with non-blocking Poll and blocking Next over the queue
//   - Synchronous window size and cursor position snapshots from host state
//   - Cell-diff renderer forwarding ANSI output to the host write sink
//
// A Session is the explicit handle for one host widget. Hosts exist for
// xterm.js under WebAssembly (js && wasm), a local TTY (unix), and a
// websocket bridge (package network).
package terminal
