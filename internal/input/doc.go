// Package input turns keystrokes into editor commands the way Vim does.
//
// The Dispatcher is the single entry point. Each editing surface (a
// window onto a buffer) has its own mode, command in progress and macro
// player; the mapping tables and macro registers are shared.
//
// # Architecture
//
// A key submitted to a surface flows through these stages:
//
//   - Hooks: PreKey hooks may rewrite or consume the key
//   - Recording: typed keys are appended to the register being recorded
//   - Command Builder (package vim): count, register, operator, motion
//     and argument grammar, resolving keys against the mapping trie
//   - Mapping expansion: replacement keys are fed back before any other
//     input, remapped or not as the mapping says
//   - Execution: completed commands go to the Executor, except the macro,
//     repeat and command-line commands the dispatcher runs itself
//
// Macro playback and "." feed their keys through the same path, so a
// replayed register behaves exactly like the keys typed again.
//
// # Modes
//
// The host owns a surface's mode through a mode.Reporter, or lets the
// dispatcher track it. OperatorPending and CommandLine are entered while
// an operator waits for its motion or a command line is typed, and the
// previous mode returns when the command completes or is cancelled.
//
// # Usage
//
//	keymaps := keymap.NewRegistry(keymap.DefaultPolicy())
//	commands := command.Builtins()
//	if err := keymap.LoadDefaults(keymaps, commands); err != nil {
//	    return err
//	}
//	d, err := input.New(input.DefaultConfig(), keymaps, commands,
//	    input.WithExecutor(editor))
//	if err != nil {
//	    return err
//	}
//	id, _ := d.OpenSurface(input.WithBuffer("main.go"))
//
//	for ev := range keys {
//	    out, err := d.SubmitKey(ctx, id, ev)
//	    ...
//	}
package input
