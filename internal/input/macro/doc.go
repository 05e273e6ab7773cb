// Package macro provides Vim-style keyboard macro recording and playback.
//
// A macro is a recorded sequence of key events stored in a register
// named by a lowercase letter (a-z) or a digit (0-9). Registers belong to
// the Recorder and are shared by every editing surface of a process.
//
// # Recording
//
// Recording is started by calling StartRecording with a register name.
// An uppercase name appends to the lowercase register. While recording,
// key events are captured via the Record method. StopRecording saves the
// events; its trim argument drops the keys of the command that stopped
// the recording, so "qaxq" stores just "x".
//
//	recorder := macro.NewRecorder()
//	recorder.StartRecording('a')
//	// ... each typed key is passed to Record ...
//	recorder.StopRecording(1)
//
// A register cannot be recorded while it is being played; StartRecording
// returns ErrRecursiveRecording and playback continues.
//
// # Playback
//
// The Player feeds recorded keys to a Handler, normally the dispatcher's
// key entry point. Keys that play another macro push a frame on an
// explicit stack instead of recursing, and a frame whose keys are used up
// is dropped before a new one is pushed. A macro ending in "@a" that
// plays itself therefore runs in constant space until the handler
// returns an error, which aborts every frame.
//
//	player := macro.NewPlayer(recorder, macro.WithMaxDepth(100))
//	err := player.Play('a', 5, func(ev key.Event) error {
//	    return submit(ev)
//	})
//
// # Persistence
//
// Registers can be saved as JSON (JSONFile, Save, Load) with keys written
// in Vim notation, or in SQLite through the sqlstore subpackage. Both
// satisfy Store.
package macro
