// Package vim assembles Vim commands from keys typed one at a time.
//
// The grammar for Normal mode commands is:
//
//	[count]["x][operator][count]["x][motion|text-object]
//	[count]["x][action][argument]
//
// Examples:
//   - "5j": count=5, motion=j (move down 5 lines)
//   - "2d3w": operator=d, count=2*3=6, motion=w
//   - "diw": operator=d, text-object=iw
//   - `"ayw`: register=a, operator=y, motion=w
//   - "d3d": operator=d, count=3, the current line
//   - "fx": motion=f, character argument x
//
// # Precedence
//
// Each key is classified in a fixed order:
//
//  1. A pending argument consumes it. Motions and command lines are
//     collected by a nested Builder; characters may be typed as a
//     digraph after <C-k> or literally after <C-v>.
//  2. A digit extends the count. A leading 0 is not a count; it is the
//     start-of-line motion.
//  3. `"` selects a register in Normal, Visual and Operator-pending mode.
//  4. Otherwise the key joins the sequence resolved against the mapping
//     trie. An ambiguous match defers until a longer binding is decided
//     or ForceResolve is called; keys read ahead are returned in
//     Result.Requeue.
//
// # Usage
//
//	b, err := vim.NewBuilder(registry, commands, vim.Options{})
//	res := b.AddKey(vim.Input{Event: ev}, mode.Normal)
//	switch res.Status {
//	case vim.StatusComplete:
//	    execute(res.Command)
//	case vim.StatusExpand:
//	    feed(res.Mapping.Replacement)
//	}
package vim
