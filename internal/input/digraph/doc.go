// Package digraph collects the keys that encode a single literal
// character: a two-key digraph after <C-k> ("e'" is é, "a*" is α) or a
// literal key or numeric code after <C-v>.
//
// Numeric codes follow Vim:
//
//	<C-v>065     decimal, up to 3 digits (max 255)
//	<C-v>o101    octal, up to 3 digits (max 377)
//	<C-v>x41     hex, up to 2 digits
//	<C-v>u20ac   hex, up to 4 digits
//	<C-v>U1f600  hex, up to 8 digits
//
// A code ends when its maximum digit count is reached or a key that is
// not a digit arrives. That key is handed back in Result.Requeue.
package digraph
