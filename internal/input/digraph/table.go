package digraph

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// pair is a two-character digraph code.
type pair [2]rune

// table holds the RFC 1345 digraphs that are not plain accent
// compositions. Accented letters are handled by compose.
var table = map[pair]rune{
	// Latin letters and ligatures
	{'s', 's'}: 'ß',
	{'a', 'e'}: 'æ',
	{'A', 'E'}: 'Æ',
	{'o', '/'}: 'ø',
	{'O', '/'}: 'Ø',
	{'o', 'e'}: 'œ',
	{'O', 'E'}: 'Œ',
	{'a', 'a'}: 'å',
	{'A', 'A'}: 'Å',
	{'d', '-'}: 'đ',
	{'D', '-'}: 'Đ',
	{'t', 'h'}: 'þ',
	{'T', 'H'}: 'Þ',
	{'i', 'j'}: 'ĳ',
	{'I', 'J'}: 'Ĳ',

	// Punctuation and symbols
	{'N', 'S'}:  '\u00a0',
	{'!', 'I'}:  '¡',
	{'?', 'I'}:  '¿',
	{'C', 't'}:  '¢',
	{'P', 'd'}:  '£',
	{'E', 'u'}:  '€',
	{'Y', 'e'}:  '¥',
	{'S', 'E'}:  '§',
	{'C', 'o'}:  '©',
	{'R', 'g'}:  '®',
	{'T', 'M'}:  '™',
	{'<', '<'}:  '«',
	{'>', '>'}:  '»',
	{'D', 'G'}:  '°',
	{'+', '-'}:  '±',
	{'*', 'X'}:  '×',
	{'-', ':'}:  '÷',
	{'M', 'y'}:  'µ',
	{'P', 'I'}:  '¶',
	{'.', 'M'}:  '·',
	{'1', 'S'}:  '¹',
	{'2', 'S'}:  '²',
	{'3', 'S'}:  '³',
	{'1', '4'}:  '¼',
	{'1', '2'}:  '½',
	{'3', '4'}:  '¾',
	{'-', 'N'}:  '–',
	{'-', 'M'}:  '—',
	{'\'', '6'}: '‘',
	{'\'', '9'}: '’',
	{'"', '6'}:  '“',
	{'"', '9'}:  '”',
	{'.', '.'}:  '‥',
	{',', '.'}:  '…',
	{'o', 'o'}:  '•',

	// Arrows and math
	{'<', '-'}: '←',
	{'-', '>'}: '→',
	{'-', '!'}: '↑',
	{'-', 'v'}: '↓',
	{'=', '>'}: '⇒',
	{'=', '='}: '⇔',
	{'F', 'A'}: '∀',
	{'d', 'P'}: '∂',
	{'T', 'E'}: '∃',
	{'/', '0'}: '∅',
	{'(', '-'}: '∈',
	{'0', '0'}: '∞',
	{'!', '='}: '≠',
	{'=', '<'}: '≤',
	{'>', '='}: '≥',
	{'?', '='}: '≅',
	{'O', 'K'}: '✓',
	{'X', 'X'}: '✗',

	// Greek
	{'a', '*'}: 'α',
	{'b', '*'}: 'β',
	{'g', '*'}: 'γ',
	{'d', '*'}: 'δ',
	{'e', '*'}: 'ε',
	{'z', '*'}: 'ζ',
	{'y', '*'}: 'η',
	{'h', '*'}: 'θ',
	{'i', '*'}: 'ι',
	{'k', '*'}: 'κ',
	{'l', '*'}: 'λ',
	{'m', '*'}: 'μ',
	{'n', '*'}: 'ν',
	{'c', '*'}: 'ξ',
	{'p', '*'}: 'π',
	{'r', '*'}: 'ρ',
	{'s', '*'}: 'σ',
	{'t', '*'}: 'τ',
	{'f', '*'}: 'φ',
	{'x', '*'}: 'χ',
	{'q', '*'}: 'ψ',
	{'w', '*'}: 'ω',
	{'D', '*'}: 'Δ',
	{'G', '*'}: 'Γ',
	{'L', '*'}: 'Λ',
	{'P', '*'}: 'Π',
	{'S', '*'}: 'Σ',
	{'W', '*'}: 'Ω',
}

// accents maps the RFC 1345 accent indicator to its combining mark.
var accents = map[rune]rune{
	'!':  '\u0300', // grave
	'\'': '\u0301', // acute
	'>':  '\u0302', // circumflex
	'?':  '\u0303', // tilde
	'-':  '\u0304', // macron
	'(':  '\u0306', // breve
	'.':  '\u0307', // dot above
	':':  '\u0308', // diaeresis
	'0':  '\u030a', // ring above
	'"':  '\u030b', // double acute
	'<':  '\u030c', // caron
	',':  '\u0327', // cedilla
	';':  '\u0328', // ogonek
}

// Lookup resolves a two-character digraph. Like Vim, the reversed pair
// is tried when the given order is unknown.
func Lookup(a, b rune) (rune, bool) {
	if r, ok := table[pair{a, b}]; ok {
		return r, true
	}
	if r, ok := compose(a, b); ok {
		return r, true
	}
	if r, ok := table[pair{b, a}]; ok {
		return r, true
	}
	return compose(b, a)
}

// compose builds letter+accent digraphs such as "e'" or "c," by
// composing the letter with the combining mark to NFC.
func compose(base, accent rune) (rune, bool) {
	mark, ok := accents[accent]
	if !ok || base >= utf8.RuneSelf || !isASCIILetter(base) {
		return 0, false
	}
	s := norm.NFC.String(string([]rune{base, mark}))
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == base {
		return 0, false
	}
	return r, true
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
