package keymap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/modalkeys/internal/input/command"
	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/mode"
)

// DefaultLeader is the key <Leader> expands to when none is configured.
const DefaultLeader = `\`

// File is the on-disk form of a mapping file.
//
//	leader = ","
//
//	[[map]]
//	mode = "n"
//	lhs = "<Leader>w"
//	rhs = ":w<CR>"
//	noremap = true
type File struct {
	Leader   string        `toml:"leader" yaml:"leader" json:"leader"`
	Owner    string        `toml:"owner" yaml:"owner" json:"owner"`
	Mappings []MappingSpec `toml:"map" yaml:"map" json:"map"`
}

// MappingSpec is one mapping in a File. Exactly one of RHS, Action and
// Expr should be set; an empty RHS with no Action is <Nop>.
type MappingSpec struct {
	Mode    string `toml:"mode" yaml:"mode" json:"mode"`
	LHS     string `toml:"lhs" yaml:"lhs" json:"lhs"`
	RHS     string `toml:"rhs" yaml:"rhs" json:"rhs"`
	Action  string `toml:"action" yaml:"action" json:"action"`
	Expr    string `toml:"expr" yaml:"expr" json:"expr"`
	Owner   string `toml:"owner" yaml:"owner" json:"owner"`
	NoRemap bool   `toml:"noremap" yaml:"noremap" json:"noremap"`
	Silent  bool   `toml:"silent" yaml:"silent" json:"silent"`
	NoWait  bool   `toml:"nowait" yaml:"nowait" json:"nowait"`
}

// ParseError reports a mapping file that could not be decoded or applied.
type ParseError struct {
	Path  string
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: mapping %d: %v", e.Path, e.Index+1, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadFile reads a mapping file; the format follows the extension
// (.toml, .yaml/.yml or .json).
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}
	f, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return nil, &ParseError{Path: path, Index: -1, Err: err}
	}
	return f, nil
}

// Decode parses mapping file contents in the format named by ext.
func Decode(ext string, data []byte) (*File, error) {
	var f File
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	default:
		return nil, fmt.Errorf("unsupported mapping file format %q", ext)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply installs every mapping in f. Mappings without an owner use the
// file's owner, then fallback. The source name is used in errors. A bad
// mapping stops the file before anything is installed.
func Apply(r *Registry, commands *command.Registry, f *File, source string, fallback Owner) error {
	ms, err := Compile(commands, f, source, fallback)
	if err != nil {
		return err
	}
	for i, m := range ms {
		if err := r.Map(m.Owner, m.Modes, m.LHS, m.Target, m.Flags); err != nil {
			return &ParseError{Path: source, Index: i, Err: err}
		}
	}
	return nil
}

// Compile resolves the mappings of f without installing them.
func Compile(commands *command.Registry, f *File, source string, fallback Owner) ([]Mapping, error) {
	leader := f.Leader
	if leader == "" {
		leader = DefaultLeader
	}
	fileOwner := fallback
	if f.Owner != "" {
		o, err := ParseOwner(f.Owner)
		if err != nil {
			return nil, &ParseError{Path: source, Index: -1, Err: err}
		}
		fileOwner = o
	}
	ms := make([]Mapping, 0, len(f.Mappings))
	for i, spec := range f.Mappings {
		m, err := compileSpec(commands, spec, leader, fileOwner)
		if err == nil {
			err = m.normalize()
		}
		if err != nil {
			return nil, &ParseError{Path: source, Index: i, Err: err}
		}
		ms = append(ms, m)
	}
	return ms, nil
}

func compileSpec(commands *command.Registry, spec MappingSpec, leader string, owner Owner) (Mapping, error) {
	if spec.Owner != "" {
		o, err := ParseOwner(spec.Owner)
		if err != nil {
			return Mapping{}, err
		}
		owner = o
	}
	modes, err := mode.ParseMapModes(spec.Mode)
	if err != nil {
		return Mapping{}, err
	}
	lhs, err := key.ParseSequence(ExpandLeader(spec.LHS, leader))
	if err != nil {
		return Mapping{}, fmt.Errorf("lhs: %w", err)
	}

	var target Target
	var flags MapFlags
	switch {
	case spec.Action != "":
		def, ok := commands.Lookup(spec.Action)
		if !ok {
			return Mapping{}, fmt.Errorf("unknown action %q", spec.Action)
		}
		target = ToCommand(def)
	case spec.Expr != "":
		target = ToExpression(spec.Expr)
	default:
		rhs, err := key.ParseSequence(ExpandLeader(spec.RHS, leader))
		if err != nil {
			return Mapping{}, fmt.Errorf("rhs: %w", err)
		}
		target = ToKeys(rhs)
	}
	if !spec.NoRemap {
		flags |= FlagRecursive
	}
	if spec.Silent {
		flags |= FlagSilent
	}
	if spec.NoWait {
		flags |= FlagNoWait
	}
	return Mapping{Owner: owner, Modes: modes, LHS: lhs, Target: target, Flags: flags}, nil
}

var leaderPattern = regexp.MustCompile(`(?i)<leader>`)

// ExpandLeader replaces <Leader> in notation with the leader key.
func ExpandLeader(notation, leader string) string {
	if leader == "<" {
		leader = "<lt>"
	}
	return leaderPattern.ReplaceAllLiteralString(notation, leader)
}
