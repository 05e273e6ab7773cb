package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/dshills/modalkeys/internal/input"
	"github.com/dshills/modalkeys/internal/input/command"
)

// Format is a report output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func parseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q: want text, json or yaml", s)
}

// Report describes what a key sequence did.
type Report struct {
	Keys         string          `json:"keys" yaml:"keys"`
	Status       string          `json:"status" yaml:"status"`
	Mode         string          `json:"mode" yaml:"mode"`
	Commands     []CommandReport `json:"commands" yaml:"commands"`
	CommandCount int             `json:"command_count" yaml:"command_count"`
	Pending      string          `json:"pending,omitempty" yaml:"pending,omitempty"`
	CommandLine  string          `json:"command_line,omitempty" yaml:"command_line,omitempty"`
	Recording    string          `json:"recording,omitempty" yaml:"recording,omitempty"`
	Errors       []string        `json:"errors,omitempty" yaml:"errors,omitempty"`
	Messages     []string        `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// CommandReport is one completed command.
type CommandReport struct {
	Keys     string `json:"keys" yaml:"keys"`
	Command  string `json:"command" yaml:"command"`
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty"`
	Action   string `json:"action" yaml:"action"`
	Count    int    `json:"count" yaml:"count"`
	Register string `json:"register,omitempty" yaml:"register,omitempty"`
	Argument string `json:"argument,omitempty" yaml:"argument,omitempty"`
	Flags    string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Enters   string `json:"enters,omitempty" yaml:"enters,omitempty"`
}

func newCommandReport(cmd *command.Command) CommandReport {
	r := CommandReport{
		Keys:     cmd.Keys.String(),
		Command:  cmd.String(),
		Operator: cmd.OperatorID(),
		Action:   cmd.ID(),
		Count:    cmd.Count,
		Flags:    cmd.Flags.String(),
	}
	if cmd.Register != 0 {
		r.Register = string(cmd.Register)
	}
	if cmd.Argument.Type != command.ArgMotion {
		r.Argument = cmd.Argument.String()
	}
	if cmd.Enters != 0 {
		r.Enters = cmd.Enters.String()
	}
	return r
}

// newReport describes the outcome of one call into the dispatcher.
func newReport(keys string, out input.Outcome) Report {
	r := Report{Keys: keys}
	r.add(out)
	return r
}

// summarize merges the outcomes of a whole key sequence. Status, mode
// and pending state come from the last outcome.
func summarize(keys string, outs []input.Outcome) Report {
	r := Report{Keys: keys, Commands: []CommandReport{}}
	for _, out := range outs {
		r.add(out)
	}
	return r
}

func (r *Report) add(out input.Outcome) {
	if r.Commands == nil {
		r.Commands = []CommandReport{}
	}
	for _, cmd := range out.Commands {
		r.Commands = append(r.Commands, newCommandReport(cmd))
	}
	r.CommandCount += out.CommandCount
	for _, err := range out.Errors {
		r.Errors = append(r.Errors, err.Error())
	}
	r.Messages = append(r.Messages, out.Messages...)

	r.Status = out.Status.String()
	r.Mode = out.Mode.String()
	r.Pending = out.Pending
	r.CommandLine = out.CommandLine
	r.Recording = ""
	if out.Recording != 0 {
		r.Recording = string(out.Recording)
	}
}

func writeReports(w io.Writer, format Format, reports []Report) error {
	var v any = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := writeText(w, r); err != nil {
			return err
		}
	}
	return nil
}

func writeText(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "keys:\t%s\n", r.Keys)
	for _, c := range r.Commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Keys, c.Command)
	}
	if r.CommandCount > len(r.Commands) {
		fmt.Fprintf(tw, "  ...\t%d more\n", r.CommandCount-len(r.Commands))
	}
	fmt.Fprintf(tw, "status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "mode:\t%s\n", r.Mode)
	if r.Pending != "" {
		fmt.Fprintf(tw, "pending:\t%s\n", r.Pending)
	}
	if r.CommandLine != "" {
		fmt.Fprintf(tw, "cmdline:\t%s\n", r.CommandLine)
	}
	if r.Recording != "" {
		fmt.Fprintf(tw, "recording:\t@%s\n", r.Recording)
	}
	for _, m := range r.Messages {
		fmt.Fprintf(tw, "message:\t%s\n", m)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(tw, "error:\t%s\n", e)
	}
	return tw.Flush()
}
