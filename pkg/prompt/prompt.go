// Package prompt implements the interactive part and configuration selection
// on a line-oriented console.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/kataras/onshape-exporter/pkg/console"
	"github.com/kataras/onshape-exporter/pkg/onshape"
)

var highlight = color.New(color.FgYellow, color.Bold)

// InputError reports a selection that could not be parsed or is out of range.
type InputError struct {
	Input  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.Input, e.Reason)
}

// Prompter reads selections from in and writes listings and prompts to out.
// Every Select method blocks until it reads a valid answer or in is exhausted.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New returns a Prompter reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// SelectPart lists parts with 1-based indices and asks for one of them.
func (p *Prompter) SelectPart(parts []onshape.Part) (onshape.Part, error) {
	if len(parts) == 0 {
		return onshape.Part{}, errors.New("no parts to select from")
	}

	p.printf(console.Info, "Found multiple parts:\n")
	for i, part := range parts {
		fmt.Fprintf(p.out, "%s %s\n", color.GreenString("%d)", i+1), part.Name)
	}

	for {
		p.printf(console.Inquire, "Please select part to be exported: ")
		line, err := p.readLine()
		if err != nil {
			return onshape.Part{}, err
		}

		idx, err := ParsePartSelection(line, len(parts))
		if err != nil {
			p.printf(console.Error, "Cannot parse input, try again. (%v)\n", err)
			continue
		}

		chosen := parts[idx]
		p.printf(console.Info, "Chosen part: %s\n", color.GreenString(chosen.Name))
		return chosen, nil
	}
}

// SelectParameters lists params with their options, the default option highlighted,
// and asks for a comma-separated list of indices. "0" selects every parameter.
func (p *Prompter) SelectParameters(params []onshape.ConfigParameter) ([]onshape.ConfigParameter, error) {
	if len(params) == 0 {
		return nil, errors.New("no configuration parameters to select from")
	}

	p.printf(console.Info, "Found configurations: (with %s)\n", highlight.Sprint("default option"))
	fmt.Fprintf(p.out, "%s Select All\n", color.GreenString("0)"))
	for i, param := range params {
		fmt.Fprintf(p.out, "%s %s : %s\n", color.GreenString("%d)", i+1), param.Name, describeOptions(param))
	}

	for {
		p.printf(console.Inquire, "Please select configuration inputs to be exported (use , to separate multiple selections, 0 means all):\n")
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}

		sel := ParseParameterSelection(line, len(params))
		for _, tok := range sel.Dropped {
			p.printf(console.Warning, "Ignoring selection %q: not an index between 0 and %d\n", tok, len(params))
		}
		if sel.Empty() {
			p.printf(console.Error, "Cannot parse input, try again.\n")
			continue
		}

		chosen := sel.Apply(params)
		selectedNames := make([]string, len(chosen))
		for i, c := range chosen {
			selectedNames[i] = c.Name
		}
		p.printf(console.Info, "Selected configuration inputs are: %s\n", color.GreenString(strings.Join(selectedNames, ", ")))
		return chosen, nil
	}
}

// ConfirmCombinations asks whether total combinations should really be downloaded.
// Only "y" or "Y" confirms.
func (p *Prompter) ConfirmCombinations(total int) (bool, error) {
	p.printf(console.Warning, "%d many combinations to be downloaded, are you sure? [Y/n] ", total)
	line, err := p.readLine()
	if err != nil {
		return false, err
	}
	return strings.EqualFold(line, "y"), nil
}

func (p *Prompter) printf(s console.Severity, format string, args ...any) {
	fmt.Fprint(p.out, s.Tag())
	fmt.Fprintf(p.out, format, args...)
}

// readLine returns the next trimmed line. A final line without a newline is returned
// as is; io.ErrUnexpectedEOF is returned once the input is exhausted.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read selection: %w", io.ErrUnexpectedEOF)
		}
		return "", fmt.Errorf("read selection: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func describeOptions(param onshape.ConfigParameter) string {
	if param.Kind == onshape.KindUnsupported {
		return "(not a list or checkbox, cannot be enumerated)"
	}

	names := make([]string, 0, len(param.Options))
	for _, opt := range param.Options {
		if param.IsDefault(opt) {
			names = append(names, highlight.Sprint(opt.Name))
			continue
		}
		names = append(names, opt.Name)
	}
	return strings.Join(names, ", ")
}

// ParsePartSelection parses a 1-based part index out of n parts and returns it 0-based.
func ParsePartSelection(input string, n int) (int, error) {
	input = strings.TrimSpace(input)
	idx, ok := parseIndex(input)
	if !ok {
		return 0, &InputError{Input: input, Reason: "not a number"}
	}
	if idx < 1 || idx > n {
		return 0, &InputError{Input: input, Reason: fmt.Sprintf("must be between 1 and %d", n)}
	}
	return idx - 1, nil
}

// Selection is a parsed configuration parameter selection.
type Selection struct {
	All     bool     // "0" was present
	Indices []int    // 1-based, deduplicated, in input order
	Dropped []string // tokens that were not digits or out of range
}

// Empty reports whether the selection picks no parameter.
func (s Selection) Empty() bool {
	return !s.All && len(s.Indices) == 0
}

// Apply returns the selected parameters. All wins over explicit indices.
func (s Selection) Apply(params []onshape.ConfigParameter) []onshape.ConfigParameter {
	if s.All {
		return params
	}
	chosen := make([]onshape.ConfigParameter, 0, len(s.Indices))
	for _, i := range s.Indices {
		chosen = append(chosen, params[i-1])
	}
	return chosen
}

// ParseParameterSelection parses a comma-separated list of indices between 0 and n.
// Blank tokens are ignored; other invalid tokens end up in Dropped.
func ParseParameterSelection(input string, n int) Selection {
	var sel Selection
	seen := make(map[int]bool)

	for _, tok := range strings.Split(input, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		idx, ok := parseIndex(tok)
		if !ok || idx > n {
			sel.Dropped = append(sel.Dropped, tok)
			continue
		}

		if idx == 0 {
			sel.All = true
			continue
		}
		if !seen[idx] {
			seen[idx] = true
			sel.Indices = append(sel.Indices, idx)
		}
	}

	return sel
}

// parseIndex accepts ASCII digits only, so signs and spaces are rejected.
func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return idx, true
}
