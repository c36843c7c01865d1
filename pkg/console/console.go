// Package console holds the colored line tags shared by the interactive
// prompts and the command line logger.
package console

import "github.com/fatih/color"

// Severity selects the colored tag printed in front of a console line.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Succeed
	Progress
	Inquire
)

// Tag returns the colored, fixed-width tag of s followed by a space.
func (s Severity) Tag() string {
	switch s {
	case Warning:
		return color.YellowString("[Warning]") + " "
	case Error:
		return color.RedString("[ Error ]") + " "
	case Succeed:
		return color.GreenString("[Succeed]") + " "
	case Progress:
		return color.CyanString("[Progres]") + " "
	case Inquire:
		return color.MagentaString("[Inquire]") + " "
	default:
		return color.BlueString("[ Info. ]") + " "
	}
}
