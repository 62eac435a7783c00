// Package cli — output.go holds the lipgloss styles and the output
// helpers shared by the subcommands.
//
// Results go to stdout, errors and warnings to stderr, so scripted
// callers can separate them. With --json, results and errors alike are
// emitted as structured JSON.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elm-hollow/copse/internal/model"
)

// Lipgloss styles for human-readable output.
var (
	// Success marker - bright green
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	// Warning prefix - bright yellow
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	// Error prefix - bright red
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Filesystem paths - cyan
	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// Branch names - magenta, bold
	branchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)

	// Secondary facts (hashes, annotations) - dim gray
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// printError outputs an error message in the appropriate format (JSON or
// text) based on the --json global flag. Errors always go to stderr;
// stdout is reserved for successful command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errMap := map[string]any{"message": message}
		if underlying != nil {
			errMap["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(map[string]any{"error": errMap}, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}
	if underlying != nil {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", errorStyle.Render("error:"), message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("error:"), message)
	}
}

// printWarning reports a partial provisioning failure on stderr: the
// command that failed and the ones that never ran. The worktree exists
// and the process still exits zero.
func printWarning(w *model.ProvisioningWarning) {
	if w == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", warnStyle.Render("warning:"), w.Command, w.Err)
	if len(w.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "%s skipped: %s\n", warnStyle.Render("warning:"), strings.Join(w.Skipped, ", "))
	}
}

// warningJSON is the JSON shape of a provisioning warning, embedded in
// add and clone results.
type warningJSON struct {
	Command string   `json:"command"`
	Error   string   `json:"error"`
	Skipped []string `json:"skipped,omitempty"`
}

func newWarningJSON(w *model.ProvisioningWarning) *warningJSON {
	if w == nil {
		return nil
	}
	return &warningJSON{Command: w.Command, Error: w.Err.Error(), Skipped: w.Skipped}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

// shortHash abbreviates a commit hash for table output.
func shortHash(head string) string {
	if len(head) > 12 {
		return head[:12]
	}
	return head
}
