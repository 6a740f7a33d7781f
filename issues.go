package rvcfg

import "fmt"

// IssueLevel represents severity of a parse diagnostic.
type IssueLevel string

const (
	// IssueWarning indicates input that was ignored.
	IssueWarning IssueLevel = "warning"
	// IssueInfo indicates accepted input worth noting.
	IssueInfo IssueLevel = "info"
)

// Issue codes.
const (
	// CodeSkippedLine marks a line that matched no statement.
	CodeSkippedLine = "skipped_line"
	// CodeForwardDeclaration marks a class declared without a body.
	CodeForwardDeclaration = "forward_declaration"
	// CodeDuplicateField marks an assignment that overwrote an earlier one.
	CodeDuplicateField = "duplicate_field"
	// CodeUnsupportedArray marks an array assignment without a brace literal.
	CodeUnsupportedArray = "unsupported_array"
)

// Issue represents a non-fatal parse diagnostic.
type Issue struct {
	Level   IssueLevel `json:"level" yaml:"level"`                   // Severity level
	Code    string     `json:"code,omitempty" yaml:"code,omitempty"` // Machine-readable code
	Message string     `json:"message" yaml:"message"`               // Issue message
	Text    string     `json:"text,omitempty" yaml:"text,omitempty"` // Source line text
	Path    string     `json:"path,omitempty" yaml:"path,omitempty"` // Class path, e.g. CfgWorlds/ChernarusPlus
	Line    int        `json:"line" yaml:"line"`                     // 1-based source line
}

// String formats the issue for logs.
func (i Issue) String() string {
	if i.Path != "" {
		return fmt.Sprintf("%s: line %d: %s [%s] %s: %q", i.Level, i.Line, i.Message, i.Code, i.Path, i.Text)
	}

	return fmt.Sprintf("%s: line %d: %s [%s]: %q", i.Level, i.Line, i.Message, i.Code, i.Text)
}

// Warnings returns issues of warning level.
func (d *Document) Warnings() []Issue {
	var out []Issue
	for _, it := range d.Issues {
		if it.Level == IssueWarning {
			out = append(out, it)
		}
	}

	return out
}
