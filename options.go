package rvcfg

import "go.uber.org/zap"

// ParseOptions controls parsing behavior.
type ParseOptions struct {
	// Logger receives debug traces of matched statements and skipped lines.
	// Defaults to a no-op logger.
	Logger *zap.Logger
	// MaxDepth limits class nesting; 0 means unlimited.
	MaxDepth int
	// StripComments removes // and /* */ comments outside quoted strings before parsing.
	// Disabled by default: comment lines are skipped like any unrecognized line.
	StripComments bool
	// UnescapeQuotes collapses doubled quotes ("") in scalar strings into a single quote.
	// Disabled by default: scalar strings are kept verbatim.
	UnescapeQuotes bool
}

// FormatOptions controls writer formatting.
type FormatOptions struct {
	// Indent is the indentation string for nested blocks (default is four spaces).
	Indent string
}

// normalize normalizes the ParseOptions.
func (o *ParseOptions) normalize() ParseOptions {
	if o == nil {
		return ParseOptions{Logger: zap.NewNop()}
	}

	out := *o
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	if out.MaxDepth < 0 {
		out.MaxDepth = 0
	}

	return out
}

// normalize normalizes the FormatOptions.
func (o *FormatOptions) normalize() FormatOptions {
	if o == nil {
		return FormatOptions{Indent: "    "}
	}

	out := *o
	if out.Indent == "" {
		out.Indent = "    "
	}

	return out
}
