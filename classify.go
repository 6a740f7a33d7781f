package rvcfg

import (
	"regexp"
	"strconv"
	"strings"
)

// stmtKind represents the kind of a classified line.
type stmtKind int

const (
	stmtNone   stmtKind = iota // Unrecognized line
	stmtClass                  // class Name [: Base]
	stmtString                 // name = "text";
	stmtBool                   // name = true|false;
	stmtNumber                 // name = 1.5e3;
	stmtArray                  // name[] = {...};
)

// Line patterns in precedence order. Strings are matched greedily up to the
// last `";` on the line, so values may contain quotes.
var (
	classRe  = regexp.MustCompile(`(?i)^class\s+([A-Za-z0-9_]+)(?:\s*:\s*([A-Za-z0-9_]+))?`)
	stringRe = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*=\s*"(.*)";`)
	boolRe   = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*=\s*((?i:true|false))\s*;`)
	numberRe = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*=\s*([-+]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][-+]?[0-9]+)?)\s*;`)
	arrayRe  = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*\[\]\s*=\s*`)
)

// statement is one classified line.
type statement struct {
	Name  string   // Class or field name
	Base  string   // Parent class name for stmtClass
	Value Value    // Scalar value for stmtString, stmtBool, stmtNumber
	Kind  stmtKind // Statement kind
	End   int      // Length of the matched prefix of the line
}

// classify recognizes one trimmed logical line.
func classify(line string) statement {
	if m := classRe.FindStringSubmatchIndex(line); m != nil {
		st := statement{Kind: stmtClass, Name: line[m[2]:m[3]], End: m[1]}
		if m[4] >= 0 {
			st.Base = line[m[4]:m[5]]
		}
		return st
	}

	if m := stringRe.FindStringSubmatchIndex(line); m != nil {
		return statement{Kind: stmtString, Name: line[m[2]:m[3]], Value: StringValue(line[m[4]:m[5]]), End: m[1]}
	}

	if m := boolRe.FindStringSubmatchIndex(line); m != nil {
		b := strings.EqualFold(line[m[4]:m[5]], "true")
		return statement{Kind: stmtBool, Name: line[m[2]:m[3]], Value: BoolValue(b), End: m[1]}
	}

	if m := numberRe.FindStringSubmatchIndex(line); m != nil {
		f, err := strconv.ParseFloat(line[m[4]:m[5]], 64)
		if err == nil {
			return statement{Kind: stmtNumber, Name: line[m[2]:m[3]], Value: NumberValue(f), End: m[1]}
		}
		// Out of range literals fall through and are reported as skipped.
	}

	if m := arrayRe.FindStringSubmatchIndex(line); m != nil {
		return statement{Kind: stmtArray, Name: line[m[2]:m[3]], End: m[1]}
	}

	return statement{Kind: stmtNone}
}

// unescapeQuotes collapses doubled quotes into one.
func unescapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}
