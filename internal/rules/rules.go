package rules

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// DirectivePrefix introduces a directive token within a rule line.
const DirectivePrefix = ":"

// CommentPrefix marks a whole line as a comment when it is the first
// non-whitespace character.
const CommentPrefix = "#"

// Rule pairs a window match condition with the command to run when a window
// satisfies it. At least one of App/Title is always non-nil; a rule with
// neither could never match and is rejected by Parse.
type Rule struct {
	App     *regexp.Regexp // matched against app_id or X11 instance, search semantics
	Title   *regexp.Regexp // matched against the window title, search semantics
	Command string         // sway command, run once against the matched window
}

// String returns a compact description of the rule for logging.
func (r Rule) String() string {
	var parts []string
	if r.App != nil {
		parts = append(parts, fmt.Sprintf("app=%s", r.App))
	}
	if r.Title != nil {
		parts = append(parts, fmt.Sprintf("title=%s", r.Title))
	}
	parts = append(parts, fmt.Sprintf("command=%q", r.Command))
	return strings.Join(parts, " ")
}

// InvalidRuleError reports a rule line that could not be parsed.
type InvalidRuleError struct {
	Line   int    // 1-based line number in the input
	Reason string // what was wrong with the line
	Err    error  // underlying error (e.g. regexp compilation), may be nil
}

func (e *InvalidRuleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid rule on line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid rule on line %d: %s", e.Line, e.Reason)
}

func (e *InvalidRuleError) Unwrap() error { return e.Err }

// Parse reads line-oriented rule text and returns the rules in input order.
//
// Blank lines and lines starting with "#" are skipped. On each remaining
// line, tokens are split on whitespace and scanned left to right: a token
// starting with ":" names a directive ("app" or "title") whose pattern is the
// next token; every other token belongs to the command text, which is
// reassembled with single spaces. Directive order within a line does not
// matter.
func Parse(r io.Reader) ([]Rule, error) {
	var rules []Rule

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}

		rule, err := parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	return rules, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(text string) ([]Rule, error) {
	return Parse(strings.NewReader(text))
}

func parseLine(line string, lineNo int) (Rule, error) {
	var rule Rule
	var command []string

	tokens := strings.Fields(line)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, DirectivePrefix) {
			command = append(command, tok)
			continue
		}

		name := strings.TrimPrefix(tok, DirectivePrefix)
		if name != "app" && name != "title" {
			return Rule{}, &InvalidRuleError{
				Line:   lineNo,
				Reason: fmt.Sprintf("unknown directive %q", name),
			}
		}
		if i+1 >= len(tokens) {
			return Rule{}, &InvalidRuleError{
				Line:   lineNo,
				Reason: fmt.Sprintf("directive %q has no pattern", name),
			}
		}
		i++
		re, err := regexp.Compile(tokens[i])
		if err != nil {
			return Rule{}, &InvalidRuleError{
				Line:   lineNo,
				Reason: fmt.Sprintf("bad %s pattern %q", name, tokens[i]),
				Err:    err,
			}
		}
		switch name {
		case "app":
			rule.App = re
		case "title":
			rule.Title = re
		}
	}

	if rule.App == nil && rule.Title == nil {
		return Rule{}, &InvalidRuleError{
			Line:   lineNo,
			Reason: "rule needs at least one :app or :title directive",
		}
	}

	rule.Command = strings.Join(command, " ")
	return rule, nil
}
