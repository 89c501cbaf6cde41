package css

import (
	"io"
	"strings"
)

const (
	importantSuffix = "!important"
	starHackPrefix  = "*"
)

// Declaration is a single property assignment inside a rule block.
type Declaration struct {
	Property  string // lower-cased, custom properties keep their case
	Value     string // value text with whitespace collapsed
	Important bool   // "!important" priority
	StarHack  bool   // legacy "*property" hack
}

// String returns declaration identity as it appears in optimized output:
// "[*]property:value[!important]". Declarations differing only in priority or
// star hack are different declarations.
func (d Declaration) String() string {
	var sb strings.Builder
	sb.Grow(len(d.Property) + len(d.Value) + len(importantSuffix) + 2)
	if d.StarHack {
		sb.WriteString(starHackPrefix)
	}
	sb.WriteString(d.Property)
	sb.WriteByte(':')
	sb.WriteString(d.Value)
	if d.Important {
		sb.WriteString(importantSuffix)
	}
	return sb.String()
}

// Rule is a qualified rule: selector list with its declaration block.
type Rule struct {
	Selectors    []string
	Declarations []Declaration
}

// DeclarationKeys returns declaration identities in source order.
func (r Rule) DeclarationKeys() []string {
	keys := make([]string, len(r.Declarations))
	for i, d := range r.Declarations {
		keys[i] = d.String()
	}
	return keys
}

func (r Rule) String() string {
	return strings.Join(r.Selectors, ",") + "{" + strings.Join(r.DeclarationKeys(), ";") + "}"
}

// AtRule is an at-rule kept as it was in the source.
type AtRule struct {
	Name string // lower-cased keyword with "@"
	Text string
}

// Stylesheet is the parsed form of one or more concatenated sources.
type Stylesheet struct {
	Rules   []Rule
	AtRules []AtRule
	// Charset is the name from the last @charset rule, such rules are not
	// kept with other at-rules.
	Charset  string
	Warnings []string
}

// DeclarationCount returns number of declarations in all rules.
func (s *Stylesheet) DeclarationCount() int {
	n := 0
	for _, r := range s.Rules {
		n += len(r.Declarations)
	}
	return n
}

// WriteAtRules writes source text of every at-rule followed by term.
func (s *Stylesheet) WriteAtRules(w io.Writer, term string) (int64, error) {
	var total int64
	for _, a := range s.AtRules {
		n, err := io.WriteString(w, a.Text+term)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteTo writes normalized stylesheet: at-rules first, then rules one per
// line.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	total, err := s.WriteAtRules(w, "\n")
	if err != nil {
		return total, err
	}
	for _, r := range s.Rules {
		n, err := io.WriteString(w, r.String()+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Stylesheet) String() string {
	var sb strings.Builder
	_, _ = s.WriteTo(&sb)
	return sb.String()
}
