package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser turns stylesheet text into rules suitable for optimization. It is
// tolerant: malformed constructs become warnings and parsing goes on.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for warnings
// and debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	var name string
	if len(source) > 0 && source[0] != "" {
		name = source[0]
		p.log.Debug("Parsing CSS", zap.String("source", name), zap.Int("bytes", len(data)))
	}

	input := parse.NewInputBytes(data)
	defer input.Restore()
	parser := css.NewParser(input, false)

	lastErrOffset := -1
	for {
		start := parser.Offset()
		gt, _, gdata := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if !parser.HasParseError() {
				if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
					p.warn(sheet, name, fmt.Errorf("unable to read stylesheet: %w", err))
				}
				return sheet
			}
			if parser.Offset() == lastErrOffset {
				// no progress since previous error
				p.warn(sheet, name, parser.Err())
				return sheet
			}
			lastErrOffset = parser.Offset()
			p.warn(sheet, name, parser.Err())

		case css.AtRuleGrammar:
			if string(gdata) == "@charset" {
				sheet.Charset = charsetName(parser.Values())
				p.log.Debug("Stylesheet declares encoding", zap.String("charset", sheet.Charset))
				continue
			}
			p.addAtRule(sheet, gdata, span(data, start, parser.Offset()))

		case css.BeginAtRuleGrammar:
			p.skipAtRuleBlock(parser)
			p.addAtRule(sheet, gdata, span(data, start, parser.Offset()))

		case css.BeginRulesetGrammar:
			rule := Rule{Selectors: splitSelectors(parser.Values())}
			rule.Declarations = p.parseDeclarations(parser, sheet, name)
			if len(rule.Selectors) == 0 || len(rule.Declarations) == 0 {
				p.log.Debug("Dropping rule without associations", zap.Strings("selectors", rule.Selectors), zap.Int("declarations", len(rule.Declarations)))
				continue
			}
			sheet.Rules = append(sheet.Rules, rule)
		}
	}
}

func (p *Parser) warn(sheet *Stylesheet, name string, err error) {
	msg := err.Error()
	var perr *parse.Error
	if errors.As(err, &perr) {
		msg = fmt.Sprintf("%s at line %d, column %d", perr.Message, perr.Line, perr.Column)
	}
	if name != "" {
		msg = name + ": " + msg
	}
	sheet.Warnings = append(sheet.Warnings, msg)
	p.log.Debug("CSS parse error", zap.String("warning", msg))
}

func (p *Parser) addAtRule(sheet *Stylesheet, keyword, text []byte) {
	at := AtRule{Name: string(keyword), Text: string(bytes.TrimSpace(text))}
	sheet.AtRules = append(sheet.AtRules, at)
	p.log.Debug("Keeping @-rule out of optimization", zap.String("rule", at.Name))
}

// span returns data[start:end] clamped to data bounds.
func span(data []byte, start, end int) []byte {
	end = min(end, len(data))
	start = min(start, end)
	return data[start:end]
}

// charsetName returns unquoted encoding name of @charset rule.
func charsetName(values []css.Token) string {
	for _, t := range values {
		if t.TokenType == css.StringToken {
			return strings.Trim(string(t.Data), `"'`)
		}
	}
	return ""
}

// parseDeclarations collects declarations until the end of the ruleset.
func (p *Parser) parseDeclarations(parser *css.Parser, sheet *Stylesheet, name string) []Declaration {
	var decls []Declaration
	for {
		gt, _, gdata := parser.Next()

		switch gt {
		case css.EndRulesetGrammar:
			return decls

		case css.ErrorGrammar:
			if !parser.HasParseError() {
				return decls
			}
			p.warn(sheet, name, parser.Err())

		case css.DeclarationGrammar:
			d, ok := newDeclaration(string(gdata), parser.Values())
			if !ok {
				p.warn(sheet, name, fmt.Errorf("empty value of property %q", string(gdata)))
				continue
			}
			decls = append(decls, d)

		case css.CustomPropertyGrammar:
			var raw []byte
			if values := parser.Values(); len(values) > 0 {
				raw = values[0].Data
			}
			value, important := cutImportant(strings.TrimSpace(string(raw)))
			decls = append(decls, Declaration{Property: string(gdata), Value: value, Important: important})

		case css.BeginAtRuleGrammar:
			p.skipAtRuleBlock(parser)
			p.warn(sheet, name, fmt.Errorf("nested %s block ignored", string(gdata)))

		case css.AtRuleGrammar:
			p.warn(sheet, name, fmt.Errorf("nested %s ignored", string(gdata)))
		}
	}
}

// newDeclaration folds star hack and priority into the declaration. It
// returns false when the value is empty.
func newDeclaration(property string, values []css.Token) (Declaration, bool) {
	d := Declaration{}
	if rest, ok := strings.CutPrefix(property, starHackPrefix); ok {
		d.StarHack, property = true, rest
	}
	d.Property = property

	values, d.Important = splitImportant(values)
	d.Value = joinTokens(values)
	return d, d.Value != ""
}

// splitImportant removes trailing "!important" tokens.
func splitImportant(values []css.Token) ([]css.Token, bool) {
	n := len(values)
	for n > 0 && values[n-1].TokenType == css.WhitespaceToken {
		n--
	}
	if n < 2 {
		return values, false
	}
	last, prev := values[n-1], values[n-2]
	if last.TokenType == css.IdentToken && strings.EqualFold(string(last.Data), "important") &&
		prev.TokenType == css.DelimToken && string(prev.Data) == "!" {
		return values[:n-2], true
	}
	return values, false
}

// cutImportant does the same for raw custom property values.
func cutImportant(value string) (string, bool) {
	if len(value) < len(importantSuffix) {
		return value, false
	}
	tail := value[len(value)-len(importantSuffix):]
	if !strings.EqualFold(tail, importantSuffix) {
		return value, false
	}
	return strings.TrimSpace(value[:len(value)-len(importantSuffix)]), true
}

// joinTokens concatenates token data with single spaces in place of
// whitespace.
func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			sb.WriteByte(' ')
			continue
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// splitSelectors splits selector tokens on top level commas, commas inside
// functional pseudo-classes and attribute selectors stay.
func splitSelectors(tokens []css.Token) []string {
	var (
		out   []string
		cur   []css.Token
		level int
	)
	flush := func() {
		if s := joinTokens(cur); s != "" {
			out = append(out, s)
		}
		cur = cur[:0]
	}
	for _, t := range tokens {
		switch t.TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			level++
		case css.RightParenthesisToken, css.RightBracketToken:
			level = max(level-1, 0)
		case css.CommaToken:
			if level == 0 {
				flush()
				continue
			}
		}
		cur = append(cur, t)
	}
	flush()
	return out
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if parser.HasParseError() {
				continue
			}
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}
