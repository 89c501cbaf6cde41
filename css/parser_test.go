package css_test

import (
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"

	"csscover/css"
)

// withSelector counts rules listing sel.
func withSelector(sheet *css.Stylesheet, sel string) int {
	n := 0
	for _, r := range sheet.Rules {
		if slices.Contains(r.Selectors, sel) {
			n++
		}
	}
	return n
}

func parse(t *testing.T, src string) *css.Stylesheet {
	t.Helper()
	return css.NewParser(zap.NewNop()).Parse([]byte(src))
}

func keys(sheet *css.Stylesheet) [][]string {
	var out [][]string
	for _, r := range sheet.Rules {
		out = append(out, r.DeclarationKeys())
	}
	return out
}

func TestParser_SimpleRule(t *testing.T) {
	sheet := parse(t, `p { text-indent: 1em; }`)

	if len(sheet.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(sheet.Rules))
	}
	rule := sheet.Rules[0]
	if !slices.Equal(rule.Selectors, []string{"p"}) {
		t.Errorf("expected selectors [p], got %v", rule.Selectors)
	}
	if len(rule.Declarations) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(rule.Declarations))
	}
	d := rule.Declarations[0]
	if d.Property != "text-indent" || d.Value != "1em" || d.Important || d.StarHack {
		t.Errorf("unexpected declaration %+v", d)
	}
	if got := rule.String(); got != "p{text-indent:1em}" {
		t.Errorf("String() = %q", got)
	}
	if len(sheet.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", sheet.Warnings)
	}
}

func TestParser_GroupedSelectors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"comma list", `h1, h2 ,h3 { margin: 0 }`, []string{"h1", "h2", "h3"}},
		{"descendant whitespace", "div   p,\n\tul  li { margin: 0 }", []string{"div p", "ul li"}},
		{"child combinator", `ul > li { margin: 0 }`, []string{"ul>li"}},
		{"comma inside :is", `:is(h1, h2) a, b { margin: 0 }`, []string{":is(h1,h2) a", "b"}},
		{"comma inside attribute", `a[title="x,y"], b { margin: 0 }`, []string{`a[title="x,y"]`, "b"}},
		{"pseudo element", `p::first-line, a:hover { margin: 0 }`, []string{"p::first-line", "a:hover"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := parse(t, tt.src)
			if len(sheet.Rules) != 1 {
				t.Fatalf("expected 1 rule, got %d (warnings %v)", len(sheet.Rules), sheet.Warnings)
			}
			if got := sheet.Rules[0].Selectors; !slices.Equal(got, tt.want) {
				t.Errorf("selectors = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParser_DeclarationIdentity(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain", `a{color:red}`, "color:red"},
		{"important", `a{color: red !important}`, "color:red!important"},
		{"important no space", `a{color:red!important}`, "color:red!important"},
		{"important upper case", `a{color:red !IMPORTANT}`, "color:red!important"},
		{"star hack", `a{*zoom: 1}`, "*zoom:1"},
		{"star hack important", `a{*color: red !important}`, "*color:red!important"},
		{"property case", `a{COLOR: Red}`, "color:Red"},
		{"collapsed whitespace", `a{margin: 0   auto}`, "margin:0 auto"},
		{"function", `a{color: rgb(0, 0, 0)}`, "color:rgb(0,0,0)"},
		{"font shorthand", `a{font: 12px/1.5 Arial, sans-serif}`, "font:12px/1.5 Arial,sans-serif"},
		{"custom property", `a{--main-color:  #06c ;}`, "--main-color:#06c"},
		{"comment in value", `a{margin:0/* x */auto}`, "margin:0 auto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := parse(t, tt.src)
			if len(sheet.Rules) != 1 {
				t.Fatalf("expected 1 rule, got %d (warnings %v)", len(sheet.Rules), sheet.Warnings)
			}
			if got := sheet.Rules[0].DeclarationKeys(); !slices.Equal(got, []string{tt.want}) {
				t.Errorf("declarations = %q, want [%q]", got, tt.want)
			}
		})
	}
}

func TestParser_MarkersMakeDistinctDeclarations(t *testing.T) {
	sheet := parse(t, `a{color:red} b{color:red !important} c{*color:red}`)
	got := keys(sheet)
	want := [][]string{{"color:red"}, {"color:red!important"}, {"*color:red"}}
	if !slices.EqualFunc(got, want, slices.Equal) {
		t.Errorf("declarations = %q, want %q", got, want)
	}
}

func TestParser_AtRulesExcluded(t *testing.T) {
	src := `@charset "utf-8";
@import url("base.css");
a { color: red }
@media screen and (max-width: 600px) {
  a { color: blue }
  @supports (display: grid) { b { display: grid } }
}
@font-face { font-family: "X"; src: url(x.woff) }
b { color: red }`

	sheet := parse(t, src)

	got := keys(sheet)
	want := [][]string{{"color:red"}, {"color:red"}}
	if !slices.EqualFunc(got, want, slices.Equal) {
		t.Fatalf("rules = %q, want %q", got, want)
	}
	if !slices.Equal(sheet.Rules[0].Selectors, []string{"a"}) || !slices.Equal(sheet.Rules[1].Selectors, []string{"b"}) {
		t.Errorf("unexpected selectors: %v, %v", sheet.Rules[0].Selectors, sheet.Rules[1].Selectors)
	}

	var names []string
	for _, a := range sheet.AtRules {
		names = append(names, a.Name)
	}
	if !slices.Equal(names, []string{"@import", "@media", "@font-face"}) {
		t.Fatalf("at-rules = %v", names)
	}
	if sheet.Charset != "utf-8" {
		t.Errorf("Charset = %q, want utf-8", sheet.Charset)
	}
	if got := sheet.AtRules[0].Text; got != `@import url("base.css");` {
		t.Errorf("@import text = %q", got)
	}
	media := sheet.AtRules[1].Text
	if !strings.HasPrefix(media, "@media screen") || !strings.HasSuffix(media, "}") || !strings.Contains(media, "display: grid") {
		t.Errorf("@media text = %q", media)
	}
	if got := sheet.AtRules[2].Text; got != `@font-face { font-family: "X"; src: url(x.woff) }` {
		t.Errorf("@font-face text = %q", got)
	}
}

func TestParser_EmptyRulesDropped(t *testing.T) {
	sheet := parse(t, `a{} b{;} c{color:red}`)
	if len(sheet.Rules) != 1 || withSelector(sheet, "c") != 1 {
		t.Errorf("expected only rule c, got %v", sheet.Rules)
	}
}

func TestParser_ErrorsAreWarnings(t *testing.T) {
	sheet := css.NewParser(zap.NewNop()).Parse([]byte(`a{color red} b{margin:0} c{padding:0}`), "broken.css")

	if len(sheet.Warnings) == 0 {
		t.Fatal("expected parse warning")
	}
	if !strings.HasPrefix(sheet.Warnings[0], "broken.css: ") {
		t.Errorf("warning does not name the source: %q", sheet.Warnings[0])
	}
	if withSelector(sheet, "b") != 1 || withSelector(sheet, "c") != 1 {
		t.Errorf("parsing did not continue after error: %v", sheet.Rules)
	}
	if withSelector(sheet, "a") != 0 {
		t.Errorf("rule without valid declarations kept: %v", sheet.Rules)
	}
}

func TestParser_Unterminated(t *testing.T) {
	sheet := parse(t, `a{color:red;margin:0`)
	got := keys(sheet)
	want := [][]string{{"color:red", "margin:0"}}
	if !slices.EqualFunc(got, want, slices.Equal) {
		t.Errorf("declarations = %q, want %q", got, want)
	}
}

func TestParser_Comments(t *testing.T) {
	sheet := parse(t, `/* header */ a { /* inside */ color: red; } /* footer */`)
	got := keys(sheet)
	want := [][]string{{"color:red"}}
	if !slices.EqualFunc(got, want, slices.Equal) {
		t.Errorf("declarations = %q, want %q", got, want)
	}
	if len(sheet.AtRules) != 0 || len(sheet.Warnings) != 0 {
		t.Errorf("unexpected at-rules %v or warnings %v", sheet.AtRules, sheet.Warnings)
	}
}

func TestParser_Empty(t *testing.T) {
	for _, src := range []string{"", "   \n", "/* only comment */"} {
		sheet := parse(t, src)
		if len(sheet.Rules) != 0 || len(sheet.Warnings) != 0 {
			t.Errorf("Parse(%q) = %d rules, warnings %v", src, len(sheet.Rules), sheet.Warnings)
		}
	}
}

func TestParser_SourceOrderPreserved(t *testing.T) {
	sheet := parse(t, `b{x:1} a{y:2;x:1} c{z:3}`)
	var got []string
	for _, r := range sheet.Rules {
		got = append(got, r.String())
	}
	want := []string{"b{x:1}", "a{y:2;x:1}", "c{z:3}"}
	if !slices.Equal(got, want) {
		t.Errorf("rules = %q, want %q", got, want)
	}
	if sheet.DeclarationCount() != 4 {
		t.Errorf("DeclarationCount() = %d, want 4", sheet.DeclarationCount())
	}
}

func TestStylesheet_WriteTo(t *testing.T) {
	sheet := parse(t, `@import "x.css"; a, b { color : red ; margin:0 }`)

	var sb strings.Builder
	n, err := sheet.WriteTo(&sb)
	if err != nil {
		t.Fatalf("WriteTo() failed: %v", err)
	}
	want := "@import \"x.css\";\na,b{color:red;margin:0}\n"
	if sb.String() != want || int(n) != len(want) {
		t.Errorf("WriteTo() = %q (%d), want %q", sb.String(), n, want)
	}
	if sheet.String() != want {
		t.Errorf("String() = %q, want %q", sheet.String(), want)
	}

	sb.Reset()
	if _, err := sheet.WriteAtRules(&sb, ""); err != nil || sb.String() != `@import "x.css";` {
		t.Errorf("WriteAtRules() = %q, %v", sb.String(), err)
	}
}

func TestDeclaration_String(t *testing.T) {
	d := css.Declaration{Property: "color", Value: "red", Important: true, StarHack: true}
	if got := d.String(); got != "*color:red!important" {
		t.Errorf("String() = %q", got)
	}
}

func TestParser_SelectorLists(t *testing.T) {
	sheet := parse(t, `a, b {x:1} b {y:2} c {z:3}`)
	if got := withSelector(sheet, "b"); got != 2 {
		t.Errorf("selector b is listed by %d rules, want 2", got)
	}
	if got := withSelector(sheet, "d"); got != 0 {
		t.Errorf("selector d is listed by %d rules, want 0", got)
	}
	if got := sheet.DeclarationCount(); got != 3 {
		t.Errorf("DeclarationCount() = %d, want 3", got)
	}
}
