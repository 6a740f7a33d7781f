package rvcfg

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

func TestParseSample(t *testing.T) {
	root, err := DecodeFile(filepath.Join("testdata", "cfgworlds.cpp"), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got, want := root.Keys(), []string{"CfgPatches", "CfgWorlds"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("top-level keys: %v != %v", got, want)
	}

	worlds, ok := root.Class("cfgworlds")
	if !ok {
		t.Fatalf("CfgWorlds not found")
	}
	if worlds.Has("CAWorld") || worlds.Has("DefaultWorld") {
		t.Fatalf("forward declarations must not produce fields")
	}

	world, ok := worlds.Class("TESTMAP")
	if !ok {
		t.Fatalf("Testmap not found")
	}
	if world.Parent != "CAWorld" {
		t.Fatalf("parent = %q", world.Parent)
	}
	if desc, _ := world.StringField("description"); desc != "Test Map" {
		t.Fatalf("description = %q", desc)
	}
	if wn, _ := world.StringField("worldName"); wn != `dz\worlds\testmap\world\testmap.wrp` {
		t.Fatalf("worldName = %q", wn)
	}
	center, ok := world.Vec2("centerPosition")
	if !ok || center != (Vec2{X: 7680, Y: 7680}) {
		t.Fatalf("centerPosition = %v %v", center, ok)
	}
	if lat, _ := world.NumberField("latitude"); lat != -45.5 {
		t.Fatalf("latitude = %v", lat)
	}
	if cd, _ := world.NumberField("clutterDist"); cd != 120 {
		t.Fatalf("clutterDist = %v", cd)
	}
	if snd, ok := world.BoolField("enableSound"); !ok || !snd {
		t.Fatalf("enableSound = %v %v", snd, ok)
	}

	names, ok := world.Class("Names")
	if !ok || names.Len() != 2 {
		t.Fatalf("Names = %v", names.Keys())
	}
	city, _ := names.Class("Settlement_Chernogorsk")
	if pos, ok := city.Vec2("position"); !ok || pos != (Vec2{X: 6650.2, Y: 2460.7}) {
		t.Fatalf("position = %v", pos)
	}

	ils, ok := world.ArrayField("ilsPosition")
	if !ok || len(ils) != 2 || ils[1].Array[0].Num != 4897.4 {
		t.Fatalf("ilsPosition = %v", ils)
	}

	// Statements after nested classes stay in the outer class.
	if iw, _ := worlds.StringField("initWorld"); iw != "Testmap" {
		t.Fatalf("initWorld = %q", iw)
	}
	if world.Has("initWorld") {
		t.Fatalf("outer field leaked into inner class")
	}
}

func TestParseOneLineWorld(t *testing.T) {
	root, err := ParseString(`class cfgWorlds { class testmap { centerPosition[]={500,500}; Names[]={}; } };`, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := NewNode()
	tm := NewNode()
	tm.Set("centerPosition", ArrayValue(NumberValue(500), NumberValue(500)))
	tm.Set("Names", ArrayValue())
	worlds := NewNode()
	worlds.Set("testmap", ObjectValue(tm))
	want.Set("cfgWorlds", ObjectValue(worlds))

	if !root.Equal(want) {
		got, _ := root.MarshalJSON()
		t.Fatalf("unexpected tree: %s", got)
	}

	b, err := root.MarshalJSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if string(b) != `{"cfgWorlds":{"testmap":{"centerPosition":[500,500],"Names":[]}}}` {
		t.Fatalf("json = %s", b)
	}
}

func TestScalarOrderAndTypes(t *testing.T) {
	input := "b = 1;\na = \"s\";\nc = TRUE;\nd = -1.5e3;\ne = false;\nf = .5;\ng = \"\";\n"
	root, err := ParseString(input, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got, want := root.Keys(), []string{"b", "a", "c", "d", "e", "f", "g"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys: %v != %v", got, want)
	}

	tests := []struct {
		name string
		want Value
	}{
		{"b", NumberValue(1)},
		{"a", StringValue("s")},
		{"c", BoolValue(true)},
		{"d", NumberValue(-1500)},
		{"e", BoolValue(false)},
		{"f", NumberValue(0.5)},
		{"g", StringValue("")},
	}
	for _, tt := range tests {
		got, ok := root.Get(tt.name)
		if !ok || !got.Equal(tt.want) {
			t.Fatalf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestArrayLiteralDecode(t *testing.T) {
	root, err := ParseString(`x[]={1,2,{3,4},"a"};`, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := ArrayValue(
		NumberValue(1),
		NumberValue(2),
		ArrayValue(NumberValue(3), NumberValue(4)),
		StringValue("a"),
	)
	got, _ := root.Get("x")
	if !got.Equal(want) {
		t.Fatalf("x = %v, want %v", got, want)
	}
}

func TestArrayBracesInsideStrings(t *testing.T) {
	root, err := ParseString(`a[] = {"{x}", "y}", {"z{"}};`+"\nnext = 1;\n", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := ArrayValue(StringValue("{x}"), StringValue("y}"), ArrayValue(StringValue("z{")))
	if got, _ := root.Get("a"); !got.Equal(want) {
		t.Fatalf("a = %v", got)
	}
	if !root.Has("next") {
		t.Fatalf("field after array lost")
	}
}

func TestMultiLineArray(t *testing.T) {
	input := `arr[] =
{
	{1, 2},
	{3, 4}
};
next = 5;
`
	root, err := ParseString(input, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := ArrayValue(
		ArrayValue(NumberValue(1), NumberValue(2)),
		ArrayValue(NumberValue(3), NumberValue(4)),
	)
	if got, _ := root.Get("arr"); !got.Equal(want) {
		t.Fatalf("arr = %v", got)
	}
	if n, _ := root.NumberField("next"); n != 5 {
		t.Fatalf("next = %v", n)
	}
}

func TestDoubledQuotesVerbatim(t *testing.T) {
	input := `name = "a""b";` + "\n"

	root, err := ParseString(input, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s, _ := root.StringField("name"); s != `a""b` {
		t.Fatalf("name = %q, want verbatim a\"\"b", s)
	}

	root, err = ParseString(input, &ParseOptions{UnescapeQuotes: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s, _ := root.StringField("name"); s != `a"b` {
		t.Fatalf("name = %q, want a\"b", s)
	}
}

func TestDoubledQuotesInsideClassBody(t *testing.T) {
	input := `class A
{
	text = "close }"" brace";
	other = 2;
};
after = 3;
`
	root, err := ParseString(input, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	a, ok := root.Class("A")
	if !ok {
		t.Fatalf("A not found")
	}
	if s, _ := a.StringField("text"); s != `close }"" brace` {
		t.Fatalf("text = %q", s)
	}
	if !a.Has("other") || a.Has("after") || !root.Has("after") {
		t.Fatalf("fields scoped wrong: A=%v root=%v", a.Keys(), root.Keys())
	}
}

func TestGreedyStringMatch(t *testing.T) {
	root, err := ParseString(`title = "say "hi"; ok";`+"\n", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s, _ := root.StringField("title"); s != `say "hi"; ok` {
		t.Fatalf("title = %q", s)
	}
}

func TestInheritanceTag(t *testing.T) {
	root, err := ParseString("class Base { a = 1; };\nclass Child : Base\n{\n\tb = 2;\n};\n", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	child, ok := root.Class("Child")
	if !ok {
		t.Fatalf("Child not found")
	}
	if child.Parent != "Base" {
		t.Fatalf("parent = %q", child.Parent)
	}
	if got := child.Keys(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("inherited fields must not be merged: %v", got)
	}

	b, err := child.MarshalJSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if string(b) != `{"b":2,"__inherited":"Base"}` {
		t.Fatalf("json = %s", b)
	}
}

func TestInheritedKeyCollision(t *testing.T) {
	root, err := ParseString("class C : P\n{\n\t__inherited = \"real\";\n};\n", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	c, _ := root.Class("C")
	if c.Parent != "P" {
		t.Fatalf("parent = %q", c.Parent)
	}
	if s, _ := c.StringField(InheritedKey); s != "real" {
		t.Fatalf("real field overwritten: %q", s)
	}
}

func TestForwardDeclaration(t *testing.T) {
	doc, err := ParseDocument([]byte("class X;\nclass Y : X;\nclass Z {};\n"), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := doc.Root.Keys(); !reflect.DeepEqual(got, []string{"Z"}) {
		t.Fatalf("keys = %v", got)
	}
	z, _ := doc.Root.Class("Z")
	if z.Len() != 0 {
		t.Fatalf("Z should be empty")
	}

	var fwd int
	for _, it := range doc.Issues {
		if it.Code == CodeForwardDeclaration {
			fwd++
		}
	}
	if fwd != 2 {
		t.Fatalf("forward declarations reported = %d", fwd)
	}
}

func TestManyForwardDeclarations(t *testing.T) {
	const count = 5000
	var b strings.Builder
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "class C%d;\n", i)
	}
	b.WriteString("class Last : C1\n{\n\tx = 1;\n};\ny[] = {2};\n")

	doc, err := ParseDocument([]byte(b.String()), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Root.Keys(); !reflect.DeepEqual(got, []string{"Last", "y"}) {
		t.Fatalf("keys = %v", got)
	}
	if len(doc.Issues) != count {
		t.Fatalf("issues = %d, want %d", len(doc.Issues), count)
	}

	root, err := ParseString("class A; b[] = {1};\nclass C; class D {};\n", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := root.Keys(); !reflect.DeepEqual(got, []string{"b", "D"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestNestingDepth(t *testing.T) {
	const depth = 6
	var b strings.Builder
	for i := 1; i <= depth; i++ {
		fmt.Fprintf(&b, "class C%d\n{\nv%d = %d;\n", i, i, i)
	}
	for i := depth; i >= 1; i-- {
		fmt.Fprintf(&b, "after%d = %d;\n};\n", i, i)
	}

	root, err := ParseString(b.String(), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cur := root
	for i := 1; i <= depth; i++ {
		next, ok := cur.Class(fmt.Sprintf("C%d", i))
		if !ok {
			t.Fatalf("level %d missing", i)
		}
		want := []string{fmt.Sprintf("v%d", i)}
		if i < depth {
			want = append(want, fmt.Sprintf("C%d", i+1))
		}
		want = append(want, fmt.Sprintf("after%d", i))
		if got := next.Keys(); !reflect.DeepEqual(got, want) {
			t.Fatalf("level %d keys = %v, want %v", i, got, want)
		}
		cur = next
	}

	if _, err := ParseString(b.String(), &ParseOptions{MaxDepth: depth - 1}); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
	if _, err := ParseString(b.String(), &ParseOptions{MaxDepth: depth}); err != nil {
		t.Fatalf("parse at max depth: %v", err)
	}
}

func TestUnterminatedBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"class", "class A\n{\n  x = 1;\n"},
		{"nested", "class A {\n class B {\n };\n"},
		{"string", "class A { s = \"abc; };\n"},
		{"array", "arr[] = {1, {2, 3};\n"},
		{"no_newline", "class A { x = 1;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input, nil)
			if !errors.Is(err, ErrUnterminatedBlock) {
				t.Fatalf("expected ErrUnterminatedBlock, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Line < 1 || pe.Context == "" {
				t.Fatalf("missing context: %+v", pe)
			}
		})
	}
}

func TestUnterminatedBlockPosition(t *testing.T) {
	_, err := ParseString("class A\n{\n  x = 1;\n", nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Offset != 18 || pe.Line != 3 {
		t.Fatalf("offset=%d line=%d", pe.Offset, pe.Line)
	}
	if !strings.HasSuffix(pe.Context, "x = 1;\n") {
		t.Fatalf("context = %q", pe.Context)
	}
}

func TestMalformedArrayLiteral(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		literal string
	}{
		{"bare_word", "a[] = {1, foo};\n", "1, foo"},
		{"boolean", "a[] = {true};\n", "true"},
		{"trailing_comma", "a[] = {1, 2,};\n", "1, 2,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input, nil)
			if !errors.Is(err, ErrMalformedArrayLiteral) {
				t.Fatalf("expected ErrMalformedArrayLiteral, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Literal != tt.literal {
				t.Fatalf("literal = %q", pe.Literal)
			}
		})
	}
}

func TestSkippedLinesReported(t *testing.T) {
	input := "#include \"other.hpp\"\n// comment\nx = 1;\nscope = public;\nlist[] = MACRO;\n"
	doc, err := ParseDocument([]byte(input), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := doc.Root.Keys(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("keys = %v", got)
	}

	warns := doc.Warnings()
	if len(warns) != 4 {
		t.Fatalf("warnings = %v", warns)
	}
	if warns[0].Line != 1 || warns[0].Code != CodeSkippedLine {
		t.Fatalf("first warning = %v", warns[0])
	}
	if warns[3].Code != CodeUnsupportedArray || warns[3].Line != 5 {
		t.Fatalf("last warning = %v", warns[3])
	}
}

func TestDuplicateFieldLastWriteWins(t *testing.T) {
	doc, err := ParseDocument([]byte("a = 1;\nb = 2;\na = \"three\";\n"), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := doc.Root.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("keys = %v", got)
	}
	if s, _ := doc.Root.StringField("a"); s != "three" {
		t.Fatalf("a = %q", s)
	}
	if len(doc.Issues) != 1 || doc.Issues[0].Code != CodeDuplicateField || doc.Issues[0].Line != 3 {
		t.Fatalf("issues = %v", doc.Issues)
	}
}

func TestStatementsAfterBlockOnSameLine(t *testing.T) {
	root, err := ParseString("class A { x = 1; }; y = 2;\narr[] = {1}; z = 3;\n", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := root.Keys(); !reflect.DeepEqual(got, []string{"A", "y", "arr", "z"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestScalarsOnOneLine(t *testing.T) {
	doc, err := ParseDocument([]byte("x = 1; y = 2; z = true;\nclass A { a = 1; b = 2; };\ns = \"v\"; n = -3;\n"), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := doc.Root.Keys(); !reflect.DeepEqual(got, []string{"x", "y", "z", "A", "s", "n"}) {
		t.Fatalf("keys = %v", got)
	}
	a, _ := doc.Root.Class("A")
	if got := a.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("A keys = %v", got)
	}
	if v, _ := doc.Root.BoolField("z"); !v {
		t.Fatalf("z = %v", v)
	}
	if s, _ := doc.Root.StringField("s"); s != "v" {
		t.Fatalf("s = %q", s)
	}
	if len(doc.Issues) != 0 {
		t.Fatalf("issues = %v", doc.Issues)
	}
}

func TestTrailingTextReported(t *testing.T) {
	doc, err := ParseDocument([]byte("x = 1; junk\ny = false; // note\ns = \"a\"; tail\n"), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := doc.Root.Keys(); !reflect.DeepEqual(got, []string{"x", "y", "s"}) {
		t.Fatalf("keys = %v", got)
	}
	warns := doc.Warnings()
	if len(warns) != 3 {
		t.Fatalf("warnings = %v", warns)
	}
	for i, want := range []string{"junk", "// note", "tail"} {
		if warns[i].Code != CodeSkippedLine || warns[i].Text != want || warns[i].Line != i+1 {
			t.Fatalf("warning %d = %v", i, warns[i])
		}
	}
}

func TestStripComments(t *testing.T) {
	input := "x = 1; // note\n/* block\n y = 2;\n*/\nz = \"http://example.com\";\n"

	plain, err := ParseString(input, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := plain.Keys(); !reflect.DeepEqual(got, []string{"x", "y", "z"}) {
		t.Fatalf("keys without stripping = %v", got)
	}

	stripped, err := ParseString(input, &ParseOptions{StripComments: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := stripped.Keys(); !reflect.DeepEqual(got, []string{"x", "z"}) {
		t.Fatalf("keys with stripping = %v", got)
	}
	if s, _ := stripped.StringField("z"); s != "http://example.com" {
		t.Fatalf("z = %q", s)
	}
}

func TestCRLFAndBOM(t *testing.T) {
	root, err := Parse([]byte("\ufeffclass A\r\n{\r\n\tx = 1;\r\n\r\n\r\n\ty = \"v\";\r\n};\r\n"), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a, ok := root.Class("a")
	if !ok {
		t.Fatalf("A not found: %v", root.Keys())
	}
	if s, _ := a.StringField("y"); s != "v" {
		t.Fatalf("y = %q", s)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	root, err := ParseString("CenterPosition[] = {1, 2};\ncenterposition = 3;\n", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// Exact match wins over a case-folded one.
	if _, v, _ := root.Lookup("centerposition"); v.Kind != KindNumber {
		t.Fatalf("exact match not preferred: %v", v)
	}
	if name, v, ok := root.Lookup("CENTERPOSITION"); !ok || name != "CenterPosition" || v.Kind != KindArray {
		t.Fatalf("first folded match not returned: %s %v", name, v)
	}
}

func TestDebugLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	_, err := ParseString("class A { x = 1; };\nunknown line\n", &ParseOptions{Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if logs.FilterMessage("class").Len() != 1 {
		t.Fatalf("class trace missing")
	}
	if logs.FilterMessage("diagnostic").Len() != 1 {
		t.Fatalf("diagnostic trace missing")
	}
}

func TestYAMLView(t *testing.T) {
	root, err := ParseString("zeta = 1;\nclass Alpha : Base { list[] = {1, \"two\"}; };\n", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	s := string(out)
	if strings.Index(s, "zeta") > strings.Index(s, "Alpha") {
		t.Fatalf("order not preserved:\n%s", s)
	}
	if !strings.Contains(s, "__inherited: Base") {
		t.Fatalf("parent tag missing:\n%s", s)
	}
}

func TestFindAndMatchBlock(t *testing.T) {
	if rel, ok := find("abc;def", 2, ";"); !ok || rel != 1 {
		t.Fatalf("find = %d %v", rel, ok)
	}
	if _, ok := find("abc", 1, ";"); ok {
		t.Fatalf("find should fail")
	}
	if rel, ch, ok := findAny("class A; x[] = {1};", 7, "{;"); !ok || rel != 0 || ch != ';' {
		t.Fatalf("findAny = %d %q %v", rel, ch, ok)
	}
	if rel, ch, ok := findAny("class A\n{ x = 1; };", 7, "{;"); !ok || rel != 1 || ch != '{' {
		t.Fatalf("findAny = %d %q %v", rel, ch, ok)
	}
	if _, _, ok := findAny("class A", 7, "{;"); ok {
		t.Fatalf("findAny should fail")
	}

	tests := []struct {
		name string
		text string
		want int
	}{
		{"flat", "{ a = 1; } tail", 9},
		{"nested", "{ {x} {y{z}} } tail", 13},
		{"double_quote", `{ s = "}"; } tail`, 11},
		{"doubled_quote", `{ s = "a""}"; } tail`, 14},
		{"single_quote", `{ s = 'x{'; } tail`, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSource(tt.text, false)
			c := newCursor(src, 0, len(src.text))
			got, err := c.matchBlock(0)
			if err != nil {
				t.Fatalf("matchBlock: %v", err)
			}
			if got != tt.want {
				t.Fatalf("matchBlock = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRoundTripSample(t *testing.T) {
	want, err := DecodeFile(filepath.Join("testdata", "cfgworlds.cpp"), nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := Format(want, nil)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	got, err := Parse(out, nil)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round-trip mismatch:\n%s", out)
	}
}

func TestRoundTripGenerated(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 42))
	for i := 0; i < 200; i++ {
		want := genNode(r, 0)
		out, err := Format(want, &FormatOptions{Indent: "\t"})
		if err != nil {
			t.Fatalf("case %d: format: %v", i, err)
		}
		got, err := Parse(out, nil)
		if err != nil {
			t.Fatalf("case %d: reparse: %v\n%s", i, err, out)
		}
		if !got.Equal(want) {
			t.Fatalf("case %d: round-trip mismatch:\n%s", i, out)
		}
	}
}

func TestRoundTripQuotesInClass(t *testing.T) {
	a := NewNode()
	a.Set("s", StringValue(`say ""hi""`))
	a.Set("e", StringValue(`""`))
	a.Set("arr", ArrayValue(StringValue("it's"), StringValue(`back\`)))
	a.Set("t", NumberValue(1))
	want := NewNode()
	want.Set("A", ObjectValue(a))
	want.Set("after", NumberValue(2))

	out, err := Format(want, nil)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	got, err := Parse(out, nil)
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, out)
	}
	if !got.Equal(want) {
		t.Fatalf("round-trip mismatch:\n%s", out)
	}
}

func TestFormatUnencodable(t *testing.T) {
	tests := []struct {
		name string
		node func() *Node
	}{
		{"bool_in_array", func() *Node {
			n := NewNode()
			n.Set("a", ArrayValue(BoolValue(true)))
			return n
		}},
		{"bad_name", func() *Node {
			n := NewNode()
			n.Set("a b", NumberValue(1))
			return n
		}},
		{"multiline", func() *Node {
			n := NewNode()
			n.Set("s", StringValue("a\nb"))
			return n
		}},
		{"lone_quote", func() *Node {
			a := NewNode()
			a.Set("s", StringValue(`a"b`))
			a.Set("t", NumberValue(1))
			n := NewNode()
			n.Set("A", ObjectValue(a))
			n.Set("after", NumberValue(2))
			return n
		}},
		{"odd_quote_run", func() *Node {
			n := NewNode()
			n.Set("s", StringValue(`a"""b`))
			return n
		}},
		{"array_quote", func() *Node {
			a := NewNode()
			a.Set("a", ArrayValue(StringValue(`x"y`)))
			a.Set("t", NumberValue(1))
			n := NewNode()
			n.Set("A", ObjectValue(a))
			n.Set("after", NumberValue(2))
			return n
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Format(tt.node(), nil); !errors.Is(err, ErrUnencodable) {
				t.Fatalf("expected ErrUnencodable, got %v", err)
			}
		})
	}
}

const genAlphabet = `abcXYZ019 _-.:/\{};"'`

func genString(r *rand.Rand) string {
	n := r.IntN(10)
	b := make([]byte, n)
	for i := range b {
		b[i] = genAlphabet[r.IntN(len(genAlphabet))]
	}
	return string(b)
}

// genScalarString doubles quotes, the only form a scalar string can carry.
func genScalarString(r *rand.Rand) string {
	return strings.ReplaceAll(genString(r), `"`, `""`)
}

// genElementString drops quotes, which array strings cannot carry.
func genElementString(r *rand.Rand) string {
	return strings.ReplaceAll(genString(r), `"`, `'`)
}

func genNumber(r *rand.Rand) float64 {
	if r.IntN(2) == 0 {
		return float64(r.IntN(20000)-10000) / 8
	}
	return r.NormFloat64() * 1e6
}

func genArray(r *rand.Rand, depth int) []Value {
	n := r.IntN(4)
	out := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		switch k := r.IntN(3); {
		case k == 0:
			out = append(out, StringValue(genElementString(r)))
		case k == 1 && depth > 0:
			out = append(out, ArrayValue(genArray(r, depth-1)...))
		default:
			out = append(out, NumberValue(genNumber(r)))
		}
	}
	return out
}

func genNode(r *rand.Rand, depth int) *Node {
	n := NewNode()
	if depth > 0 && r.IntN(2) == 0 {
		n.Parent = fmt.Sprintf("Base%d", r.IntN(10))
	}
	count := r.IntN(6)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("f%d_%d", depth, i)
		switch r.IntN(5) {
		case 0:
			n.Set(name, StringValue(genScalarString(r)))
		case 1:
			n.Set(name, BoolValue(r.IntN(2) == 0))
		case 2:
			n.Set(name, NumberValue(genNumber(r)))
		case 3:
			n.Set(name, ArrayValue(genArray(r, 2)...))
		default:
			if depth < 4 {
				n.Set(name, ObjectValue(genNode(r, depth+1)))
			} else {
				n.Set(name, NumberValue(genNumber(r)))
			}
		}
	}
	return n
}
