package parser

import "testing"

func parseOne(t *testing.T, src string) Item {
	t.Helper()
	items, err := Parse("test.mc", src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	if len(items) != 1 {
		t.Fatalf("Parse(%q) produced %d items; want 1", src, len(items))
	}
	return items[0]
}

func TestParseCalling(t *testing.T) {
	call, ok := parseOne(t, "SUB 0x10 0x12\n").(*Calling)
	if !ok {
		t.Fatal("item is not a calling")
	}
	if call.Called.Literal != "SUB" {
		t.Errorf("called = %q; want %q", call.Called.Literal, "SUB")
	}
	if len(call.Args) != 2 || call.Args[0].Literal != "0x10" || call.Args[1].Literal != "0x12" {
		t.Errorf("args = %v; want [0x10 0x12]", call.Args)
	}
	if call.Called.Unit != "test.mc" {
		t.Errorf("unit = %q; want %q", call.Called.Unit, "test.mc")
	}
}

func TestParseDefine(t *testing.T) {
	def, ok := parseOne(t, "LOOP_START = 0xf000\n").(*Define)
	if !ok {
		t.Fatal("item is not a define")
	}
	if def.Name.Literal != "LOOP_START" || def.Value.Literal != "0xf000" {
		t.Errorf("define = %s = %s; want LOOP_START = 0xf000", def.Name, def.Value)
	}
}

func TestParseFunction(t *testing.T) {
	src := "copy a b =\n\tSET a 0\n\tSUB a b\n"
	fn, ok := parseOne(t, src).(*Function)
	if !ok {
		t.Fatal("item is not a function")
	}
	if fn.Name.Literal != "copy" {
		t.Errorf("name = %q; want %q", fn.Name.Literal, "copy")
	}
	if len(fn.Params) != 2 || fn.Params[0].Literal != "a" || fn.Params[1].Literal != "b" {
		t.Errorf("params = %v; want [a b]", fn.Params)
	}
	if len(fn.Body) != 2 {
		t.Fatalf("body has %d statements; want 2", len(fn.Body))
	}
	for i, st := range fn.Body {
		if _, ok := st.(*Calling); !ok {
			t.Errorf("body[%d] is %T; want calling", i, st)
		}
	}
}

func TestParseEmptyFunction(t *testing.T) {
	for _, src := range []string{"nop =\n", "nop ="} {
		fn, ok := parseOne(t, src).(*Function)
		if !ok {
			t.Fatalf("Parse(%q): item is not a function", src)
		}
		if len(fn.Params) != 0 || len(fn.Body) != 0 {
			t.Errorf("Parse(%q) = %d params, %d statements; want none", src, len(fn.Params), len(fn.Body))
		}
	}
}

func TestParseBodyEndsAtUnindentedLine(t *testing.T) {
	items, err := Parse("test.mc", "f =\n\tSET a 1\nSET b 2\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items; want 2", len(items))
	}
	fn := items[0].(*Function)
	if len(fn.Body) != 1 {
		t.Errorf("body has %d statements; want 1", len(fn.Body))
	}
	if _, ok := items[1].(*Calling); !ok {
		t.Errorf("items[1] is %T; want calling", items[1])
	}
}

func TestParseBodyEndsAtBlankLine(t *testing.T) {
	// The blank line terminates the body even though the next line is
	// indented; the trailing statement becomes a top-level call.
	items, err := Parse("test.mc", "f =\n\tSET a 1\n\n\tSET b 2\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items; want 2", len(items))
	}
	if fn := items[0].(*Function); len(fn.Body) != 1 {
		t.Errorf("body has %d statements; want 1", len(fn.Body))
	}
	call, ok := items[1].(*Calling)
	if !ok || call.Called.Literal != "SET" {
		t.Errorf("items[1] = %v; want top-level SET", items[1])
	}
}

func TestParseIndentedDefineEndsBody(t *testing.T) {
	items, err := Parse("test.mc", "f =\n\tSET a 1\n\tX = 5\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items; want 2", len(items))
	}
	if fn := items[0].(*Function); len(fn.Body) != 1 {
		t.Errorf("body has %d statements; want 1", len(fn.Body))
	}
	if _, ok := items[1].(*Define); !ok {
		t.Errorf("items[1] is %T; want define", items[1])
	}
}

func TestParseMacros(t *testing.T) {
	mc, ok := parseOne(t, "#include lib.mc\n").(*MacroCall)
	if !ok {
		t.Fatal("item is not a macro call")
	}
	if mc.Called.Literal != "include" || len(mc.Args) != 1 || mc.Args[0].Literal != "lib.mc" {
		t.Errorf("macro = #%s %v; want #include [lib.mc]", mc.Called, mc.Args)
	}

	fn := parseOne(t, "f =\n\t#print_mem a b\n").(*Function)
	if len(fn.Body) != 1 {
		t.Fatalf("body has %d statements; want 1", len(fn.Body))
	}
	st, ok := fn.Body[0].(*MacroCall)
	if !ok {
		t.Fatalf("body[0] is %T; want macro call", fn.Body[0])
	}
	if st.Called.Literal != "print_mem" || len(st.Args) != 2 {
		t.Errorf("macro = #%s %v; want #print_mem [a b]", st.Called, st.Args)
	}
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	src := "; program\n\nX = 1 ; define\n\nSET X 2\n"
	items, err := Parse("test.mc", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items; want 2", len(items))
	}
	if _, ok := items[0].(*Define); !ok {
		t.Errorf("items[0] is %T; want define", items[0])
	}
	if _, ok := items[1].(*Calling); !ok {
		t.Errorf("items[1] is %T; want calling", items[1])
	}
}

func TestParseTopLevelIndentIgnored(t *testing.T) {
	call, ok := parseOne(t, "\tSET 0x10 1\n").(*Calling)
	if !ok {
		t.Fatal("item is not a calling")
	}
	if call.Called.Literal != "SET" {
		t.Errorf("called = %q; want %q", call.Called.Literal, "SET")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src       string
		expectErr bool
	}{
		{"SET 0x10 1\n", false},
		{"X = 5\n", false},
		{"f a =\n\tSUB a a\n", false},
		{"= 5\n", true},
		{"X = 5 6\n", true},
		{"f x = junk\n", true},
		{"#\n", true},
		{"#m x =\n", true},
	}
	for _, tt := range tests {
		_, err := Parse("test.mc", tt.src)
		if (err != nil) != tt.expectErr {
			t.Errorf("Parse(%q) error = %v; want error %v", tt.src, err, tt.expectErr)
		}
	}
}

func TestParseSpans(t *testing.T) {
	call := parseOne(t, "foo 1 22\n").(*Calling)
	if got := call.Called.Span.Start; got.Line != 1 || got.Column != 1 {
		t.Errorf("called starts at %d:%d; want 1:1", got.Line, got.Column)
	}
	if got := call.Args[1].Span; got.Start.Column != 7 || got.End.Column != 9 {
		t.Errorf("args[1] spans columns %d-%d; want 7-9", got.Start.Column, got.End.Column)
	}
}
