package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestElement(t *testing.T) {
	child := Text("hi")
	old := Element("span", nil, child)
	n := Element("DIV", Attrs("id", "x", "dangling"), child)

	if n.Data != "div" {
		t.Errorf("Data = %q, want div", n.Data)
	}
	if n.DataAtom == 0 {
		t.Error("DataAtom not set for a known tag")
	}
	if len(n.Attr) != 1 {
		t.Errorf("attrs = %d, want 1", len(n.Attr))
	}
	if old.FirstChild != nil {
		t.Error("child was not moved out of its old parent")
	}
	if n.FirstChild != child || child.Parent != n {
		t.Error("child not appended")
	}
}

func TestSameKind(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same tag", "<p></p>", "<p>x</p>", true},
		{"different tag", "<p></p>", "<div></div>", false},
		{"text vs text", "a", "b", true},
		{"text vs element", "a", "<b></b>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustParseInto("div", tt.a).FirstChild
			b := MustParseInto("div", tt.b).FirstChild
			if got := SameKind(a, b); got != tt.want {
				t.Errorf("SameKind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalkSkipsSubtree(t *testing.T) {
	root := MustParseInto("div", `<section><p>inner</p></section><p>outer</p>`)
	var tags []string
	Walk(root, func(n *html.Node) bool {
		if IsElement(n) {
			tags = append(tags, n.Data)
		}
		return Tag(n) != "section"
	})
	if got := strings.Join(tags, ","); got != "div,section,p" {
		t.Errorf("visited %s, want div,section,p", got)
	}
}

func TestPathResolve(t *testing.T) {
	root := MustParseInto("main", `<header></header> text <ul><li>a</li><li id="b">b</li></ul>`)
	target := ByID(root, "b")

	path, ok := Path(root, target)
	if !ok {
		t.Fatal("Path reported not found")
	}
	if path != "1.1" {
		t.Errorf("Path = %q, want 1.1", path)
	}
	if got := Resolve(root, path); got != target {
		t.Errorf("Resolve(%q) = %v, want li#b", path, got)
	}
	if got := Resolve(root, ""); got != root {
		t.Error("empty path should resolve to root")
	}
	for _, bad := range []string{"9", "1.x", "-1", "0.0"} {
		if got := Resolve(root, bad); got != nil {
			t.Errorf("Resolve(%q) = %v, want nil", bad, got)
		}
	}
	if _, ok := Path(root, Element("p", nil)); ok {
		t.Error("Path found a detached node")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", `<p id="x">a</p>`, `<p id="x">a</p>`, true},
		{"attr order", `<p id="x" title="t"></p>`, `<p title="t" id="x"></p>`, true},
		{"class token order", `<p class="a b"></p>`, `<p class="b a"></p>`, true},
		{"whitespace ignored", "<p>a</p>\n  ", `<p>a</p>`, true},
		{"comment ignored", `<!-- c --><p>a</p>`, `<p>a</p>`, true},
		{"text differs", `<p>a</p>`, `<p>b</p>`, false},
		{"attr differs", `<p id="x"></p>`, `<p id="y"></p>`, false},
		{"extra child", `<p>a</p>`, `<p>a</p><p>b</p>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(MustParseInto("div", tt.a), MustParseInto("div", tt.b)); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassHelpers(t *testing.T) {
	n := Element("div", Attrs("class", " a  b a "))

	if got := strings.Join(ClassList(n), " "); got != "a b" {
		t.Errorf("ClassList = %q, want \"a b\"", got)
	}
	if !AddClass(n, "c") || AddClass(n, "c") {
		t.Error("AddClass should report a change exactly once")
	}
	if !RemoveClass(n, "a") || RemoveClass(n, "a") {
		t.Error("RemoveClass should report a change exactly once")
	}
	if v, _ := GetAttr(n, "class"); v != "b c" {
		t.Errorf("class = %q, want \"b c\"", v)
	}
	if !HasClass(n, "b") || HasClass(n, "a") {
		t.Error("HasClass wrong")
	}
}

func TestAttrHelpers(t *testing.T) {
	n := Element("input", Attrs("type", "text", "name", "q"))
	SetAttr(n, "type", "search")
	SetAttr(n, "value", "go")

	if n.Attr[0].Key != "type" || n.Attr[0].Val != "search" {
		t.Errorf("attr[0] = %v, want type=search", n.Attr[0])
	}
	if v, _ := GetAttr(n, "value"); v != "go" {
		t.Errorf("value = %q, want go", v)
	}
	if !RemoveAttr(n, "name") || RemoveAttr(n, "name") {
		t.Error("RemoveAttr should report removal exactly once")
	}
	if HasAttr(n, "name") {
		t.Error("name still present")
	}
}

func TestTextContent(t *testing.T) {
	n := MustParseInto("div", `<b>Hello</b>, <i>world</i>`)
	if got := TextContent(n); got != "Hello, world" {
		t.Errorf("TextContent = %q", got)
	}
	SetTextContent(n, "bye")
	if got := RenderChildren(n); got != "bye" {
		t.Errorf("children = %q, want bye", got)
	}
}
