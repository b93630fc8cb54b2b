package scope

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nimble-go/nimble/pkg/dom"
	"github.com/nimble-go/nimble/pkg/reconcile"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mount(t *testing.T, template string, opts ...Option) *Page {
	t.Helper()
	p, err := NewPage("test", template, append([]Option{quiet()}, opts...)...)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if err := p.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return p
}

func dispatch(t *testing.T, p *Page, scope, path, typ string, detail map[string]any) {
	t.Helper()
	if _, err := p.Dispatch(context.Background(), scope, path, typ, detail); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
}

func TestCounter(t *testing.T) {
	stats := reconcile.NewStats()
	p := mount(t, `<p>{{ count }}</p><button (click)="count++">+</button>`,
		WithScript("var count = 0"),
		WithMutationObserver(stats),
	)
	if !strings.Contains(p.HTML(), "<p>0</p>") {
		t.Fatalf("HTML = %s, want <p>0</p>", p.HTML())
	}
	button := dom.Resolve(p.root, "1")

	stats.Reset()
	dispatch(t, p, "", "1", "click", nil)
	dispatch(t, p, "", "1", "click", nil)

	if !strings.Contains(p.HTML(), "<p>2</p>") {
		t.Errorf("HTML = %s, want <p>2</p>", p.HTML())
	}
	if dom.Resolve(p.root, "1") != button {
		t.Error("button was replaced by the re-render")
	}
	if stats.Destructive() != 0 {
		t.Errorf("destructive mutations = %d, want 0", stats.Destructive())
	}
	if p.Registry().Len() != 1 {
		t.Errorf("registry Len = %d, want 1", p.Registry().Len())
	}
	if p.Renders() != 3 {
		t.Errorf("Renders = %d, want 3", p.Renders())
	}
}

func TestEventVariable(t *testing.T) {
	p := mount(t, `<input (input)="last = $event.value">`, WithScript("var last = ''"))

	dispatch(t, p, "", "0", "input", map[string]any{"value": "hi"})

	if v, _ := p.Compile("last"); v != "hi" {
		t.Errorf("last = %v, want hi", v)
	}
	if v, _ := p.Compile("typeof $event"); v != "undefined" {
		t.Errorf("typeof $event = %v, want undefined", v)
	}
}

func TestModel(t *testing.T) {
	p := mount(t, `<input [(model)]="name"><span>{{ name }}</span>`,
		WithState(map[string]any{"name": "ann"}),
	)
	input := dom.Resolve(p.root, "0")
	if v, _ := dom.GetAttr(input, "value"); v != "ann" {
		t.Errorf("value = %q, want ann", v)
	}

	dispatch(t, p, "", "0", "input", map[string]any{"value": "bob"})

	if got := dom.TextContent(dom.Resolve(p.root, "1")); got != "bob" {
		t.Errorf("span = %q, want bob", got)
	}
	if v, _ := dom.GetAttr(input, "value"); v != "bob" {
		t.Errorf("value = %q, want bob", v)
	}
}

func TestModelValueKeptAcrossRenders(t *testing.T) {
	stats := reconcile.NewStats()
	p := mount(t, `<input [(model)]="name"><button (click)="n++">{{ n }}</button>`,
		WithScript("var name = 'ann', n = 0"),
		WithMutationObserver(stats),
	)

	stats.Reset()
	dispatch(t, p, "", "1", "click", nil)
	dispatch(t, p, "", "1", "click", nil)

	if n := stats.Count(reconcile.OpSetAttr) + stats.Count(reconcile.OpRemoveAttr); n != 0 {
		t.Errorf("attribute mutations = %d (%v), want 0", n, stats.Ops())
	}
	if v, _ := dom.GetAttr(dom.Resolve(p.root, "0"), "value"); v != "ann" {
		t.Errorf("value = %q, want ann", v)
	}
	if got := dom.TextContent(dom.Resolve(p.root, "1")); got != "2" {
		t.Errorf("button = %q, want 2", got)
	}
}

func TestInterpolation(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"escaped", `<p>{{ x }}</p>`, "<p>&lt;b&gt;</p>"},
		{"raw", `<p>{{{ x }}}</p>`, "<p><b></b></p>"},
		{"attribute", `<p title="{{ x }}"></p>`, `<p title="&lt;b&gt;"></p>`},
		{"null", `<p>{{ null }}</p>`, "<p></p>"},
		{"list", `<ul>{{{ items.map(function (i) { return "<li>" + i + "</li>" }).join("") }}}</ul>`, "<ul><li>a</li><li>b</li></ul>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mount(t, tt.template, WithState(map[string]any{"x": "<b>", "items": []any{"a", "b"}}))
			if got := p.HTML(); !strings.Contains(got, tt.want) {
				t.Errorf("HTML = %s, want it to contain %s", got, tt.want)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	var gotErr error
	p, err := NewPage("broken", `<p>{{ nope( }}</p>`, quiet(), WithRenderHook(func(_ string, _ time.Duration, err error) {
		gotErr = err
	}))
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if err := p.Mount(context.Background()); err == nil {
		t.Error("Mount succeeded with a broken expression")
	}
	if gotErr == nil {
		t.Error("render hook did not see the error")
	}
}

func TestScriptError(t *testing.T) {
	if _, err := NewPage("bad", "", quiet(), WithScript("var = ;")); err == nil {
		t.Error("NewPage accepted a broken script")
	}
}

func TestDispatchUnknownPath(t *testing.T) {
	p := mount(t, `<p>x</p>`)
	if _, err := p.Dispatch(context.Background(), "", "4.2", "click", nil); err == nil {
		t.Error("Dispatch to a missing element succeeded")
	}
	if _, err := p.Dispatch(context.Background(), "nope", "0", "click", nil); err == nil {
		t.Error("Dispatch to a missing dialog succeeded")
	}
}

func TestDialog(t *testing.T) {
	p, err := NewPage("home", `<button (click)="openDialog('confirm')">open</button>`,
		quiet(), WithScript("var msg = 'sure?'"))
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	d, err := p.Dialog("confirm", `<p>{{ msg }}</p><button (click)="msg = 'bye'; closeDialog('confirm')">x</button>`)
	if err != nil {
		t.Fatalf("Dialog: %v", err)
	}
	if err := p.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if strings.Contains(p.HTML(), "<dialog") {
		t.Fatal("closed dialog rendered")
	}

	dispatch(t, p, "", "0", "click", nil)
	if !d.IsOpen() {
		t.Fatal("dialog not open")
	}
	if !strings.Contains(p.HTML(), `<dialog data-nimble-scope="confirm"><p>sure?</p>`) {
		t.Errorf("HTML = %s, want open dialog", p.HTML())
	}

	dispatch(t, p, "confirm", "1", "click", nil)
	if d.IsOpen() {
		t.Error("dialog still open")
	}
	if strings.Contains(p.HTML(), "<dialog") {
		t.Errorf("HTML = %s, want no dialog", p.HTML())
	}
	if v, _ := p.Compile("msg"); v != "bye" {
		t.Errorf("msg = %v, want bye", v)
	}
	if d.registry.Len() != 0 {
		t.Errorf("dialog registry Len = %d, want 0", d.registry.Len())
	}
}

func TestDialogName(t *testing.T) {
	p := mount(t, "")
	if _, err := p.Dialog("test", ""); err == nil {
		t.Error("dialog named like its page accepted")
	}
	if _, err := p.Dialog("", ""); err == nil {
		t.Error("empty dialog name accepted")
	}
}

func TestClose(t *testing.T) {
	p := mount(t, `<button (click)="x = 1">a</button><button (click)="x = 2">b</button>`)
	if p.Registry().Len() != 2 {
		t.Fatalf("registry Len = %d, want 2", p.Registry().Len())
	}
	p.Close()
	if p.Registry().Len() != 0 {
		t.Errorf("registry Len = %d, want 0", p.Registry().Len())
	}
}
