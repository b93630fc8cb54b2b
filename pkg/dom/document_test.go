package dom

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func testTree() (root, list, button *html.Node) {
	button = Element("button", nil, Text("+"))
	list = Element("ul", nil, Element("li", nil, button))
	root = Element("main", nil, list)
	return root, list, button
}

func TestDispatchPhases(t *testing.T) {
	root, list, button := testTree()
	doc := NewDocument(root)

	var got []string
	record := func(name string) *Listener {
		return &Listener{Handle: func(e *Event) {
			got = append(got, name)
		}}
	}
	capture := record("root-capture")
	capture.Capture = true
	doc.AddEventListener(root, "click", capture)
	doc.AddEventListener(root, "click", record("root-bubble"))
	doc.AddEventListener(list, "click", record("list-bubble"))
	doc.AddEventListener(button, "click", record("button"))

	ok := doc.Dispatch(context.Background(), button, NewEvent("click", true, nil))

	if !ok {
		t.Error("Dispatch returned false without PreventDefault")
	}
	want := "root-capture,button,list-bubble,root-bubble"
	if s := strings.Join(got, ","); s != want {
		t.Errorf("order = %s, want %s", s, want)
	}
}

func TestDispatchNoBubble(t *testing.T) {
	root, _, button := testTree()
	doc := NewDocument(root)
	called := false
	doc.AddEventListener(root, "focus", &Listener{Handle: func(*Event) { called = true }})

	doc.Dispatch(context.Background(), button, NewEvent("focus", false, nil))

	if called {
		t.Error("non-bubbling event reached an ancestor")
	}
}

func TestStopPropagation(t *testing.T) {
	root, list, button := testTree()
	doc := NewDocument(root)
	var got []string
	doc.AddEventListener(button, "click", &Listener{Handle: func(e *Event) {
		got = append(got, "first")
		e.StopPropagation()
	}})
	doc.AddEventListener(button, "click", &Listener{Handle: func(*Event) { got = append(got, "second") }})
	doc.AddEventListener(list, "click", &Listener{Handle: func(*Event) { got = append(got, "list") }})

	doc.Dispatch(context.Background(), button, NewEvent("click", true, nil))

	if s := strings.Join(got, ","); s != "first,second" {
		t.Errorf("order = %s, want first,second", s)
	}

	got = nil
	doc = NewDocument(root)
	doc.AddEventListener(button, "click", &Listener{Handle: func(e *Event) {
		got = append(got, "first")
		e.StopImmediatePropagation()
	}})
	doc.AddEventListener(button, "click", &Listener{Handle: func(*Event) { got = append(got, "second") }})

	doc.Dispatch(context.Background(), button, NewEvent("click", true, nil))

	if s := strings.Join(got, ","); s != "first" {
		t.Errorf("order = %s, want first", s)
	}
}

func TestOnceAndPassive(t *testing.T) {
	root, _, button := testTree()
	doc := NewDocument(root)
	calls := 0
	doc.AddEventListener(button, "click", &Listener{Once: true, Handle: func(*Event) { calls++ }})
	doc.AddEventListener(button, "click", &Listener{Passive: true, Handle: func(e *Event) { e.PreventDefault() }})

	for i := 0; i < 3; i++ {
		if !doc.Dispatch(context.Background(), button, NewEvent("click", true, nil)) {
			t.Error("passive listener prevented default")
		}
	}
	if calls != 1 {
		t.Errorf("once listener calls = %d, want 1", calls)
	}
	if n := doc.ListenerCount(button, "click"); n != 1 {
		t.Errorf("ListenerCount = %d, want 1", n)
	}
}

func TestPreventDefault(t *testing.T) {
	root, _, button := testTree()
	doc := NewDocument(root)
	doc.AddEventListener(root, "submit", &Listener{Handle: func(e *Event) { e.PreventDefault() }})

	if doc.Dispatch(context.Background(), button, NewEvent("submit", true, nil)) {
		t.Error("Dispatch = true, want false after PreventDefault")
	}
}

func TestRemoveDuringDispatch(t *testing.T) {
	root, _, button := testTree()
	doc := NewDocument(root)
	second := &Listener{Handle: func(*Event) { t.Error("removed listener was called") }}
	doc.AddEventListener(button, "click", &Listener{Handle: func(*Event) {
		doc.RemoveEventListener(button, "click", second)
	}})
	doc.AddEventListener(button, "click", second)

	doc.Dispatch(context.Background(), button, NewEvent("click", true, nil))
}

func TestAddRemoveListener(t *testing.T) {
	root, _, button := testTree()
	doc := NewDocument(root)
	l := &Listener{Handle: func(*Event) {}}

	doc.AddEventListener(button, "click", l)
	doc.AddEventListener(button, "click", l)
	doc.AddEventListener(button, "input", &Listener{Handle: func(*Event) {}})
	doc.AddEventListener(nil, "click", l)
	doc.AddEventListener(button, "click", &Listener{})

	if n := doc.ListenerCount(button, ""); n != 2 {
		t.Errorf("ListenerCount = %d, want 2", n)
	}
	if !doc.RemoveEventListener(button, "click", l) {
		t.Error("RemoveEventListener = false for an attached listener")
	}
	if doc.RemoveEventListener(button, "click", l) {
		t.Error("second RemoveEventListener = true")
	}
	if doc.RemoveEventListener(Element("p", nil), "click", l) {
		t.Error("RemoveEventListener on unknown node = true")
	}
	if n := doc.TrackedNodes(); n != 1 {
		t.Errorf("TrackedNodes = %d, want 1", n)
	}
}

func TestListenerPanicRecovered(t *testing.T) {
	root, _, button := testTree()
	doc := NewDocument(root)
	doc.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	after := false
	doc.AddEventListener(button, "click", &Listener{Handle: func(*Event) { panic("boom") }})
	doc.AddEventListener(button, "click", &Listener{Handle: func(*Event) { after = true }})

	doc.Dispatch(context.Background(), button, NewEvent("click", true, nil))

	if !after {
		t.Error("listener after a panicking one did not run")
	}
}

func TestEventObject(t *testing.T) {
	_, _, button := testTree()
	ev := NewEvent("input", true, map[string]any{"value": "abc", "key": "c", "type": "ignored"})
	ev.target = button

	obj := ev.Object()
	if obj["type"] != "input" || obj["value"] != "abc" || obj["key"] != "c" || obj["tag"] != "button" {
		t.Errorf("Object = %v", obj)
	}
	if ev.Value() != "abc" {
		t.Errorf("Value = %q, want abc", ev.Value())
	}
}
