package listener

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
)

// recordingTarget wraps a Document and records attach and detach calls.
type recordingTarget struct {
	*dom.Document
	attached []*dom.Listener
	detached []*dom.Listener
}

func (rt *recordingTarget) AddEventListener(n *html.Node, typ string, l *dom.Listener) {
	rt.attached = append(rt.attached, l)
	rt.Document.AddEventListener(n, typ, l)
}

func (rt *recordingTarget) RemoveEventListener(n *html.Node, typ string, l *dom.Listener) bool {
	rt.detached = append(rt.detached, l)
	return rt.Document.RemoveEventListener(n, typ, l)
}

func setup() (*Registry, *recordingTarget, *html.Node) {
	button := dom.Element("button", nil)
	root := dom.Element("main", nil, button)
	rt := &recordingTarget{Document: dom.NewDocument(root)}
	return New(rt), rt, button
}

func click(rt *recordingTarget, n *html.Node) {
	rt.Dispatch(context.Background(), n, dom.NewEvent("click", true, nil))
}

func TestSubscribeIsPending(t *testing.T) {
	reg, rt, button := setup()
	called := false
	reg.Subscribe(button, "click", func(*dom.Event) { called = true })

	click(rt, button)
	if called {
		t.Error("listener fired before ApplyAll")
	}
	if reg.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", reg.Pending())
	}

	if n := reg.ApplyAll(); n != 1 {
		t.Errorf("ApplyAll = %d, want 1", n)
	}
	click(rt, button)
	if !called {
		t.Error("listener did not fire after ApplyAll")
	}
	if n := reg.ApplyAll(); n != 0 {
		t.Errorf("second ApplyAll = %d, want 0", n)
	}
}

func TestInternalFirst(t *testing.T) {
	reg, rt, button := setup()
	var order []string
	reg.Subscribe(button, "click", func(*dom.Event) { order = append(order, "user1") })
	reg.Subscribe(button, "click", func(*dom.Event) { order = append(order, "internal1") }, Internal())
	reg.Subscribe(button, "click", func(*dom.Event) { order = append(order, "user2") })
	reg.Subscribe(button, "click", func(*dom.Event) { order = append(order, "internal2") }, Internal())

	reg.ApplyAll()
	click(rt, button)

	want := "internal1,internal2,user1,user2"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
	if len(rt.attached) != 4 {
		t.Fatalf("attached = %d, want 4", len(rt.attached))
	}
	recs := reg.RecordsFor(button)
	if rt.attached[0] != recs[1].listener || rt.attached[1] != recs[3].listener {
		t.Error("internal records were not attached first")
	}
}

func TestNilTarget(t *testing.T) {
	reg, _, _ := setup()
	detach := reg.Subscribe(nil, "click", func(*dom.Event) {})
	detach()
	detach()
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
	if reg.ApplyAll() != 0 {
		t.Error("ApplyAll attached something for a nil target")
	}
}

func TestDoubleDetach(t *testing.T) {
	reg, rt, button := setup()
	calls := 0
	detach := reg.Subscribe(button, "click", func(*dom.Event) { calls++ })
	reg.ApplyAll()

	detach()
	detach()

	click(rt, button)
	if calls != 0 {
		t.Errorf("calls = %d after detach, want 0", calls)
	}
	if len(rt.detached) != 1 {
		t.Errorf("RemoveEventListener calls = %d, want 1", len(rt.detached))
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
}

func TestDetachUnapplied(t *testing.T) {
	reg, rt, button := setup()
	detach := reg.Subscribe(button, "click", func(*dom.Event) {})
	detach()

	if len(rt.detached) != 0 {
		t.Error("unapplied record touched the target")
	}
	if reg.ApplyAll() != 0 {
		t.Error("detached record was applied")
	}
}

func TestDetachAfterNodeRemoved(t *testing.T) {
	reg, rt, button := setup()
	detach := reg.Subscribe(button, "click", func(*dom.Event) {})
	reg.ApplyAll()

	dom.Detach(button)
	rt.RemoveEventListener(button, "click", rt.attached[0])

	detach()
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
}

func TestUnsubscribeAllFromElement(t *testing.T) {
	reg, rt, button := setup()
	other := dom.Element("input", nil)
	rt.Root().AppendChild(other)

	reg.Subscribe(button, "click", func(*dom.Event) {})
	reg.Subscribe(button, "focus", func(*dom.Event) {}, Internal())
	reg.Subscribe(other, "input", func(*dom.Event) {})
	reg.ApplyAll()
	reg.Subscribe(button, "blur", func(*dom.Event) {})

	if n := reg.UnsubscribeAllFromElement(button); n != 3 {
		t.Errorf("removed = %d, want 3", n)
	}
	if got := len(reg.RecordsFor(button)); got != 0 {
		t.Errorf("records for button = %d, want 0", got)
	}
	if got := len(reg.RecordsFor(other)); got != 1 {
		t.Errorf("records for other = %d, want 1", got)
	}
	if rt.ListenerCount(button, "") != 0 {
		t.Error("button listeners still attached")
	}
	if rt.ListenerCount(other, "input") != 1 {
		t.Error("other listener was detached")
	}
	if n := reg.UnsubscribeAllFromElement(dom.Element("p", nil)); n != 0 {
		t.Errorf("unknown node removed %d", n)
	}
}

func TestUnsubscribeAllLIFO(t *testing.T) {
	reg, rt, button := setup()
	var recs []*Record
	for i := 0; i < 3; i++ {
		recs = append(recs, reg.SubscribeRecord(button, "click", func(*dom.Event) {}))
	}
	reg.ApplyAll()

	reg.UnsubscribeAll()

	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
	if len(rt.detached) != 3 {
		t.Fatalf("detached = %d, want 3", len(rt.detached))
	}
	for i, l := range rt.detached {
		if l != rt.attached[2-i] {
			t.Errorf("detach %d out of order", i)
		}
	}
	for _, rec := range recs {
		if !rec.Removed() || rec.Applied() {
			t.Error("record not released")
		}
	}
}

func TestLateHooks(t *testing.T) {
	reg, rt, button := setup()
	var order []string
	reg.Subscribe(button, "click", func(*dom.Event) { order = append(order, "cb") })
	reg.ApplyAll()

	click(rt, button)
	if !reg.AddElementActions(button,
		func(*dom.Event) { order = append(order, "before") },
		func(*dom.Event) { order = append(order, "after") },
	) {
		t.Fatal("AddElementActions found no record")
	}
	click(rt, button)

	if got := strings.Join(order, ","); got != "cb,before,cb,after" {
		t.Errorf("order = %s, want cb,before,cb,after", got)
	}
	if reg.AddElementActions(dom.Element("p", nil), func(*dom.Event) {}, nil) {
		t.Error("AddElementActions on unknown node = true")
	}
	if reg.AddElementActions(button, nil, nil) {
		t.Error("AddElementActions without hooks = true")
	}
}

func TestOnce(t *testing.T) {
	reg, rt, button := setup()
	calls := 0
	reg.Subscribe(button, "click", func(*dom.Event) { calls++ }, Once())
	reg.ApplyAll()

	click(rt, button)
	click(rt, button)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
}

type changeLog []string

func (c *changeLog) ListenerChanged(ch Change, r *Record) {
	*c = append(*c, ch.String()+":"+r.Event())
}

func TestObserver(t *testing.T) {
	var log changeLog
	button := dom.Element("button", nil)
	reg := New(dom.NewDocument(button), WithObserver(&log))

	detach := reg.Subscribe(button, "click", func(*dom.Event) {})
	reg.ApplyAll()
	detach()

	want := "subscribed:click,applied:click,unsubscribed:click"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("changes = %s, want %s", got, want)
	}
}
