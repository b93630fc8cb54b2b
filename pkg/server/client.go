package server

import (
	"encoding/json"
	"strings"

	"github.com/nimble-go/nimble/pkg/directive"
)

// liveEvents returns the DOM event types the client forwards.
func liveEvents() []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range [][]string{directive.EventSelectors, directive.DragEventSelectors} {
		for _, sel := range list {
			ev := directive.PureSelector(sel)
			if !seen[ev] {
				seen[ev] = true
				out = append(out, ev)
			}
		}
	}
	return out
}

// clientScript returns the live client. It forwards events from inside any
// scope root as element-index paths and swaps in rendered markup.
func clientScript() string {
	events, _ := json.Marshal(liveEvents())
	return strings.Replace(clientSource, "__EVENTS__", string(events), 1)
}

const clientSource = `(function() {
    'use strict';
    var root = document.getElementById('nimble-root');
    var events = __EVENTS__;
    var queue = [];
    var ws = null;
    var delay = 1000;

    function connect() {
        var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(proto + '//' + location.host + root.getAttribute('data-live'));
        ws.onopen = function() {
            delay = 1000;
            queue.splice(0).forEach(function(m) { ws.send(m); });
        };
        ws.onmessage = function(e) {
            var msg;
            try { msg = JSON.parse(e.data); } catch (err) { return; }
            if (msg.type === 'render') root.innerHTML = msg.html;
            if (msg.type === 'reload') location.reload();
            if (msg.type === 'error') console.error('[nimble]', msg.code, msg.error);
        };
        ws.onclose = function() {
            setTimeout(function() { delay = Math.min(delay * 2, 30000); connect(); }, delay);
        };
    }

    function pathOf(el, scope) {
        var parts = [];
        while (el && el !== scope) {
            var i = 0;
            for (var s = el.previousElementSibling; s; s = s.previousElementSibling) i++;
            parts.unshift(i);
            el = el.parentElement;
        }
        return parts.join('.');
    }

    function send(msg) {
        var data = JSON.stringify(msg);
        if (ws && ws.readyState === 1) ws.send(data); else queue.push(data);
    }

    events.forEach(function(type) {
        root.addEventListener(type, function(e) {
            var t = e.target;
            if (!(t instanceof Element)) return;
            var scope = t.closest('[data-nimble-scope]');
            if (!scope) return;
            if (type === 'submit') e.preventDefault();
            var detail = {value: t.value === undefined ? '' : String(t.value)};
            if ('checked' in t) detail.checked = t.checked;
            if (e.key) detail.key = e.key;
            send({type: 'event', scope: scope.getAttribute('data-nimble-scope'),
                path: pathOf(t, scope), event: type, detail: detail});
        }, true);
    });

    connect();
})();`
