package reload

import (
	"bytes"
	"fmt"
)

// ScriptPath is where the client script is served.
const ScriptPath = "/livereload.js"

// SocketPath is where viewers open their websocket.
const SocketPath = "/livereload"

// ClientScript is served at ScriptPath. It reloads the page whenever the
// server sends a reload message and reconnects after the server restarts.
const ClientScript = `(function () {
  var url = (location.protocol === "https:" ? "wss://" : "ws://") + location.host + "` + SocketPath + `";
  function connect(delay) {
    var ws = new WebSocket(url);
    ws.onmessage = function (ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (msg.command === "reload") { location.reload(); }
      } catch (e) {}
    };
    ws.onclose = function () {
      setTimeout(function () { connect(Math.min(delay * 2, 5000)); }, delay);
    };
  }
  connect(250);
})();
`

var (
	scriptTag = []byte(fmt.Sprintf(`<script src="%s"></script>`, ScriptPath))
	bodyClose = []byte("</body>")
)

// InjectScript inserts the client script tag before the last closing body
// tag of page, or appends it when there is none. Pages that already carry
// the tag are returned unchanged.
func InjectScript(page []byte) []byte {
	if bytes.Contains(page, scriptTag) {
		return page
	}

	i := bytes.LastIndex(page, bodyClose)
	if i < 0 {
		i = bytes.LastIndex(page, bytes.ToUpper(bodyClose))
	}

	if i < 0 {
		return append(append([]byte{}, page...), scriptTag...)
	}

	out := make([]byte, 0, len(page)+len(scriptTag))
	out = append(out, page[:i]...)
	out = append(out, scriptTag...)
	out = append(out, page[i:]...)

	return out
}
