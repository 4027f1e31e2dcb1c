package server

import "net/http"

// dashboardHTML is the single-page chat client served at /. It talks to the
// WebSocket endpoint and renders server-side HTML answers.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>decipher</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 780px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
  h1 { font-size: 1.3rem; }
  #log { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; min-height: 320px; max-height: 60vh; overflow-y: auto; }
  .q { color: #0a5; font-weight: 600; margin-top: 0.8rem; }
  .a { margin: 0.4rem 0 0.2rem; }
  .meta { color: #888; font-size: 0.8rem; }
  form { display: flex; gap: 0.5rem; margin-top: 1rem; }
  input[type=text] { flex: 1; padding: 0.5rem; border: 1px solid #ccc; border-radius: 4px; }
  select, button { padding: 0.5rem; border-radius: 4px; border: 1px solid #ccc; background: #fafafa; }
  button { cursor: pointer; }
</style>
</head>
<body>
<h1>decipher &mdash; Swiss energy scenario assistant</h1>
<div id="log"></div>
<form id="form">
  <input type="text" id="query" placeholder="Ask about the energy scenarios..." autocomplete="off">
  <select id="persona">
    <option value="citizen">Citizen</option>
    <option value="journalist">Journalist</option>
    <option value="student">Student</option>
    <option value="policymaker">Policymaker</option>
  </select>
  <button type="submit">Ask</button>
  <button type="button" id="clear">Clear</button>
</form>
<script>
const log = document.getElementById("log");
const proto = location.protocol === "https:" ? "wss:" : "ws:";
const ws = new WebSocket(proto + "//" + location.host + "/ws");

function append(html) {
  const div = document.createElement("div");
  div.innerHTML = html;
  log.appendChild(div);
  log.scrollTop = log.scrollHeight;
}

ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type === "cleared") { log.innerHTML = ""; return; }
  if (msg.type === "error") { append('<p class="meta">' + msg.content + '</p>'); return; }
  append('<div class="a">' + msg.content_html + '</div>');
  let meta = "confidence " + msg.confidence.toFixed(2);
  if (msg.data_sources && msg.data_sources.length) meta += " &middot; sources: " + msg.data_sources.join(", ");
  append('<p class="meta">' + meta + '</p>');
};

document.getElementById("form").onsubmit = (ev) => {
  ev.preventDefault();
  const input = document.getElementById("query");
  if (!input.value) return;
  append('<p class="q">' + input.value.replace(/</g, "&lt;") + '</p>');
  ws.send(JSON.stringify({ query: input.value, persona: document.getElementById("persona").value }));
  input.value = "";
};

document.getElementById("clear").onclick = () => ws.send(JSON.stringify({ clear: true }));
</script>
</body>
</html>
`

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}
