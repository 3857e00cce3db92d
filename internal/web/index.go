package web

// IndexHTML is the single-page control surface served at /.
var IndexHTML = []byte(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>aurora radio</title>
<style>
  body { font-family: system-ui, sans-serif; background: #0d1017; color: #dde3ee; max-width: 640px; margin: 3rem auto; padding: 0 1rem; }
  h1 { font-weight: 300; letter-spacing: 0.3em; }
  button { background: #1c2230; color: #dde3ee; border: 1px solid #2e3850; border-radius: 6px; padding: 0.5rem 0.9rem; margin: 0.2rem; cursor: pointer; }
  button.active { border-color: #7aa2f7; color: #7aa2f7; }
  #status { margin: 1rem 0; color: #8b93a7; font-size: 0.9rem; }
  audio { width: 100%; margin: 1rem 0; }
</style>
</head>
<body>
<h1>AURORA</h1>
<audio controls src="/stream"></audio>
<div id="status">connecting&hellip;</div>
<div id="styles"></div>
<p><label><input type="checkbox" id="autodj"> auto-DJ</label></p>
<script>
const styles = ["ambient","downtempo","chillwave","lofi hip hop","jazz","bossa nova",
  "classical","cinematic","synthwave","electronic","house","drum and bass","indie rock"];
const box = document.getElementById("styles");
for (const s of styles) {
  const b = document.createElement("button");
  b.textContent = s;
  b.onclick = () => fetch("/api/style", {method:"POST", body: JSON.stringify({style:s})});
  box.appendChild(b);
}
document.getElementById("autodj").onchange = (e) =>
  fetch("/api/autodj", {method:"POST", body: JSON.stringify({enabled:e.target.checked})});
async function poll() {
  try {
    const st = await (await fetch("/api/status")).json();
    document.getElementById("status").textContent =
      st.pipeline.active_style + " | " + st.pipeline.transition_state +
      " | backlog " + st.pipeline.backlog_frames + " | listeners " + st.listeners;
    document.getElementById("autodj").checked = st.auto_dj.enabled;
    for (const b of box.children) b.classList.toggle("active", b.textContent === st.pipeline.active_style);
  } catch (e) {}
  setTimeout(poll, 2000);
}
poll();
</script>
</body>
</html>
`)
