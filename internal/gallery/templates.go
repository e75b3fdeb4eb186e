package gallery

import (
	"fmt"
	"html/template"
	"path"
	"strings"

	"github.com/ziadkadry99/tinytune/internal/view"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

func parsePages() (*template.Template, error) {
	funcs := template.FuncMap{
		"ext": func(name string) string {
			return strings.ToUpper(strings.TrimPrefix(path.Ext(name), "."))
		},
	}
	return template.New("index").Funcs(funcs).Parse(pageTemplate)
}

// tileCSS sizes the frame of every tile for each zoom class on <body>. The
// sizes are the containers previews are fitted into.
func tileCSS(tiles view.TileTable) string {
	var b strings.Builder
	for _, level := range zoom.Levels {
		s := tiles.Size(level)
		fmt.Fprintf(&b, "body.%s .frame { width: %gpx; height: %gpx; }\n", level.Class(), s.Width, s.Height)
		fmt.Fprintf(&b, "body.%s .tile { width: %gpx; }\n", level.Class(), s.Width)
	}
	return b.String()
}

// pageTemplate renders directory listings and search results.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="/static/style.css">
</head>
<body class="{{.BodyClass}}" data-dir="{{.DirID}}" data-query="{{.Search}}">
  <header class="top-bar">
    <nav class="crumbs">
      {{range .Crumbs}}{{if .Href}}<a href="{{.Href}}">{{.Name}}</a><span class="sep">/</span>{{else}}<span class="current">{{.Name}}</span>{{end}}{{end}}
    </nav>
    <form class="search" method="get" action="{{if .DirID}}/s/{{.DirID}}{{else}}/s{{end}}">
      <input type="search" id="search-input" name="query" value="{{.Search}}" placeholder="Search..." autocomplete="off">
    </form>
    <form class="sort" method="post" action="/sort">
      <select name="sort" id="sort-select">
        {{range .Sorts}}<option value="{{.}}"{{if eq . $.ActiveSort}} selected{{end}}>{{.}}</option>{{end}}
      </select>
      <noscript><button type="submit">Sort</button></noscript>
    </form>
    <div class="zoom">
      <form method="post" action="/zoom/out" class="zoom-form" data-action="out">
        <button type="submit" id="zoom-out" aria-label="Zoom out"{{if not .CanZoomOut}} disabled{{end}}>&minus;</button>
      </form>
      <span class="zoom-label" id="zoom-label">{{.Level.Label}}</span>
      <form method="post" action="/zoom/in" class="zoom-form" data-action="in">
        <button type="submit" id="zoom-in" aria-label="Zoom in"{{if not .CanZoomIn}} disabled{{end}}>+</button>
      </form>
    </div>
  </header>
  {{if .Notes}}<section class="notes">{{.Notes}}</section>{{end}}
  {{if .Found}}<p id="found">{{len .Tiles}} results for "{{.Search}}"</p>{{end}}
  <main class="grid">
    {{range .Tiles}}
    <figure class="tile tile-{{.Kind}}">
      <a class="frame" href="{{.Href}}">
        {{if eq .Kind "dir"}}<span class="icon">&#128193;</span>
        {{else if .HasStrip}}<div class="strip" data-strip="{{.ID}}" style="{{.StripStyle}}"><img src="/preview/{{.ID}}" alt="" loading="lazy"></div><span class="badge" style="{{.OverlayStyle}}">{{.Badge}}</span>
        {{else if eq .Kind "image"}}<img class="picture" src="/preview/{{.ID}}" alt="{{.Name}}" loading="lazy">
        {{else}}<span class="icon">{{ext .Name}}</span>{{end}}
      </a>
      <figcaption class="figure-caption" title="{{.Name}}">{{.Caption}}</figcaption>
      {{if .HumanSize}}<small class="size">{{.HumanSize}}</small>{{end}}
    </figure>
    {{else}}
    <p class="empty">Nothing here.</p>
    {{end}}
  </main>
  <script src="/static/app.js"></script>
</body>
</html>`

// cssContent is the static part of the stylesheet; tileCSS is appended.
const cssContent = `:root {
  --bg: #ffffff;
  --bg-secondary: #f1f3f5;
  --text: #212529;
  --text-muted: #868e96;
  --accent: #228be6;
  --mark: #ffe79a;
}

@media (prefers-color-scheme: dark) {
  :root {
    --bg: #1a1b26;
    --bg-secondary: #1f2030;
    --text: #c0caf5;
    --text-muted: #565f89;
    --accent: #7aa2f7;
    --mark: #946200;
  }
}

* { box-sizing: border-box; }
body { margin: 0; font-family: system-ui, sans-serif; background: var(--bg); color: var(--text); }
a { color: var(--accent); text-decoration: none; }

.top-bar { display: flex; gap: 1rem; align-items: center; padding: 0.75rem 1rem; background: var(--bg-secondary); position: sticky; top: 0; z-index: 2; }
.crumbs { flex: 1; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
.crumbs .sep { margin: 0 0.4rem; color: var(--text-muted); }
.zoom { display: flex; align-items: center; gap: 0.4rem; }
.zoom button { width: 2rem; height: 2rem; }
.zoom-label { min-width: 6rem; text-align: center; }

.notes { padding: 0 1rem; max-width: 900px; }
#found { padding: 0 1rem; color: var(--text-muted); }

.grid { display: flex; flex-wrap: wrap; gap: 0.75rem; padding: 1rem; }
.tile { margin: 0; }
.frame { position: relative; display: flex; align-items: center; justify-content: center; overflow: hidden; background: var(--bg-secondary); border-radius: 4px; }
.frame .picture { max-width: 100%; max-height: 100%; object-fit: contain; }
.frame .icon { font-size: 2rem; color: var(--text-muted); }

.strip { overflow: hidden; position: relative; }
.strip img { display: block; width: 100%; }
.tile:hover .strip img { animation: frames 2.5s steps(5) infinite; }
@keyframes frames { to { transform: translateY(-100%); } }

.badge { position: absolute; bottom: 4px; padding: 0 4px; font-size: 0.7rem; background: rgba(0,0,0,0.6); color: #fff; border-radius: 2px; }

.figure-caption { font-size: 0.85rem; overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }
.figure-caption mark.hit { background: var(--mark); color: inherit; border-radius: 2px; }
.size { color: var(--text-muted); font-size: 0.75rem; }
.empty { color: var(--text-muted); }
`

// jsContent keeps fits and the zoom class current over /ws/layout. Without
// it every control still works through plain forms.
const jsContent = `(function() {
  "use strict";

  var body = document.body;
  var dir = body.getAttribute("data-dir") || "";
  var query = body.getAttribute("data-query") || "";
  var levels = ["xs", "small", "medium", "large", "xl"];
  var labels = { xs: "extra-small", small: "small", medium: "medium", large: "large", xl: "extra-large" };
  var socket = null;
  var retry = 1000;

  function send(msg) {
    if (socket && socket.readyState === WebSocket.OPEN) {
      socket.send(JSON.stringify(msg));
      return true;
    }
    return false;
  }

  function applyFits(fits) {
    (fits || []).forEach(function(f) {
      var box = document.querySelector('[data-strip="' + f.id + '"]');
      if (!box) return;
      box.style.width = f.width + "px";
      box.style.height = f.height + "px";
      var badge = box.parentElement.querySelector(".badge");
      if (badge) badge.style.right = f.overlay_right + "px";
    });
  }

  function reflect(level, cls) {
    var old = null;
    body.classList.forEach(function(c) {
      if (c.indexOf("zoom-") === 0) old = c;
    });
    if (old && old !== cls) {
      body.classList.replace(old, cls);
    } else if (!old) {
      body.classList.add(cls);
    }
    var i = levels.indexOf(level);
    document.getElementById("zoom-out").disabled = i <= 0;
    document.getElementById("zoom-in").disabled = i >= levels.length - 1;
    document.getElementById("zoom-label").textContent = labels[level] || level;
  }

  function measure() {
    var frame = document.querySelector(".tile .frame");
    if (!frame) return;
    send({ type: "resize", width: frame.clientWidth, height: frame.clientHeight });
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    socket = new WebSocket(proto + location.host + "/ws/layout");
    socket.onopen = function() {
      retry = 1000;
      send({ type: "mount", dir: dir, query: query });
    };
    socket.onmessage = function(ev) {
      var msg = JSON.parse(ev.data);
      switch (msg.type) {
        case "fits": applyFits(msg.fits); break;
        case "zoom": reflect(msg.level, msg.class); break;
        case "error": console.warn("tinytune:", msg.message); break;
      }
    };
    socket.onclose = function() {
      socket = null;
      setTimeout(connect, retry);
      retry = Math.min(retry * 2, 30000);
    };
  }

  document.querySelectorAll(".zoom-form").forEach(function(form) {
    form.addEventListener("submit", function(e) {
      if (send({ type: "zoom", action: form.getAttribute("data-action") })) {
        e.preventDefault();
      }
    });
  });

  document.querySelectorAll(".strip img").forEach(function(img) {
    img.addEventListener("load", function() {
      send({ type: "fit", id: img.parentElement.getAttribute("data-strip") });
    });
  });

  var sortSelect = document.getElementById("sort-select");
  if (sortSelect) {
    sortSelect.addEventListener("change", function() { sortSelect.form.submit(); });
  }

  var resizeTimer = null;
  window.addEventListener("resize", function() {
    clearTimeout(resizeTimer);
    resizeTimer = setTimeout(measure, 200);
  });

  connect();
})();
`
