package api

import (
	"io"
	"net/http"
)

// handleIndex serves the status dashboard. The page polls /api/stats
// every few seconds; everything is inline so the relay stays a single
// binary with no static assets.
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, indexHTML)
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>StreamFlow Relay</title>
    <style>
        :root {
            --primary: #6366f1;
            --bg: #0f172a;
            --card: #1e293b;
            --text: #f1f5f9;
            --border: #334155;
            --success: #22c55e;
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
        }
        .container { max-width: 900px; margin: 0 auto; padding: 2rem; }
        .header { text-align: center; margin-bottom: 3rem; padding-top: 2rem; }
        .logo-text {
            font-size: 2.2rem;
            font-weight: 800;
            background: linear-gradient(135deg, #6366f1 0%, #8b5cf6 100%);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
        }
        .badge {
            display: inline-block;
            background: rgba(34, 197, 94, 0.2);
            color: var(--success);
            padding: 0.4rem 0.8rem;
            border-radius: 9999px;
            font-size: 0.85rem;
        }
        .stats {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 1rem;
            margin-bottom: 3rem;
        }
        .stat-card {
            background: var(--card);
            border: 1px solid var(--border);
            border-radius: 12px;
            padding: 1.5rem;
            text-align: center;
        }
        .stat-number { font-size: 2rem; font-weight: 700; color: var(--primary); }
        .stat-label { color: #94a3b8; font-size: 0.9rem; }
        .endpoints {
            background: var(--card);
            border: 1px solid var(--border);
            border-radius: 12px;
            padding: 1.5rem;
        }
        .endpoints h2 { margin-bottom: 1rem; font-size: 1.2rem; }
        .endpoint { padding: 0.5rem 0; border-bottom: 1px solid var(--border); }
        .endpoint:last-child { border-bottom: none; }
        .endpoint code { color: var(--primary); }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <div class="logo-text">StreamFlow Relay</div>
            <span class="badge">online</span>
        </div>
        <div class="stats">
            <div class="stat-card">
                <div class="stat-number" id="requests">0</div>
                <div class="stat-label">Requests</div>
            </div>
            <div class="stat-card">
                <div class="stat-number" id="streams">0</div>
                <div class="stat-label">Active Streams</div>
            </div>
            <div class="stat-card">
                <div class="stat-number" id="cache_hits">0</div>
                <div class="stat-label">Cache Hits</div>
            </div>
            <div class="stat-card">
                <div class="stat-number" id="uptime">0h</div>
                <div class="stat-label">Uptime</div>
            </div>
        </div>
        <div class="endpoints">
            <h2>Endpoints</h2>
            <div class="endpoint"><code>/proxy/m3u?url=&lt;channel&gt;</code> rewritten playlist</div>
            <div class="endpoint"><code>/proxy/resolve?url=&lt;channel&gt;</code> single-entry playlist</div>
            <div class="endpoint"><code>/proxy/ts?url=&lt;segment&gt;</code> media segment</div>
            <div class="endpoint"><code>/proxy/key?url=&lt;key&gt;</code> decryption key</div>
        </div>
    </div>
    <script>
        async function refresh() {
            try {
                const d = await (await fetch('/api/stats')).json();
                document.getElementById('requests').textContent = d.requests;
                document.getElementById('streams').textContent = d.streams;
                document.getElementById('cache_hits').textContent = d.cache_hits;
                document.getElementById('uptime').textContent = d.uptime + 'h';
            } catch (e) {}
        }
        refresh();
        setInterval(refresh, 5000);
    </script>
</body>
</html>
`
