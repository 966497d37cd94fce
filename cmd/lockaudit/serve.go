// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"

	"github.com/lockscan/bunlock/audit"
	"github.com/lockscan/bunlock/internal/cache"
)

const writeWait = 10 * time.Second

// localUpgrader is deliberately origin-unchecked: serve only ever binds
// to a loopback address (runServe rejects any other --addr) and is never
// exposed beyond the local machine (§9
// Non-goals: no network access beyond the loopback dashboard).
var localUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func newServeCmd() *cobra.Command {
	var (
		addr        string
		packageJSON string
	)

	cmd := &cobra.Command{
		Use:   "serve <path>",
		Short: "Serve a live-updating audit dashboard for a bun.lockb file, loopback only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(args[0], packageJSON, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7777", "loopback address to bind")
	cmd.Flags().StringVar(&packageJSON, "package-json", "", "path to package.json")

	return cmd
}

type dashboard struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]struct{}
	path      string
	pkgJSON   string
	c         *cache.Cache
}

func runServe(path, pkgJSON, addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return fmt.Errorf("serve: --addr %q is not a loopback address", addr)
	}

	c, err := cache.New()
	if err != nil {
		return err
	}
	d := &dashboard{clients: map[*websocket.Conn]struct{}{}, path: path, pkgJSON: pkgJSON, c: c}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}
	go d.watchLoop(watcher)

	mux := http.NewServeMux()
	mux.HandleFunc("/", d.handleIndex)
	mux.HandleFunc("/ws", d.handleWebSocket)

	fmt.Printf("serving loopback dashboard on http://%s\n", addr)
	return http.ListenAndServe(addr, mux)
}

func (d *dashboard) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			d.broadcast()
		case <-watcher.Errors:
		}
	}
}

func (d *dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!doctype html><html><body><pre id="out">connecting...</pre>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = ev => { document.getElementById("out").innerHTML = ev.data; };
</script></body></html>`)
}

func (d *dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := localUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	d.mu.Lock()
	d.clients[conn] = struct{}{}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.clients, conn)
		d.mu.Unlock()
		conn.Close()
	}()

	html, err := d.renderHTML()
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.TextMessage, html)
	}

	// Drain reads so ping/pong and close frames are processed; this
	// dashboard is write-only from the server's side.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (d *dashboard) broadcast() {
	html, err := d.renderHTML()
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn := range d.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, html); err != nil {
			conn.Close()
			delete(d.clients, conn)
		}
	}
}

// renderHTML re-audits the lockfile and renders the report as a
// markdown document converted to HTML via goldmark, for injection into
// the dashboard page.
func (d *dashboard) renderHTML() ([]byte, error) {
	logger, _ := buildLogger("zap")
	report, err := runAudit(d.path, d.pkgJSON, false, logger, d.c)
	if err != nil {
		return nil, err
	}

	md := reportMarkdown(report)
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reportMarkdown(r audit.Report) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# bunlock audit\n\n")
	fmt.Fprintf(&b, "- total packages: %d\n", r.TotalPackages)
	fmt.Fprintf(&b, "- phantom dependencies: %d\n", len(r.PhantomDependencies))
	fmt.Fprintf(&b, "- untrusted registries: %d\n", len(r.UntrustedRegistries))
	fmt.Fprintf(&b, "- integrity mismatches: %d\n", len(r.IntegrityMismatches))
	fmt.Fprintf(&b, "- missing integrity: %d\n", len(r.MissingIntegrity))
	fmt.Fprintf(&b, "- suspicious versions: %d\n", len(r.SuspiciousVersions))

	if data, err := json.MarshalIndent(r, "", "  "); err == nil {
		fmt.Fprintf(&b, "\n```json\n%s\n```\n", data)
	}
	return b.String()
}
