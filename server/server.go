package server

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"indoorpf/server/cell_views"
	"indoorpf/server/fastview"
	"indoorpf/server/root_view"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// pongWait and pingPeriod are not referenced: the server sends no
	// pings and sets no read deadline on the websocket.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Time to wait before force close on connection.
	closeGracePeriod = 10 * time.Second
)

/*
Gist: serve svg-based views of the filter's running state (probability heatmap,
probability surface, cluster markers). Svg is declarative; values map directly to
element attributes, so the server only needs to push small per-tick diffs rather
than regenerate the whole page. The client applies diffs via a websocket.
*/

// Server serves the demo visualizer: an index page containing svg views and
// a websocket endpoint pushing per-tick element diffs to the page.
type Server struct {
	addr       string
	indexTmpl  *template.Template
	indexName  string
	lastUpdate cell_views.TickData
	rootView   *root_view.RootView
}

// NewServer initializes all of the views and returns a server. tickUpdates
// feeds TickData pulled from a running ParticleFilter once per tick;
// initial is the TickData rendered on every page load. Later ticks reach
// the page only as websocket updates.
func NewServer(
	ctx context.Context,
	addr string,
	initial cell_views.TickData,
	tickUpdates <-chan cell_views.TickData,
) (*Server, error) {
	t := template.New("index")
	rootView := root_view.NewRootView(ctx, tickUpdates)
	name, err := rootView.Parse(t)
	if err != nil {
		return nil, err
	}

	return &Server{
		addr:       addr,
		indexTmpl:  t,
		indexName:  name,
		lastUpdate: initial,
		rootView:   rootView,
	}, nil
}

func (server *Server) Serve() (err error) {
	http.HandleFunc("/", server.serveIndex)
	http.HandleFunc("/ws", server.serveWebsocket)

	if err = http.ListenAndServe(server.addr, nil); err != nil {
		err = fmt.Errorf("serve: %w", err)
	}

	return
}

// serveWebsocket publishes view updates to the client via websocket. This
// assumes a single connected client; a second client opening the page
// would share the same outbound update stream.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		log.Println("upgrade:", err)
		return
	}

	defer server.closeWebsocket(ws)
	server.publishUpdates(ws)
}

// publishUpdates forwards rootView's aggregated ele-update stream to the
// client, throttled to a maximum send rate and never overlapping a
// pending write.
func (server *Server) publishUpdates(ws *websocket.Conn) {
	publish := func(updates []fastview.EleUpdate) <-chan error {
		errs := make(chan error)
		go func() {
			defer close(errs)
			if err := ws.WriteJSON(updates); err != nil {
				errs <- err
			}
		}()
		return errs
	}

	last := time.Now()
	resolution := time.Millisecond * 200
	var done <-chan error
	for updates := range server.rootView.Updates() {
		if time.Since(last) < resolution {
			continue
		}

		if done != nil {
			select {
			case err, isErr := <-done:
				if isErr {
					fmt.Println(err)
					return
				}
			default:
				continue
			}
		}

		last = time.Now()
		if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			fmt.Println(err)
			return
		}

		done = publish(updates)
	}
}

func (server *Server) closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.Sleep(closeGracePeriod)
	ws.Close()
}

func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	snapshot := cell_views.Convert(server.lastUpdate)
	if err := server.indexTmpl.ExecuteTemplate(w, server.indexName, snapshot); err != nil {
		_, _ = w.Write([]byte(err.Error()))
		return
	}
}
