package bc

import (
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/AlexxIT/neolink/internal/api"
	"github.com/AlexxIT/neolink/internal/api/ws"
	"github.com/AlexxIT/neolink/internal/app"
	"github.com/AlexxIT/neolink/pkg/bc"
	"github.com/AlexxIT/neolink/pkg/creds"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Mod struct {
			Cameras      map[string]string `yaml:"cameras"`
			PingInterval time.Duration     `yaml:"ping_interval"`
			Reconnect    time.Duration     `yaml:"reconnect"`
		} `yaml:"bc"`
	}

	// default config
	cfg.Mod.PingInterval = 30 * time.Second
	cfg.Mod.Reconnect = 10 * time.Second

	app.LoadConfig(&cfg)

	log = app.GetLogger("bc")

	pingInterval = cfg.Mod.PingInterval
	reconnect = cfg.Mod.Reconnect

	registry := prometheus.NewRegistry()
	metrics = newMetrics(registry)

	for name, rawURL := range cfg.Mod.Cameras {
		startSession(name, rawURL)
	}

	api.HandleFunc("api/bc", apiBC)
	api.Handle("api/bc/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	ws.HandleFunc("bc/packets", wsPackets)
}

var log zerolog.Logger

var pingInterval, reconnect time.Duration

var sessions = map[string]*session{}
var sessionsMu sync.Mutex

// startSession replaces the session with the same name and returns the old one
func startSession(name, rawURL string) *session {
	creds.AddURL(rawURL)

	s := newSession(name, rawURL)
	s.pingInterval = pingInterval
	s.reconnect = reconnect

	sessionsMu.Lock()
	prev := sessions[name]
	sessions[name] = s
	sessionsMu.Unlock()

	go s.run()

	return prev
}

func deleteSession(name string) *session {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()

	s := sessions[name]
	delete(sessions, name)
	return s
}

func getSession(name string) *session {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	return sessions[name]
}

func allSessions() []*session {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()

	list := make([]*session, 0, len(sessions))
	for _, s := range sessions {
		list = append(list, s)
	}
	return list
}

func apiBC(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name := query.Get("name")

	switch r.Method {
	case "GET":
		if name != "" {
			s := getSession(name)
			if s == nil {
				http.Error(w, "camera not found", http.StatusNotFound)
				return
			}
			api.ResponseJSON(w, s.Info())
			return
		}

		list := allSessions()
		infos := make([]*Info, 0, len(list))
		for _, s := range list {
			infos = append(infos, s.Info())
		}
		sort.Slice(infos, func(i, j int) bool {
			return infos[i].Name < infos[j].Name
		})

		api.ResponseJSON(w, infos)

	case "PUT":
		rawURL := query.Get("url")
		if name == "" || !validURL(rawURL) {
			http.Error(w, "wrong name or url", http.StatusBadRequest)
			return
		}

		if prev := startSession(name, rawURL); prev != nil {
			go prev.Stop()
		}

		log.Info().Str("camera", name).Msg("[bc] add camera")

		if err := app.PatchConfig(name, rawURL, "bc", "cameras"); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}

	case "DELETE":
		s := deleteSession(name)
		if s == nil {
			http.Error(w, "camera not found", http.StatusNotFound)
			return
		}

		s.Stop()

		log.Info().Str("camera", name).Msg("[bc] delete camera")

		if err := app.PatchConfig(name, nil, "bc", "cameras"); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}

	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

func validURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme == "bc" && u.Host != ""
}

// dial is replaced in tests
var dial = func(rawURL string, handler bc.EventFunc) (client, error) {
	c, err := bc.Dial(rawURL, handler)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// client is the part of *bc.Client used by session
type client interface {
	Encryption() bc.Encryption
	Version() (*bc.VersionInfo, error)
	Ping() error
	Logout() error
	Recv() int
	Send() int
	Close() error
}
