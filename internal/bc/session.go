package bc

import (
	"sync"
	"time"

	"github.com/AlexxIT/neolink/pkg/bc"
	"github.com/AlexxIT/neolink/pkg/creds"
)

const (
	StateConnecting = "connecting"
	StateOnline     = "online"
	StateOffline    = "offline"
)

type Info struct {
	Name       string          `json:"name"`
	URL        string          `json:"url"`
	State      string          `json:"state"`
	Encryption string          `json:"encryption,omitempty"`
	Version    *bc.VersionInfo `json:"version,omitempty"`
	Error      string          `json:"error,omitempty"`
	Recv       int             `json:"bytes_recv,omitempty"`
	Send       int             `json:"bytes_send,omitempty"`
}

type session struct {
	name string
	url  string

	pingInterval time.Duration
	reconnect    time.Duration

	mu     sync.Mutex
	client client
	info   Info

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	subsMu sync.Mutex
	subs   map[int]bc.EventFunc
	subID  int
}

func newSession(name, rawURL string) *session {
	return &session{
		name: name,
		url:  rawURL,
		info: Info{Name: name, URL: creds.SecretString(rawURL), State: StateOffline},
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (s *session) Info() *Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := s.info
	if s.client != nil {
		info.Recv = s.client.Recv()
		info.Send = s.client.Send()
	}
	return &info
}

func (s *session) run() {
	defer close(s.done)

	for {
		err := s.connect()

		s.mu.Lock()
		s.client = nil
		s.info.State = StateOffline
		if err != nil {
			s.info.Error = err.Error()
		}
		s.mu.Unlock()

		if err != nil {
			metrics.errors.WithLabelValues(s.name).Inc()
			log.Warn().Err(err).Str("camera", s.name).Msg("[bc] connection")
		}

		select {
		case <-s.stop:
			return
		case <-time.After(s.reconnect):
		}
	}
}

// connect blocks while the session is online
func (s *session) connect() error {
	s.setState(StateConnecting)

	log.Debug().Str("camera", s.name).Str("url", s.url).Msg("[bc] dial")

	count := metrics.listen(s.name)

	c, err := dial(s.url, func(msg any) {
		count(msg)
		s.fire(msg)
	})
	if err != nil {
		return err
	}
	defer c.Close()

	enc := c.Encryption()
	metrics.logins.WithLabelValues(s.name, enc.String()).Inc()
	log.Info().Str("camera", s.name).Stringer("encryption", enc).Msg("[bc] login")

	version, err := c.Version()
	if err != nil {
		return err
	}

	log.Debug().Str("camera", s.name).Str("firmware", version.FirmwareVersion).Msg("[bc] version")

	s.mu.Lock()
	s.client = c
	s.info.State = StateOnline
	s.info.Encryption = enc.String()
	s.info.Version = version
	s.info.Error = ""
	s.mu.Unlock()

	online := metrics.online.WithLabelValues(s.name)
	online.Set(1)
	defer online.Set(0)

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return c.Logout()
		case <-ticker.C:
			if err = c.Ping(); err != nil {
				return err
			}
			log.Trace().Str("camera", s.name).Msg("[bc] ping")
		}
	}
}

// subscribe adds a packet listener for this and the next connections
func (s *session) subscribe(f bc.EventFunc) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if s.subs == nil {
		s.subs = map[int]bc.EventFunc{}
	}

	id := s.subID
	s.subID++
	s.subs[id] = f

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *session) fire(msg any) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, f := range s.subs {
		f(msg)
	}
}

func (s *session) setState(state string) {
	s.mu.Lock()
	s.info.State = state
	s.mu.Unlock()
}

func (s *session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

// Stop logout from all cameras
func Stop() {
	var wg sync.WaitGroup
	for _, s := range allSessions() {
		wg.Add(1)
		go func(s *session) {
			s.Stop()
			wg.Done()
		}(s)
	}
	wg.Wait()
}
