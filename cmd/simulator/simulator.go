package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	wsAdapter "github.com/seu-repo/workforce-voice/internal/adapter/websocket"
)

var ErrNoReply = errors.New("simulator: no reply from server")

// SimulatorConfig holds the simulator configuration
type SimulatorConfig struct {
	ServerURL    string
	SessionID    string
	ReplyTimeout time.Duration
	// Updates also subscribes to the /ws/updates event feed.
	Updates bool
}

// Simulator drives /ws/voice the way a speech front end would: it sends
// transcripts and waits for one reply per frame.
type Simulator struct {
	config  *SimulatorConfig
	conn    *websocket.Conn
	updates *websocket.Conn
	log     *zap.Logger
	out     io.Writer

	replies chan wsAdapter.Reply
	writeMu sync.Mutex

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSimulator creates a new voice client simulator
func NewSimulator(config *SimulatorConfig, out io.Writer, log *zap.Logger) *Simulator {
	if config.ReplyTimeout <= 0 {
		config.ReplyTimeout = 10 * time.Second
	}
	return &Simulator{
		config:   config,
		log:      log,
		out:      out,
		replies:  make(chan wsAdapter.Reply, 16),
		stopChan: make(chan struct{}),
	}
}

func (s *Simulator) endpoint(path string) (string, error) {
	u, err := url.Parse(s.config.ServerURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if s.config.SessionID != "" {
		q := u.Query()
		q.Set("session", s.config.SessionID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Connect opens the voice stream and, when configured, the event feed.
func (s *Simulator) Connect() error {
	voiceURL, err := s.endpoint("/ws/voice")
	if err != nil {
		return err
	}
	header := http.Header{}
	if s.config.SessionID != "" {
		header.Set("X-Session-ID", s.config.SessionID)
	}

	conn, _, err := websocket.DefaultDialer.Dial(voiceURL, header)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	s.conn = conn
	s.log.Info("Connected to voice stream", zap.String("url", voiceURL))

	s.wg.Add(1)
	go s.readReplies()

	if s.config.Updates {
		updatesURL, err := s.endpoint("/ws/updates")
		if err != nil {
			return err
		}
		updates, _, err := websocket.DefaultDialer.Dial(updatesURL, header)
		if err != nil {
			return fmt.Errorf("failed to subscribe to updates: %w", err)
		}
		s.updates = updates
		s.wg.Add(1)
		go s.readUpdates()
	}
	return nil
}

// Stop closes the connections and waits for the readers.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.conn != nil {
			s.writeMu.Lock()
			s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			s.writeMu.Unlock()
			s.conn.Close()
		}
		if s.updates != nil {
			s.updates.Close()
		}
	})
	s.wg.Wait()
}

func (s *Simulator) readReplies() {
	defer s.wg.Done()
	defer close(s.replies)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopChan:
			default:
				s.log.Error("Read error", zap.Error(err))
			}
			return
		}
		var reply wsAdapter.Reply
		if err := json.Unmarshal(data, &reply); err != nil {
			s.log.Warn("Invalid reply", zap.Error(err))
			continue
		}
		select {
		case s.replies <- reply:
		case <-s.stopChan:
			return
		}
	}
}

func (s *Simulator) readUpdates() {
	defer s.wg.Done()

	for {
		_, data, err := s.updates.ReadMessage()
		if err != nil {
			return
		}
		var env wsAdapter.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		fmt.Fprintf(s.out, "  [event] %s %s\n", env.Type, string(env.Payload))
	}
}

// Send writes one frame and waits for its reply.
func (s *Simulator) Send(frame wsAdapter.Frame) (wsAdapter.Reply, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return wsAdapter.Reply{}, err
	}

	s.writeMu.Lock()
	err = s.conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		return wsAdapter.Reply{}, fmt.Errorf("failed to send frame: %w", err)
	}

	select {
	case reply, ok := <-s.replies:
		if !ok {
			return wsAdapter.Reply{}, ErrNoReply
		}
		return reply, nil
	case <-time.After(s.config.ReplyTimeout):
		return wsAdapter.Reply{}, ErrNoReply
	}
}

// Say sends a transcript.
func (s *Simulator) Say(text string) (wsAdapter.Reply, error) {
	return s.Send(wsAdapter.Frame{Type: wsAdapter.FrameTranscript, Text: text})
}

func (s *Simulator) printReply(reply wsAdapter.Reply) {
	switch reply.Type {
	case wsAdapter.ReplyResponse:
		r := reply.Response
		if r == nil {
			fmt.Fprintln(s.out, "(empty response)")
			return
		}
		fmt.Fprintf(s.out, "%s\n", r.Text)
		fmt.Fprintf(s.out, "  success=%v fallback=%v", r.Success, r.ShouldFallback)
		if r.FallbackReason != "" {
			fmt.Fprintf(s.out, " reason=%s", r.FallbackReason)
		}
		fmt.Fprintln(s.out)
		for _, a := range r.Actions {
			target := a.Endpoint
			if target == "" {
				target = a.Route
			}
			fmt.Fprintf(s.out, "  action %s %s %s\n", a.Kind, a.Method, target)
		}
		for _, sug := range r.Suggestions {
			fmt.Fprintf(s.out, "  try: %q\n", sug)
		}
	case wsAdapter.ReplyState:
		fmt.Fprintf(s.out, "session %s is %s\n", reply.SessionID, reply.State)
	case wsAdapter.ReplyBusy:
		fmt.Fprintln(s.out, "session busy, transcript dropped")
	case wsAdapter.ReplyError:
		fmt.Fprintf(s.out, "error: %s\n", reply.Error)
	default:
		fmt.Fprintf(s.out, "unexpected reply %q\n", reply.Type)
	}
}

// RunScript sends each transcript in order and prints the replies.
func (s *Simulator) RunScript(lines []string, pause time.Duration) error {
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i > 0 && pause > 0 {
			time.Sleep(pause)
		}
		fmt.Fprintf(s.out, "> %s\n", line)
		reply, err := s.Say(line)
		if err != nil {
			return err
		}
		s.printReply(reply)
	}
	return nil
}

// RunInteractive reads transcripts from in. Lines starting with "/" are
// session commands.
func (s *Simulator) RunInteractive(in io.Reader) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(s.out, "> ")
			continue
		}

		var frame wsAdapter.Frame
		switch line {
		case "/quit", "/exit":
			return
		case "/listen":
			frame = wsAdapter.Frame{Type: wsAdapter.FrameListen}
		case "/halt":
			frame = wsAdapter.Frame{Type: wsAdapter.FrameHalt}
		default:
			if strings.HasPrefix(line, "/") {
				fmt.Fprintf(s.out, "unknown command %s\n> ", line)
				continue
			}
			frame = wsAdapter.Frame{Type: wsAdapter.FrameTranscript, Text: line}
		}

		reply, err := s.Send(frame)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		s.printReply(reply)
		fmt.Fprint(s.out, "> ")
	}
}
