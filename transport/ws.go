package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Second

	writeQueueSize = 127
)

var (
	ErrNotConnected = errors.New("Transport is not connected")
)

// WS carries text messages over a websocket connection. Each call to
// Connect opens a fresh connection with its own read and write loops; the
// previous connection, if any, is abandoned to its own teardown.
type WS struct {
	opts Options
	log  *zap.Logger

	mu   sync.Mutex
	sess *wsSession
}

func NewWS(opts Options) *WS {
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}

	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}

	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &WS{
		opts: opts,
		log:  log,
	}
}

func (w *WS) Connect(handler Handler) error {
	dialer := &websocket.Dialer{
		HandshakeTimeout: w.opts.HandshakeTimeout,
	}

	conn, _, err := dialer.Dial(w.opts.URL, nil)
	if err != nil {
		return err
	}

	sess := newWSSession(conn, handler, w.opts.WriteTimeout, w.log.Named("session"))

	w.mu.Lock()
	w.sess = sess
	w.mu.Unlock()

	sess.start()

	// The handler may send immediately, so the session must be live and
	// registered before this fires.
	handler.OnOpen()

	return nil
}

func (w *WS) Disconnect() error {
	w.mu.Lock()
	sess := w.sess
	w.sess = nil
	w.mu.Unlock()

	if sess == nil {
		return nil
	}

	return sess.close()
}

func (w *WS) Send(payload string) error {
	w.mu.Lock()
	sess := w.sess
	w.mu.Unlock()

	if sess == nil {
		return ErrNotConnected
	}

	return sess.send([]byte(payload))
}

func (w *WS) IsConnected() bool {
	w.mu.Lock()
	sess := w.sess
	w.mu.Unlock()

	return sess != nil && sess.isRunning()
}

var _ Transport = (*WS)(nil)

// wsSession owns a single websocket connection. Reads happen on a dedicated
// loop that dispatches to the handler; writes go through a queue drained by
// the write loop, so senders never block on the socket.
type wsSession struct {
	conn    *websocket.Conn
	handler Handler

	writeTimeout time.Duration
	writeQueue   chan []byte

	stop     chan struct{}
	stopOnce sync.Once

	// localClose is closed when the session is torn down via close(). The
	// read loop uses it to suppress the OnClose callback for teardowns the
	// local side asked for.
	localClose     chan struct{}
	localCloseOnce sync.Once

	log *zap.Logger
}

func newWSSession(conn *websocket.Conn, handler Handler, writeTimeout time.Duration, log *zap.Logger) *wsSession {
	return &wsSession{
		conn:         conn,
		handler:      handler,
		writeTimeout: writeTimeout,
		writeQueue:   make(chan []byte, writeQueueSize),
		stop:         make(chan struct{}),
		localClose:   make(chan struct{}),
		log:          log,
	}
}

func (s *wsSession) start() {
	go s.readLoop()
	go s.writeLoop()
}

func (s *wsSession) send(data []byte) error {
	select {
	case <-s.stop:
		return ErrNotConnected

	case s.writeQueue <- data:
		return nil
	}
}

// close tears the session down from the local side. The server is told with
// a close frame first; errors from the closing handshake and the socket
// teardown are combined.
func (s *wsSession) close() (err error) {
	s.localCloseOnce.Do(func() {
		close(s.localClose)
	})

	deadline := time.Now().Add(s.writeTimeout)
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")

	if werr := s.conn.WriteControl(websocket.CloseMessage, message, deadline); werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
		err = multierr.Append(err, werr)
	}

	if serr := s.shutdown(); serr != nil {
		err = multierr.Append(err, serr)
	}

	return err
}

// shutdown stops both loops and closes the socket. Safe to call from any
// goroutine, any number of times.
func (s *wsSession) shutdown() error {
	var err error

	s.stopOnce.Do(func() {
		close(s.stop)
		err = s.conn.Close()
	})

	return err
}

func (s *wsSession) isRunning() bool {
	select {
	case <-s.stop:
		return false

	default:
		return true
	}
}

func (s *wsSession) readLoop() {
	log := s.log.Named("readLoop")

	for {
		messageType, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.localClose:
				// Torn down locally, nobody to tell.
				return

			default:
			}

			code, reason := closeDetails(err)
			log.Debug("Connection closed",
				zap.Int("code", code),
				zap.String("reason", reason))

			if serr := s.shutdown(); serr != nil {
				log.Warn("Connection did not close cleanly", zap.Error(serr))
			}

			s.handler.OnClose(code, reason)
			return
		}

		if messageType != websocket.TextMessage {
			log.Debug("Ignoring non-text message", zap.Int("messageType", messageType))
			continue
		}

		s.handler.OnTextMessage(string(message))
	}
}

func (s *wsSession) writeLoop() {
	log := s.log.Named("writeLoop")

	for {
		select {
		case <-s.stop:
			return

		case data := <-s.writeQueue:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
				log.Warn("Failed to set write deadline", zap.Error(err))
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				// Websocket writes cannot be retried after a failure; the
				// read loop will observe the dead socket and surface it.
				log.Warn("Failed to write to connection", zap.Error(err))

				if serr := s.shutdown(); serr != nil {
					log.Warn("Connection did not close cleanly", zap.Error(serr))
				}

				return
			}
		}
	}
}

// closeDetails extracts the close code and reason from a read error,
// falling back to an abnormal-closure code for transport-level failures.
func closeDetails(err error) (int, string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code, closeErr.Text
	}

	return websocket.CloseAbnormalClosure, err.Error()
}
