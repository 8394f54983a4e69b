package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/linkctl/internal/graph"
)

var (
	ErrSessionClosed = errors.New("session: closed")
	ErrSessionEnded  = errors.New("session: transport ended")
)

// QuitKind tells the supervisor how a session ended.
type QuitKind int

const (
	QuitDone QuitKind = iota + 1
	QuitError
)

func (k QuitKind) String() string {
	switch k {
	case QuitDone:
		return "done"
	case QuitError:
		return "error"
	default:
		return "unknown"
	}
}

// QuitReason is the outcome threaded back from a session. Err is set only
// for QuitError.
type QuitReason struct {
	Kind QuitKind
	Err  error
}

func Done() QuitReason {
	return QuitReason{Kind: QuitDone}
}

func Failed(err error) QuitReason {
	if err == nil {
		err = ErrSessionEnded
	}
	return QuitReason{Kind: QuitError, Err: err}
}

func (q QuitReason) String() string {
	if q.Kind == QuitError {
		return fmt.Sprintf("error: %v", q.Err)
	}
	return q.Kind.String()
}

// Request is sent from the control loop to the transport side.
type Request interface {
	request()
}

// ConnectRequest asks the server to link Output to Input.
type ConnectRequest struct {
	Output graph.Port
	Input  graph.Port
}

// QuitRequest ends the session with Reason.
type QuitRequest struct {
	Reason QuitReason
}

func (ConnectRequest) request() {}
func (QuitRequest) request()    {}

// Requester is the control loop's handle on the request channel.
type Requester interface {
	Send(req Request) error
}

// sender guards the outbound channel so sends after the session ended fail
// instead of blocking.
type sender struct {
	mu     sync.Mutex
	ch     chan<- Request
	done   <-chan struct{}
	closed bool
}

func (s *sender) Send(req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	select {
	case s.ch <- req:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *sender) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
