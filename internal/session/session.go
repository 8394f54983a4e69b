package session

import (
	"context"
	"fmt"

	"github.com/danmuck/linkctl/internal/graph"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Sink receives registry notifications from a Transport, in server order.
type Sink interface {
	Add(id graph.ObjectID, props map[string]string)
	Remove(id graph.ObjectID)
}

// Transport is the media server connection a session runs on.
type Transport interface {
	// Watch delivers registry notifications to sink until ctx ends or the
	// connection fails. A non-nil return while ctx is live is the session's
	// error notification.
	Watch(ctx context.Context, sink Sink) error
	// Connect asks the server to create a link from output to input.
	Connect(ctx context.Context, output, input graph.Port) error
}

// Controller is the control loop. It returns nil once events is closed or
// its work is done, and an error when the session must be abandoned.
type Controller interface {
	Run(events <-chan graph.Event, out Requester) error
}

// Run drives one session and returns the first quit reason produced by the
// transport, the request side or the controller. Cancelling ctx ends the
// session with Done.
func Run(ctx context.Context, cfg Config, transport Transport, controller Controller) QuitReason {
	cfg = cfg.WithDefaults()
	logger := zerolog.Ctx(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := newEventQueue()
	requests := make(chan Request, cfg.RequestBuffer)
	out := &sender{ch: requests, done: ctx.Done()}
	// one slot per producer below; none of them can block on it
	quit := make(chan QuitReason, 3)

	var g errgroup.Group
	g.Go(func() error {
		queue.pump(ctx.Done())
		return nil
	})
	g.Go(func() error {
		err := transport.Watch(ctx, queue)
		queue.close()
		if ctx.Err() == nil {
			quit <- Failed(err)
		}
		return nil
	})
	g.Go(func() error {
		dispatch(ctx, transport, requests, quit)
		return nil
	})
	g.Go(func() error {
		if err := controller.Run(queue.out, out); err != nil {
			quit <- Failed(err)
		}
		return nil
	})

	var reason QuitReason
	select {
	case reason = <-quit:
	case <-ctx.Done():
		reason = Done()
	}
	cancel()
	out.close()
	queue.close()
	_ = g.Wait()

	logger.Debug().Stringer("reason", reason).Msg("session.Run quit")
	return reason
}

// dispatch carries requests into the transport until a quit is requested,
// a connect fails or ctx ends.
func dispatch(ctx context.Context, transport Transport, requests <-chan Request, quit chan<- QuitReason) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-requests:
			switch r := req.(type) {
			case ConnectRequest:
				if err := transport.Connect(ctx, r.Output, r.Input); err != nil {
					if ctx.Err() == nil {
						quit <- Failed(fmt.Errorf("connect %q -> %q: %w", r.Output.Name, r.Input.Name, err))
					}
					return
				}
			case QuitRequest:
				quit <- r.Reason
				return
			}
		}
	}
}
