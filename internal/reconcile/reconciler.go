// Package reconcile runs the control loop that keeps the live graph's links
// in line with the desired link set.
//
// Each tick drains at most one event into the graph model, or times out after
// the debounce window; a timed-out tick is "stable" and only stable ticks act.
// Acting means either creating missing links (reconcile mode) or printing
// every resolvable link in configuration form and quitting (dump mode).
package reconcile

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danmuck/linkctl/internal/config"
	"github.com/danmuck/linkctl/internal/graph"
	"github.com/danmuck/linkctl/internal/observability"
	"github.com/danmuck/linkctl/internal/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the event stream must stay quiet before a tick
// counts as stable.
const DefaultDebounce = 100 * time.Millisecond

type Mode int

const (
	ModeReconcile Mode = iota
	ModeDump
)

func (m Mode) String() string {
	if m == ModeDump {
		return "dump"
	}
	return "reconcile"
}

type Options struct {
	Mode       Mode
	Debounce   time.Duration
	DumpFormat config.Format
	DumpOut    io.Writer
	Logger     *zerolog.Logger
}

// Reconciler owns the graph model, the desired set and the set of already
// reported resolution failures for one session.
type Reconciler struct {
	opts    Options
	logger  zerolog.Logger
	model   *graph.Model
	desired []config.ExpandedLink
	failed  map[config.ExpandedLink]struct{}
	// primed is set by the first event; quiet periods before it only mean
	// the transport has not started reporting yet
	primed bool

	// rebuilt every tick from the port table; with duplicate names in one
	// direction the last port visited wins
	inputs  map[graph.PortName]graph.InputRef
	outputs map[graph.PortName]graph.OutputRef
}

// New builds a reconciler with a fresh graph model. desired is only read.
func New(desired []config.ExpandedLink, opts Options) *Reconciler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.DumpFormat == "" {
		opts.DumpFormat = config.FormatYAML
	}
	if opts.DumpOut == nil {
		opts.DumpOut = os.Stdout
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Reconciler{
		opts:    opts,
		logger:  logger.With().Str("mode", opts.Mode.String()).Logger(),
		model:   graph.NewModel(),
		desired: desired,
		failed:  make(map[config.ExpandedLink]struct{}),
		inputs:  make(map[graph.PortName]graph.InputRef),
		outputs: make(map[graph.PortName]graph.OutputRef),
	}
}

// Run is the control loop. It returns nil when events is closed or dump mode
// has finished, and an error on a graph invariant violation.
func (r *Reconciler) Run(events <-chan graph.Event, out session.Requester) error {
	r.logger.Info().
		Int("desired", len(r.desired)).
		Dur("debounce", r.opts.Debounce).
		Msg("reconcile.Reconciler.Run starting")

	timer := time.NewTimer(r.opts.Debounce)
	defer timer.Stop()
	for {
		stable := false
		select {
		case ev, ok := <-events:
			if !ok {
				r.logger.Debug().Msg("reconcile.Reconciler.Run event stream closed")
				return nil
			}
			if err := r.absorb(ev); err != nil {
				return err
			}
		case <-timer.C:
			stable = r.primed
		}
		timer.Reset(r.opts.Debounce)

		done, err := r.tick(stable, out)
		if err != nil || done {
			return err
		}
	}
}

func (r *Reconciler) absorb(ev graph.Event) error {
	if err := r.model.Apply(ev); err != nil {
		return err
	}
	r.primed = true
	observability.RecordGraphEvent(ev.Kind.String())
	return nil
}

// tick rebuilds the name index and, on a stable tick, acts. done reports
// that the loop should stop.
func (r *Reconciler) tick(stable bool, out session.Requester) (done bool, err error) {
	r.rebuildIndex()
	observability.RecordTick(stable)
	ports, links := r.model.Len()
	observability.SetGraphSize(ports, links)
	if !stable {
		return false, nil
	}
	if r.opts.Mode == ModeDump {
		return true, r.dump(out)
	}
	return false, r.reconcile(out)
}

func (r *Reconciler) rebuildIndex() {
	clear(r.inputs)
	clear(r.outputs)
	r.model.RangePorts(func(ref graph.PortRef, port graph.Port) {
		switch port.Direction {
		case graph.DirectionIn:
			r.inputs[port.Name] = ref.Input()
		case graph.DirectionOut:
			r.outputs[port.Name] = ref.Output()
		}
	})
}

func (r *Reconciler) reconcile(out session.Requester) error {
	for _, want := range r.desired {
		output, hasOutput := r.outputs[want.Src]
		input, hasInput := r.inputs[want.Dst]
		if !hasOutput || !hasInput {
			if _, reported := r.failed[want]; !reported {
				r.failed[want] = struct{}{}
				r.logger.Warn().
					Str("src", string(want.Src)).
					Str("dst", string(want.Dst)).
					Bool("src_found", hasOutput).
					Bool("dst_found", hasInput).
					Msg("reconcile.Reconciler cannot link, ports not found")
			}
			continue
		}
		delete(r.failed, want)

		if r.model.HasLink(graph.NewLinkKey(output, input)) {
			continue
		}
		src, err := r.model.MustPort(output.Unknown())
		if err != nil {
			return err
		}
		dst, err := r.model.MustPort(input.Unknown())
		if err != nil {
			return err
		}
		r.logger.Info().
			Str("src", string(src.Name)).
			Str("dst", string(dst.Name)).
			Msg("reconcile.Reconciler link")
		if err := out.Send(session.ConnectRequest{Output: src, Input: dst}); err != nil {
			return fmt.Errorf("reconcile: send connect %s: %w", want, err)
		}
		observability.RecordConnectRequest()
	}
	observability.SetUnresolvedLinks(len(r.failed))
	return nil
}

// dump writes every link whose endpoints are both known ports, then quits
// the session with Done. Links with a brace in either name are left out
// since the config format cannot express them.
func (r *Reconciler) dump(out session.Requester) error {
	var links []config.ExpandedLink
	r.model.RangeLinks(func(key graph.LinkKey, _ []graph.Link) {
		src, okSrc := r.model.Port(key.Output.Unknown())
		dst, okDst := r.model.Port(key.Input.Unknown())
		if !okSrc || !okDst {
			return
		}
		// such names would be read back as brace patterns
		if strings.ContainsAny(string(src.Name), "{}") || strings.ContainsAny(string(dst.Name), "{}") {
			r.logger.Warn().
				Str("src", string(src.Name)).
				Str("dst", string(dst.Name)).
				Msg("reconcile.Reconciler.dump skipping link, port name contains a brace")
			return
		}
		links = append(links, config.ExpandedLink{Src: src.Name, Dst: dst.Name})
	})
	doc := config.FromExpanded(links)
	if err := config.Encode(r.opts.DumpOut, doc, r.opts.DumpFormat); err != nil {
		return fmt.Errorf("reconcile: write dump: %w", err)
	}
	r.logger.Info().Int("links", len(doc.Links)).Msg("reconcile.Reconciler.dump written")
	return out.Send(session.QuitRequest{Reason: session.Done()})
}
