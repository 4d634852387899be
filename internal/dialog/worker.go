package dialog

import (
	"context"
	"errors"
	"time"

	"github.com/fieldline/intake-ai/pkg/logging"
)

// Responder speaks a reply back into the live call. Implemented by the
// telephony client; a nil responder (the call simulator) just drops replies.
type Responder interface {
	Speak(ctx context.Context, callID, text string) error
}

// Archiver persists the finished conversation record.
type Archiver interface {
	ArchiveCall(ctx context.Context, s *Session) error
}

// TranscriptRecorder mirrors turns into the live transcript store so the
// admin API can watch a call in progress.
type TranscriptRecorder interface {
	AppendTurn(ctx context.Context, callID string, turn Turn) error
}

// Worker pulls utterances off the queue and runs them through the state
// machine. Several workers may share one queue; a per-call lock held across
// each utterance keeps every session single-writer, so session fields need
// no locking of their own.
type Worker struct {
	queue      Queue
	machine    *Machine
	store      *SessionStore
	responder  Responder
	archiver   Archiver
	transcript TranscriptRecorder
	logger     *logging.Logger
}

// WorkerOptions carries optional collaborators.
type WorkerOptions struct {
	Responder  Responder
	Archiver   Archiver
	Transcript TranscriptRecorder
}

// NewWorker wires an utterance worker.
func NewWorker(queue Queue, machine *Machine, store *SessionStore, logger *logging.Logger, opts WorkerOptions) *Worker {
	if queue == nil {
		panic("dialog: queue cannot be nil")
	}
	if machine == nil {
		panic("dialog: machine cannot be nil")
	}
	if store == nil {
		store = NewSessionStore()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		queue:      queue,
		machine:    machine,
		store:      store,
		responder:  opts.Responder,
		archiver:   opts.Archiver,
		transcript: opts.Transcript,
		logger:     logger.Component("dialog_worker"),
	}
}

// Run consumes the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msgs, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			w.logger.Error("queue receive failed", "error", err)
			// Back off briefly so a broken transport does not spin hot.
			select {
			case <-time.After(2 * time.Second):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for _, msg := range msgs {
			w.process(ctx, msg.Utterance)
			if err := w.queue.Delete(ctx, msg); err != nil {
				w.logger.Warn("queue ack failed", "error", err, "call_id", msg.Utterance.CallID)
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, u Utterance) {
	unlock := w.store.lockCall(u.CallID)
	defer unlock()

	// Hangup races: an utterance can land after the caller is gone. The
	// tombstone keeps it from resurrecting the session.
	if w.store.Ended(u.CallID) {
		w.logger.Debug("dropping utterance for finished call", "call_id", u.CallID)
		return
	}

	session, _ := w.store.GetOrCreate(u.CallID, u.CallerPhone)
	if session.State() == StateEnded {
		w.logger.Debug("dropping utterance for ended session", "call_id", u.CallID)
		return
	}

	reply := w.machine.Handle(ctx, session, u.Text)
	w.recordTurns(ctx, u.CallID, session)

	if w.responder != nil {
		if err := w.responder.Speak(ctx, u.CallID, reply); err != nil {
			w.logger.Warn("speak failed", "error", err, "call_id", u.CallID)
		}
	}

	if session.State() == StateEnded {
		w.endCall(ctx, u.CallID)
	}
}

// EndCall archives and discards a session. Called by the telephony webhook
// on hangup.
func (w *Worker) EndCall(ctx context.Context, callID string) {
	unlock := w.store.lockCall(callID)
	defer unlock()
	w.endCall(ctx, callID)
}

func (w *Worker) endCall(ctx context.Context, callID string) {
	session, err := w.store.Get(callID)
	if err != nil {
		return
	}
	if session.State() != StateEnded {
		session.Terminate("caller hung up")
	}
	if w.archiver != nil {
		if err := w.archiver.ArchiveCall(ctx, session); err != nil {
			w.logger.Warn("archive failed", "error", err, "call_id", callID)
		}
	}
	w.store.Delete(callID)
	w.logger.Info("call ended", "call_id", callID, "outcome", session.Outcome, "turns", len(session.History))
}

// Sessions exposes the store for the webhook surface.
func (w *Worker) Sessions() *SessionStore {
	return w.store
}

func (w *Worker) recordTurns(ctx context.Context, callID string, session *Session) {
	if w.transcript == nil {
		return
	}
	n := len(session.History)
	for _, turn := range session.History[max(0, n-2):] {
		if err := w.transcript.AppendTurn(ctx, callID, turn); err != nil {
			w.logger.Debug("transcript append failed", "error", err, "call_id", callID)
			return
		}
	}
}
