// Package interpret turns a natural-language command into validated
// file operations. It compiles the prompt, calls the model with retry,
// parses the reply, and screens every proposed operation before anything
// reaches the executor.
package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sortme/internal/errinfo"
	"sortme/internal/llm"
	"sortme/internal/ops"
	"sortme/internal/profile"
	"sortme/internal/prompt"
)

// Generator is the slice of the model client the interpreter needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Index is the read side of the file index. Every path a proposed
// operation references must resolve through it.
type Index interface {
	Lookup(path string) (*profile.FileProfile, bool)
}

// Result is the outcome of one interpretation run. Accepted operations
// are safe to hand to the executor; rejected ones are kept for the
// report and never executed.
type Result struct {
	RunID        string          `json:"run_id"`
	State        State           `json:"state"`
	Conversation string          `json:"conversation,omitempty"`
	Accepted     []ops.Operation `json:"accepted"`
	Rejected     []ops.Rejection `json:"rejected,omitempty"`
	Attempts     int             `json:"attempts"`
	Batches      int             `json:"batches"`
}

// Interpreter drives the compile → model → parse → validate loop.
type Interpreter struct {
	gen         Generator
	compiler    *prompt.Compiler
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	logger      zerolog.Logger
	onRetry     func(batch, attempt int, reason string)
}

// OnRetry installs a hook fired before each retry, so hosts can surface
// progress while the model is flaky.
func (it *Interpreter) OnRetry(fn func(batch, attempt int, reason string)) {
	it.onRetry = fn
}

func New(gen Generator, compiler *prompt.Compiler, maxAttempts int, logger zerolog.Logger) *Interpreter {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Interpreter{
		gen:         gen,
		compiler:    compiler,
		maxAttempts: maxAttempts,
		backoffBase: 500 * time.Millisecond,
		backoffCap:  8 * time.Second,
		logger:      logger,
	}
}

// Interpret runs one command against the residual set, screening the
// model's proposals against idx. Batches run sequentially in path
// order; a batch that exhausts its attempts fails the whole run, and
// nothing from it is returned as accepted.
func (it *Interpreter) Interpret(ctx context.Context, in prompt.Input, idx Index) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Accepted: []ops.Operation{}}
	m := newMachine()
	m.mustTo(StateCompiling)

	batches, err := it.compiler.Compile(in)
	if err != nil {
		m.mustTo(StateFailed)
		res.State = m.state
		if errors.Is(err, prompt.ErrContextExceeded) {
			return res, errinfo.ContextExceeded(err.Error())
		}
		return res, err
	}
	res.Batches = len(batches)

	if len(batches) == 0 {
		// Nothing left for the model to place.
		m.mustTo(StateAwaitingModel)
		m.mustTo(StateParsing)
		m.mustTo(StateValidated)
		res.State = m.state
		res.Conversation = "No loose files match that request."
		return res, nil
	}

	for _, batch := range batches {
		reply, err := it.runBatch(ctx, m, res, batch)
		if err != nil {
			m.mustTo(StateFailed)
			res.State = m.state
			return res, err
		}
		if !reply.IsCommand {
			// A conversational answer ends the run; later batches would
			// just repeat the question.
			res.Conversation = reply.Conversation
			res.State = m.state
			return res, nil
		}
		it.screen(res, idx, reply.Ops)
		it.logger.Info().
			Str("run_id", res.RunID).
			Int("batch", batch.Index).
			Int("accepted", len(res.Accepted)).
			Int("rejected", len(res.Rejected)).
			Msg("interpret.batch_done")
	}

	res.State = m.state
	return res, nil
}

// runBatch calls the model until one reply parses or attempts run out.
// Transient transport errors, empty replies, and malformed replies all
// count against the same attempt budget.
func (it *Interpreter) runBatch(ctx context.Context, m *machine, res *Result, batch prompt.Batch) (Reply, error) {
	var lastErr error
	for attempt := 1; attempt <= it.maxAttempts; attempt++ {
		if attempt > 1 {
			if it.onRetry != nil {
				it.onRetry(batch.Index, attempt, lastErr.Error())
			}
			if err := it.sleep(ctx, attempt-1); err != nil {
				return Reply{}, errinfo.UserCanceled(errinfo.PhaseInterpret)
			}
		}
		res.Attempts++
		m.mustTo(StateAwaitingModel)

		raw, err := it.gen.Generate(ctx, batch.Text)
		if err != nil {
			if ctx.Err() != nil {
				return Reply{}, errinfo.UserCanceled(errinfo.PhaseInterpret)
			}
			if errors.Is(err, llm.ErrBadRequest) {
				return Reply{}, errinfo.ModelMalformed(it.gen.Model(), err.Error())
			}
			lastErr = err
			it.logger.Warn().
				Str("run_id", res.RunID).
				Int("batch", batch.Index).
				Int("attempt", attempt).
				Err(err).
				Msg("interpret.model_error")
			continue
		}

		m.mustTo(StateParsing)
		reply, err := ParseReply(raw)
		if err != nil {
			lastErr = err
			it.logger.Warn().
				Str("run_id", res.RunID).
				Int("batch", batch.Index).
				Int("attempt", attempt).
				Err(err).
				Msg("interpret.parse_error")
			continue
		}
		m.mustTo(StateValidated)
		return reply, nil
	}

	if errors.Is(lastErr, ErrMalformed) {
		return Reply{}, errinfo.ModelMalformed(it.gen.Model(), lastErr.Error())
	}
	return Reply{}, errinfo.ModelTransient(it.gen.Model(), fmt.Sprintf("%d attempts failed: %v", it.maxAttempts, lastErr))
}

// screen validates each proposed operation independently: structural
// soundness first, then index membership for the file the operation
// touches. A bad operation is recorded and dropped; it never poisons
// its siblings.
func (it *Interpreter) screen(res *Result, idx Index, raw []json.RawMessage) {
	for _, r := range raw {
		op, err := ops.Decode(r)
		if err != nil {
			res.Rejected = append(res.Rejected, ops.Rejection{Raw: r, Reason: err.Error()})
			continue
		}
		if src := op.Source(); src != "" {
			if _, ok := idx.Lookup(src); !ok {
				res.Rejected = append(res.Rejected, ops.Rejection{
					Raw:    r,
					Reason: fmt.Sprintf("ops: %s: %q is not an indexed file", op.Kind, src),
				})
				continue
			}
		}
		res.Accepted = append(res.Accepted, op)
	}
}

// sleep waits out the backoff for the given completed attempt count,
// doubling from the base and honoring cancellation.
func (it *Interpreter) sleep(ctx context.Context, done int) error {
	delay := it.backoffBase * (1 << (done - 1))
	if delay > it.backoffCap {
		delay = it.backoffCap
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
