// internal/request/controller.go
//
// Submission Controller for one donation-request form session.
//
// Context
//   A Controller owns the requester's live field values for one target
//   donor.  Fields change freely while Editing.  Submit validates every
//   field, and only a fully valid Input is turned into a Payload and sent
//   through the RequestWriter.  The outcome is reported through the
//   notification Sink and, on success, the Navigator.  Errors never escape
//   Submit: callers read the returned Outcome.
//
// State machine
//
//   Editing ──Submit──▶ Validating ──▶ Invalid    (no network call)
//                                 └──▶ Submitting ──▶ Succeeded (terminal)
//                                                 └─▶ Failed
//
//   Invalid and Failed accept edits and further submits; the first edit
//   moves them back to Editing.  While Submitting, a second Submit returns
//   ResultBusy without touching the writer and UpdateField returns
//   ErrSubmitting.  After Succeeded, Submit returns ResultClosed.
//
// Notes
//   •  The mutex is never held across the writer call.
//   •  A writer that panics, errors, or returns a falsy result (null,
//      false, 0, or "") has failed.
//   •  The writer runs detached from the caller's cancellation.  Once the
//      create is issued it is not aborted; backend.Options.Timeout bounds
//      it.
//
//------------------------------------------------------------------------------

package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/plasmapioneers/portal/internal/auth"
	"github.com/plasmapioneers/portal/internal/donor"
	"github.com/plasmapioneers/portal/internal/logger"
	"github.com/plasmapioneers/portal/internal/metrics"
	"github.com/plasmapioneers/portal/internal/notify"
)

// DonorListRoute is where a successful submit navigates.
const DonorListRoute = "/donner-list"

// User-visible notification text.
const (
	MsgSucceeded = "Request sent successfully"
	MsgFailed    = "Request failed"
)

// Sentinel errors returned by UpdateField.
var (
	ErrUnknownField = errors.New("request: unknown field")
	ErrSubmitting   = errors.New("request: submission in progress")
	ErrClosed       = errors.New("request: already submitted")
)

// State is the controller's lifecycle position.
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateInvalid    State = "invalid"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Result classifies one Submit call.
type Result string

const (
	ResultSucceeded Result = "succeeded"
	ResultInvalid   Result = "invalid"
	ResultFailed    Result = "failed"
	ResultBusy      Result = "busy"
	ResultClosed    Result = "closed"
)

// Outcome is what Submit reports back.
type Outcome struct {
	Result Result            `json:"result"`
	State  State             `json:"state"`
	Errors map[string]string `json:"errors,omitempty"`
}

// DonorReader reads a user's own donor record.  *donor.Cache satisfies it.
type DonorReader interface {
	ByUser(ctx context.Context, token, userID string) (donor.Donor, donor.Status, error)
}

// RequestWriter creates a donation request.  *backend.Client satisfies it.
// A nil result with a nil error is a falsy result.
type RequestWriter interface {
	CreateDonationRequest(ctx context.Context, token string, payload any) (json.RawMessage, error)
}

// Deps are the controller's collaborators.  Reader and Writer are
// required.  Sink and Navigator may be nil when every submit goes through
// SubmitTo.  Audit and Log may be nil.
type Deps struct {
	Reader    DonorReader
	Writer    RequestWriter
	Sink      notify.Sink
	Navigator notify.Navigator
	Audit     Auditor
	Log       *zap.SugaredLogger
}

// Controller holds one form session.  Safe for concurrent use.
type Controller struct {
	donorID string
	user    auth.User
	deps    Deps

	mu     sync.Mutex
	state  State
	fields Input
	errs   map[string]string
}

// New returns a Controller in Editing with empty fields.
func New(donorID string, currentUser auth.User, deps Deps) *Controller {
	if deps.Log == nil {
		deps.Log = zap.S()
	}
	return &Controller{donorID: donorID, user: currentUser, deps: deps, state: StateEditing}
}

// DonorID returns the target donor.
func (c *Controller) DonorID() string { return c.donorID }

// UpdateField records a keystroke-level change.  No validation runs.
func (c *Controller) UpdateField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateSubmitting:
		return ErrSubmitting
	case StateSucceeded:
		return ErrClosed
	}
	if !c.fields.set(name, value) {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	c.state = StateEditing
	return nil
}

// Fields returns a copy of the current values.
func (c *Controller) Fields() Input {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

// Errors returns the messages from the last Submit, or nil.
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errs == nil {
		return nil
	}
	return c.copyErrs()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Requester reads the current user's own donor record.  The record is
// passed through as-is.
func (c *Controller) Requester(ctx context.Context) (donor.Donor, donor.Status, error) {
	return c.deps.Reader.ByUser(ctx, auth.TokenFrom(ctx), c.user.ID)
}

// Submit runs one submission attempt.  It never returns an error; failures
// are reported through the Sink and the Outcome.
func (c *Controller) Submit(ctx context.Context) Outcome {
	return c.SubmitTo(ctx, c.deps.Sink, c.deps.Navigator)
}

// SubmitTo is Submit reporting to sink and nav instead of the Deps ones, so
// a caller can keep the toasts of one attempt apart from any other.  Either
// may be nil.
func (c *Controller) SubmitTo(ctx context.Context, sink notify.Sink, nav notify.Navigator) Outcome {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return c.finish(ctx, Outcome{Result: ResultBusy, State: StateSubmitting}, nil)
	case StateSucceeded:
		c.mu.Unlock()
		return c.finish(ctx, Outcome{Result: ResultClosed, State: StateSucceeded}, nil)
	}

	c.state = StateValidating
	if errs := Validate(c.fields); errs != nil {
		c.state = StateInvalid
		c.errs = errs
		out := Outcome{Result: ResultInvalid, State: StateInvalid, Errors: c.copyErrs()}
		c.mu.Unlock()
		return c.finish(ctx, out, nil)
	}
	c.errs = nil
	payload := BuildPayload(c.fields, c.donorID)
	c.state = StateSubmitting
	c.mu.Unlock()

	// The create is not aborted when the caller goes away.
	ctx = context.WithoutCancel(ctx)
	err := c.write(ctx, payload)

	c.mu.Lock()
	out := Outcome{Result: ResultSucceeded, State: StateSucceeded}
	if err != nil {
		out = Outcome{Result: ResultFailed, State: StateFailed}
	}
	c.state = out.State
	c.mu.Unlock()

	if err != nil {
		c.log(ctx).Warnw("donation request failed", "donor_id", c.donorID, "user_id", c.user.ID, "err", err)
		if sink != nil {
			sink.Notify(notify.Error, MsgFailed)
		}
	} else {
		if sink != nil {
			sink.Notify(notify.Info, MsgSucceeded)
		}
		if nav != nil {
			nav.Navigate(DonorListRoute)
		}
	}
	return c.finish(ctx, out, err)
}

// copyErrs copies errs; caller holds mu.
func (c *Controller) copyErrs() map[string]string {
	out := make(map[string]string, len(c.errs))
	for k, v := range c.errs {
		out[k] = v
	}
	return out
}

// errFalsy marks a writer that returned no usable result.
var errFalsy = errors.New("request: backend returned no result")

// falsy reports whether res is empty or decodes to null, false, 0, or "".
// Undecodable bytes count as a result.
func falsy(res json.RawMessage) bool {
	res = bytes.TrimSpace(res)
	if len(res) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(res, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case float64:
		return x == 0
	case string:
		return x == ""
	}
	return false
}

// write calls the writer once, turning panics and nil results into errors.
func (c *Controller) write(ctx context.Context, p Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("request: writer panic: %v", r)
		}
	}()
	res, err := c.deps.Writer.CreateDonationRequest(ctx, auth.TokenFrom(ctx), p)
	if err != nil {
		return err
	}
	if falsy(res) {
		return errFalsy
	}
	return nil
}

// finish records metrics and the audit entry for out.
func (c *Controller) finish(ctx context.Context, out Outcome, cause error) Outcome {
	metrics.DonationRequestSubmissions.WithLabelValues(string(out.Result)).Inc()
	if c.deps.Audit != nil {
		a := NewAttempt(ctx, c.donorID, c.user.ID, out.Result, cause)
		if err := c.deps.Audit.Record(ctx, a); err != nil {
			c.log(ctx).Errorw("audit record failed", "attempt_id", a.ID, "err", err)
		}
	}
	return out
}

func (c *Controller) log(ctx context.Context) *zap.SugaredLogger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	return c.deps.Log
}
