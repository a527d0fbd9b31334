// components/request/request.go
//
// Request component – the donation request form over HTTP.
//
// Context
//   The browser keeps no form state of its own.  Each call names the target
//   donor, the component opens the caller's draft for that donor, applies
//   the call, and replies with the draft's full view plus any toasts and
//   redirect produced along the way.
//
// Routes (under /api)
//   GET  /forms/*                                    form definition by id
//   GET  /donors/{donorID}/request                   current draft
//   PUT  /donors/{donorID}/request/fields/{field}    {"value": "..."}
//   POST /donors/{donorID}/request                   optional {field: value}, then submit
//   GET  /me/requests                                recent submit attempts
//
// Status codes for POST
//   201 succeeded, 422 invalid, 502 failed, 409 busy or already submitted.
//
//------------------------------------------------------------------------------

package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/plasmapioneers/portal/internal/acl"
	"github.com/plasmapioneers/portal/internal/auth"
	"github.com/plasmapioneers/portal/internal/component"
	"github.com/plasmapioneers/portal/internal/donor"
	"github.com/plasmapioneers/portal/internal/form"
	"github.com/plasmapioneers/portal/internal/logger"
	"github.com/plasmapioneers/portal/internal/notify"
	"github.com/plasmapioneers/portal/internal/request"
)

// Compile-time assertions.
var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
)

// maxBody caps request bodies; the whole form is a few hundred bytes.
const maxBody = 16 << 10

// Component serves the donation request workflow.
type Component struct {
	drafts *request.Drafts
	audit  *request.AuditLog
	forms  *form.Registry
	policy acl.Policy
}

func (c *Component) Name() string         { return "request" }
func (c *Component) Migrations() []string { return request.Migrations }

// Init captures the draft store and audit log.
func (c *Component) Init(svc component.Services) error {
	c.drafts = svc.GetDrafts()
	c.audit = svc.GetAudit()
	c.policy = svc.GetPolicy()
	if c.policy == nil {
		c.policy = acl.DefaultPolicy
	}
	if c.forms == nil {
		c.forms = form.Default
	}
	if c.drafts == nil {
		return errors.New("draft store is required")
	}
	return nil
}

// Routes adds the request endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Get("/forms/*", c.formDef)
	r.Get("/me/requests", c.history)
	r.Route("/donors/{donorID}/request", func(r chi.Router) {
		r.Use(acl.RequirePermission(c.policy, "request", "submit"))
		r.Get("/", c.view)
		r.Put("/fields/{field}", c.updateField)
		r.Post("/", c.submit)
	})
}

func init() { component.Register(&Component{}) }

/*──────────────────────────── Views ────────────────────────────────────────*/

// draftView is the JSON shape of every draft reply.
type draftView struct {
	Result    request.Result        `json:"result,omitempty"`
	State     request.State         `json:"state"`
	DonorID   string                `json:"donorId"`
	Fields    request.Input         `json:"fields"`
	Errors    map[string]string     `json:"errors,omitempty"`
	Toasts    []notify.Notification `json:"toasts,omitempty"`
	Redirect  string                `json:"redirect,omitempty"`
	Requester *requesterView        `json:"requester,omitempty"`
}

type requesterView struct {
	Status donor.Status `json:"status"`
	Donor  *donor.Donor `json:"donor,omitempty"`
}

func render(d *request.Draft, fields request.Input, st request.State, errs map[string]string) draftView {
	return draftView{
		State:   st,
		DonorID: d.DonorID(),
		Fields:  fields,
		Errors:  errs,
	}
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) formDef(w http.ResponseWriter, r *http.Request) {
	fd, ok := c.forms.Get(chi.URLParam(r, "*"))
	if !ok {
		component.WriteError(w, r, http.StatusNotFound, "unknown form")
		return
	}
	component.WriteJSON(w, r, http.StatusOK, fd)
}

func (c *Component) view(w http.ResponseWriter, r *http.Request) {
	d := c.open(r)
	v := render(d, d.Fields(), d.State(), d.Errors())

	dn, st, err := d.Requester(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warnw("requester lookup failed", "err", err)
	}
	v.Requester = &requesterView{Status: st}
	if st == donor.Present {
		v.Requester.Donor = &dn
	}
	component.WriteJSON(w, r, http.StatusOK, v)
}

func (c *Component) updateField(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value *string `json:"value"`
	}
	if err := decode(r, &body); err != nil || body.Value == nil {
		component.WriteError(w, r, http.StatusBadRequest, `body must be {"value": "<string>"}`)
		return
	}
	d := c.open(r)
	if err := d.UpdateField(chi.URLParam(r, "field"), *body.Value); err != nil {
		fieldError(w, r, err)
		return
	}
	component.WriteJSON(w, r, http.StatusOK, render(d, d.Fields(), d.State(), d.Errors()))
}

func (c *Component) submit(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := decode(r, &fields); err != nil {
		component.WriteError(w, r, http.StatusBadRequest, "body must be an object of string fields")
		return
	}
	known := request.Schema()
	for name := range fields {
		if _, ok := known.Field(name); !ok {
			component.WriteError(w, r, http.StatusBadRequest, "unknown field "+strconv.Quote(name))
			return
		}
	}

	d := c.open(r)
	for _, name := range known.Names() {
		if v, ok := fields[name]; ok {
			if err := d.UpdateField(name, v); err != nil {
				fieldError(w, r, err)
				return
			}
		}
	}

	out, box := c.drafts.Submit(r.Context(), d)
	v := render(d, d.Fields(), out.State, out.Errors)
	v.Result = out.Result
	v.Toasts, v.Redirect = box.Drain()
	component.WriteJSON(w, r, submitStatus(out.Result), v)
}

func (c *Component) history(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := c.audit.Recent(r.Context(), u.ID, limit)
	if err != nil {
		logger.FromContext(r.Context()).Errorw("audit query failed", "err", err)
		component.WriteError(w, r, http.StatusInternalServerError, "history unavailable")
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, a := range items {
		out = append(out, map[string]any{
			"id":      a.ID,
			"donorId": a.DonorID,
			"result":  a.Result,
			"at":      a.CreatedAt,
		})
	}
	component.WriteJSON(w, r, http.StatusOK, map[string]any{"data": out})
}

/*──────────────────────────── Helpers ──────────────────────────────────────*/

func (c *Component) open(r *http.Request) *request.Draft {
	u, _ := auth.UserFrom(r.Context())
	return c.drafts.Open(u, chi.URLParam(r, "donorID"))
}

// decode reads an optional JSON body into v.  An empty body is not an
// error.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func fieldError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, request.ErrUnknownField):
		component.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, request.ErrSubmitting), errors.Is(err, request.ErrClosed):
		component.WriteError(w, r, http.StatusConflict, err.Error())
	default:
		component.WriteError(w, r, http.StatusBadRequest, err.Error())
	}
}

func submitStatus(res request.Result) int {
	switch res {
	case request.ResultSucceeded:
		return http.StatusCreated
	case request.ResultInvalid:
		return http.StatusUnprocessableEntity
	case request.ResultFailed:
		return http.StatusBadGateway
	default:
		return http.StatusConflict
	}
}
