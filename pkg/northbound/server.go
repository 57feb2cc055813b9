package northbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/veesix-networks/osvlan/pkg/component"
	"github.com/veesix-networks/osvlan/pkg/logger"
	"github.com/veesix-networks/osvlan/pkg/sai"
)

const (
	Namespace = "northbound"

	RequestIDHeader = "X-Request-ID"
)

type requestIDKey struct{}

func init() {
	component.Register(Namespace, NewComponent)
}

type Component struct {
	*component.Base
	logger  *slog.Logger
	adapter *Adapter
	http    *component.HTTPServer
}

func NewComponent(deps component.Dependencies) (component.Component, error) {
	if deps.Config == nil || !deps.Config.Northbound.Enabled {
		return nil, nil
	}
	if deps.API == nil || deps.API.Vlan == nil {
		return nil, errors.New("northbound: VLAN API not initialized")
	}

	c := &Component{
		Base:    component.NewBase(Namespace),
		logger:  logger.Get(logger.Northbound),
		adapter: NewAdapter(deps.API.Vlan, deps.Ports),
	}
	c.http = component.NewHTTPServer(deps.Config.Northbound.ListenAddress, c.Handler(), c.logger)
	return c, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting API server", "addr", c.http.Addr())
	return c.http.Start(c.Base)
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping API server")
	return errors.Join(c.http.Shutdown(ctx), c.StopContext(ctx))
}

func (c *Component) GetStatus() *Status {
	state := "stopped"
	if c.http.Running() {
		state = "running"
	}
	return &Status{
		State:         state,
		ListenAddress: c.http.Addr(),
		Running:       c.http.Running(),
	}
}

// Handler returns the routed API with request id tagging.
func (c *Component) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ports", c.handlePorts)
	mux.HandleFunc("POST /api/vlans", c.handleCreateVlan)
	mux.HandleFunc("DELETE /api/vlans/{vlan}", c.handleDeleteVlan)
	mux.HandleFunc("GET /api/vlans/{vlan}/members", c.handleVlanMembers)
	mux.HandleFunc("PUT /api/vlans/{vlan}/attributes", c.handleSetVlanAttribute)
	mux.HandleFunc("GET /api/vlans/{vlan}/stats", c.handleVlanStats)
	mux.HandleFunc("DELETE /api/vlans/{vlan}/stats", c.handleClearVlanStats)
	mux.HandleFunc("POST /api/vlan-members", c.handleCreateMember)
	mux.HandleFunc("GET /api/vlan-members/{id}", c.handleGetMember)
	mux.HandleFunc("DELETE /api/vlan-members/{id}", c.handleDeleteMember)
	mux.HandleFunc("PUT /api/vlan-members/{id}/attributes", c.handleSetMemberAttribute)
	mux.HandleFunc("GET /api/openapi.json", c.handleOpenAPI)

	return c.withRequestID(mux)
}

func (c *Component) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		c.logger.Debug("API request", "request_id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (c *Component) requestLogger(r *http.Request) *slog.Logger {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return logger.WithRequest(c.logger, id)
}

func (c *Component) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.Encode(v)
}

func (c *Component) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	id, _ := r.Context().Value(requestIDKey{}).(string)

	log := c.requestLogger(r)
	if status >= http.StatusInternalServerError {
		log.Error("API request failed", "path", r.URL.Path, "error", err)
	} else {
		log.Debug("API request rejected", "path", r.URL.Path, "http_status", status, "error", err)
	}

	c.writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Status:    sai.StatusOf(err).String(),
		RequestID: id,
	})
}

func (c *Component) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		c.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (c *Component) vlanParam(w http.ResponseWriter, r *http.Request) (uint16, bool) {
	id, err := parseVlanID(r.PathValue("vlan"))
	if err != nil {
		c.writeError(w, r, err)
		return 0, false
	}
	return id, true
}

func (c *Component) memberParam(w http.ResponseWriter, r *http.Request) (sai.ObjectID, bool) {
	id, err := ParseMemberID(r.PathValue("id"))
	if err != nil {
		c.writeError(w, r, err)
		return 0, false
	}
	return id, true
}

func (c *Component) handlePorts(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, PortsResponse{Ports: c.adapter.Ports()})
}

func (c *Component) handleCreateVlan(w http.ResponseWriter, r *http.Request) {
	var req CreateVlanRequest
	if !c.decode(w, r, &req) {
		return
	}
	if err := c.adapter.CreateVlan(r.Context(), req.VlanID); err != nil {
		c.writeError(w, r, err)
		return
	}
	c.requestLogger(r).Info("Created VLAN", "vlan", req.VlanID)
	c.writeJSON(w, http.StatusCreated, VlanResponse{VlanID: req.VlanID, Members: []Member{}})
}

func (c *Component) handleDeleteVlan(w http.ResponseWriter, r *http.Request) {
	vlan, ok := c.vlanParam(w, r)
	if !ok {
		return
	}
	if err := c.adapter.RemoveVlan(r.Context(), vlan); err != nil {
		c.writeError(w, r, err)
		return
	}
	c.requestLogger(r).Info("Removed VLAN", "vlan", vlan)
	c.writeJSON(w, http.StatusOK, OKResponse{Status: "ok"})
}

func (c *Component) handleVlanMembers(w http.ResponseWriter, r *http.Request) {
	vlan, ok := c.vlanParam(w, r)
	if !ok {
		return
	}
	resp, err := c.adapter.Vlan(r.Context(), vlan)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Component) handleSetVlanAttribute(w http.ResponseWriter, r *http.Request) {
	vlan, ok := c.vlanParam(w, r)
	if !ok {
		return
	}
	var req AttributeRequest
	if !c.decode(w, r, &req) {
		return
	}
	if err := c.adapter.SetVlanAttribute(r.Context(), vlan, req); err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeJSON(w, http.StatusOK, OKResponse{Status: "ok"})
}

func (c *Component) handleVlanStats(w http.ResponseWriter, r *http.Request) {
	vlan, ok := c.vlanParam(w, r)
	if !ok {
		return
	}
	resp, err := c.adapter.Stats(r.Context(), vlan, r.URL.Query()["counter"])
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Component) handleClearVlanStats(w http.ResponseWriter, r *http.Request) {
	vlan, ok := c.vlanParam(w, r)
	if !ok {
		return
	}
	if err := c.adapter.ClearStats(r.Context(), vlan, r.URL.Query()["counter"]); err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeJSON(w, http.StatusOK, OKResponse{Status: "ok"})
}

func (c *Component) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if !c.decode(w, r, &req) {
		return
	}
	m, err := c.adapter.CreateMember(r.Context(), req)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.requestLogger(r).Info("Created VLAN member", "vlan", m.VlanID, "port", m.Port, "member", m.ID)
	c.writeJSON(w, http.StatusCreated, m)
}

func (c *Component) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := c.memberParam(w, r)
	if !ok {
		return
	}
	m, err := c.adapter.Member(r.Context(), id)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeJSON(w, http.StatusOK, m)
}

func (c *Component) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := c.memberParam(w, r)
	if !ok {
		return
	}
	if err := c.adapter.RemoveMember(r.Context(), id); err != nil {
		c.writeError(w, r, err)
		return
	}
	c.requestLogger(r).Info("Removed VLAN member", "member", id.String())
	c.writeJSON(w, http.StatusOK, OKResponse{Status: "ok"})
}

func (c *Component) handleSetMemberAttribute(w http.ResponseWriter, r *http.Request) {
	id, ok := c.memberParam(w, r)
	if !ok {
		return
	}
	var req AttributeRequest
	if !c.decode(w, r, &req) {
		return
	}
	if err := c.adapter.SetMemberAttribute(r.Context(), id, req); err != nil {
		c.writeError(w, r, err)
		return
	}
	c.writeJSON(w, http.StatusOK, OKResponse{Status: "ok"})
}

func (c *Component) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, buildOpenAPISpec())
}
