package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/virgilaudio/virgil/proto"
	"github.com/virgilaudio/virgil/server"
)

// API serves a JSON view of the device's channel table for dashboards
// and debugging. It reads the same registry the coordinator writes.
type API struct {
	Addr       string
	registry   *server.ChannelRegistry
	transports func() []server.TransportMetadata
	httpServer *http.Server
}

func NewAPI(addr string, registry *server.ChannelRegistry, transports func() []server.TransportMetadata) *API {
	return &API{
		Addr:       addr,
		registry:   registry,
		transports: transports,
	}
}

func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/channels", a.HandleChannels)
	r.Get("/api/channels/{type}/{index}", a.HandleChannelDetail)
	r.Put("/api/channels/{type}/{index}/parameters/{name}", a.HandleSetParameter)
	r.Get("/api/transports", a.HandleTransports)
	return r
}

func (a *API) Start() error {
	slog.Info("Starting web API", "addr", a.Addr)
	a.httpServer = &http.Server{Addr: a.Addr, Handler: a.Routes()}
	err := a.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *API) Shutdown() error {
	slog.Info("Shutting down web API", "addr", a.Addr)
	if a.httpServer != nil {
		return a.httpServer.Close()
	}
	return nil
}

func (a *API) HandleChannels(wr http.ResponseWriter, r *http.Request) {
	states := a.registry.List()
	out := make([]map[string]any, 0, len(states))
	for _, state := range states {
		encoded, err := encodeChannelState(state)
		if err != nil {
			a.handleError(wr, err)
			return
		}
		out = append(out, encoded)
	}
	writeJSON(wr, http.StatusOK, out)
}

func (a *API) HandleChannelDetail(wr http.ResponseWriter, r *http.Request) {
	ch, err := channelFromURL(r)
	if err != nil {
		writeError(wr, http.StatusBadRequest, err)
		return
	}

	state, ok := a.registry.Get(ch)
	if !ok {
		writeError(wr, http.StatusNotFound, fmt.Errorf("channel %s is not present on this device", ch))
		return
	}
	encoded, err := encodeChannelState(state)
	if err != nil {
		a.handleError(wr, err)
		return
	}
	writeJSON(wr, http.StatusOK, encoded)
}

func (a *API) HandleSetParameter(wr http.ResponseWriter, r *http.Request) {
	ch, err := channelFromURL(r)
	if err != nil {
		writeError(wr, http.StatusBadRequest, err)
		return
	}
	name := chi.URLParam(r, "name")

	var req struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(wr, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	state, ok := a.registry.Get(ch)
	if !ok {
		writeError(wr, http.StatusNotFound, fmt.Errorf("channel %s is not present on this device", ch))
		return
	}
	param, ok := state.Parameters[name]
	if !ok {
		writeError(wr, http.StatusNotFound, fmt.Errorf("channel %s has no parameter %q", ch, name))
		return
	}

	value, err := valueForParameter(param, req.Value)
	if err != nil {
		writeError(wr, http.StatusBadRequest, err)
		return
	}

	if err := a.registry.SetParameter(ch, name, value); err != nil {
		writeError(wr, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(wr, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) HandleTransports(wr http.ResponseWriter, r *http.Request) {
	type transportJSON struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Protocol   string `json:"protocol"`
		Address    string `json:"address"`
		Clients    int    `json:"clients"`
		MaxClients int    `json:"maxClients"`
		Connected  bool   `json:"connected"`
	}

	metas := a.transports()
	out := make([]transportJSON, 0, len(metas))
	for _, meta := range metas {
		out = append(out, transportJSON{
			ID:         meta.ID,
			Name:       meta.Name,
			Protocol:   meta.Protocol,
			Address:    meta.Address,
			Clients:    len(meta.Clients),
			MaxClients: meta.MaxClients,
			Connected:  meta.Connected,
		})
	}
	writeJSON(wr, http.StatusOK, out)
}

func (a *API) handleError(wr http.ResponseWriter, err error) {
	slog.Error("Web API error", "error", err.Error())
	writeError(wr, http.StatusInternalServerError, err)
}

func encodeChannelState(state server.ChannelState) (map[string]any, error) {
	params := make(map[string]any, len(state.Parameters))
	for name, p := range state.Parameters {
		encoded, err := p.Encode()
		if err != nil {
			return nil, err
		}
		params[name] = encoded
	}

	links := make([]map[string]any, 0, len(state.Links))
	for _, link := range state.Links {
		encoded, err := link.Encode()
		if err != nil {
			return nil, err
		}
		links = append(links, encoded)
	}

	return map[string]any{
		"channel":        state.Channel.String(),
		"channelType":    int(state.Channel.Kind),
		"channelIndex":   int(state.Channel.Index),
		"parameters":     params,
		"linkedChannels": links,
	}, nil
}

func channelFromURL(r *http.Request) (proto.ChannelID, error) {
	var kind proto.ChannelKind
	switch t := chi.URLParam(r, "type"); t {
	case "tx":
		kind = proto.Transmit
	case "rx":
		kind = proto.Receive
	case "aux":
		kind = proto.Auxiliary
	default:
		return proto.ChannelID{}, fmt.Errorf("unknown channel type %q, want tx, rx, or aux", t)
	}

	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 16)
	if err != nil {
		return proto.ChannelID{}, fmt.Errorf("invalid channel index: %w", err)
	}

	return proto.ChannelID{Kind: kind, Index: uint16(index)}, nil
}

// valueForParameter maps a decoded JSON value onto the parameter's
// value kind. JSON numbers arrive as float64 and are narrowed to the
// subtype the parameter already carries.
func valueForParameter(param proto.Parameter, v any) (proto.Value, error) {
	switch param.Value.Kind() {
	case proto.KindBool:
		if b, ok := v.(bool); ok {
			return proto.BoolValue(b), nil
		}
	case proto.KindString:
		if s, ok := v.(string); ok {
			return proto.StringValue(s), nil
		}
	case proto.KindEnum:
		if s, ok := v.(string); ok {
			current, _ := param.Value.Enum()
			return proto.EnumValue(proto.Enum{Value: s, Values: current.Values}), nil
		}
	case proto.KindInt:
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			return proto.IntValue(int64(f)), nil
		}
	case proto.KindFloat:
		if f, ok := v.(float64); ok {
			return proto.FloatValue(f), nil
		}
	}
	return proto.Value{}, fmt.Errorf("value %v does not match parameter %q of kind %s", v, param.Name, param.Value.Kind())
}

func writeJSON(wr http.ResponseWriter, status int, v any) {
	wr.Header().Set("Content-Type", "application/json; charset=utf-8")
	wr.WriteHeader(status)
	if err := json.NewEncoder(wr).Encode(v); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err.Error())
	}
}

func writeError(wr http.ResponseWriter, status int, err error) {
	writeJSON(wr, status, map[string]string{"error": err.Error()})
}
