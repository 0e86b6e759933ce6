package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/rhyred/routerdash/internal/engine"
)

// defaultHistoryWindow applies when ?window= is absent.
const defaultHistoryWindow = 5 * time.Minute

// maxSampleBody bounds POST /samples request bodies.
const maxSampleBody = 4 << 10

var errNoPoller = errors.New("no router poller configured")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrDevice):
		return http.StatusBadGateway
	case errors.Is(err, errNoPoller):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, status, err.Error())
}

// interfaceID returns the decoded {id} path variable. Interface names such as
// "GigabitEthernet0/0/1" arrive percent-encoded.
func interfaceID(r *http.Request) (string, error) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		return "", fmt.Errorf("%w: interface id: %v", engine.ErrInvalidArgument, err)
	}
	if id == "" {
		return "", fmt.Errorf("%w: empty interface id", engine.ErrInvalidArgument)
	}
	return id, nil
}

// parseWindow reads ?window= as minutes, which may be fractional.
func parseWindow(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return defaultHistoryWindow, nil
	}
	minutes, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0, fmt.Errorf("%w: window %q is not a number of minutes", engine.ErrInvalidArgument, raw)
	}
	if minutes < 0 {
		return 0, fmt.Errorf("%w: negative window %q", engine.ErrInvalidArgument, raw)
	}
	if d := minutes * float64(time.Minute); d < math.MaxInt64 {
		return time.Duration(d), nil
	}
	return time.Duration(math.MaxInt64), nil
}

func (s *Server) bandwidthHandler(w http.ResponseWriter, r *http.Request) {
	if s.poller == nil {
		s.writeErr(w, r, errNoPoller)
		return
	}
	snap, err := s.poller.Poll(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) interfacesHandler(w http.ResponseWriter, _ *http.Request) {
	ids := s.est.Interfaces()
	resp := InterfacesResponse{Interfaces: make([]InterfaceSummary, 0, len(ids))}
	for _, id := range ids {
		res, ok := s.est.Latest(id)
		if !ok {
			continue
		}
		resp.Interfaces = append(resp.Interfaces, InterfaceSummary{ID: id, RateResult: res})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := interfaceID(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	points, err := s.est.History(id, window)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		Interface:     id,
		WindowMinutes: window.Minutes(),
		Points:        points,
	})
}

func (s *Server) sampleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := interfaceID(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	var req SampleRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSampleBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeErr(w, r, fmt.Errorf("%w: request body: %v", engine.ErrInvalidArgument, err))
		return
	}
	in, err := engine.ParseCounter(req.InOctets.String())
	if err != nil {
		s.writeErr(w, r, fmt.Errorf("in_octets: %w", err))
		return
	}
	out, err := engine.ParseCounter(req.OutOctets.String())
	if err != nil {
		s.writeErr(w, r, fmt.Errorf("out_octets: %w", err))
		return
	}
	ts := s.clock.Now().UnixMilli()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	res, err := s.est.Sample(id, in, out, ts)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SampleResponse{
		Interface:  id,
		Timestamp:  ts,
		RateResult: res,
	})
}

func (s *Server) diagnosticsHandler(w http.ResponseWriter, _ *http.Request) {
	resp := DiagnosticsResponse{Estimator: s.est.Diagnostics()}
	if s.poller != nil {
		info := s.poller.Info()
		resp.Poller = &info
	}
	writeJSON(w, http.StatusOK, resp)
}
