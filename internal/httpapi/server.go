package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wifidm/internal/hal"
	"wifidm/internal/manager"
	"wifidm/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	IsReady() bool
	Status() types.StatusResponse
	ListIfaces() []types.IfaceView
	CreateIface(req manager.IfaceRequest) (hal.Iface, error)
	RemoveIfaceByName(t types.IfaceType, name string) error
	ReportImpactToCreateIface(req manager.IfaceRequest, queryForNewIface bool) ([]manager.Impact, bool)
	StaticChipInfos() []types.StaticChipInfo
	SupportedIfaceTypes() map[types.IfaceType]bool
	CanDeviceSupportCreateTypeCombo(combo map[types.IfaceType]int) bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.IsReady() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("starting"))
	})

	r.Get("/v1/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/v1/ifaces", func(w http.ResponseWriter, r *http.Request) {
		ifaces := svc.ListIfaces()
		if ifaces == nil {
			ifaces = []types.IfaceView{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ifaces": ifaces})
	})

	r.Post("/v1/ifaces", func(w http.ResponseWriter, r *http.Request) {
		var body types.CreateIfaceRequest
		if !decodeJSON(w, r, &body) {
			return
		}
		t, err := types.ParseIfaceType(body.Type)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		iface, err := svc.CreateIface(manager.IfaceRequest{
			Type:                 t,
			RequiredCapabilities: body.RequiredCapabilities,
			WorkSource:           body.WorkSource,
		})
		if err != nil {
			writeManagerError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, types.CreateIfaceResponse{
			Name: iface.Name(),
			Type: iface.Type().String(),
		})
	})

	r.Delete("/v1/ifaces/{type}/{name}", func(w http.ResponseWriter, r *http.Request) {
		t, err := types.ParseIfaceType(chi.URLParam(r, "type"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := svc.RemoveIfaceByName(t, chi.URLParam(r, "name")); err != nil {
			writeManagerError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/v1/impact", func(w http.ResponseWriter, r *http.Request) {
		var body types.ImpactRequest
		if !decodeJSON(w, r, &body) {
			return
		}
		t, err := types.ParseIfaceType(body.Type)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		victims, possible := svc.ReportImpactToCreateIface(manager.IfaceRequest{
			Type:       t,
			WorkSource: body.WorkSource,
		}, body.QueryOnly)
		resp := types.ImpactResponse{Possible: possible}
		for _, v := range victims {
			resp.Victims = append(resp.Victims, types.ImpactEntry{
				Type:       v.Type.String(),
				WorkSource: v.WorkSource,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/v1/capabilities", func(w http.ResponseWriter, r *http.Request) {
		var supported []string
		for t := range svc.SupportedIfaceTypes() {
			supported = append(supported, t.String())
		}
		sort.Strings(supported)
		chips := svc.StaticChipInfos()
		if chips == nil {
			chips = []types.StaticChipInfo{}
		}
		resp := types.CapabilitiesResponse{
			Chips:          chips,
			SupportedTypes: supported,
		}
		// ?types=STA:1,AP:1 asks whether the counts can be hosted concurrently
		if q := r.URL.Query().Get("types"); q != "" {
			combo, err := parseTypeCombo(q)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, err.Error())
				return
			}
			ok := svc.CanDeviceSupportCreateTypeCombo(combo)
			resp.ComboSupported = &ok
		}
		writeJSON(w, http.StatusOK, resp)
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// parseTypeCombo parses "STA:1,AP:2" into per-type counts.
func parseTypeCombo(q string) (map[types.IfaceType]int, error) {
	combo := make(map[types.IfaceType]int)
	for _, part := range strings.Split(q, ",") {
		name, countStr, found := strings.Cut(part, ":")
		count := 1
		if found {
			n, err := strconv.Atoi(countStr)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("bad count in %q", part)
			}
			count = n
		}
		t, err := types.ParseIfaceType(name)
		if err != nil {
			return nil, err
		}
		combo[t] += count
	}
	return combo, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("failed to encode response")
	}
}

// decodeJSON enforces the content type, bounds the body size, and decodes
// into v. Writes the error response itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
