package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/addrsplit/internal/api"
	"github.com/JaimeStill/addrsplit/internal/config"
	"github.com/JaimeStill/addrsplit/internal/infrastructure"
	"github.com/JaimeStill/addrsplit/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		if infra.Database != nil {
			if err := infra.Database.Check(r.Context()); err != nil {
				infra.Logger.Warn("readiness check failed", "error", err)
				writeStatus(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready")
	})

	return router
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
