/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package httpapi

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harrykodden/trx"
)

// Server dispatches HTTP requests to a trx.Interpreter's exported
// procedures, alongside the four built-in endpoints (§4.6 base). It bounds
// concurrent procedure executions with a worker pool so that a burst of
// slow requests cannot unboundedly grow goroutines ahead of the
// Interpreter's single coarse lock (§5 base).
type Server struct {
	interp  *trx.Interpreter
	router  *Router
	metrics *Metrics
	openapi []byte
	pool    chan struct{}
	mux     *mux.Router
}

// Config configures a Server.
type Config struct {
	// WorkerPoolSize bounds how many procedure invocations may run
	// concurrently; additional requests block until a slot frees up.
	// Defaults to runtime.GOMAXPROCS(0) when zero or negative.
	WorkerPoolSize int
}

// NewServer builds a Server dispatching to interp's module.
func NewServer(interp *trx.Interpreter, cfg Config) *Server {
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = runtime.GOMAXPROCS(0)
	}
	s := &Server{
		interp:  interp,
		router:  NewRouter(interp.Module()),
		metrics: NewMetrics(),
		pool:    make(chan struct{}, cfg.WorkerPoolSize),
	}
	s.openapi = generateOpenAPI(interp.Module())
	s.mux = mux.NewRouter()
	s.mux.HandleFunc("/", s.handleSwaggerUI).Methods(http.MethodGet)
	s.mux.HandleFunc("/swagger.json", s.handleOpenAPI).Methods(http.MethodGet)
	s.mux.HandleFunc("/procedures", s.handleProcedures).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.mux.PathPrefix("/").HandlerFunc(s.handleProcedure)
	return s
}

// ServeHTTP implements http.Handler, applying the CORS header the reference
// server sends on every response (src/cli/Server.cpp's sendHttpResponse)
// before delegating to the built-in or procedure routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(swaggerUIPage))
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.openapi)
}

func (s *Server) handleProcedures(w http.ResponseWriter, r *http.Request) {
	type procInfo struct {
		Name   string `json:"name"`
		Path   string `json:"path"`
		Method string `json:"method"`
	}
	var list []procInfo
	for name, proc := range s.interp.Module().Procedures {
		if !proc.IsExported {
			continue
		}
		list = append(list, procInfo{
			Name:   name,
			Path:   "/" + normalizePath(proc.PathTemplate),
			Method: string(proc.EffectiveMethod()),
		})
	}
	writeJSON(w, http.StatusOK, list)
}

// handleProcedure is the fallback route matched against every exported
// procedure's path template (§4.6 base). It applies the worker pool bound,
// decodes the JSON request body (when the method carries one), invokes the
// procedure, and maps the result/error to an HTTP response.
func (s *Server) handleProcedure(w http.ResponseWriter, r *http.Request) {
	match, ok := s.router.Match(r.Method, r.URL.Path)
	if !ok {
		if match.MethodMismatch {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	s.pool <- struct{}{}
	defer func() { <-s.pool }()

	s.metrics.RequestStarted()
	start := time.Now()
	defer func() {
		s.metrics.RequestFinished(time.Since(start))
	}()

	input := trx.Null
	if r.ContentLength != 0 && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		var raw any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			s.metrics.RequestErrored()
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		input = fromJSON(raw)
	}

	output, err := s.interp.Invoke(r.Context(), match.Proc.Name, input, match.PathParams)
	if err != nil {
		s.metrics.RequestErrored()
		writeRuntimeError(w, err)
		return
	}

	writeJSON(w, statusForMethod(match.Proc.EffectiveMethod()), toJSON(output))
}

func statusForMethod(m trx.HTTPMethod) int {
	switch m {
	case trx.MethodPost:
		return http.StatusCreated
	case trx.MethodDelete:
		return http.StatusNoContent
	default:
		return http.StatusOK
	}
}

func writeRuntimeError(w http.ResponseWriter, err error) {
	rt, ok := trx.AsRuntimeError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	switch rt.Kind() {
	case trx.KindThrowError:
		writeError(w, http.StatusBadRequest, rt.Error())
	case trx.KindNotFoundError:
		writeError(w, http.StatusNotFound, rt.Error())
	default:
		writeError(w, http.StatusInternalServerError, rt.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
