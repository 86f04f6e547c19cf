package requirementapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/c360studio/reqgraph/engine"
	"github.com/c360studio/reqgraph/requirement"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// RegisterHTTPHandlers registers the requirement-api HTTP handlers
// under the given prefix. Handlers are registered as:
//
//	POST <prefix>/commands
//	GET  <prefix>/requirements
//	GET  <prefix>/requirements/{id}
//	GET  <prefix>/requirements/{id}/history
//	GET  <prefix>/requirements/{id}/score
//	GET  <prefix>/health/graph
func (c *Component) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"commands", c.handleCommand)
	mux.HandleFunc(prefix+"requirements", c.handleList)
	mux.HandleFunc(prefix+"requirements/", c.handleRequirement(prefix))
	mux.HandleFunc(prefix+"health/graph", c.handleGraphHealth)
}

// handleCommand accepts one command envelope and returns its response.
// The HTTP status mirrors the error code so plain clients can branch
// without parsing the body.
func (c *Component) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req engine.Request
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, engine.Response{
			Status: engine.StatusError,
			Error:  &engine.ErrorBody{Code: string(requirement.KindValidation), Message: "invalid request body: " + err.Error()},
		})
		return
	}

	resp := c.currentEngine().Dispatch(r.Context(), req)
	commandsProcessed.WithLabelValues(req.Command, resp.Status).Inc()
	writeJSON(w, httpStatus(resp), resp)
}

// handleList serves GET /requirements.
func (c *Component) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c.respond(w, r, engine.CmdListRequirements, nil)
}

// handleRequirement routes GET /requirements/{id}[/history|/score].
func (c *Component) handleRequirement(prefix string) http.HandlerFunc {
	base := prefix + "requirements/"
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, base)
		id, tail, _ := strings.Cut(rest, "/")
		if id == "" {
			http.Error(w, "Missing requirement id", http.StatusBadRequest)
			return
		}

		params, _ := json.Marshal(engine.IDParams{LogicalID: id})
		switch tail {
		case "":
			c.respond(w, r, engine.CmdGetRequirement, params)
		case "history":
			c.respond(w, r, engine.CmdGetHistory, params)
		case "score":
			c.respond(w, r, engine.CmdScoreRequirement, params)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	}
}

// handleGraphHealth serves GET /health/graph.
func (c *Component) handleGraphHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c.respond(w, r, engine.CmdCheckGraphHealth, nil)
}

func (c *Component) respond(w http.ResponseWriter, r *http.Request, command string, params json.RawMessage) {
	resp := c.currentEngine().Dispatch(r.Context(), engine.Request{Command: command, Params: params})
	commandsProcessed.WithLabelValues(command, resp.Status).Inc()
	writeJSON(w, httpStatus(resp), resp)
}

// httpStatus maps an engine response to an HTTP status code.
func httpStatus(resp engine.Response) int {
	if resp.Status == engine.StatusSuccess {
		return http.StatusOK
	}
	if resp.Error == nil {
		return http.StatusInternalServerError
	}
	switch requirement.Kind(resp.Error.Code) {
	case requirement.KindNotFound:
		return http.StatusNotFound
	case requirement.KindDeleted:
		return http.StatusGone
	case requirement.KindConflict, requirement.KindStaleWrite:
		return http.StatusConflict
	case requirement.KindValidation, requirement.KindSelfReference,
		requirement.KindCircularDependency, requirement.KindHierarchyViolation,
		requirement.KindInvalidTransition, requirement.KindConstraintViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
