package plugin

import (
	"encoding/json"
	"net/http"

	"cloudmonitor-grafana-plugin/pkg/fanout"
	"cloudmonitor-grafana-plugin/pkg/models"
	"cloudmonitor-grafana-plugin/pkg/variables"

	"github.com/grafana/grafana-plugin-sdk-go/backend/log"
)

type resourceError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.DefaultLogger.Error("Failed to write resource response", "error", err)
	}
}

// handleVariableValues resolves a templating lookup against exactly one
// service and returns its options verbatim.
func (d *Datasource) handleVariableValues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, resourceError{Error: "method not allowed"})
		return
	}

	var q models.VariableQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, resourceError{Error: err.Error()})
		return
	}

	options, err := variables.Resolve(r.Context(), d.backends, q)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, resourceError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, options)
}

// handleLogContext delegates the context lookup to the log service client.
func (d *Datasource) handleLogContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, resourceError{Error: "method not allowed"})
		return
	}

	provider, ok := d.backends.LogService.(fanout.LogContextProvider)
	if !ok {
		writeJSON(w, http.StatusBadRequest, resourceError{Error: "log service is not configured on this datasource"})
		return
	}

	var req fanout.LogContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, resourceError{Error: err.Error()})
		return
	}

	result, err := provider.LogRowContext(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, resourceError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleContextToggle reports whether the log context UI should be offered.
// This used to defer to the log service client; it stays disabled for every
// row until the context view is reworked.
func (d *Datasource) handleContextToggle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": false})
}
