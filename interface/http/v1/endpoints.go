package v1

import (
	"encoding/json"
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zigbee"
	"net/http"
	"strconv"
)

type endpointController struct {
	provider StatusProvider
	logger   logwrap.Logger
}

func (e *endpointController) listEndpoints(w http.ResponseWriter, r *http.Request) {
	e.writeJSON(w, r, e.provider.Snapshot().Endpoints)
}

func (e *endpointController) getEndpoint(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)

	id, ok := params["identifier"]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	parsed, err := strconv.ParseUint(id, 10, 8)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ep, found := e.provider.Endpoint(zigbee.Endpoint(parsed))
	if !found {
		http.NotFound(w, r)
		return
	}

	e.writeJSON(w, r, ep)
}

func (e *endpointController) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		e.logger.LogError(r.Context(), "Failed to marshal endpoints.", logwrap.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Add("content-type", "application/json")
	w.Write(data)
}
