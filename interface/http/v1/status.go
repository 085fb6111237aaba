package v1

import (
	"encoding/json"
	"github.com/shimmeringbee/logwrap"
	"net/http"
)

type statusController struct {
	provider StatusProvider
	logger   logwrap.Logger
}

func (s *statusController) getStatus(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(s.provider.Snapshot())
	if err != nil {
		s.logger.LogError(r.Context(), "Failed to marshal status.", logwrap.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Add("content-type", "application/json")
	w.Write(data)
}
