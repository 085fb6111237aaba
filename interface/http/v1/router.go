package v1

import (
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/bridge/interface/http/auth"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/bridge/status"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/zigbee"
	"net/http"
)

type StatusProvider interface {
	Snapshot() status.Snapshot
	Endpoint(id zigbee.Endpoint) (status.Endpoint, bool)
}

func ConstructRouter(provider StatusProvider, eventbus state.EventSubscriber, l logwrap.Logger, ap auth.AuthenticationProvider) http.Handler {
	protected := mux.NewRouter()

	sc := statusController{provider: provider, logger: l}
	ec := endpointController{provider: provider, logger: l}
	wc := websocketController{eventbus: eventbus, provider: provider, logger: l}

	protected.HandleFunc("/status", sc.getStatus).Methods("GET")
	protected.HandleFunc("/endpoints", ec.listEndpoints).Methods("GET")
	protected.HandleFunc("/endpoints/{identifier}", ec.getEndpoint).Methods("GET")
	protected.HandleFunc("/websocket", wc.serveWebsocket).Methods("GET")

	apiRoot := mux.NewRouter()
	apiRoot.Handle("/auth/type", authenticationType(ap)).Methods("GET")
	apiRoot.Handle("/auth/check", ap.AuthenticationMiddleware(http.HandlerFunc(authenticationCheck))).Methods("GET")
	apiRoot.PathPrefix("/auth").Handler(ap.AuthenticationRouter())
	apiRoot.PathPrefix("/").Handler(ap.AuthenticationMiddleware(protected))

	return apiRoot
}
