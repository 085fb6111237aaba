package pprof

import (
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/bridge/interface/http/auth"
	"net/http"
	"net/http/pprof"
)

// ConstructRouter serves the runtime profiles, it expects to be mounted with /debug/pprof stripped.
func ConstructRouter(ap auth.AuthenticationProvider) http.Handler {
	pprofRoute := mux.NewRouter()

	pprofRoute.HandleFunc("/cmdline", pprof.Cmdline)
	pprofRoute.HandleFunc("/profile", pprof.Profile)
	pprofRoute.HandleFunc("/symbol", pprof.Symbol)
	pprofRoute.HandleFunc("/trace", pprof.Trace)
	pprofRoute.HandleFunc("/{profile}", func(w http.ResponseWriter, r *http.Request) {
		pprof.Handler(mux.Vars(r)["profile"]).ServeHTTP(w, r)
	})
	pprofRoute.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = "/debug/pprof/"
		pprof.Index(w, r)
	})

	return ap.AuthenticationMiddleware(pprofRoute)
}
