package daemon

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/middleware"

	"github.com/fluxcd/sdm/pkg/api"
	"github.com/fluxcd/sdm/pkg/github"
	transport "github.com/fluxcd/sdm/pkg/http"
	"github.com/fluxcd/sdm/pkg/job"
	fluxmetrics "github.com/fluxcd/sdm/pkg/metrics"
	"github.com/fluxcd/sdm/pkg/push"
)

var (
	requestDuration = stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: "sdm",
		Name:      "request_duration_seconds",
		Help:      "Time (in seconds) spent serving HTTP requests.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{fluxmetrics.LabelMethod, fluxmetrics.LabelRoute, "status_code", "ws"})
)

func init() {
	stdprometheus.MustRegister(requestDuration)
}

// An API server for the daemon
func NewRouter() *mux.Router {
	r := transport.NewAPIRouter()

	// We assume every request that doesn't match a route is a client
	// calling an old or hitherto unsupported API.
	r.NewRoute().Name("NotFound").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteError(w, r, http.StatusNotFound, transport.MakeAPINotFound(r.URL.Path))
	})

	return r
}

// HandlerConfig says who may use the API.
type HandlerConfig struct {
	// Token, if given, must be presented as a bearer token by API
	// clients. Pings and webhook deliveries do not need it.
	Token string
	// WebhookSecret is the shared secret GitHub signs deliveries
	// with. If empty, signatures are not checked.
	WebhookSecret []byte
	Logger        log.Logger
}

func NewHandler(s api.Server, r *mux.Router, config HandlerConfig) http.Handler {
	if config.Logger == nil {
		config.Logger = log.NewNopLogger()
	}
	handle := HTTPServer{server: s, config: config}

	r.Get(transport.Ping).HandlerFunc(handle.Ping)
	r.Get(transport.Version).HandlerFunc(handle.authorized(handle.Version))

	r.Get(transport.GitHubWebhook).HandlerFunc(handle.GitHubWebhook)

	r.Get(transport.HandlePush).HandlerFunc(handle.authorized(handle.HandlePush))
	r.Get(transport.ListGoals).HandlerFunc(handle.authorized(handle.ListGoals))
	r.Get(transport.FindSideEffect).HandlerFunc(handle.authorized(handle.FindSideEffect))
	r.Get(transport.CompleteSideEffect).HandlerFunc(handle.authorized(handle.CompleteSideEffect))
	r.Get(transport.RunCommand).HandlerFunc(handle.authorized(handle.RunCommand))
	r.Get(transport.JobStatus).HandlerFunc(handle.authorized(handle.JobStatus))

	return middleware.Instrument{
		RouteMatcher: r,
		Duration:     requestDuration,
	}.Wrap(r)
}

type HTTPServer struct {
	server api.Server
	config HandlerConfig
}

func (s HTTPServer) authorized(h http.HandlerFunc) http.HandlerFunc {
	if s.config.Token == "" {
		return h
	}
	want := []byte("Bearer " + s.config.Token)
	return func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), want) != 1 {
			transport.WriteError(w, r, http.StatusUnauthorized, transport.ErrorUnauthorized)
			return
		}
		h(w, r)
	}
}

func (s HTTPServer) Ping(w http.ResponseWriter, r *http.Request) {
	if err := s.server.Ping(r.Context()); err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s HTTPServer) Version(w http.ResponseWriter, r *http.Request) {
	version, err := s.server.Version(r.Context())
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, version)
}

// GitHubWebhook accepts push events from GitHub. Pings, and pushes
// that delete a ref, are acknowledged and otherwise ignored.
func (s HTTPServer) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	p, err := github.ParsePushRequest(r, s.config.WebhookSecret)
	switch {
	case err == github.ErrPing:
		w.WriteHeader(http.StatusNoContent)
		return
	case err == github.ErrRefDeleted:
		s.config.Logger.Log("info", "ignoring push deleting a ref", "delivery", r.Header.Get("X-GitHub-Delivery"))
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		s.config.Logger.Log("delivery", r.Header.Get("X-GitHub-Delivery"), "err", err)
		transport.ErrorResponse(w, r, err)
		return
	}
	s.handlePush(w, r, p)
}

func (s HTTPServer) HandlePush(w http.ResponseWriter, r *http.Request) {
	var p push.Push
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		transport.WriteError(w, r, http.StatusBadRequest, errors.Wrap(err, "decoding push"))
		return
	}
	s.handlePush(w, r, p)
}

func (s HTTPServer) handlePush(w http.ResponseWriter, r *http.Request, p push.Push) {
	result, err := s.server.HandlePush(r.Context(), p)
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponseWithStatus(w, r, http.StatusAccepted, result)
}

func (s HTTPServer) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.server.ListGoals(r.Context())
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	if goals == nil {
		goals = []api.GoalStatus{}
	}
	transport.JSONResponse(w, r, goals)
}

func (s HTTPServer) FindSideEffect(w http.ResponseWriter, r *http.Request) {
	se, err := s.server.FindSideEffect(r.Context(), mux.Vars(r)["goal"])
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, se)
}

func (s HTTPServer) CompleteSideEffect(w http.ResponseWriter, r *http.Request) {
	var c api.Completion
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		transport.WriteError(w, r, http.StatusBadRequest, errors.Wrap(err, "decoding completion"))
		return
	}
	jobID, err := s.server.CompleteSideEffect(r.Context(), c)
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponseWithStatus(w, r, http.StatusAccepted, jobID)
}

func (s HTTPServer) RunCommand(w http.ResponseWriter, r *http.Request) {
	var cmd api.Command
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		transport.WriteError(w, r, http.StatusBadRequest, errors.Wrap(err, "decoding command"))
		return
	}
	result, err := s.server.RunCommand(r.Context(), cmd)
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, result)
}

func (s HTTPServer) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := job.ID(mux.Vars(r)["id"])
	status, err := s.server.JobStatus(r.Context(), id)
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, status)
}
