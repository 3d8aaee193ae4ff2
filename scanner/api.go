package scanner

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ipchama/dhcpsentry/dhcpv4"
	"github.com/ipchama/dhcpsentry/generator"
	"github.com/ipchama/dhcpsentry/handler"
	"github.com/ipchama/dhcpsentry/stats"
)

type api struct {
	stats     stats.Stats
	handler   handler.Handler
	generator generator.Generator
	addError  func(error) bool
}

// NewApiRouter serves the scan state:
//
//	GET /stats    counters as JSON
//	GET /offers   recent offer records as JSON
//	GET /metrics  Prometheus exposition of gatherer
//	PUT /update   runtime changes, e.g. {"interval": 30}
func NewApiRouter(st stats.Stats, h handler.Handler, g generator.Generator, gatherer prometheus.Gatherer, errFunc func(error) bool) http.Handler {

	a := &api{
		stats:     st,
		handler:   h,
		generator: g,
		addError:  errFunc,
	}

	r := httprouter.New()
	r.GET("/stats", a.statsHandler)
	r.GET("/offers", a.offersHandler)
	r.PUT("/update", a.updateHandler)
	r.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

func (a *api) statsHandler(response http.ResponseWriter, request *http.Request, ps httprouter.Params) {
	response.Header().Set("Content-Type", "application/json")
	io.WriteString(response, a.stats.String())
}

func (a *api) offersHandler(response http.ResponseWriter, request *http.Request, ps httprouter.Params) {
	response.Header().Set("Content-Type", "application/json")

	records := a.handler.Records()
	if records == nil {
		records = []dhcpv4.OfferRecord{}
	}

	if err := json.NewEncoder(response).Encode(records); err != nil {
		a.addError(err)
	}
}

func (a *api) updateHandler(response http.ResponseWriter, request *http.Request, ps httprouter.Params) {

	body, err := io.ReadAll(request.Body)

	if err != nil {
		a.addError(err)
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	var details map[string]interface{}

	if err = json.Unmarshal(body, &details); err != nil {
		a.addError(err)
		http.Error(response, err.Error(), http.StatusBadRequest)
		return
	}

	if err = a.generator.Update(details); err != nil {
		a.addError(err)
		http.Error(response, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	fmt.Fprint(response, `{"status": "ok"}`)
}
