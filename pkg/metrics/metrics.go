// Package metrics instruments object dispatch with Prometheus counters,
// grounded on the bifrost gateway's Prometheus wiring (initMetrics /
// recordX helpers backed by a type-switch on the registered collector).
// Unlike that example this runtime has no build tag gating it off: a nil
// *Collector is simply a no-op, so callers that never construct one pay
// nothing and never import prometheus transitively.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cip-core/cipcore/pkg/cipmsg"
	"github.com/cip-core/cipcore/pkg/registry"
)

// Collector holds the counters this runtime exposes. The zero value
// (a nil *Collector) is valid and records nothing; every method is
// nil-receiver safe.
type Collector struct {
	requests *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its counters against reg.
// Passing prometheus.DefaultRegisterer matches the common case of
// exposing promhttp.Handler() on the default registry.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cip_requests_total",
			Help: "Total CIP object requests processed, by class, service and reply status.",
		}, []string{"class", "service", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(c.requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			c.requests = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	return c, nil
}

// observe records one request against class/service/status. A nil
// Collector (or a nil underlying vector) is a no-op.
func (c *Collector) observe(class uint16, service uint8, status uint32) {
	if c == nil || c.requests == nil {
		return
	}
	c.requests.WithLabelValues(
		strconv.Itoa(int(class)),
		strconv.Itoa(int(service)),
		strconv.Itoa(int(status)),
	).Inc()
}

// instrumented wraps a registry.Object so every Request call is counted
// before the reply is returned to the caller.
type instrumented struct {
	registry.Object
	collector *Collector
}

// Wrap decorates obj so its Request calls are observed by c. Wrapping
// with a nil c is harmless (observe is a no-op) and lets callers wrap
// unconditionally rather than branching at every registration site.
func Wrap(obj registry.Object, c *Collector) registry.Object {
	if obj == nil {
		return obj
	}
	return &instrumented{Object: obj, collector: c}
}

// Request forwards to the wrapped object and records the outcome. The
// status label reflects the reply's CIP status byte when a reply was
// produced, or the sentinel 0xFFFFFFFF when Request itself errored
// (e.g. malformed encapsulation before a CIP reply could be built).
func (i *instrumented) Request(req *cipmsg.Request) (*cipmsg.Reply, error) {
	reply, err := i.Object.Request(req)
	status := uint32(0xFFFFFFFF)
	if reply != nil {
		status = uint32(reply.Status)
	}
	i.collector.observe(i.Object.ClassID(), uint8(req.Service), status)
	return reply, err
}
