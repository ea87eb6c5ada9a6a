package addon

import (
	"github.com/lqqyt2423/go-mitmproxy/proxy"

	"github.com/geospoof/geospoof/geo"
	"github.com/geospoof/geospoof/internal/metrics"
	"github.com/geospoof/geospoof/log"
)

// GeoSpoof hands every fully read request to a geo.Rewriter.
type GeoSpoof struct {
	proxy.BaseAddon
	rewriter *geo.Rewriter
	logger   log.Logger
}

func NewGeoSpoof(r *geo.Rewriter, l log.Logger) *GeoSpoof {
	if l == nil {
		l = log.DefaultLogger
	}
	return &GeoSpoof{rewriter: r, logger: l}
}

func (a *GeoSpoof) Request(f *proxy.Flow) {
	if f == nil || f.Request == nil {
		return
	}
	// body larger than StreamLargeBodies is never buffered
	if f.Stream {
		a.logger.WithField("flow", f.Id.String()).Debugf("Skip streamed request: %v", f.Request.URL)
		return
	}

	defer func() {
		if err := recover(); err != nil {
			metrics.PanicsTotal.Inc()
			a.logger.WithField("flow", f.Id.String()).Errorf("Error processing JSON payload: %v", err)
		}
	}()

	outcome := a.rewriter.Process(f.Request)
	metrics.ObserveOutcome(outcome)
}
