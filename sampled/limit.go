package sampled

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type limEntry struct {
	rlim *rate.Limiter
	exp  time.Time
}

// Limiter is a rate limiter keyed by client address. Idle buckets expire so
// the map does not grow with every client ever seen.
type Limiter struct {
	r    rate.Limit
	b    int
	life time.Duration

	mu  sync.Mutex
	lim map[string]*limEntry
}

func newLimiter(rps float64, burst int, bucketLife time.Duration) *Limiter {
	return &Limiter{
		r:    rate.Limit(rps),
		b:    burst,
		life: bucketLife,
		lim:  make(map[string]*limEntry),
	}
}

func (p *Limiter) clean() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for k, lim := range p.lim {
		if lim.exp.Before(time.Now()) {
			delete(p.lim, k)
		}
	}
}

func (p *Limiter) ensure(k string) *limEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lim[k] == nil {
		p.lim[k] = &limEntry{
			rlim: rate.NewLimiter(p.r, p.b),
		}
	}
	l := p.lim[k]
	l.exp = time.Now().Add(p.life)
	return l
}

func (p *Limiter) Allow(k string) bool {
	ret := p.ensure(k).rlim.Allow()
	p.clean() // TODO: sweep from a ticker instead of on every Allow
	return ret
}

// clientKey identifies the caller: the first X-Forwarded-For hop when a
// proxy is in front, the remote host otherwise.
func clientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) withLimit(next Handler) Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		k := clientKey(r)
		if !s.limiter.Allow(k) {
			log.Debugf("limit: throttled %q", k)
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next(w, r)
	}
}
