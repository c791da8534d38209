package httpapi

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/alexshd/queuelaw"
)

// Admission decisions.
type admitAction string

const (
	actionAdmit admitAction = "ADMIT" // Below the high-load zone
	actionWarn  admitAction = "WARN"  // Admitted, but ρ ≥ 0.8
	actionShed  admitAction = "SHED"  // Rejected with 503
)

// shedExitRho is the utilization the server must fall below, after the hold
// time, before it admits requests again.
const shedExitRho = 0.5

// admission treats the server as an s-server queue with s = capacity
// concurrent requests and sheds load once every slot is busy.
//
// Shedding has hysteresis: after the server fills up it keeps rejecting
// until at least hold has elapsed and ρ is below shedExitRho.
type admission struct {
	capacity int
	hold     time.Duration
	now      func() time.Time

	mu        sync.Mutex
	inFlight  int
	shedding  bool
	shedSince time.Time
	last      decision

	warnings   int64
	shedEvents int64
	rejected   int64
}

type decision struct {
	Action admitAction       `json:"action"`
	Rho    float64           `json:"rho"`
	Zone   queuelaw.LoadZone `json:"zone"`
	Reason string            `json:"reason,omitempty"`
}

func newAdmission(capacity int, hold time.Duration) *admission {
	return &admission{capacity: capacity, hold: hold, now: time.Now}
}

// acquire decides whether one more request may start. When it returns
// ok, the caller must call release when the request finishes.
func (a *admission) acquire() (decision, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	rho := float64(a.inFlight) / float64(a.capacity)
	zone := queuelaw.ZoneFor(rho)

	if a.shedding {
		held := now.Sub(a.shedSince)
		if held >= a.hold && rho < shedExitRho {
			a.shedding = false
		} else {
			a.rejected++
			a.last = decision{
				Action: actionShed,
				Rho:    rho,
				Zone:   zone,
				Reason: fmt.Sprintf("shedding for %s, need %s and ρ < %g", held.Round(time.Millisecond), a.hold, shedExitRho),
			}
			return a.last, false
		}
	}

	if zone == queuelaw.ZoneUnstable {
		a.shedding = true
		a.shedSince = now
		a.shedEvents++
		a.rejected++
		a.last = decision{
			Action: actionShed,
			Rho:    rho,
			Zone:   zone,
			Reason: fmt.Sprintf("all %d slots busy", a.capacity),
		}
		return a.last, false
	}

	a.inFlight++
	a.last = decision{Action: actionAdmit, Rho: rho, Zone: zone}
	if zone == queuelaw.ZoneHigh {
		a.warnings++
		a.last.Action = actionWarn
		a.last.Reason = fmt.Sprintf("ρ = %.2f, waits grow like 1/(1-ρ)", rho)
	}
	return a.last, true
}

func (a *admission) release() {
	a.mu.Lock()
	a.inFlight--
	a.mu.Unlock()
}

// Wrap rejects requests with 503 while the governor sheds load.
func (a *admission) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, ok := a.acquire()
		if !ok {
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusServiceUnavailable, "server overloaded: "+d.Reason)
			return
		}
		defer a.release()
		next.ServeHTTP(w, r)
	})
}

type admissionStats struct {
	Capacity   int      `json:"capacity"`
	InFlight   int      `json:"in_flight"`
	Shedding   bool     `json:"shedding"`
	Warnings   int64    `json:"warnings"`
	ShedEvents int64    `json:"shed_events"`
	Rejected   int64    `json:"rejected"`
	Last       decision `json:"last"`
}

func (a *admission) Stats() admissionStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return admissionStats{
		Capacity:   a.capacity,
		InFlight:   a.inFlight,
		Shedding:   a.shedding,
		Warnings:   a.warnings,
		ShedEvents: a.shedEvents,
		Rejected:   a.rejected,
		Last:       a.last,
	}
}
