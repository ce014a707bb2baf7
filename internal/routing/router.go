package routing

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/atu_queue/kiosk/internal/models"
)

const (
	GroupDesign  = "design"
	GroupForeign = "foreign"
	GroupMaster  = "master"
	GroupArmy    = "army"
	GroupDefault = "default"
)

const (
	ReasonRouted        = "ROUTED"
	ReasonFallback      = "FALLBACK_DEFAULT"
	ReasonNoDesk        = "NO_DESK_AVAILABLE"
	ReasonDeskNotNeeded = "DESK_NOT_REQUIRED"
)

var ErrNoDeskAvailable = errors.New("no desk available")

// Rand is the random source used to pick a desk inside a group.
type Rand interface {
	IntN(n int) int
}

type Router struct {
	Rand Rand
}

func New(r Rand) *Router {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Router{Rand: r}
}

type Attributes struct {
	Category  string
	Direction string
	PayType   string
	Profile   string
}

type Decision struct {
	Desk       int
	Group      string
	ResolvedTo string
	ReasonCode string
	NeedsDesk  bool
}

// OK reports whether a desk was assigned.
func (d Decision) OK() bool {
	return d.ReasonCode == ReasonRouted || d.ReasonCode == ReasonFallback
}

func ConsultationGroup(category, direction string) string {
	if direction == "design" {
		return GroupDesign
	}
	return categoryGroup(category)
}

func AdmissionGroup(payType, category, profile string) string {
	if profile == "creative" {
		return GroupDesign
	}
	// TODO: payType is accepted but no rule reads it yet; confirm the
	// pay-based routing with the admissions office before adding one.
	_ = payType
	return categoryGroup(category)
}

func categoryGroup(category string) string {
	switch category {
	case "foreign":
		return GroupForeign
	case "master":
		return GroupMaster
	case "army":
		return GroupArmy
	}
	return GroupDefault
}

func (r *Router) PickForConsultation(category, direction string, cfg models.RoutingConfig) (int, bool) {
	d := r.pick(ConsultationGroup(category, direction), cfg)
	return d.Desk, d.OK()
}

func (r *Router) PickForAdmission(payType, category, profile string, cfg models.RoutingConfig) (int, bool) {
	d := r.pick(AdmissionGroup(payType, category, profile), cfg)
	return d.Desk, d.OK()
}

// Route applies the policy for service. Consultation uses the consultation
// rules, admission and contest share the admission rules, online needs no
// desk, and anything else goes to the default group.
func (r *Router) Route(service string, attrs Attributes, cfg models.RoutingConfig) Decision {
	switch strings.ToLower(strings.TrimSpace(service)) {
	case models.ServiceConsultation:
		return r.pick(ConsultationGroup(attrs.Category, attrs.Direction), cfg)
	case models.ServiceAdmission, models.ServiceContest:
		return r.pick(AdmissionGroup(attrs.PayType, attrs.Category, attrs.Profile), cfg)
	case models.ServiceOnline:
		return Decision{ReasonCode: ReasonDeskNotNeeded}
	default:
		return r.pick(GroupDefault, cfg)
	}
}

func (r *Router) pick(group string, cfg models.RoutingConfig) Decision {
	d := Decision{Group: group, ResolvedTo: group, NeedsDesk: true, ReasonCode: ReasonRouted}
	desks := cfg.Desks[group]
	if len(desks) == 0 && group != GroupDefault {
		d.ResolvedTo = GroupDefault
		d.ReasonCode = ReasonFallback
		desks = cfg.Desks[GroupDefault]
	}
	if len(desks) == 0 {
		d.ReasonCode = ReasonNoDesk
		return d
	}
	d.Desk = desks[r.Rand.IntN(len(desks))]
	return d
}
