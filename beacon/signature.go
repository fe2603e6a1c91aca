package beacon

import "beacon-sim/models"

// SignatureStatus is the lifecycle of a signature: started -> complete.
type SignatureStatus int

const (
	SignatureStarted SignatureStatus = iota
	SignatureComplete
)

func (s SignatureStatus) String() string {
	if s == SignatureComplete {
		return "complete"
	}
	return "started"
}

type signatureState struct {
	status        SignatureStatus
	delay         int
	delayComplete bool

	ownership        []int // group ownership restricted to connected nodes
	offlinePercent   float64
	dominatorPercent float64
	lynchpinPercent  float64
}

// Signature is one relay entry produced by a group after a delay.
type Signature struct {
	id    int
	group *Group

	signatureState
}

func newSignature(id int, group *Group, delay int) *Signature {
	return &Signature{
		id:             id,
		group:          group,
		signatureState: signatureState{status: SignatureStarted, delay: delay},
	}
}

func (s *Signature) ID() int                 { return s.id }
func (s *Signature) Kind() models.EntityKind { return models.KindSignature }
func (s *Signature) GroupID() int            { return s.group.id }
func (s *Signature) Status() SignatureStatus { return s.status }
func (s *Signature) Complete() bool          { return s.status == SignatureComplete }

// OfflinePercent is the share of the group's seats that were disconnected.
func (s *Signature) OfflinePercent() float64 { return s.offlinePercent }

// DominatorPercent is the share withheld by every absent seat plus the largest
// present node.
func (s *Signature) DominatorPercent() float64 { return s.dominatorPercent }

// LynchpinPercent is the largest present owner's share of the present seats.
func (s *Signature) LynchpinPercent() float64 { return s.lynchpinPercent }

// Withheld is the share of the group that cannot contribute if the largest
// present owner defects.
func (s *Signature) Withheld() float64 {
	return s.offlinePercent + s.lynchpinPercent*(1-s.offlinePercent)
}

func (s *Signature) next(v *tickView) signatureState {
	st := s.signatureState
	switch {
	case !st.delayComplete:
		if st.delay > 0 {
			st.delay--
		} else {
			st.delayComplete = true
		}
	case st.status == SignatureStarted:
		st = s.process(st, v)
	}
	return st
}

// process computes the signing outcome from the connected set in v. A
// complete signature is returned unchanged.
func (s *Signature) process(st signatureState, v *tickView) signatureState {
	if st.status == SignatureComplete {
		return st
	}

	group := s.group.ownership
	restricted := make([]int, len(group))
	byOwner := make(map[int]int)
	total, present, largest := 0, 0, 0
	for id, seats := range group {
		if seats == 0 {
			continue
		}
		total += seats
		if !v.isConnected(id) {
			continue
		}
		restricted[id] = seats
		present += seats
		largest = max(largest, seats)
		byOwner[v.owner(id)] += seats
	}

	st.ownership = restricted
	st.status = SignatureComplete
	if total == 0 {
		return st
	}
	offline := total - present
	st.offlinePercent = float64(offline) / float64(total)
	st.dominatorPercent = float64(offline+largest) / float64(total)

	topOwner := 0
	for _, seats := range byOwner {
		topOwner = max(topOwner, seats)
	}
	if present > 0 {
		st.lynchpinPercent = float64(topOwner) / float64(present)
	}
	return st
}

func (s *Signature) commit(st signatureState) {
	s.signatureState = st
}

func (s *Signature) Report() models.EntityReport {
	r := models.EntityReport{
		ID:      s.id,
		Kind:    models.KindSignature,
		Status:  s.status.String(),
		GroupID: ptr(s.group.id),
	}
	if s.Complete() {
		r.Ownership = sparse(s.ownership)
		r.OfflinePercent = ptr(s.offlinePercent)
		r.DominatorPercent = ptr(s.dominatorPercent)
		r.LynchpinPercent = ptr(s.lynchpinPercent)
	}
	return r
}
