// Package input samples the operator's low/high triggers.
package input

// AllGroups keys triggers that apply to every tested group, like the two
// shared gamepad buttons.
const AllGroups = ""

// Triggers are the two binary signals for one group: drive to the low
// bound, drive to the high bound.
type Triggers struct {
	Low  bool
	High bool
}

// Snapshot holds the triggers sampled in one tick, keyed by group.
type Snapshot map[string]Triggers

// For returns the triggers for group, including the shared ones.
func (s Snapshot) For(group string) Triggers {
	t, all := s[group], s[AllGroups]
	return Triggers{
		Low:  t.Low || all.Low,
		High: t.High || all.High,
	}
}

func (s Snapshot) merge(other Snapshot) {
	for group, t := range other {
		cur := s[group]
		s[group] = Triggers{Low: cur.Low || t.Low, High: cur.High || t.High}
	}
}

// Source is sampled once per control tick. No debouncing is applied.
type Source interface {
	Sample() (Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Snapshot, error)

func (f SourceFunc) Sample() (Snapshot, error) { return f() }

type merged []Source

// Merge ORs the triggers of several sources.
func Merge(sources ...Source) Source {
	return merged(sources)
}

func (m merged) Sample() (Snapshot, error) {
	out := make(Snapshot)
	for _, s := range m {
		snap, err := s.Sample()
		if err != nil {
			return nil, err
		}
		out.merge(snap)
	}
	return out, nil
}
