package domain

import "time"

type Meta struct {
	LastCheck time.Time `json:"last_check"`
}

// Snapshot is the serializable form of the status store.
type Snapshot struct {
	Meta    Meta                                  `json:"meta"`
	Targets map[string]map[CheckKind]StatusRecord `json:"targets"`
}

func NewSnapshot() Snapshot {
	return Snapshot{Targets: make(map[string]map[CheckKind]StatusRecord)}
}

// Clone returns a deep copy, never with a nil Targets map.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Meta: s.Meta, Targets: make(map[string]map[CheckKind]StatusRecord, len(s.Targets))}
	for id, kinds := range s.Targets {
		cp := make(map[CheckKind]StatusRecord, len(kinds))
		for k, r := range kinds {
			cp[k] = r.clone()
		}
		out.Targets[id] = cp
	}
	return out
}
