package fieldgame

// Kind is one of the nine fixed action kinds a team can claim.
type Kind string

const (
	KindCapture          Kind = "capture_checkpoint"
	KindPlantMine        Kind = "plant_mine"
	KindPhotograph       Kind = "photograph_team"
	KindProbe            Kind = "probe_checkpoint"
	KindSpy              Kind = "spy_team"
	KindCounterEspionage Kind = "counter_espionage"
	KindNotice           Kind = "notice_photograph"
	KindBounty           Kind = "set_bounty"
	KindDefuse           Kind = "defuse_mine"
)

// Kinds lists every kind in display order.
func Kinds() []Kind {
	return []Kind{
		KindCapture,
		KindPlantMine,
		KindPhotograph,
		KindProbe,
		KindSpy,
		KindCounterEspionage,
		KindNotice,
		KindBounty,
		KindDefuse,
	}
}

func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Requirements are the fixed input requirements of a kind. Photo evidence is
// not listed here; it is a tunable OptionSetting.
type Requirements struct {
	Checkpoint bool
	TargetTeam bool
	Stake      bool
}

func (k Kind) Requirements() Requirements {
	switch k {
	case KindCapture, KindProbe, KindDefuse:
		return Requirements{Checkpoint: true}
	case KindPlantMine:
		return Requirements{Checkpoint: true, Stake: true}
	case KindPhotograph, KindSpy, KindNotice:
		return Requirements{TargetTeam: true}
	case KindBounty:
		return Requirements{TargetTeam: true, Stake: true}
	case KindCounterEspionage:
		return Requirements{}
	}
	return Requirements{}
}

// HasCooldown reports whether the kind is rate limited per team pair.
func (k Kind) HasCooldown() bool {
	switch k {
	case KindPhotograph, KindSpy, KindNotice:
		return true
	}
	return false
}
