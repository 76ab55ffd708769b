package fieldgame

import "time"

// OptionSetting holds the tunable configuration of a kind.
type OptionSetting struct {
	Kind               Kind   `json:"kind"`
	Name               string `json:"name"`
	RequiresPhoto      bool   `json:"requiresPhoto"`
	AutoVerify         bool   `json:"autoVerify"`
	Points             int    `json:"points"`
	Cost               int    `json:"cost"`
	CooldownSeconds    int    `json:"cooldownSeconds"`
	RuleText           string `json:"ruleText"`
	RuleTextDefault    string `json:"ruleTextDefault"`
	AvailableToPlayers bool   `json:"availableToPlayers"`
}

func (s OptionSetting) Cooldown() time.Duration {
	return time.Duration(s.CooldownSeconds) * time.Second
}

// ResetRule restores the rule text saved as default, if any.
func (s *OptionSetting) ResetRule() {
	if s.RuleTextDefault != "" {
		s.RuleText = s.RuleTextDefault
	}
}

// SaveRuleAsDefault stores the current rule text as the new default.
func (s *OptionSetting) SaveRuleAsDefault() {
	s.RuleTextDefault = s.RuleText
}

// DefaultSettings returns the settings every kind starts with.
func DefaultSettings() map[Kind]OptionSetting {
	defaults := []OptionSetting{
		{
			Kind:          KindCapture,
			Name:          "captured checkpoint",
			RequiresPhoto: true,
			Points:        100,
			RuleText:      "Each checkpoint can be captured once per team. The first team to capture it earns a bonus.",
		},
		{
			Kind:       KindPlantMine,
			Name:       "planted mine",
			AutoVerify: true,
			RuleText:   "Costs any number of points. The mine is worth twice the stake.",
		},
		{
			Kind:            KindPhotograph,
			Name:            "photographed team",
			RequiresPhoto:   true,
			Points:          400,
			CooldownSeconds: 3600,
			RuleText:        "Photograph any team (60 min cooldown per team). The photographed team cannot photograph you back for 60 min.",
		},
		{
			Kind:       KindProbe,
			Name:       "probed checkpoint",
			AutoVerify: true,
			Cost:       50,
			RuleText:   "Shows whether a checkpoint is mined. Costs 50 points.",
		},
		{
			Kind:            KindSpy,
			Name:            "spied on team",
			AutoVerify:      true,
			Cost:            50,
			CooldownSeconds: 3600,
			RuleText:        "Shows the score of a team (60 min cooldown per team). Costs 50 points.",
		},
		{
			Kind:            KindNotice,
			Name:            "noticed photograph",
			AutoVerify:      true,
			Points:          200,
			CooldownSeconds: 600,
			RuleText:        "Report within 10 min that you were photographed (per team).",
		},
		{
			Kind:       KindCounterEspionage,
			Name:       "counter-espionage",
			AutoVerify: true,
			Cost:       300,
			RuleText:   "The next team spying on you receives false information. Costs 300 points.",
		},
		{
			Kind:       KindBounty,
			Name:       "set bounty",
			AutoVerify: true,
			RuleText:   "Put a bounty on a team. Costs any number of points.",
		},
		{
			Kind:       KindDefuse,
			Name:       "defused mine",
			AutoVerify: true,
			Cost:       50,
			RuleText:   "Defuses all mines of a checkpoint. Costs 50 points.",
		},
	}

	m := make(map[Kind]OptionSetting, len(defaults))
	for _, s := range defaults {
		s.AvailableToPlayers = true
		s.RuleTextDefault = s.RuleText
		m[s.Kind] = s
	}
	return m
}
