package layout

// Profile names one of the two simulation tuning regimes the frontend applies
// after a data swap. The controller only decides which profile applies; the
// frontend owns simulation stepping.
type Profile struct {
	Name          string  `json:"name"`
	AlphaDecay    float64 `json:"alpha_decay"`
	VelocityDecay float64 `json:"velocity_decay"`
	Reheat        bool    `json:"reheat"`
}

// Hot fully re-energizes the simulation: first load, or a change to the
// physical force parameters.
var Hot = Profile{Name: "hot", AlphaDecay: 0.02, VelocityDecay: 0.4, Reheat: true}

// Cool damps heavily without re-energizing: filter or visibility changes,
// where new nodes should settle without disturbing the existing layout.
var Cool = Profile{Name: "cool", AlphaDecay: 0.05, VelocityDecay: 0.85, Reheat: false}

// ProfileFor maps an update trigger to a tuning profile.
func ProfileFor(reheat, firstLoad bool) Profile {
	if reheat || firstLoad {
		return Hot
	}
	return Cool
}
