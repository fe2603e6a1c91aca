package beacon

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalidConfig is returned by New when the configuration is rejected.
var ErrInvalidConfig = errors.New("invalid simulation config")

// OwnerMode selects how owner stakes are turned into nodes.
type OwnerMode string

const (
	// OwnerModeSplit runs floor(stake/min_stake) nodes per owner; the
	// remainder of the stake is held by the owner's last node.
	OwnerModeSplit OwnerMode = "split"
	// OwnerModeSingle runs one node per owner holding the whole stake.
	OwnerModeSingle OwnerMode = "single"
	// OwnerModeRandom runs a fixed number of min_stake nodes whose owners are
	// drawn from a normal distribution over owner indices.
	OwnerModeRandom OwnerMode = "random"
)

// Config is the full parameter set of a simulation run. Percent fields are in
// [0,100] and apply per tick; threshold fields are fractions in [0,1].
type Config struct {
	Seed uint64 `mapstructure:"seed"`

	OwnerMode   OwnerMode `mapstructure:"owner_mode"`
	OwnerStakes []int     `mapstructure:"owner_stakes"` // in virtual stakers; random mode only uses the owner count
	MinStake    int       `mapstructure:"min_stake"`
	Nodes       int       `mapstructure:"nodes"` // random mode only
	OwnerMean   float64   `mapstructure:"owner_mean"`
	OwnerStdDev float64   `mapstructure:"owner_stddev"`

	MaliciousOwnerPercent float64 `mapstructure:"malicious_owner_percent"`
	NodeFailurePercent    float64 `mapstructure:"node_failure_percent"`
	NodeDeathPercent      float64 `mapstructure:"node_death_percent"`
	NodeConnectionDelay   int     `mapstructure:"node_connection_delay"`
	NodeReconnectDelay    int     `mapstructure:"node_reconnect_delay"`

	GroupSize               int `mapstructure:"group_size"`
	GroupFormationThreshold int `mapstructure:"group_formation_threshold"` // min active nodes
	ActiveGroupThreshold    int `mapstructure:"active_group_threshold"`    // groups formed at bootstrap
	GroupExpiry             int `mapstructure:"group_expiry"`
	DKGBlockDelay           int `mapstructure:"dkg_block_delay"`

	SignatureDelay          float64 `mapstructure:"signature_delay"` // Poisson mean, in ticks
	RelayRequestProbability float64 `mapstructure:"relay_request_probability"`

	CompromiseThreshold      float64 `mapstructure:"compromise_threshold"`
	DominationThreshold      float64 `mapstructure:"domination_threshold"`
	FailedSignatureThreshold float64 `mapstructure:"failed_signature_threshold"`
}

// DefaultConfig returns a 100 owner network of mixed stakes split into
// minimum-stake nodes.
func DefaultConfig() Config {
	stakes := make([]int, 100)
	for i := range stakes {
		stakes[i] = 10 + 10*(i%5)
	}
	return Config{
		Seed:                     1,
		OwnerMode:                OwnerModeSplit,
		OwnerStakes:              stakes,
		MinStake:                 10,
		Nodes:                    200,
		OwnerMean:                50,
		OwnerStdDev:              15,
		MaliciousOwnerPercent:    10,
		NodeFailurePercent:       1,
		NodeDeathPercent:         0.01,
		NodeConnectionDelay:      20,
		NodeReconnectDelay:       5,
		GroupSize:                50,
		GroupFormationThreshold:  100,
		ActiveGroupThreshold:     5,
		GroupExpiry:              300,
		DKGBlockDelay:            10,
		SignatureDelay:           2,
		RelayRequestProbability:  0.5,
		CompromiseThreshold:      0.51,
		DominationThreshold:      0.51,
		FailedSignatureThreshold: 0.5,
	}
}

// nodeSpec is one node to create. owner < 0 means the owner is drawn at
// construction time.
type nodeSpec struct {
	owner   int
	tickets int
}

func (c Config) nodeSpecs() []nodeSpec {
	var specs []nodeSpec
	switch c.OwnerMode {
	case OwnerModeSplit:
		if c.MinStake <= 0 {
			return nil
		}
		for owner, stake := range c.OwnerStakes {
			count := stake / c.MinStake
			for j := 0; j < count; j++ {
				tickets := c.MinStake
				if j == count-1 {
					tickets += stake % c.MinStake
				}
				specs = append(specs, nodeSpec{owner: owner, tickets: tickets})
			}
		}
	case OwnerModeSingle:
		for owner, stake := range c.OwnerStakes {
			if stake > 0 {
				specs = append(specs, nodeSpec{owner: owner, tickets: stake})
			}
		}
	case OwnerModeRandom:
		for i := 0; i < c.Nodes; i++ {
			specs = append(specs, nodeSpec{owner: -1, tickets: c.MinStake})
		}
	}
	return specs
}

// field names a config value in validation messages.
type field[T int | float64] struct {
	name  string
	value T
}

// Validate checks every parameter and returns all problems at once.
func (c Config) Validate() error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	switch c.OwnerMode {
	case OwnerModeSplit, OwnerModeSingle, OwnerModeRandom:
	default:
		fail("unknown owner_mode %q", c.OwnerMode)
	}
	if len(c.OwnerStakes) == 0 {
		fail("owner_stakes must not be empty")
	}
	for i, stake := range c.OwnerStakes {
		if stake < 0 {
			fail("owner_stakes[%d] is negative: %d", i, stake)
		}
	}
	if (c.OwnerMode == OwnerModeSplit || c.OwnerMode == OwnerModeRandom) && c.MinStake <= 0 {
		fail("min_stake must be positive in %s mode, got %d", c.OwnerMode, c.MinStake)
	}
	if c.OwnerMode == OwnerModeRandom {
		if c.Nodes <= 0 {
			fail("nodes must be positive in random mode, got %d", c.Nodes)
		}
		if c.OwnerStdDev < 0 {
			fail("owner_stddev must be non-negative, got %.3f", c.OwnerStdDev)
		}
	}

	for _, p := range []field[float64]{
		{"malicious_owner_percent", c.MaliciousOwnerPercent},
		{"node_failure_percent", c.NodeFailurePercent},
		{"node_death_percent", c.NodeDeathPercent},
	} {
		if p.value < 0 || p.value > 100 {
			fail("%s must be within [0,100], got %.3f", p.name, p.value)
		}
	}
	for _, f := range []field[float64]{
		{"relay_request_probability", c.RelayRequestProbability},
		{"compromise_threshold", c.CompromiseThreshold},
		{"domination_threshold", c.DominationThreshold},
		{"failed_signature_threshold", c.FailedSignatureThreshold},
	} {
		if f.value < 0 || f.value > 1 {
			fail("%s must be within [0,1], got %.3f", f.name, f.value)
		}
	}
	for _, d := range []field[int]{
		{"node_connection_delay", c.NodeConnectionDelay},
		{"node_reconnect_delay", c.NodeReconnectDelay},
		{"dkg_block_delay", c.DKGBlockDelay},
		{"active_group_threshold", c.ActiveGroupThreshold},
	} {
		if d.value < 0 {
			fail("%s must be non-negative, got %d", d.name, d.value)
		}
	}
	if c.SignatureDelay < 0 {
		fail("signature_delay must be non-negative, got %.3f", c.SignatureDelay)
	}
	if c.GroupExpiry <= 0 {
		fail("group_expiry must be positive, got %d", c.GroupExpiry)
	}
	if c.GroupSize <= 0 {
		fail("group_size must be positive, got %d", c.GroupSize)
	}

	if result.ErrorOrNil() != nil {
		return result.ErrorOrNil()
	}

	specs := c.nodeSpecs()
	if len(specs) == 0 {
		fail("owner configuration yields no nodes")
		return result.ErrorOrNil()
	}
	if c.GroupFormationThreshold < 1 || c.GroupFormationThreshold > len(specs) {
		fail("group_formation_threshold must be within [1,%d], got %d", len(specs), c.GroupFormationThreshold)
		return result.ErrorOrNil()
	}

	// The lottery must fill a group from any qualifying set of active nodes,
	// including the one holding the fewest tickets.
	tickets := make([]int, len(specs))
	for i, s := range specs {
		tickets[i] = s.tickets
	}
	slices.Sort(tickets)
	worst := 0
	for _, t := range tickets[:c.GroupFormationThreshold] {
		worst += t
	}
	if c.GroupSize > worst {
		fail("group_size %d exceeds the %d tickets held by the %d smallest nodes", c.GroupSize, worst, c.GroupFormationThreshold)
	}

	return result.ErrorOrNil()
}

// NodeCount returns the number of nodes the configuration creates.
func (c Config) NodeCount() int {
	return len(c.nodeSpecs())
}

// TotalTickets returns the number of virtual stakers across all nodes.
func (c Config) TotalTickets() int {
	total := 0
	for _, s := range c.nodeSpecs() {
		total += s.tickets
	}
	return total
}
