package beacon

// testConfig is a 60 node network (30 owners, two 10 ticket nodes each)
// small enough to step quickly.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.OwnerStakes = make([]int, 30)
	for i := range cfg.OwnerStakes {
		cfg.OwnerStakes[i] = 20
	}
	cfg.MinStake = 10
	cfg.MaliciousOwnerPercent = 20
	cfg.GroupSize = 20
	cfg.GroupFormationThreshold = 20
	cfg.ActiveGroupThreshold = 3
	cfg.GroupExpiry = 50
	cfg.DKGBlockDelay = 5
	cfg.NodeConnectionDelay = 5
	cfg.SignatureDelay = 1
	return cfg
}

// connectedView marks every node in nodes as connected except those in offline.
func connectedView(nodes []*Node, offline ...int) *tickView {
	v := &tickView{nodes: nodes, connected: make([]bool, len(nodes))}
	for i := range v.connected {
		v.connected[i] = true
	}
	for _, id := range offline {
		v.connected[id] = false
	}
	return v
}

// scenarioNodes builds ten single-ticket nodes: nodes 0 and 1 belong to the
// malicious owner 0, nodes 2..9 to honest owners 1..8.
func scenarioNodes() []*Node {
	nodes := make([]*Node, 10)
	for i := range nodes {
		owner := 0
		if i >= 2 {
			owner = i - 1
		}
		nodes[i] = newNode(i, owner, 1, owner == 0, 0)
		nodes[i].status = Connected
	}
	return nodes
}
