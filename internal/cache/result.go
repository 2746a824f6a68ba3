package cache

// CacheLayer identifies which layer of the L1/L2/upstream protocol actually
// served a read, or which stale fallback it fell back to (spec §4.2 step
// 1-7, §6-§8). Stale-serving is an explicit, flagged fallback — never
// silent — so every FinancialResult/OHLCVResult carries this plus a
// Stale/StaleReason pair rather than returning a bare payload.
type CacheLayer string

const (
	LayerL1          CacheLayer = "l1"
	LayerL2          CacheLayer = "l2"
	LayerUpstream    CacheLayer = "upstream"
	LayerL2Stale     CacheLayer = "l2-stale"
	LayerL1AfterWait CacheLayer = "l1-after-wait"
	LayerL2AfterWait CacheLayer = "l2-after-wait"
)
