// Package domain models the location reference data, risk assessment, and
// dashboard insights of the poaching risk service.
//
// # Reference Data
//
// The prediction form works over a fixed three-level hierarchy of Indian
// administrative areas and the protected areas tracked inside them:
//
//	state → districts → reserves
//	"Karnataka" → ["Chamarajanagar", "Mysuru"]
//	"Chamarajanagar" → ["BRT", "Bandipur"]
//
// Only areas present in the model's training data are listed, so the lists
// are short and ordered as the model's source data orders them. A district
// with no tracked reserve lists the sentinel [NoReserve] instead.
//
// Coordinates:
//
//	Three independent WGS84 tables keyed by name: reserve, district, and state
//	centroid. Resolution walks from the most specific non-empty name to the
//	broadest, ending at [FallbackCentroid] (roughly the centre of India) when
//	nothing matches. Names are matched exactly; there is no case folding.
//
// # Cascading Selection
//
// Changing an ancestor field always resets its descendants to the first
// child of the new parent, never to a previously chosen child. Resolution and
// cascading never fail: unknown names degrade to empty lists or broader
// coordinates so a form mid-edit always has a coordinate to show.
//
// # Risk Score
//
// The backend classifier returns per-class probabilities. The dashboard's
// single score weights them:
//
//	score = round(P(Low)·20 + P(Medium)·60 + P(High)·100)
//
// so a certain-Low prediction scores 20 and a certain-High scores 100.
//
// # Alert IDs
//
// Relayed alert IDs are deterministic SHA-256 hashes of
// type|location|district|time, so a re-polled alert keeps its ID and
// downstream consumers can deduplicate without coordination. See [AlertID].
package domain
