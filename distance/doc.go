// Package distance provides the vector distance calculations used by the
// classifiers.
//
// Both classifiers compare squared Euclidean distances (SquaredL2); radii are
// squared before the comparison.
//
// # Origin Cache
//
// OriginCache stores, for every training row, the Euclidean distance to a fixed
// reference point (the origin shifted by 1 in every dimension). By the reverse
// triangle inequality |‖q-r‖ - ‖x-r‖| <= ‖q-x‖, so LowerBound of two cached
// distances never exceeds the true squared distance and can be used to skip
// rows that cannot enter the current neighborhood.
//
// # Usage
//
//	d := distance.SquaredL2(a, b)
//	cache := distance.NewOriginCache(rows)
//	lb := distance.LowerBound(cache.At(i), cache.Of(query))
package distance
