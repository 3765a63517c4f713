// Package layout is the alluvial layout engine: it turns the two flow input
// tables into exact geometric primitives' coordinates.
//
// The computation is a single-pass batch transform in three stages:
//
//  1. Segment stacking: per time column, category segments are stacked bottom
//     to top in category order, tiling [0, N] exactly.
//  2. Edge resolution: each link is assigned the vertical sub-interval it
//     occupies inside its origin and destination segments. Links sharing a
//     segment are stacked deterministically by the other endpoint's
//     (time, category).
//  3. Band sampling: each resolved link is expanded into a sampled curve from
//     just inside the origin bar to just inside the destination bar, with
//     linear or raised-cosine interpolation.
//
// Everything is deterministic: identical inputs and configuration produce an
// identical layout. All derived values are recomputed on every call; nothing
// is shared or mutated afterwards.
package layout
