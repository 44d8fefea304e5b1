// Package partition splits the boundary skin of a reconstructed mesh into six
// near-planar physical groups.
//
// # Seeding
//
// Six rays are cast from the vertex centroid along the signed axes of a frame
// rotated by the configured yaw, pitch and roll. The first boundary face hit
// strictly inside its triangle (in face traversal order) becomes the seed of
// that direction's group.
//
// # Region Growing
//
// All six groups grow in lock-step rounds. In each round a group expands its
// frontier across the edges of the skin and accepts every unmarked neighbour
// whose normal deviates from the seed normal by less than MaxDeviation, up to
// sign. Groups are expanded in Direction order within a round, so a face that
// two groups reach in the same round goes to the lower Direction. A face is
// marked at most once over the whole run, which bounds the number of rounds by
// the number of boundary faces.
//
// Faces no group reaches are reported in Result.Unassigned.
package partition
