// Package mesh reconstructs the topology of tetrahedral meshes and triangle
// soups.
//
// # Entities
//
// A Mesh owns four entity pools (vertices, edges, faces and tetrahedra).
// Entities reference each other only by typed IDs (VertexID, EdgeID, FaceID,
// TetID) whose zero value means "none". Pointers returned by the accessors
// stay valid until the next Load, Reset or Close.
//
// # Slot Conventions
//
// Slot k of a tetrahedron's neighbours and faces is opposite its vertex k.
// Slot k of a face's edges is opposite its vertex k. A face stores up to two
// owners: CCW holds the tetrahedron whose remaining vertex lies on the left of
// the face, CW the one on the right.
//
// # Building
//
// Build and Load turn a point buffer plus 4-point cells into a linked mesh:
// neighbours first, then shared faces, then edges, then boundary flags.
// BuildSurface and LoadSurface do the same for triangle soups, welding points
// closer than WeldDistanceSqr. Failures are reported as *TopologyError or
// *DegenerateError and leave the mesh empty.
package mesh
