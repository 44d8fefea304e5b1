// Package testutil provides mesh fixtures and random helpers for tests.
//
// This package is intended for use in tests and benchmarks only.
//
// # Fixtures
//
//	fd := testutil.SingleTet()          // 4 points, 1 tetrahedron
//	fd := testutil.ConedCube(0.3, 0.45, 0.6)  // unit cube coned from an interior point
//	fd := testutil.GradedBox(3)         // Kuhn-triangulated box with uneven spacing
//
// # Random Perturbation
//
//	rng := testutil.NewRNG(seed)
//	rng.JitterInterior(fd, 0.05)        // moves interior points only
package testutil
