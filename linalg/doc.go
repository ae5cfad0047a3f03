// Package linalg holds the stateless numeric kernels of the aggregation engine.
//
// # Packed symmetric storage
//
// X'X is kept as the upper triangle of a p×p matrix in row-major order, so that
// element (i, j) with i <= j lives at PackedIndex(i, j) and the buffer has
// PackedLen(p) = p(p+1)/2 elements. The only way the engine writes it is
// AddOuterPacked (or its compensated variant), which makes symmetry a property
// of the representation rather than something to check.
//
// # Compensated sums
//
// The *Compensated kernels implement Neumaier summation: alongside every running
// sum s they keep a correction c, and the accurate value is s + c. Merging two
// compensated sums stays a field-wise operation.
//
// # Solving and significance
//
// SymPseudoInverse computes a generalized inverse of a symmetric positive
// semi-definite matrix through the eigen-decomposition (gonum mat.EigenSym) of
// its unit-diagonal scaling, dropping eigenvalues below a relative tolerance
// and reporting which
// coordinates fall into the resulting null space. TwoSidedPValue and
// StudentTQuantile wrap the Student-t distribution.
package linalg
