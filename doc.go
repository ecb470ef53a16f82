// Package exprgraph is the expression-graph kernel of a CAD modeller whose
// shapes are implicit scalar functions. A graph is a DAG of arithmetic
// operations over the coordinate axes X, Y, Z, free variables, numeric
// constants, and opaque oracle leaves.
//
// Every node is built through a smart constructor (X, Y, Z, Constant,
// Unary, Binary, Remap) that folds algebraic identities and constant
// expressions before interning the result in a process-wide hash-cons
// table, so structurally equal subtrees always share one record. Var and
// Oracle leaves are the exception: each call returns a fresh record that
// is never interned. A Handle
// is a counted owning reference to such a record: Clone shares it, Release
// gives it up, and two handles compare equal with == exactly when they
// refer to the same record.
//
// Numerical evaluation, interval arithmetic, meshing, and rendering are
// out of scope; this package only builds, rewrites, traverses, and
// (de)serialises the graphs those layers consume.
package exprgraph
