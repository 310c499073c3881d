// Package ast holds the instrumentation AST: the read-only tree a language
// front-end hands to stitch for one source file. Nodes are arena-allocated
// and addressed by uint32 IDs; every node carries a byte span into the
// original file and, when the text came out of a macro, a reference into the
// expansion table so its spelling location can be recovered.
//
// The package does not parse anything. Trees arrive either through Decode
// (the JSON dump format emitted by front-ends) or are built directly in tests.
package ast
