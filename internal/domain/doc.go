// Package domain defines the core types of the cpgview graph explorer.
//
// This package contains the value types shared by every other package: the
// nodes and edges of a code property graph, the datasets that group them and
// the tags used to classify nodes for filtering.
//
// # Core Types
//
// Node is one vertex emitted by the analysis backend. Its Label classifies the
// node (FunctionDeclaration, CallExpression, Literal, ...) and drives both
// filtering and styling. Properties are opaque display hints.
//
// Edge connects two nodes. Its Label is a RelationKind (DFG, EOG, AST,
// REFERS_TO, PDG, USAGE, SCOPE).
//
// GraphDataset holds nodes and edges keyed by id. It is used both for the
// full store of a session and for the displayed view.
//
// GraphFragment is the list form of a dataset used by codecs and snapshots.
//
// # Tags
//
// NodeTags are computed once, when a node is merged into a store, by a Tagger.
// They record the label categories of the node, whether it is unsafe, and a
// lower-cased search haystack, so filtering never rescans raw properties.
//
// # Ownership
//
// Datasets copy node and edge values but share their Properties maps.
// Properties MUST NOT be mutated once a node has been merged into a store.
package domain
