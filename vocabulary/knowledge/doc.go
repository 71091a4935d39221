// Package knowledge provides the closed vocabularies shared across the
// zettelforge pipeline: atom categories, link relationship kinds, node types,
// reference types, and graph health status.
//
// Every value set here is a closed enumeration. Parsers normalize free-form
// input into these types at the boundary so downstream components never see
// unknown values.
package knowledge
