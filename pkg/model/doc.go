// Package model reads and writes declarative descriptions of feature graphs.
//
// # Overview
//
// A model file lists features by name and type and the connections between
// them. The command line tool loads one, builds the graph of reference
// features it describes and recomputes it. The format is designed for:
//
//   - Hand-written test models and bug reproductions
//   - Round trips: a graph exported with [FromGraph] and [Save] rebuilds
//     with the same feature ids
//
// # File Format
//
// TOML, YAML and JSON carry the same structure. In TOML:
//
//	name = "bracket"
//	seed = 7
//
//	[[features]]
//	name = "base"
//	type = "box"
//
//	[[features]]
//	name = "boss"
//	type = "box"
//
//	[[features]]
//	name = "fuse"
//	type = "boolean"
//
//	[[connections]]
//	from = "base"
//	to = "fuse"
//	roles = ["Target"]
//
//	[[connections]]
//	from = "boss"
//	to = "fuse"
//	roles = ["Tool"]
//
// # Feature Fields
//
// Required:
//   - name: unique display name, also the key connections refer to
//   - type: box, boolean, pattern, intersect or passthrough
//
// Optional:
//   - id: pinned stable id (canonical UUID text)
//   - count: copies made by a pattern
//   - inactive, skipped: initial state flags
//   - fail: every update fails with this message
//
// # Loading
//
// Use [Load] to read and validate a file, then [Model.Build] to create the
// graph:
//
//	m, err := model.Load("bracket.toml")
//	if err != nil {
//	    return err
//	}
//	built, err := m.Build(memgeom.New())
//
// Unknown keys, duplicate names, unknown types and connections that would
// close a cycle are INVALID_MODEL errors naming the offending entry.
package model
