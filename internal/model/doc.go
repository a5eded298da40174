// Package model defines the Tool entity, the ToolConfig tagged union, and
// parameter schemas shared by the store, gateway, and registry.
//
// ToolConfig currently has a single variant (HTTP). Adding a transport means
// adding one variant plus one switch arm in every consumer; consumers return
// ErrUnsupportedToolKind from their default arm so the compiler and tests
// surface missed arms.
package model
