// Package template renders tool responses through cached handlebars
// templates. Rendering is sandboxed: no helpers with filesystem or network
// access are registered, and output is emitted raw without HTML escaping.
package template
