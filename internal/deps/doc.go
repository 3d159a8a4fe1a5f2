// Package deps reports whether the external binaries and python packages the
// dubbing engines shell out to are installed.
package deps
