// Package daemonrun hosts the foreground process loop behind `dubber serve`:
// logger construction, the pid file, store setup, and signal handling.
package daemonrun
