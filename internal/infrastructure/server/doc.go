// Package server wires the relay components behind one HTTP server.
package server
