// Package relay runs the device relay: a gRPC server exposing the device
// attached to this host to orchestrators on other machines.
package relay
