// Package relay exposes a device channel over gRPC.
//
// The DeviceRelay service has one unary method per channel operation and
// uses protobuf well-known types for its messages, so no generated code is
// needed. A host with a device attached runs the Server; orchestrators on
// other machines reach the device through a client that implements the same
// channel interface.
package relay
