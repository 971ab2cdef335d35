// Package enginetest runs in-process stand-ins for the brokers the engine
// transports talk to. They speak just enough of the NATS and Redis
// protocols for a real client to connect, subscribe and publish.
package enginetest
