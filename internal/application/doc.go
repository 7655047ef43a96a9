// Package application provides application initialization and dependency wiring.
// It creates the station storage, partitioner, metrics registry, handlers,
// routers and HTTP server, and runs batch simulations, keeping the main
// package focused on CLI parsing and orchestration.
package application
