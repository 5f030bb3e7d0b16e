// Package server assembles the HTTP and gRPC surfaces of the service: the
// health routes, the metrics scrape endpoint, the admin routes and the
// grpc.health.v1 service.
package server
