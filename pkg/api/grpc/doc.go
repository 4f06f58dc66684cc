// Package grpc exposes the grpc.health.v1 service and server reflection.
// Health follows the worker pool: SERVING while every worker runs.
package grpc
