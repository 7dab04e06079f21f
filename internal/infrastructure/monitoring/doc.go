/*
Package monitoring provides Prometheus metrics for the terminal relay.

# Overview

Tracks HTTP requests, terminal session lifecycle (joins, exits, launch
latency, rejected resizes), byte throughput in both directions, websocket
connections, and orchestration state queries.

# Usage

	metrics := monitoring.NewMetrics()
	defer metrics.Close()

	router.Use(monitoring.Middleware(metrics))

	metrics.RecordJoin("success", time.Since(start))
	metrics.RecordExit("process_exit")

# Metrics Endpoint

Each Metrics owns a registry; expose it with promhttp:

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
*/
package monitoring
