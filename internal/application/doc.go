// Package application wires configuration, logging, the dataset pipelines,
// and the preview server together. It owns the orchestration of one run:
// which snapshots are present, which pipelines execute, where artifacts and
// key numbers land, and what ends up in the in-memory results store.
package application
