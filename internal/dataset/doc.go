// Package dataset reads the static source snapshots the pipelines run over:
// the Gavi shipment-line CSV extract, the vaccine demand CSV, and the WHO
// xlsx workbooks. Readers map provider column names onto typed rows, clean
// formatted numbers, and accumulate row-level schema problems instead of
// dropping rows silently.
package dataset
