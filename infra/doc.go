// Package infra contains technical adapters such as the CSV series
// loader, the SQLite stores and the metrics exporters. These packages
// should depend only on the interfaces defined in the core packages.
package infra
