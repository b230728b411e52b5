/*
Package ports defines the driven ports (interfaces) of the dataflow engine.

These interfaces decouple the graph engine from the places a graph is kept,
so the same engine can persist to memory, local files or Redis.

# Key Interfaces

  - GraphStore: persists and restores whole graph documents by name.
  - DistributedLocker: serialises saves of the same graph across processes.
*/
package ports
