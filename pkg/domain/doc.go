/*
Package domain contains the core domain model of the dataflow engine.

It defines the identities, vertex tags and persisted document shape of a
data-flow graph, together with the contracts that plugin-provided node and slot
kinds implement. The package is kept free of storage, transport and graph
bookkeeping concerns, following Hexagonal Architecture principles.

# Key Entities

  - Node: a processing unit created from a registered NodeKey. It owns input and output slots.
  - Slot: a typed port of a node. Slots decide compatibility and establish connections.
  - Connection: the live handle returned when an output slot connects to an input slot.
  - Host: the narrow view of the engine that nodes see during initialisation.
  - Document: the persisted representation of a whole graph (nodes plus links).
*/
package domain
