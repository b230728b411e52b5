/*
Package topology holds the directed graph behind the dataflow engine.

The graph has one vertex per node and one per slot, and two kinds of edge:

  - Ownership edges link a slot vertex to its node vertex. An input slot points
    at its node; a node points at its output slots.
  - Connection edges link an output slot vertex to an input slot vertex and
    carry the live Link of the data connection.

With this orientation the outgoing edges of an output slot are exactly its
connections and the incoming edges of an input slot are exactly its
connections, so neither lookup needs to filter by edge kind.

A Graph is not safe for concurrent use.
*/
package topology
