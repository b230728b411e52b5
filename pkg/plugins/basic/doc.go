/*
Package basic is a reference plugin for the dataflow engine.

It provides two slot kinds, "float" and "text", and a handful of node kinds
that push values through their connections as soon as they change:

  - basic.constant (Generators/Constant): one float output holding a configured value.
  - basic.label (Generators/Label): one text output.
  - basic.add, basic.sub (Math/Add, Math/Sub): two float inputs, one float output.
  - basic.sum (Math/Sum): a variable number of float inputs, added or removed at runtime.
  - basic.display (Output/Display): one float input that remembers the last value seen.

Connections follow a signal/slot model: connecting an output to an input
subscribes the input to the output's change signal, and disconnecting the
returned handle unsubscribes it.
*/
package basic
