package dataflow

// Version is the release of the dataflow module.
const Version = "0.3.0"
