/*
Package dataflow is the topology core of an interactive data-flow editor.

Applications assemble a directed graph of processing nodes connected through
typed input and output slots. The engine owns the structure: it hands out
identities, keeps one vertex per node and per slot, records ownership edges
between a node and its slots, and records connection edges between an output
slot and an input slot. What a node computes and which slot kinds are
compatible belong to the plugins that register the kinds.

# Concept

Node and slot kinds are supplied at runtime by plugins through a
[registry.Registry]. Each kind registers a constructor and a deserializer, and
node kinds also register a display label such as "Math/Add" which feeds the
catalog tree shown to users.

The engine is single-owner: it does no locking of its own apart from the
identity counters. Wrap it in a [Guard] when several goroutines share it.

# Usage

	eng, err := dataflow.New(dataflow.WithPlugins(basic.New()))
	if err != nil {
		log.Fatal(err)
	}

	src, _ := eng.CreateNode(basic.KeyConstant, 0, 0, false)
	dst, _ := eng.CreateNode(basic.KeyDisplay, 200, 0, false)

	srcNode, _ := eng.Node(src)
	dstNode, _ := eng.Node(dst)
	eng.AddEdge(srcNode.Outputs()[0].ID(), dstNode.Inputs()[0].ID())

	if err := eng.SaveFile("graph.json"); err != nil {
		log.Fatal(err)
	}

# Persistence

A graph is stored as a [domain.Document]: every node with its position, slot
records and state, plus the list of [output, input] pairs. Loading rebuilds
nodes through the registered deserializers, skipping entries that cannot be
restored, and reconnects links one by one. Named graphs go through a
[ports.GraphStore]; memory, file and Redis adapters live under pkg/adapters.
*/
package dataflow
