package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// documentHeader is the part of a document decoded as a whole. Nodes and links
// are decoded entry by entry so one bad entry does not lose the others.
type documentHeader[E any] struct {
	Version  string `json:"version" yaml:"version"`
	Revision string `json:"revision" yaml:"revision"`
	Nodes    []E    `json:"nodes" yaml:"nodes"`
	Links    []E    `json:"links" yaml:"links"`
	Sealed   string `json:"sealed" yaml:"sealed"`
}

// DecodeErrors returns the entries dropped while the document was decoded,
// each wrapping ErrMalformedDocument.
func (d *Document) DecodeErrors() []error {
	return d.decodeErrs
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var h documentHeader[json.RawMessage]
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	return d.fill(h.Version, h.Revision, h.Sealed, len(h.Nodes), len(h.Links),
		func(i int, rec *NodeRecord) error { return json.Unmarshal(h.Nodes[i], rec) },
		func(i int, link *[]int) error { return json.Unmarshal(h.Links[i], link) },
		h.Nodes == nil, h.Links == nil)
}

func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	var h documentHeader[yaml.Node]
	if err := value.Decode(&h); err != nil {
		return err
	}
	return d.fill(h.Version, h.Revision, h.Sealed, len(h.Nodes), len(h.Links),
		func(i int, rec *NodeRecord) error { return h.Nodes[i].Decode(rec) },
		func(i int, link *[]int) error { return h.Links[i].Decode(link) },
		h.Nodes == nil, h.Links == nil)
}

func (d *Document) fill(version, revision, sealed string, nodes, links int,
	node func(int, *NodeRecord) error, link func(int, *[]int) error, nilNodes, nilLinks bool) error {
	*d = Document{Version: version, Revision: revision, Sealed: sealed}
	if !nilNodes {
		d.Nodes = make([]NodeRecord, 0, nodes)
	}
	if !nilLinks {
		d.Links = make([][]int, 0, links)
	}
	for i := 0; i < nodes; i++ {
		var rec NodeRecord
		if err := node(i, &rec); err != nil {
			d.decodeErrs = append(d.decodeErrs, fmt.Errorf("node entry #%d: %v: %w", i, err, ErrMalformedDocument))
			continue
		}
		d.Nodes = append(d.Nodes, rec)
	}
	for i := 0; i < links; i++ {
		var pair []int
		if err := link(i, &pair); err != nil {
			d.decodeErrs = append(d.decodeErrs, fmt.Errorf("link entry #%d: %v: %w", i, err, ErrMalformedDocument))
			continue
		}
		d.Links = append(d.Links, pair)
	}
	return nil
}
