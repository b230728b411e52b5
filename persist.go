package dataflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/dataflow/pkg/adapters/file"
	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/google/uuid"
)

// Report describes the outcome of a restore.
type Report struct {
	Nodes   int
	Links   int
	Skipped []error
}

// Snapshot encodes the whole graph: nodes in id order, then links in
// connection order as [output, input] pairs.
func (e *Engine) Snapshot() *domain.Document {
	doc := &domain.Document{
		Version:  domain.DocumentVersion,
		Revision: uuid.NewString(),
		Nodes:    []domain.NodeRecord{},
		Links:    [][]int{},
	}
	for _, n := range e.Nodes() {
		doc.Nodes = append(doc.Nodes, domain.Record(n))
	}
	for _, l := range e.Links() {
		doc.Links = append(doc.Links, []int{int(l.From), int(l.To)})
	}
	return doc
}

// Restore replaces the graph with the content of doc.
//
// Nodes are rebuilt in document order through their kind's deserializer;
// restored nodes are not initialised again. A node whose kind is unknown or
// whose record cannot be rebuilt is skipped, and so is any link that cannot
// be re-established. The identity counter continues after the highest
// identity found in the document.
//
// Entries that could not be decoded when the document was read are reported
// as skipped too. A document that is nil, sealed, or carries an unsupported
// version is rejected and the current graph is kept.
func (e *Engine) Restore(doc *domain.Document) (Report, error) {
	var report Report
	if doc == nil {
		return report, fmt.Errorf("restore: nil document: %w", domain.ErrMalformedDocument)
	}
	if doc.Version != "" && doc.Version != domain.DocumentVersion {
		return report, fmt.Errorf("restore: unsupported version %q: %w", doc.Version, domain.ErrMalformedDocument)
	}
	if doc.Sealed != "" {
		return report, fmt.Errorf("restore: document is sealed, an encryption key is required: %w", domain.ErrMalformedDocument)
	}

	start := time.Now()
	e.Clear()

	for _, err := range doc.DecodeErrors() {
		report.Skipped = append(report.Skipped, err)
		e.logger.Warn("skipping entry", "error", err)
	}

	next := 0
	bump := func(id int) {
		if id+1 > next {
			next = id + 1
		}
	}
	for i, rec := range doc.Nodes {
		bump(int(rec.ID))
		for _, s := range rec.Inputs {
			bump(int(s.ID))
		}
		for _, s := range rec.Outputs {
			bump(int(s.ID))
		}

		if err := e.restoreNode(rec); err != nil {
			err = fmt.Errorf("node #%d (%s %d): %w", i, rec.Key, rec.ID, err)
			report.Skipped = append(report.Skipped, err)
			e.logger.Warn("skipping node", "error", err)
			continue
		}
		report.Nodes++
	}
	e.ids.Restore(next)

	for i, link := range doc.Links {
		from, to, ok := domain.Pair(link)
		if !ok {
			err := fmt.Errorf("link #%d: %v is not a pair: %w", i, link, domain.ErrMalformedDocument)
			report.Skipped = append(report.Skipped, err)
			e.logger.Warn("skipping link", "error", err)
			continue
		}
		if _, ok := e.AddEdge(from, to); !ok {
			err := fmt.Errorf("link #%d: cannot connect %d -> %d", i, from, to)
			report.Skipped = append(report.Skipped, err)
			e.logger.Warn("skipping link", "error", err)
			continue
		}
		report.Links++
	}

	e.metrics.Loaded(time.Since(start), len(report.Skipped))
	e.observe()
	e.logger.Info("graph restored",
		"nodes", report.Nodes, "links", report.Links, "skipped", len(report.Skipped),
		"revision", doc.Revision)
	return report, nil
}

func (e *Engine) restoreNode(rec domain.NodeRecord) error {
	deserialize, err := e.registry.NodeDeserializer(rec.Key)
	if err != nil {
		return err
	}
	node, err := deserialize(e, rec)
	if err != nil {
		return err
	}
	if node == nil {
		return fmt.Errorf("deserializer returned nil: %w", domain.ErrMalformedDocument)
	}
	if err := e.attach(node); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrMalformedDocument)
	}
	e.metrics.NodeCreated(string(rec.Key))
	return nil
}

// Save stores a snapshot of the graph under name.
func (e *Engine) Save(ctx context.Context, name string) error {
	if e.store == nil {
		return domain.ErrNoStore
	}
	unlock, err := e.lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.store.Save(ctx, name, e.Snapshot()); err != nil {
		return fmt.Errorf("failed to save graph %q: %w", name, err)
	}
	e.logger.Info("graph saved", "name", name, "nodes", len(e.nodes))
	return nil
}

// Load replaces the graph with the one stored under name.
// When the store fails the current graph is left untouched.
func (e *Engine) Load(ctx context.Context, name string) (Report, error) {
	if e.store == nil {
		return Report{}, domain.ErrNoStore
	}
	unlock, err := e.lock(ctx, name)
	if err != nil {
		return Report{}, err
	}
	defer unlock()

	doc, err := e.store.Load(ctx, name)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load graph %q: %w", name, err)
	}
	return e.Restore(doc)
}

// SaveFile writes a snapshot to path as JSON, or YAML for .yaml/.yml paths.
func (e *Engine) SaveFile(path string) error {
	return file.WriteDocument(path, e.Snapshot())
}

// LoadFile replaces the graph with the document at path.
func (e *Engine) LoadFile(path string) (Report, error) {
	doc, err := file.ReadDocument(path)
	if err != nil {
		return Report{}, err
	}
	return e.Restore(doc)
}

func (e *Engine) lock(ctx context.Context, name string) (func(), error) {
	if e.locker == nil {
		return func() {}, nil
	}
	release, err := e.locker.Lock(ctx, "graph:"+name, e.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock graph %q: %w", name, err)
	}
	return func() {
		// Background so an expired ctx still releases the lock.
		if err := release(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warn("failed to release graph lock", "name", name, "error", err)
		}
	}, nil
}
