package ports

import "context"

// RawModel is one discoverable OpenCM document plus where it came from.
// Origin is a source-specific locator (file path, database id) used in
// discovery logs and diagnostics.
type RawModel struct {
	Origin string
	Data   []byte
}

// ModelSource lists raw OpenCM documents for registry discovery. The engine
// itself performs no disk or network I/O; adapters implement this port over
// a directory, a database, or anything else the collaborator keeps models in.
type ModelSource interface {
	List(ctx context.Context) ([]RawModel, error)
}

// ModelStore is a ModelSource that can also persist documents, for
// collaborators that keep a writable model collection.
type ModelStore interface {
	ModelSource
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) (RawModel, error)
	Delete(ctx context.Context, id string) error
}
