package export

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/williamfzc/gossiphs/internal/graph"
)

const neo4jBatchSize = 500

// Neo4jExporter pushes a built Graph into Neo4j as (:File)-[:REFERENCES
// {score, symbols}]->(:File), grounded on maraichr/codegraph's
// internal/graph.Client (same driver, same batched
// ExecuteWrite-per-chunk shape).
type Neo4jExporter struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jExporter opens a driver against uri with basic auth.
func NewNeo4jExporter(uri, user, password string) (*Neo4jExporter, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Neo4jExporter{driver: driver}, nil
}

// Close releases the underlying driver.
func (e *Neo4jExporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

const upsertFileNode = `
UNWIND $files AS file
MERGE (f:File {path: file.path})
SET f.language = file.language
`

const upsertReferenceEdge = `
UNWIND $edges AS edge
MATCH (a:File {path: edge.from})
MATCH (b:File {path: edge.to})
MERGE (a)-[r:REFERENCES]->(b)
SET r.score = edge.score, r.symbols = edge.symbols
`

// Export writes every file node and REFERENCES edge in g, batching
// writes the way SyncSymbols/SyncEdges do in the reference client.
func (e *Neo4jExporter) Export(ctx context.Context, g *graph.Graph) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	files := g.Files()
	fileParams := make([]map[string]any, len(files))
	for i, f := range files {
		fileParams[i] = map[string]any{"path": f.Path, "language": f.Language}
	}
	for i := 0; i < len(fileParams); i += neo4jBatchSize {
		end := min(i+neo4jBatchSize, len(fileParams))
		batch := fileParams[i:end]
		_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, upsertFileNode, map[string]any{"files": batch})
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("sync file nodes batch %d: %w", i/neo4jBatchSize, err)
		}
	}

	var edgeParams []map[string]any
	for _, f := range files {
		for _, rel := range g.RelatedFiles(f.Path) {
			edgeParams = append(edgeParams, map[string]any{
				"from":    f.Path,
				"to":      rel.Name,
				"score":   rel.Score,
				"symbols": rel.RelatedSymbols,
			})
		}
	}
	for i := 0; i < len(edgeParams); i += neo4jBatchSize {
		end := min(i+neo4jBatchSize, len(edgeParams))
		batch := edgeParams[i:end]
		_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, upsertReferenceEdge, map[string]any{"edges": batch})
			return nil, err
		})
		if err != nil {
			return fmt.Errorf("sync reference edges batch %d: %w", i/neo4jBatchSize, err)
		}
	}
	return nil
}
