package graphstore

// buildVectorQuery generates the parameterized Cypher for a vector index
// nearest-neighbor lookup. Parameters are bound as $index, $k, and $vector
// to keep caller input out of the query text.
//
// The query yields one row per passage:
//
//	CALL db.index.vector.queryNodes($index, $k, $vector)
//	YIELD node, score
//	RETURN node.text AS text, node.sourceId AS sourceId, score
//	ORDER BY score DESC
func buildVectorQuery(index string, vector []float32, k int) (string, map[string]any) {
	cypher := "CALL db.index.vector.queryNodes($index, $k, $vector)\n" +
		"YIELD node, score\n" +
		"RETURN node.text AS text, node.sourceId AS sourceId, score\n" +
		"ORDER BY score DESC"

	// The driver speaks float64; widen the embedding once at the boundary.
	widened := make([]float64, len(vector))
	for i, v := range vector {
		widened[i] = float64(v)
	}

	params := map[string]any{
		"index":  index,
		"k":      k,
		"vector": widened,
	}

	return cypher, params
}
