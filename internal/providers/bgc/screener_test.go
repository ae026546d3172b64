// internal/providers/bgc/screener_test.go
package bgc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScreeningQuery(t *testing.T) {
	query := buildScreeningQuery("11122233344", "MARIA SOUZA SILVA")

	boolQuery := query["query"].(map[string]interface{})["bool"].(map[string]interface{})
	should := boolQuery["should"].([]interface{})

	require.Len(t, should, 2)
	assert.Equal(t, 1, boolQuery["minimum_should_match"])

	term := should[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "11122233344", term["tax_id"])

	match := should[1].(map[string]interface{})["match"].(map[string]interface{})["full_name"].(map[string]interface{})
	assert.Equal(t, "MARIA SOUZA SILVA", match["query"])
	assert.Equal(t, 1, match["fuzziness"])
}

func TestBuildScreeningQuery_TaxIDOnly(t *testing.T) {
	query := buildScreeningQuery("11122233344", "")

	boolQuery := query["query"].(map[string]interface{})["bool"].(map[string]interface{})
	should := boolQuery["should"].([]interface{})

	require.Len(t, should, 1)
	_, hasTerm := should[0].(map[string]interface{})["term"]
	assert.True(t, hasTerm)
}

func TestBuildScreeningQuery_CountsOnly(t *testing.T) {
	query := buildScreeningQuery("11122233344", "MARIA")

	assert.Equal(t, 0, query["size"], "screening only needs hit counts, not documents")
}
