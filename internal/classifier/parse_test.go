package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchRequest(ids ...string) Request {
	req := Request{}
	for i, id := range ids {
		req.Frames = append(req.Frames, BatchFrame{
			FrameID:          id,
			SequencePosition: i,
			TotalCandidates:  len(ids),
		})
	}
	return req
}

func TestParseRecommendations(t *testing.T) {
	content := `{"recommended_shots":[
		{"product_id":"p1","angle_id":"front","frame_id":"f1","score":80,"description":"mug, front","reason":"sharp and centered"},
		{"product_id":"p1","angle_id":"back","frame_id":null,"reason":"never shown"}
	]}`

	recs, err := ParseRecommendations(content, batchRequest("f1", "f2"))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, Recommendation{
		ProductID:   "p1",
		AngleID:     "front",
		FrameID:     "f1",
		Score:       80,
		Description: "mug, front",
		Reason:      "sharp and centered",
	}, recs[0])

	// null frame_id is "no suitable frame", not an error.
	assert.Empty(t, recs[1].FrameID)
	assert.Equal(t, "back", recs[1].AngleID)
}

func TestParseRecommendationsLegacyShape(t *testing.T) {
	content := `{"best_shots":[
		{"product_id":"p1","angle":"side","frame_id":"f2","score":55}
	]}`

	recs, err := ParseRecommendations(content, batchRequest("f1", "f2"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "side", recs[0].AngleID)
	assert.Equal(t, "f2", recs[0].FrameID)
}

func TestParseRecommendationsFencedJSON(t *testing.T) {
	content := "```json\n{\"recommended_shots\":[{\"product_id\":\"p1\",\"angle_id\":\"hero\",\"frame_id\":\"f1\",\"score\":70}]}\n```"

	recs, err := ParseRecommendations(content, batchRequest("f1"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "hero", recs[0].AngleID)
}

func TestParseRecommendationsMalformed(t *testing.T) {
	_, err := ParseRecommendations(`the best frame is probably f1`, batchRequest("f1"))
	assert.Error(t, err)
}

func TestParseRecommendationsMissingShotList(t *testing.T) {
	_, err := ParseRecommendations(`{"shots":[]}`, batchRequest("f1"))
	assert.Error(t, err)
}

func TestParseRecommendationsUnknownFrame(t *testing.T) {
	content := `{"recommended_shots":[{"product_id":"p1","angle_id":"front","frame_id":"f9","score":80}]}`
	_, err := ParseRecommendations(content, batchRequest("f1", "f2"))
	assert.ErrorContains(t, err, "f9")
}

func TestParseRecommendationsMissingProductOrAngle(t *testing.T) {
	_, err := ParseRecommendations(`{"recommended_shots":[{"angle_id":"front","frame_id":"f1","score":1}]}`, batchRequest("f1"))
	assert.Error(t, err)

	_, err = ParseRecommendations(`{"recommended_shots":[{"product_id":"p1","frame_id":"f1","score":1}]}`, batchRequest("f1"))
	assert.Error(t, err)
}

func TestParseRecommendationsFrameWithoutScore(t *testing.T) {
	_, err := ParseRecommendations(`{"recommended_shots":[{"product_id":"p1","angle_id":"front","frame_id":"f1"}]}`, batchRequest("f1"))
	assert.Error(t, err)
}
