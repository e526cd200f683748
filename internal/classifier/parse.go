package classifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The model's response schema drifted across prompt revisions: the shot list
// appeared as "recommended_shots" and later briefly as "best_shots", and the
// angle key as both "angle_id" and "angle". The wire structs accept every
// historical shape; everything past ParseRecommendations sees only the
// canonical Recommendation.
type wireResponse struct {
	RecommendedShots []wireShot `json:"recommended_shots"`
	BestShots        []wireShot `json:"best_shots"`
}

type wireShot struct {
	ProductID   string   `json:"product_id"`
	AngleID     string   `json:"angle_id"`
	Angle       string   `json:"angle"`
	FrameID     *string  `json:"frame_id"`
	Score       *float64 `json:"score"`
	Description string   `json:"description"`
	Reason      string   `json:"reason"`
}

// ParseRecommendations validates and normalizes a raw model response for one
// batch. Any schema violation fails the whole batch; a null frame_id is a
// legitimate "no suitable frame" answer and passes through with an empty
// FrameID.
func ParseRecommendations(content string, req Request) ([]Recommendation, error) {
	payload := stripFences(content)

	var resp wireResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("malformed classifier response: %w", err)
	}

	shots := resp.RecommendedShots
	if shots == nil {
		shots = resp.BestShots
	}
	if shots == nil {
		return nil, fmt.Errorf("classifier response carries no recommended shots")
	}

	known := make(map[string]bool, len(req.Frames))
	for _, f := range req.Frames {
		known[f.FrameID] = true
	}

	recs := make([]Recommendation, 0, len(shots))
	for i, s := range shots {
		angle := s.AngleID
		if angle == "" {
			angle = s.Angle
		}
		if s.ProductID == "" || angle == "" {
			return nil, fmt.Errorf("shot %d is missing product or angle", i)
		}

		rec := Recommendation{
			ProductID:   s.ProductID,
			AngleID:     angle,
			Description: s.Description,
			Reason:      s.Reason,
		}
		if s.FrameID != nil && *s.FrameID != "" {
			if !known[*s.FrameID] {
				return nil, fmt.Errorf("shot %d references frame %q not in this batch", i, *s.FrameID)
			}
			rec.FrameID = *s.FrameID
			if s.Score == nil {
				return nil, fmt.Errorf("shot %d recommends a frame without a score", i)
			}
			rec.Score = *s.Score
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// stripFences drops a surrounding markdown code fence, which vision models
// add despite being told not to.
func stripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
