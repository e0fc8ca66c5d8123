package dto

// Recommendation variants. The endpoint always returns one of these types,
// never a raw error, even when upstream dependencies are degraded.
const (
	RecommendationTypeNone         = "no_recommendation"
	RecommendationTypeCluster      = "cluster_recommendation"
	RecommendationTypeCodeAnalysis = "code_analysis_recommendation"
)

// RecommendedLesson is one catalog entry referenced by a recommendation.
type RecommendedLesson struct {
	ID      uint   `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
}

// Recommendation is the response of GET /recommendations/:user_id.
//
// Type == no_recommendation: only Message is set.
// Type == cluster_recommendation: Lessons lists every distinct lesson in the
// dominant error cluster.
// Type == code_analysis_recommendation: MissingConstruct names the expected
// construct absent from the student's code, Lesson points at the lesson to
// revisit and Theory carries its explanation text when available.
type Recommendation struct {
	Type             string              `json:"type"`
	Message          string              `json:"message"`
	MissingConstruct string              `json:"missing_construct,omitempty"`
	Lesson           *RecommendedLesson  `json:"lesson,omitempty"`
	Theory           string              `json:"theory,omitempty"`
	Lessons          []RecommendedLesson `json:"lessons,omitempty"`
}
