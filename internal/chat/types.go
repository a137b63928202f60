package chat

// Source is one retrieved chunk cited by an answer. Content is a short
// snippet, Score the retrieval similarity in [0, 1] (higher is better).
type Source struct {
	Filename string  `json:"filename"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

// Response is the complete result of answering one question. It is always
// well-formed: failures produce a user-facing Answer with no sources and
// zero confidence instead of an error.
type Response struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
	Question   string   `json:"question"`
}
