package models

// AskRequest is bound from the ask_question form.
type AskRequest struct {
	Question string `form:"question"`
	UUID     string `form:"uuid"`
}

// AskResponse is returned by POST /ask_question.
type AskResponse struct {
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
	Metadata []ChunkMetadata `json:"metadata"`
}

// Answer is the generator output: the buffered completion plus the
// provenance of every chunk used as context, in retrieval order.
type Answer struct {
	Text    string
	Sources []ChunkMetadata
}
