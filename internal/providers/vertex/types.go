package vertex

// Prediction is one generated artifact reference returned by a model.
type Prediction struct {
	GcsURI   string `json:"gcsUri"`
	MimeType string `json:"mimeType"`
	Prompt   string `json:"prompt,omitempty"`
}

// PredictionResponse is the shared response shape of synchronous predict
// calls (imagen, lyria, upscale).
type PredictionResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Operation is the state of a long-running video generation.
type Operation struct {
	Name     string           `json:"name"`
	Done     bool             `json:"done"`
	Response *OperationResult `json:"response,omitempty"`
	Error    *OperationError  `json:"error,omitempty"`
}

// OperationResult carries the predictions of a completed operation.
type OperationResult struct {
	Videos []Prediction `json:"videos"`
}

// OperationError is the terminal error of a failed operation.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StoredSpeech describes a synthesized speech artifact already persisted to
// the artifact bucket.
type StoredSpeech struct {
	AudioURI string
	FilePath string
}
