package domain

// Outcome is the terminal result of extracting audio for one request.
// Succeeded outcomes carry a FilePath and no ErrorMessage; failed ones the reverse.
type Outcome struct {
	URL          string `json:"url"`
	Succeeded    bool   `json:"succeeded"`
	FilePath     string `json:"file_path,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewSucceededOutcome creates an outcome for a request whose audio was produced at filePath
func NewSucceededOutcome(url, filePath string) Outcome {
	return Outcome{
		URL:       url,
		Succeeded: true,
		FilePath:  filePath,
	}
}

// NewFailedOutcome creates an outcome for a request that failed with message
func NewFailedOutcome(url, message string) Outcome {
	if message == "" {
		message = "unknown error"
	}
	return Outcome{
		URL:          url,
		Succeeded:    false,
		ErrorMessage: message,
	}
}

// State returns the terminal state the outcome represents
func (o Outcome) State() RequestState {
	if o.Succeeded {
		return StateSucceeded
	}
	return StateFailed
}

// Valid checks the success/failure field invariant
func (o Outcome) Valid() bool {
	if o.Succeeded {
		return o.FilePath != "" && o.ErrorMessage == ""
	}
	return o.FilePath == "" && o.ErrorMessage != ""
}

// Summary counts outcomes of a batch
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize counts succeeded and failed outcomes
func Summarize(outcomes []Outcome) Summary {
	summary := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Succeeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// AllSucceeded reports whether the batch had no failures
func (s Summary) AllSucceeded() bool {
	return s.Failed == 0
}
