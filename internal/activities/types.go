package activities

type ParseCorpusInput struct {
	XMLDir  string `json:"xml_dir"`
	TextDir string `json:"text_dir"`
}

type ParseCorpusOutput struct {
	Documents int `json:"documents"`
}

type ListPendingDocumentsInput struct {
	InputDir   string `json:"input_dir"`
	OutputPath string `json:"output_path"`
}

type ListPendingDocumentsOutput struct {
	Paths []string `json:"paths"`
}

type AnswerDocumentInput struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
}

type AnswerDocumentOutput struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

type WriteProjectionsInput struct {
	OutputPath string `json:"output_path"`
}

type ExtractFieldsInput struct {
	OutputPath string `json:"output_path"`
	ExtractDir string `json:"extract_dir"`
}

type ExtractFieldsOutput struct {
	Paths []string `json:"paths"`
}
