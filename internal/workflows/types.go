package workflows

type ReviewInput struct {
	// XMLDir, when set, is parsed into TextDir before answering.
	XMLDir     string `json:"xml_dir,omitempty"`
	TextDir    string `json:"text_dir,omitempty"`
	InputDir   string `json:"input_dir"`
	OutputPath string `json:"output_path"`
	// ExtractDir, when set, receives the per-field tables.
	ExtractDir string `json:"extract_dir,omitempty"`
}

type ReviewResult struct {
	Parsed    int      `json:"parsed"`
	Total     int      `json:"total"`
	Done      int      `json:"done"`
	Errored   int      `json:"errored"`
	Failed    int      `json:"failed"`
	Extracted []string `json:"extracted,omitempty"`
}

type ReviewProgress struct {
	Stage       string            `json:"stage"`
	Total       int               `json:"total"`
	Done        int               `json:"done"`
	Errored     int               `json:"errored"`
	Failed      int               `json:"failed"`
	PerDocument map[string]string `json:"per_document_status"`
}
