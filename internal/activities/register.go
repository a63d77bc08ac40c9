package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ParseCorpusActivity)
	w.RegisterActivity(a.ListPendingDocumentsActivity)
	w.RegisterActivity(a.AnswerDocumentActivity)
	w.RegisterActivity(a.WriteProjectionsActivity)
	w.RegisterActivity(a.ExtractFieldsActivity)
}
