package domain

// IdentifyInput asks for the identification of a raw number
type IdentifyInput struct {
	Number string `json:"number" validate:"required,max=64" example:"+1 (987) 654-3210"`
}

// Identification is the read model returned by identify
type Identification struct {
	Found       bool       `json:"found"`
	Type        ResultType `json:"type" example:"CROWD"`
	Number      string     `json:"number,omitempty" example:"9876543210"`
	Name        string     `json:"name,omitempty" example:"Jon"`
	Photo       string     `json:"photo,omitempty"`
	Verified    bool       `json:"verified,omitempty"`
	IsSpam      bool       `json:"is_spam"`
	SpamScore   int        `json:"spam_score,omitempty" example:"10"`
	SpamReports int        `json:"spam_reports,omitempty" example:"5"`
	Tags        []string   `json:"tags,omitempty"`
	Location    string     `json:"location,omitempty" example:"Springfield"`
}

// ReportInput casts one spam vote. ReporterID comes from the bearer identity
type ReportInput struct {
	Number     string `json:"number"   validate:"required,max=64" example:"9876543210"`
	Tag        string `json:"tag"      validate:"required,max=64" example:"Telemarketer"`
	Comment    string `json:"comment,omitempty"  validate:"omitempty,max=500"`
	Location   string `json:"location,omitempty" validate:"omitempty,max=120" example:"Springfield"`
	ReporterID string `json:"-"`
}

// ReportOutput is the result of a successful report
type ReportOutput struct {
	Success    bool `json:"success"`
	TotalVotes int  `json:"total_votes" example:"6"`
}

// RetractInput removes the caller's vote on a number
type RetractInput struct {
	Number     string `json:"number" validate:"required,max=64" example:"9876543210"`
	ReporterID string `json:"-"`
}

// RetractOutput carries the recomputed score
type RetractOutput struct {
	Success  bool `json:"success"`
	NewScore int  `json:"new_score" example:"8"`
}

// ContactEntry is one address book entry offered for name resolution
type ContactEntry struct {
	Number string `json:"number" validate:"required,max=64"`
	Name   string `json:"name"   validate:"required,max=120"`
}

// SyncInput is a bulk contact name upload
type SyncInput struct {
	Entries []ContactEntry `json:"entries" validate:"required,max=5000,dive"`
}

// SyncOutput reports how many entries were accepted for processing
type SyncOutput struct {
	Count int `json:"count" example:"42"`
}

// CurateInput sets or clears a curated score
type CurateInput struct {
	Number string `json:"number" validate:"required,max=64"`
	Score  *int   `json:"score"  validate:"omitempty,min=0,max=100"`
}
