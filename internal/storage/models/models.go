package models

import "time"

// Status tracks how far a session has progressed through the pipeline.
// Stages may set any status directly; only the orchestrator is required
// to advance strictly forward.
type Status string

const (
	StatusCreated          Status = "CREATED"
	StatusScrapingComplete Status = "SCRAPING_COMPLETE"
	StatusAnalysisComplete Status = "ANALYSIS_COMPLETE"
	StatusReady            Status = "READY"
	StatusFeedbackReceived Status = "FEEDBACK_RECEIVED"
)

var statusOrder = map[Status]int{
	StatusCreated:          0,
	StatusScrapingComplete: 1,
	StatusAnalysisComplete: 2,
	StatusReady:            3,
	StatusFeedbackReceived: 4,
}

// Ordinal returns the position of the status in the pipeline lifecycle,
// or -1 for an unknown status.
func (s Status) Ordinal() int {
	if ord, ok := statusOrder[s]; ok {
		return ord
	}
	return -1
}

// Advances reports whether moving to next is a forward transition.
func (s Status) Advances(next Status) bool {
	return next.Ordinal() > s.Ordinal()
}

// IsTerminal reports whether no further pipeline stage should run.
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusFeedbackReceived
}

// Session is the central record tracking one company's interview-prep
// pipeline. (SessionID, CreatedAt) uniquely identifies a record; every
// update is addressed by that composite key.
type Session struct {
	SessionID        string            `json:"sessionId"`
	CreatedAt        string            `json:"createdAt"`
	UpdatedAt        string            `json:"updatedAt"`
	Status           Status            `json:"status"`
	CompanyName      string            `json:"companyName"`
	CompanyURL       string            `json:"companyUrl"`
	ScrapedData      *ScrapeSummary    `json:"scrapedData"`
	ParsedDocuments  []ParsedDocument  `json:"parsedDocuments"`
	AnalysisResults  *AnalysisResults  `json:"analysisResults"`
	InterviewerBrief map[string]any    `json:"interviewerBrief"`
	IntervieweePack  map[string]any    `json:"intervieweePacket"`
	Feedback         *Feedback         `json:"feedback"`
	Metadata         map[string]string `json:"metadata"`
}

// FieldUpdates is a typed partial update for a session. Nil fields are
// left untouched by the store; set fields replace the stored value.
// Using explicit optional fields instead of a free-form map keeps
// unsupported field names from reaching the store.
type FieldUpdates struct {
	Status           *Status
	CompanyName      *string
	CompanyURL       *string
	ScrapedData      *ScrapeSummary
	ParsedDocuments  *[]ParsedDocument
	AnalysisResults  *AnalysisResults
	InterviewerBrief *map[string]any
	IntervieweePack  *map[string]any
	Feedback         *Feedback
	Metadata         *map[string]string
}

// IsEmpty reports whether the update carries no field changes. An empty
// update still refreshes updatedAt.
func (u FieldUpdates) IsEmpty() bool {
	return u.Status == nil && u.CompanyName == nil && u.CompanyURL == nil &&
		u.ScrapedData == nil && u.ParsedDocuments == nil && u.AnalysisResults == nil &&
		u.InterviewerBrief == nil && u.IntervieweePack == nil && u.Feedback == nil &&
		u.Metadata == nil
}

// Heading is a single H1-H3 heading captured from a scraped page.
type Heading struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// ScrapeSummary aggregates the successful pages of one scrape run.
type ScrapeSummary struct {
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	CombinedContent    string    `json:"combined_content"`
	Headings           []Heading `json:"headings"`
	PagesScraped       int       `json:"pages_scraped"`
	TotalContentLength int       `json:"total_content_length"`
}

// ParsedDocument records one document-extraction attempt. The list on the
// session is append-only: re-parsing the same file appends a new entry.
type ParsedDocument struct {
	Filename   string  `json:"filename"`
	Method     string  `json:"method"`
	TextLength int     `json:"text_length"`
	BlobKey    string  `json:"blob_key"`
	Confidence float64 `json:"confidence,omitempty"`
	PageCount  int     `json:"page_count,omitempty"`
	Error      string  `json:"error,omitempty"`

	// TextPreview is returned to the caller of the parse stage but
	// never persisted; the full text lives in blob storage.
	TextPreview string `json:"-"`
}

// Entity is a named entity detected by the NLP backend.
type Entity struct {
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// KeyPhrase is a key phrase detected by the NLP backend.
type KeyPhrase struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Sentiment classifications. UNKNOWN signals a backend failure rather
// than a neutral reading.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
	SentimentMixed    = "MIXED"
	SentimentUnknown  = "UNKNOWN"
)

// Sentiment is the dominant sentiment of analyzed text plus per-class
// confidence. Scores is empty when no backend call was made or it failed.
type Sentiment struct {
	Sentiment string             `json:"sentiment"`
	Scores    map[string]float64 `json:"scores"`
	Error     string             `json:"error,omitempty"`
}

// AnalysisResults is the merged output of the language analyzer.
type AnalysisResults struct {
	Entities   []Entity    `json:"entities"`
	KeyPhrases []KeyPhrase `json:"key_phrases"`
	Sentiment  Sentiment   `json:"sentiment"`
}

// Question categories and depths used by the generation service.
const (
	CategoryRapport       = "rapport"
	CategoryBusinessModel = "business_model"
	CategoryMarket        = "market"
	CategoryCulture       = "culture"
	CategoryChallenges    = "challenges"
	CategoryCorrections   = "corrections"

	DepthSurface = "surface"
	DepthDeep    = "deep"
)

// Question is one generated interview question. IDs are unique within a
// single generation cycle only.
type Question struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Category  string   `json:"category"`
	Depth     string   `json:"depth"`
	Rationale string   `json:"rationale"`
	FollowUps []string `json:"follow_ups"`
}

// QuestionRef is the simplified projection shown to the interviewee.
type QuestionRef struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Topic    string `json:"topic"`
}

// Ref projects a question into its interviewee-facing form.
func (q Question) Ref() QuestionRef {
	return QuestionRef{ID: q.ID, Question: q.Question, Topic: q.Category}
}

// Correction is one interviewee correction to an AI-generated finding.
type Correction struct {
	Field     string `json:"field"`
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
}

// Feedback is the interviewee's pre-interview submission.
type Feedback struct {
	Corrections       []Correction `json:"corrections"`
	SelectedQuestions []string     `json:"selectedQuestions"`
	Notes             string       `json:"notes"`
	SubmittedAt       string       `json:"submittedAt"`
}

// Timestamp formats t the way session timestamps are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
