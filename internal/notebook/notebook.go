// Package notebook holds the session notebook aggregate and its manager.
//
// A notebook is the single source of truth for one coaching session: the
// ordered transcript, therapist notes, topic position, the sparse client
// profile, and any generated report artifacts. Extracted financial data is
// a recomputable cache over the transcript, never authoritative.
package notebook

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/coachd/internal/extract"
)

// Status is the session lifecycle state. Once a notebook leaves active the
// status is terminal and all mutations are rejected.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// ErrTerminal is returned by mutating methods once a session has completed
// or been abandoned.
var ErrTerminal = errors.New("session is no longer active")

// Topics is the fixed conversation topic graph, walked front to back. The
// session starts at intro and parks at wrapup.
var Topics = []string{
	"intro",
	"income",
	"housing",
	"food",
	"transport",
	"fitness",
	"entertainment",
	"subscriptions",
	"travel",
	"goals",
	"wrapup",
}

// Message is one transcript turn. Messages are append-only and ordered.
type Message struct {
	ID        string          `json:"id"`
	Speaker   extract.Speaker `json:"speaker"`
	Text      string          `json:"text"`
	Timestamp time.Time       `json:"timestamp"`
}

// TherapistNote is a timestamped observation the coach attaches to the
// session, tagged with the topic under discussion.
type TherapistNote struct {
	Time  time.Time `json:"time"`
	Note  string    `json:"note"`
	Topic string    `json:"topic"`
}

// Notebook is the session aggregate.
type Notebook struct {
	ID            string                 `json:"id"`
	TherapistID   string                 `json:"therapistId"`
	ClientName    string                 `json:"clientName"`
	Status        Status                 `json:"status"`
	CurrentTopic  string                 `json:"currentTopic"`
	Messages      []Message              `json:"messages"`
	Notes         []TherapistNote        `json:"notes"`
	Profile       extract.Profile        `json:"profile"`
	ExtractedData *extract.FinancialData `json:"extractedData,omitempty"`
	Qualitative   *QualitativeReport     `json:"qualitativeReport,omitempty"`
	Quantitative  *QuantitativeReport    `json:"quantitativeReport,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`

	dirty bool
}

// New creates an active notebook positioned at the intro topic.
func New(therapistID, clientName string) *Notebook {
	now := time.Now().UTC()
	return &Notebook{
		ID:           uuid.NewString(),
		TherapistID:  therapistID,
		ClientName:   clientName,
		Status:       StatusActive,
		CurrentTopic: Topics[0],
		Messages:     []Message{},
		Notes:        []TherapistNote{},
		Profile:      extract.NewProfile(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Terminal reports whether the session has left the active state.
func (n *Notebook) Terminal() bool {
	return n.Status != StatusActive
}

func (n *Notebook) touch() {
	n.UpdatedAt = time.Now().UTC()
	n.dirty = true
}

// AddMessage appends a transcript turn and returns it.
func (n *Notebook) AddMessage(speaker extract.Speaker, text string) (Message, error) {
	if n.Terminal() {
		return Message{}, ErrTerminal
	}
	msg := Message{
		ID:        uuid.NewString(),
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	n.Messages = append(n.Messages, msg)
	n.touch()
	return msg, nil
}

// AddNote appends a therapist note tagged with the current topic.
func (n *Notebook) AddNote(note string) error {
	if n.Terminal() {
		return ErrTerminal
	}
	n.Notes = append(n.Notes, TherapistNote{
		Time:  time.Now().UTC(),
		Note:  note,
		Topic: n.CurrentTopic,
	})
	n.touch()
	return nil
}

// AdvanceTopic moves to the next topic in the graph. At wrapup the topic
// stays put.
func (n *Notebook) AdvanceTopic() error {
	if n.Terminal() {
		return ErrTerminal
	}
	for i, topic := range Topics {
		if topic == n.CurrentTopic {
			if i+1 < len(Topics) {
				n.CurrentTopic = Topics[i+1]
				n.touch()
			}
			return nil
		}
	}
	n.CurrentTopic = Topics[0]
	n.touch()
	return nil
}

// SetTopic jumps directly to a named topic.
func (n *Notebook) SetTopic(topic string) error {
	if n.Terminal() {
		return ErrTerminal
	}
	for _, t := range Topics {
		if t == topic {
			n.CurrentTopic = topic
			n.touch()
			return nil
		}
	}
	return fmt.Errorf("unknown topic %q", topic)
}

// UpdateProfile shallow-merges a partial profile into the notebook's:
// non-zero incoming fields overwrite, absent fields preserve. The profile
// only ever gains information this way.
func (n *Notebook) UpdateProfile(in extract.Profile) error {
	if n.Terminal() {
		return ErrTerminal
	}
	n.Profile.Merge(in)
	n.touch()
	return nil
}

// SetExtractedData replaces the derived financial-data cache.
func (n *Notebook) SetExtractedData(data extract.FinancialData) error {
	if n.Terminal() {
		return ErrTerminal
	}
	n.ExtractedData = &data
	n.touch()
	return nil
}

// AttachQualitativeReport stores the qualitative report artifact.
func (n *Notebook) AttachQualitativeReport(r QualitativeReport) error {
	if n.Terminal() {
		return ErrTerminal
	}
	n.Qualitative = &r
	n.touch()
	return nil
}

// AttachQuantitativeReport stores the quantitative report artifact.
func (n *Notebook) AttachQuantitativeReport(r QuantitativeReport) error {
	if n.Terminal() {
		return ErrTerminal
	}
	n.Quantitative = &r
	n.touch()
	return nil
}

// HasChanges reports whether the notebook has unsaved mutations.
func (n *Notebook) HasChanges() bool {
	return n.dirty
}

// HasReports reports whether any report artifact is attached.
func (n *Notebook) HasReports() bool {
	return n.Qualitative != nil || n.Quantitative != nil
}

// ReadyForReports is the caller-side gate for report generation: enough of
// the client picture must be filled in. It requires a name, an age, and at
// least six of the seven lifestyle slots.
func (n *Notebook) ReadyForReports() bool {
	return n.Profile.Name != "" &&
		n.Profile.Age > 0 &&
		n.Profile.FilledLifestyleSlots() >= 6
}

// TranscriptMessages converts the notebook transcript into the extractor's
// input shape.
func (n *Notebook) TranscriptMessages() []extract.Message {
	out := make([]extract.Message, 0, len(n.Messages))
	for _, m := range n.Messages {
		out = append(out, extract.Message{
			Speaker:   m.Speaker,
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	return out
}

func (n *Notebook) markClean() {
	n.dirty = false
}

func (n *Notebook) setStatus(s Status) error {
	if n.Terminal() {
		return ErrTerminal
	}
	n.Status = s
	n.touch()
	return nil
}
