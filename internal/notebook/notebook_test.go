package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coachd/internal/extract"
	"github.com/fyrsmithlabs/coachd/internal/patterns"
)

func TestNew_StartsActiveAtIntro(t *testing.T) {
	nb := New("therapist-1", "Dana")

	assert.NotEmpty(t, nb.ID)
	assert.Equal(t, StatusActive, nb.Status)
	assert.Equal(t, "intro", nb.CurrentTopic)
	assert.Empty(t, nb.Messages)
	assert.False(t, nb.HasChanges())
	assert.NotNil(t, nb.Profile.Lifestyle)
}

func TestAddMessage_AppendsInOrder(t *testing.T) {
	nb := New("therapist-1", "Dana")

	first, err := nb.AddMessage(extract.SpeakerAgent, "Welcome back.")
	require.NoError(t, err)
	second, err := nb.AddMessage(extract.SpeakerUser, "Thanks, good to be here.")
	require.NoError(t, err)

	require.Len(t, nb.Messages, 2)
	assert.Equal(t, first.ID, nb.Messages[0].ID)
	assert.Equal(t, second.ID, nb.Messages[1].ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, nb.HasChanges())
}

func TestAdvanceTopic_WalksGraphAndParksAtWrapup(t *testing.T) {
	nb := New("therapist-1", "Dana")

	for _, want := range Topics[1:] {
		require.NoError(t, nb.AdvanceTopic())
		assert.Equal(t, want, nb.CurrentTopic)
	}

	// Advancing past the end stays at wrapup.
	require.NoError(t, nb.AdvanceTopic())
	assert.Equal(t, "wrapup", nb.CurrentTopic)
}

func TestSetTopic_RejectsUnknown(t *testing.T) {
	nb := New("therapist-1", "Dana")

	require.NoError(t, nb.SetTopic("goals"))
	assert.Equal(t, "goals", nb.CurrentTopic)

	err := nb.SetTopic("crypto")
	require.Error(t, err)
	assert.Equal(t, "goals", nb.CurrentTopic)
}

func TestUpdateProfile_OnlyGainsInformation(t *testing.T) {
	nb := New("therapist-1", "Dana")

	require.NoError(t, nb.UpdateProfile(extract.Profile{Name: "Dana", Age: 34}))
	require.NoError(t, nb.UpdateProfile(extract.Profile{Location: "Austin"}))

	assert.Equal(t, "Dana", nb.Profile.Name)
	assert.Equal(t, 34, nb.Profile.Age)
	assert.Equal(t, "Austin", nb.Profile.Location)
}

func TestTerminalNotebook_RejectsAllMutations(t *testing.T) {
	nb := New("therapist-1", "Dana")
	require.NoError(t, nb.setStatus(StatusCompleted))

	_, err := nb.AddMessage(extract.SpeakerUser, "one more thing")
	assert.ErrorIs(t, err, ErrTerminal)
	assert.ErrorIs(t, nb.AddNote("note"), ErrTerminal)
	assert.ErrorIs(t, nb.AdvanceTopic(), ErrTerminal)
	assert.ErrorIs(t, nb.SetTopic("goals"), ErrTerminal)
	assert.ErrorIs(t, nb.UpdateProfile(extract.Profile{Name: "x"}), ErrTerminal)
	assert.ErrorIs(t, nb.SetExtractedData(extract.FinancialData{}), ErrTerminal)
	assert.ErrorIs(t, nb.AttachQualitativeReport(QualitativeReport{}), ErrTerminal)
	assert.ErrorIs(t, nb.AttachQuantitativeReport(QuantitativeReport{}), ErrTerminal)

	// Terminal status itself never transitions again.
	assert.ErrorIs(t, nb.setStatus(StatusAbandoned), ErrTerminal)
	assert.Equal(t, StatusCompleted, nb.Status)
}

func TestReadyForReports_Gate(t *testing.T) {
	nb := New("therapist-1", "Dana")
	assert.False(t, nb.ReadyForReports())

	profile := extract.NewProfile()
	profile.Name = "Dana"
	profile.Age = 34
	for i, category := range patterns.LifestyleCategories {
		if i >= 6 {
			break
		}
		profile.Lifestyle[category] = extract.LifestyleSlot{Preference: "stated"}
	}
	require.NoError(t, nb.UpdateProfile(profile))
	assert.True(t, nb.ReadyForReports())

	// Missing age fails the gate even with every slot filled.
	other := New("therapist-1", "Sam")
	profile.Age = 0
	profile.Name = "Sam"
	require.NoError(t, other.UpdateProfile(profile))
	assert.False(t, other.ReadyForReports())
}

func TestHasReports(t *testing.T) {
	nb := New("therapist-1", "Dana")
	assert.False(t, nb.HasReports())

	require.NoError(t, nb.AttachQuantitativeReport(QuantitativeReport{}))
	assert.True(t, nb.HasReports())
}

func TestTranscriptMessages_MirrorsTranscript(t *testing.T) {
	nb := New("therapist-1", "Dana")
	_, err := nb.AddMessage(extract.SpeakerAgent, "How much is rent?")
	require.NoError(t, err)
	_, err = nb.AddMessage(extract.SpeakerUser, "I pay 1500 a month in rent.")
	require.NoError(t, err)

	msgs := nb.TranscriptMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, extract.SpeakerUser, msgs[1].Speaker)
	assert.Equal(t, "I pay 1500 a month in rent.", msgs[1].Text)
}
