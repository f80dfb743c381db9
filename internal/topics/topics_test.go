package topics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toinevv/seo-system-blank/internal/models"
)

type fakeGateway struct {
	unused      *models.Topic
	reusable    *models.Topic
	inserted    *models.Topic
	scan        *models.WebsiteScan
	markUsedErr error
	markedID    string
	markedMax   int
}

func (f *fakeGateway) FindUnusedTopic(ctx context.Context, websiteID string) (*models.Topic, error) {
	return f.unused, nil
}

func (f *fakeGateway) FindReusableTopic(ctx context.Context, websiteID string, maxUses int) (*models.Topic, error) {
	return f.reusable, nil
}

func (f *fakeGateway) InsertTopic(ctx context.Context, topic *models.Topic) (*models.Topic, error) {
	f.inserted = topic
	topic.ID = "minted-1"
	return topic, nil
}

func (f *fakeGateway) MarkTopicUsed(ctx context.Context, topicID string, maxUses int) error {
	f.markedID = topicID
	f.markedMax = maxUses
	return f.markUsedErr
}

func (f *fakeGateway) GetWebsiteScan(ctx context.Context, websiteID string) (*models.WebsiteScan, error) {
	return f.scan, nil
}

func TestNextTopicPrefersUnused(t *testing.T) {
	gw := &fakeGateway{
		unused:   &models.Topic{ID: "u1", Title: "Unused"},
		reusable: &models.Topic{ID: "r1", Title: "Reusable"},
	}
	e := New(gw)
	w := &models.Website{ID: "w1", Topics: models.TopicPolicy{MaxTopicUses: 3}}

	got, err := e.NextTopic(context.Background(), w, "", "")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)
}

func TestNextTopicFallsBackToReusable(t *testing.T) {
	gw := &fakeGateway{reusable: &models.Topic{ID: "r1"}}
	e := New(gw)
	w := &models.Website{ID: "w1", Topics: models.TopicPolicy{MaxTopicUses: 3}}

	got, err := e.NextTopic(context.Background(), w, "", "")
	require.NoError(t, err)
	require.Equal(t, "r1", got.ID)
}

func TestNextTopicSkipsReusableWhenMaxUsesIsOne(t *testing.T) {
	gw := &fakeGateway{reusable: &models.Topic{ID: "r1"}}
	e := New(gw)
	w := &models.Website{ID: "w1", Topics: models.TopicPolicy{MaxTopicUses: 1}}

	got, err := e.NextTopic(context.Background(), w, "", "")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestNextTopicReturnsNoneWithoutAutoGenerate(t *testing.T) {
	gw := &fakeGateway{}
	e := New(gw)
	w := &models.Website{ID: "w1", Topics: models.TopicPolicy{MaxTopicUses: 1, AutoGenerateTopics: false}}

	got, err := e.NextTopic(context.Background(), w, "some-key", "")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMarkUsedDelegatesToStore(t *testing.T) {
	gw := &fakeGateway{}
	e := New(gw)
	err := e.MarkUsed(context.Background(), &models.Topic{ID: "t1"}, 3)
	require.NoError(t, err)
	require.Equal(t, "t1", gw.markedID)
	require.Equal(t, 3, gw.markedMax)
}

func TestSuggestionToTopicFallsBackInvalidIntent(t *testing.T) {
	topic := suggestionToTopic("w1", aiTopicSuggestion{
		Title:        "best budget laptops",
		SearchIntent: "not-a-real-intent",
		Timeliness:   "not-a-real-timeliness",
		FormatHint:   "not-a-real-format",
	}, models.SourceAIGenerated)

	require.Equal(t, models.IntentCommercial, topic.SearchIntent)
	require.Equal(t, models.TimelinessEvergreen, topic.Timeliness)
	require.Equal(t, "", topic.FormatHint)
}

func TestSuggestionToTopicKeepsValidFormatHint(t *testing.T) {
	topic := suggestionToTopic("w1", aiTopicSuggestion{
		Title:      "how to wax a surfboard",
		FormatHint: "how_to_guide",
	}, models.SourceAIGenerated)
	require.Equal(t, "how_to_guide", topic.FormatHint)
}
