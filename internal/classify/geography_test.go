package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/crehub/news-digest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geoInputs(titles ...string) []GeoInput {
	out := make([]GeoInput, len(titles))
	for i, t := range titles {
		out[i] = GeoInput{Input: Input{Title: t}}
	}
	return out
}

func TestGeoClassifier_CorrectsHallucinatedCounty(t *testing.T) {
	client := &fakeClient{replies: []reply{
		{body: `[["Miami-Dade County"]]`},
		{body: `[["Miami-Dade"]]`},
	}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	got, err := g.ClassifyCounties(context.Background(), geoInputs("Sunset Gardens wins financing"))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Miami-Dade"}}, got)
	require.Len(t, client.requests, 2)
	assert.Contains(t, client.requests[1].Prompt, `"Miami-Dade County"`)
	assert.Contains(t, client.requests[1].Prompt, "exactly 1 arrays")
}

func TestGeoClassifier_RetryContainsOnlyFlaggedArticles(t *testing.T) {
	client := &fakeClient{replies: []reply{
		{body: `[["Broward"],["Dade County"],["Orange"]]`},
		{body: `[["Miami-Dade"]]`},
	}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	got, err := g.ClassifyCounties(context.Background(), geoInputs("Broward deal", "Dade deal", "Orlando deal"))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Broward"}, {"Miami-Dade"}, {"Orange"}}, got)
	require.Len(t, client.requests, 2)
	assert.Contains(t, client.requests[1].Prompt, "Dade deal")
	assert.NotContains(t, client.requests[1].Prompt, "Broward deal")
	assert.NotContains(t, client.requests[1].Prompt, "Orlando deal")
}

func TestGeoClassifier_NoThirdPass(t *testing.T) {
	client := &fakeClient{replies: []reply{
		{body: `[["Gotham"]]`},
		{body: `[["Metropolis"]]`},
		{body: `[["Broward"]]`},
	}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	got, err := g.ClassifyCounties(context.Background(), geoInputs("Fictional"))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{domain.OtherCounty}}, got)
	assert.Len(t, client.requests, 2)
}

func TestGeoClassifier_ServiceFailureDefaultsToOther(t *testing.T) {
	client := &fakeClient{replies: []reply{{err: errors.New("unreachable")}}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	got, err := g.ClassifyCounties(context.Background(), geoInputs("a", "b"))

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, [][]string{{domain.OtherCounty}, {domain.OtherCounty}}, got)
}

func TestGeoClassifier_VocabularyClosure(t *testing.T) {
	vocab := DefaultVocabulary()
	client := &fakeClient{replies: []reply{
		{body: `[["Broward","Fake One"],["Los Angeles County"],[],["Kings"]]`},
		{body: `[["Still Fake"],["Los Angeles"]]`},
	}}
	g := NewGeoClassifier(client, "m", vocab)

	got, err := g.ClassifyCounties(context.Background(), geoInputs("a", "b", "c", "d"))
	require.NoError(t, err)

	require.Len(t, got, 4)
	for _, counties := range got {
		require.NotEmpty(t, counties)
		for _, c := range counties {
			assert.True(t, vocab.Contains(c), "county %q escaped the vocabulary", c)
		}
	}
	assert.Equal(t, []string{"Broward"}, got[0])
	assert.Equal(t, []string{"Los Angeles"}, got[1])
}

func TestGeoClassifier_RerunContext(t *testing.T) {
	client := &fakeClient{replies: []reply{{body: `[["Broward"]]`}}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	in := GeoInput{
		Input:           Input{Title: "Fort Lauderdale tower sold"},
		CurrentCounties: []string{"Palm Beach"},
		CurrentCities:   []string{"Boca Raton"},
		Reason:          "Fort Lauderdale is in Broward",
	}
	_, err := g.ClassifyCounties(context.Background(), []GeoInput{in})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].Prompt, "Current counties: Palm Beach")
	assert.Contains(t, client.requests[0].Prompt, "looks wrong because: Fort Lauderdale is in Broward")
}

func TestGeoClassifier_ClassifyCities(t *testing.T) {
	client := &fakeClient{replies: []reply{{body: `[["Miami"," miami ","Doral"]]`}}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	got, err := g.ClassifyCities(context.Background(), geoInputs("a", "b"))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Miami", "Doral"}, {}}, got)
	assert.Len(t, client.requests, 1)
}

func TestGeoClassifier_ClassifyCitiesFailure(t *testing.T) {
	client := &fakeClient{replies: []reply{{body: `not json`}}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	got, err := g.ClassifyCities(context.Background(), geoInputs("a"))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{}}, got)
}

func TestGeoClassifier_UnparsableCountiesAreNotAnOutage(t *testing.T) {
	client := &fakeClient{replies: []reply{{body: `"Broward"`}}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	got, err := g.ClassifyCounties(context.Background(), geoInputs("a"))

	assert.NoError(t, err)
	assert.Equal(t, [][]string{{domain.OtherCounty}}, got)
}

func TestGeoClassifier_RetryOutageKeepsFirstPass(t *testing.T) {
	client := &fakeClient{replies: []reply{
		{body: `[["Broward","Gotham"]]`},
		{err: errors.New("unreachable")},
	}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	got, err := g.ClassifyCounties(context.Background(), geoInputs("a"))

	assert.NoError(t, err)
	assert.Equal(t, [][]string{{"Broward"}}, got)
}

func TestGeoClassifier_CitiesOutage(t *testing.T) {
	client := &fakeClient{replies: []reply{{err: errors.New("unreachable")}}}
	g := NewGeoClassifier(client, "m", DefaultVocabulary())

	got, err := g.ClassifyCities(context.Background(), geoInputs("a"))

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, [][]string{{}}, got)
}
