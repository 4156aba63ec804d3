package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagClassifier_Classify(t *testing.T) {
	client := &fakeClient{replies: []reply{{body: `[["Financing","Multifamily"],["Retail","Retail"],["Crypto"]]`}}}
	c := NewTagClassifier(client, "m", DefaultTaxonomy())

	got, err := c.Classify(context.Background(), inputs(3))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Financing", "Multifamily"}, {"Retail"}, {"Crypto"}}, got)
	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].Prompt, "- Industrial:")
}

func TestTagClassifier_FailureYieldsEmptyTags(t *testing.T) {
	client := &fakeClient{replies: []reply{{err: errors.New("boom")}}}
	c := NewTagClassifier(client, "m", DefaultTaxonomy())

	got, err := c.Classify(context.Background(), inputs(2))

	assert.Equal(t, [][]string{{}, {}}, got)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTagClassifier_ShortAnswerPadded(t *testing.T) {
	client := &fakeClient{replies: []reply{{body: `[["Office"]]`}}}
	c := NewTagClassifier(client, "m", DefaultTaxonomy())

	got, err := c.Classify(context.Background(), inputs(2))

	assert.NoError(t, err)
	assert.Equal(t, [][]string{{"Office"}, {}}, got)
}

func TestTagClassifier_UnparsableOutputIsNotAnOutage(t *testing.T) {
	client := &fakeClient{replies: []reply{{body: `"Office"`}}}
	c := NewTagClassifier(client, "m", DefaultTaxonomy())

	got, err := c.Classify(context.Background(), inputs(1))

	assert.NoError(t, err)
	assert.Equal(t, [][]string{{}}, got)
}
