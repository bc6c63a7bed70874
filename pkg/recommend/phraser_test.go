package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
)

type fakePhraser struct {
	out string
	err error
}

func (f *fakePhraser) Phrase(_ context.Context, _ *prefs.UserPreferences, _ *catalog.MouseSpec, _ string) (string, error) {
	return f.out, f.err
}

func TestRecommend_PhraserRewritesReasoning(t *testing.T) {
	r := newTestRecommender(t, threeMiceCSV).
		WithPhraser(&fakePhraser{out: "A lovely lightweight pick."})

	res, err := r.Recommend(context.Background(), &prefs.UserPreferences{WeightPreference: "light"}, 1, true)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "A lovely lightweight pick.", res.Recommendations[0].Reasoning)
}

func TestRecommend_PhraserFailureFallsBackToTemplate(t *testing.T) {
	r := newTestRecommender(t, threeMiceCSV).
		WithPhraser(&fakePhraser{err: errors.New("model down")})

	res, err := r.Recommend(context.Background(), &prefs.UserPreferences{WeightPreference: "light"}, 1, true)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	assert.Contains(t, res.Recommendations[0].Reasoning, "Compatibility score:")
}

func TestRecommend_PhraserEmptyOutputFallsBackToTemplate(t *testing.T) {
	r := newTestRecommender(t, threeMiceCSV).
		WithPhraser(&fakePhraser{out: "   "})

	res, err := r.Recommend(context.Background(), &prefs.UserPreferences{}, 1, true)
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 1)
	assert.True(t, strings.Contains(res.Recommendations[0].Reasoning, "Compatibility score:"))
}
