package answerkey

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadJSONMixedValues(t *testing.T) {
	key, err := Load(writeTempFile(t, "key.json",
		`{"answers": {"1": "A", "2": ["B", "C"], "3": " d "}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, key.Answers[1])
	assert.Equal(t, []string{"B", "C"}, key.Answers[2])
	assert.Equal(t, []string{"D"}, key.Answers[3], "labels are trimmed and upper-cased")
}

func TestLoadYAML(t *testing.T) {
	key, err := Load(writeTempFile(t, "key.yaml", "answers:\n  \"1\": A\n  \"2\":\n    - B\n    - C\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, key.Answers[1])
	assert.Equal(t, []string{"B", "C"}, key.Answers[2])
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = Load(writeTempFile(t, "key.txt", "{}"))
	require.ErrorContains(t, err, "unsupported extension")

	_, err = Load(writeTempFile(t, "key.json", `{"answers": {"zero": "A"}}`))
	require.ErrorContains(t, err, "invalid question number")

	_, err = Load(writeTempFile(t, "key.json", `{"answers": {"0": "A"}}`))
	require.ErrorContains(t, err, "invalid question number")
}

func TestSaveRoundTrip(t *testing.T) {
	key := &Key{Answers: map[int][]string{
		1:  {"A"},
		2:  {"B", "C"},
		50: {"D"},
	}}
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, key.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, key.Answers, loaded.Answers)

	// Single labels are written as bare strings.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"1": "A"`)
}

func TestAccepts(t *testing.T) {
	key := &Key{Answers: map[int][]string{1: {"A"}, 2: {"B", "C"}}}

	assert.True(t, key.Accepts(1, "A"))
	assert.False(t, key.Accepts(1, "B"))
	assert.True(t, key.Accepts(2, "B"))
	assert.True(t, key.Accepts(2, "C"))
	assert.False(t, key.Accepts(3, "A"), "unknown question accepts nothing")
}

func TestCorrect(t *testing.T) {
	key := &Key{Answers: map[int][]string{1: {"A"}, 2: {"B", "C"}}}

	assert.Equal(t, "A", key.Correct(1))
	assert.Equal(t, "B/C", key.Correct(2))
	assert.Empty(t, key.Correct(99))
}

func TestMaxQuestionAndQuestions(t *testing.T) {
	key := &Key{Answers: map[int][]string{3: {"A"}, 1: {"B"}, 12: {"C"}}}

	assert.Equal(t, 12, key.MaxQuestion())
	assert.Equal(t, []int{1, 3, 12}, key.Questions())

	empty := &Key{Answers: map[int][]string{}}
	assert.Zero(t, empty.MaxQuestion())
}
