package aiclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSystemPromptSubstitutesPlaceholder(t *testing.T) {
	out := BuildSystemPrompt("Known: "+categoriesPlaceholder+" end", `{"Media":{}}`)
	require.Equal(t, `Known: {"Media":{}} end`, out)
}

func TestBuildSystemPromptAppendsWhenNoPlaceholder(t *testing.T) {
	out := BuildSystemPrompt("You are a classifier.", `{"Media":{}}`)
	require.Contains(t, out, "You are a classifier.")
	require.Contains(t, out, `{"Media":{}}`)
}

func TestBuildUserMessageIncludesHintAndMetadata(t *testing.T) {
	req := ClassifyRequest{
		Name:     "track.flac",
		RelPath:  "Music/track.flac",
		Mime:     "audio/flac",
		Hint:     "disaggregate",
		Metadata: map[string]string{"artist": "Tagged Artist"},
		Preview:  "sample bytes",
	}
	msg := BuildUserMessage(req)
	require.Contains(t, msg, "Filename: track.flac")
	require.Contains(t, msg, "Rule Hint: disaggregate")
	require.Contains(t, msg, "artist: Tagged Artist")
	require.Contains(t, msg, "sample bytes")
}

func TestParseReplyExtractsAnswerAndThoughts(t *testing.T) {
	reply := "Thought: looks like music\nAnswer: Media/Music\nReasoning: tags confirm it\n"
	parsed := ParseReply(reply)
	require.Equal(t, "Media/Music", parsed.Answer)
	require.Equal(t, []string{"looks like music", "tags confirm it"}, parsed.Thoughts)
}

func TestParseReplyFirstAnswerWins(t *testing.T) {
	reply := "Answer: First\nAnswer: Second\n"
	parsed := ParseReply(reply)
	require.Equal(t, "First", parsed.Answer)
}

func TestNormalizeActionToken(t *testing.T) {
	require.Equal(t, "keep", normalizeActionToken("Keep"))
	require.Equal(t, "keep_except", normalizeActionToken("keep-except"))
	require.Equal(t, "disaggregate", normalizeActionToken(" DISAGGREGATE "))
	require.Equal(t, "", normalizeActionToken("vaporize"))
}
