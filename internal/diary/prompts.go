package diary

import (
	"fmt"
	"strings"

	"github.com/justestif/go-voice-diary/internal/db"
	"github.com/justestif/go-voice-diary/internal/emotion"
)

const counselorPrompt = `You are a supportive counselor for a voice diary app.
Use the user's diary entry and, when provided, voice analysis to ask questions that help them put their feelings into words.

Principles:
1. Be warm and empathetic.
2. Do not judge or evaluate.
3. Ask open-ended questions.
4. Respect the user's pace.
5. Ask one or two short questions at most.

Keep replies to three or four sentences: acknowledge first, then ask.
Reply in the user's language.`

// emotionKeywords are words that show the user already named a feeling.
var emotionKeywords = []string{
	// Japanese, negative
	"悲しい", "辛い", "苦しい", "嫌", "イライラ", "怒", "疲れ", "ストレス",
	"不安", "心配", "落ち込", "むかつ", "腹立", "困", "大変",
	// Japanese, positive
	"嬉しい", "楽しい", "幸せ", "良かった", "最高", "素晴らしい", "ワクワク",
	"喜び", "感動", "安心",
	// English
	"sad", "upset", "angry", "annoyed", "frustrat", "tired", "exhausted", "stress",
	"anxious", "worried", "lonely", "happy", "glad", "excited", "great", "relieved",
	"grateful",
}

// mentionsEmotion reports whether text contains an emotion keyword.
func mentionsEmotion(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range emotionKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// PromptMode says which signal a chat reply was built from.
type PromptMode string

const (
	// PromptContent follows up on the words the user used.
	PromptContent PromptMode = "content"
	// PromptVoice brings up what the voice analysis suggests.
	PromptVoice PromptMode = "voice"
	// PromptPlain ignores the voice and follows up on the content.
	PromptPlain PromptMode = "plain"
)

// replyPrompt builds the user prompt for one chat turn. The voice is only
// mentioned when the text names no feeling and the assessment is significant.
func replyPrompt(message string, vad *emotion.VAD, a *emotion.Assessment) (string, PromptMode) {
	if mentionsEmotion(message) {
		return contentPrompt(message), PromptContent
	}
	if a == nil || vad == nil || !a.Significant {
		return contentPrompt(message), PromptPlain
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user said: %q\n\n", message)
	fmt.Fprintf(&b, "The words are neutral, but the voice suggests %s (%s): %s\n",
		a.Emotion, a.Emotion.LocalizedName(), a.Description)
	fmt.Fprintf(&b, "Voice data: arousal=%.2f, valence=%.2f, dominance=%.2f\n\n",
		vad.Arousal, vad.Valence, vad.Dominance)
	if a.Emotion.Negative() {
		b.WriteString("Gently check in on how they are feeling, based on the tone of their voice.")
	} else {
		b.WriteString("Acknowledge the lift in their voice and ask what brought it about.")
	}
	return b.String(), PromptVoice
}

func contentPrompt(message string) string {
	return fmt.Sprintf("The user said: %q\n\nAsk a question that explores what they said in more depth.", message)
}

// conversationText renders turns as "User: ..." / "AI: ..." paragraphs.
func conversationText(turns []db.DialogueTurn) string {
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := "AI"
		if t.Role == db.RoleUser {
			speaker = "User"
		}
		parts = append(parts, speaker+": "+t.Content)
	}
	return strings.Join(parts, "\n\n")
}

// diaryPrompt asks for the day's diary entry.
func diaryPrompt(conversation string) string {
	return `Write a short diary entry from the key points of the conversation below.

Conversation:
` + conversation + `

Requirements:
- Describe what happened along with feelings and physical state.
- Reflect any change of feeling that came out in the conversation.
- First person, natural prose with connectives, in the user's language.
- Two or three paragraphs, no dates, no bullet points.`
}

// insightPrompt asks for a short reading of the day's emotional state.
// Without an aggregate the prompt says so instead of inventing values.
func insightPrompt(conversation string, s *emotion.DailySummary, a *emotion.Assessment) string {
	var b strings.Builder
	b.WriteString("Describe the user's emotional state today from the voice analysis and conversation below.\n\n")

	if s == nil {
		b.WriteString("Voice analysis: no voice data was recorded or analysed today. Do not guess from the voice; rely on the conversation only.\n\n")
	} else {
		b.WriteString("Voice analysis (most important):\n")
		fmt.Fprintf(&b, "Energy: %.2f / 5.0 (low = tired or settled, high = excited or tense)\n", s.AvgArousal)
		fmt.Fprintf(&b, "Mood: %.2f / 5.0 (low = negative, high = positive)\n", s.AvgValence)
		fmt.Fprintf(&b, "Most frequent voice emotion: %s (%s) over %d recording(s)\n", s.DominantEmotion, s.DominantEmotion.LocalizedName(), s.TotalRecordings)
		if a != nil && a.Significant {
			fmt.Fprintf(&b, "Reading: %s\n", a.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("Conversation (for reference):\n")
	b.WriteString(conversation)
	b.WriteString(`

Requirements:
- Center on what the voice shows, and say so ("your voice sounds ...").
- No technical terms: say energy and mood, not arousal and valence.
- If words and voice disagree, point it out gently.
- Two empathetic sentences, in the user's language.`)
	return b.String()
}
