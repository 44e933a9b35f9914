package domain

import "strings"

// EmotionLabel is one of the six basic emotions plus neutral. The values are
// the Korean display words shown to the child.
type EmotionLabel string

const (
	EmotionHappy    EmotionLabel = "행복"
	EmotionSad      EmotionLabel = "슬픔"
	EmotionAngry    EmotionLabel = "분노"
	EmotionFear     EmotionLabel = "두려움"
	EmotionSurprise EmotionLabel = "놀람"
	EmotionDisgust  EmotionLabel = "혐오"
	EmotionNeutral  EmotionLabel = "중립"
)

// IsNeutral reports whether the label carries no emotional signal.
func (e EmotionLabel) IsNeutral() bool {
	return e == EmotionNeutral || e == ""
}

// EmotionResult is the outcome of classifying a child utterance.
type EmotionResult struct {
	Primary    EmotionLabel   `json:"primary"`
	Secondary  []EmotionLabel `json:"secondary,omitempty"`
	Confidence float64        `json:"confidence"`
}

// emotionKeywords maps each emotion to the utterance fragments that signal
// it. Shared by the evaluator's rule layer and the classifier's degraded
// keyword mode; checked in fixed order so detection is deterministic.
var emotionKeywords = []struct {
	label    EmotionLabel
	keywords []string
}{
	{EmotionHappy, []string{"기쁘", "좋아", "행복", "즐거", "신나", "재밌"}},
	{EmotionSad, []string{"슬프", "슬퍼", "속상", "우울", "외로", "서러"}},
	{EmotionAngry, []string{"화나", "화가", "화났", "짜증", "억울", "열받", "싫"}},
	{EmotionFear, []string{"무서", "불안", "걱정", "두려"}},
	{EmotionSurprise, []string{"놀라", "놀랐", "신기", "당황", "헉"}},
}

// DetectEmotionKeyword scans text for emotion vocabulary without calling any
// model. The second return is false when nothing non-neutral matched.
func DetectEmotionKeyword(text string) (EmotionLabel, bool) {
	for _, entry := range emotionKeywords {
		for _, kw := range entry.keywords {
			if containsFold(text, kw) {
				return entry.label, true
			}
		}
	}
	return EmotionNeutral, false
}

func containsFold(text, kw string) bool {
	return strings.Contains(strings.ToLower(text), kw)
}

// DetectEmotionsKeyword returns every matching emotion in detection order,
// primary first.
func DetectEmotionsKeyword(text string) []EmotionLabel {
	var out []EmotionLabel
	for _, entry := range emotionKeywords {
		for _, kw := range entry.keywords {
			if containsFold(text, kw) {
				out = append(out, entry.label)
				break
			}
		}
	}
	return out
}
