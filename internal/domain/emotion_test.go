package domain

import "testing"

func TestDetectEmotionKeyword(t *testing.T) {
	tests := []struct {
		text  string
		want  EmotionLabel
		found bool
	}{
		{"슬퍼 보여", EmotionSad, true},
		{"너무 속상했어", EmotionSad, true},
		{"진짜 화났어", EmotionAngry, true},
		{"무서웠을 것 같아", EmotionFear, true},
		{"깜짝 놀랐어", EmotionSurprise, true},
		{"신나고 재밌었어", EmotionHappy, true},
		{"몰라", EmotionNeutral, false},
		{"바나나", EmotionNeutral, false},
		{"", EmotionNeutral, false},
	}
	for _, tt := range tests {
		got, found := DetectEmotionKeyword(tt.text)
		if got != tt.want || found != tt.found {
			t.Errorf("DetectEmotionKeyword(%q) = (%s, %v), want (%s, %v)",
				tt.text, got, found, tt.want, tt.found)
		}
	}
}

func TestDetectEmotionsKeywordOrder(t *testing.T) {
	// Mixed utterance: detection order is fixed, happy before sad.
	got := DetectEmotionsKeyword("좋아했는데 지금은 슬퍼")
	if len(got) != 2 || got[0] != EmotionHappy || got[1] != EmotionSad {
		t.Fatalf("DetectEmotionsKeyword = %v", got)
	}
}

func TestIsNeutral(t *testing.T) {
	if !EmotionNeutral.IsNeutral() {
		t.Error("중립 should be neutral")
	}
	if !EmotionLabel("").IsNeutral() {
		t.Error("empty label should be neutral")
	}
	if EmotionSad.IsNeutral() {
		t.Error("슬픔 should not be neutral")
	}
}
