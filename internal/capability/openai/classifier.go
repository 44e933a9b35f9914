package openai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/namurok/dialogue-engine/internal/domain"
)

const classifierSystemPrompt = `너는 아동 심리 전문가로서 아이의 발화에서 감정을 정확히 분류해야 해.

6가지 기본 감정:
1. 행복 (기쁨, 즐거움, 만족)
2. 슬픔 (속상함, 우울, 외로움)
3. 분노 (화남, 짜증, 억울함)
4. 두려움 (무서움, 불안, 걱정)
5. 놀람 (신기함, 당황, 의외)
6. 중립 (감정 표현 없음)

규칙:
- 주 감정 1개는 반드시 선택
- 부 감정은 0-2개 (확실한 경우만)
- 신뢰도는 0.0~1.0 사이

다음 JSON 스키마로만 답해:
{"primary": "감정", "secondary": ["감정"], "confidence": 0.0}`

// labelAliases maps model output variants onto the canonical labels.
var labelAliases = map[string]domain.EmotionLabel{
	"기쁨":  domain.EmotionHappy,
	"행복":  domain.EmotionHappy,
	"슬픔":  domain.EmotionSad,
	"분노":  domain.EmotionAngry,
	"화남":  domain.EmotionAngry,
	"공포":  domain.EmotionFear,
	"두려움": domain.EmotionFear,
	"무서움": domain.EmotionFear,
	"놀람":  domain.EmotionSurprise,
	"혐오":  domain.EmotionDisgust,
	"중립":  domain.EmotionNeutral,
	"무감정": domain.EmotionNeutral,
}

// EmotionClassifier detects the dominant emotion in an utterance with a
// low-temperature chat completion, degrading to keyword detection when the
// model is unavailable.
type EmotionClassifier struct {
	client *Client
}

// NewEmotionClassifier wraps the shared client as an emotion classifier.
func NewEmotionClassifier(client *Client) *EmotionClassifier {
	return &EmotionClassifier{client: client}
}

type classifierOutput struct {
	Primary    string   `json:"primary"`
	Secondary  []string `json:"secondary"`
	Confidence float64  `json:"confidence"`
}

// Classify returns the detected emotions for text. Model failures are
// absorbed: the keyword lexicon supplies a lower-confidence result instead.
func (e *EmotionClassifier) Classify(ctx context.Context, text string) (domain.EmotionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmotionResult{}, err
	}

	content, err := e.client.complete(ctx, e.client.cfg.EvalModel, 0.3,
		classifierSystemPrompt,
		"아이의 발화: \""+text+"\"\n\n이 아이의 감정을 분석해줘.")
	if err != nil {
		e.client.logger.Warn("emotion classification degraded to keyword mode", "error", err)
		return keywordClassify(text), nil
	}

	var out classifierOutput
	if err := json.Unmarshal([]byte(extractJSON(content)), &out); err != nil {
		e.client.logger.Warn("emotion classifier returned unparseable output", "error", err)
		return keywordClassify(text), nil
	}

	result := domain.EmotionResult{
		Primary:    mapLabel(out.Primary),
		Confidence: out.Confidence,
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		result.Confidence = 0.8
	}
	for _, s := range out.Secondary {
		if len(result.Secondary) == 2 {
			break
		}
		result.Secondary = append(result.Secondary, mapLabel(s))
	}
	return result, nil
}

// keywordClassify is the degraded, model-free classification path.
func keywordClassify(text string) domain.EmotionResult {
	detected := domain.DetectEmotionsKeyword(text)
	if len(detected) == 0 {
		return domain.EmotionResult{Primary: domain.EmotionNeutral, Confidence: 0.5}
	}
	result := domain.EmotionResult{Primary: detected[0], Confidence: 0.6}
	if len(detected) > 1 {
		end := len(detected)
		if end > 3 {
			end = 3
		}
		result.Secondary = detected[1:end]
	}
	return result
}

func mapLabel(s string) domain.EmotionLabel {
	s = strings.TrimSpace(s)
	if label, ok := labelAliases[s]; ok {
		return label
	}
	for alias, label := range labelAliases {
		if strings.Contains(s, alias) {
			return label
		}
	}
	return domain.EmotionNeutral
}

// extractJSON trims markdown fences and surrounding prose the model
// sometimes wraps its JSON in.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
