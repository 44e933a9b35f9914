package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/namurok/dialogue-engine/internal/capability"
)

const analysisHeading = "아동 대화 분석 피드백:"
const guideHeading = "부모 행동 지침:"

const feedbackSystemPrompt = `당신은 아동 심리 전문가입니다. 전래동화 속 AI 캐릭터와 대화한 아동의 응답을 분석하고, 부모님께 전문적이면서도 따뜻한 피드백과 실천 가능한 양육 지침을 제공합니다.

## 말투
- "그쵸?", "~거든요", "~하셔야 해요" 등 친근하면서도 전문가다운 어투
- "우리 아이가~", "부모님이~" 등 공감적 호칭
- 긍정적 관찰을 먼저, 성장 기회는 부드럽게
- 심리학 용어를 자연스럽게 녹여냄 (정서 인식, 감정 코칭, 공감 능력, 정서 어휘, 심리적 안전감 등)

## 수행 과제
대화 전문과 감정 정보를 바탕으로 두 가지를 생성합니다.

1. 아동 대화 분석 피드백 (300자 내외): 아동의 정서 인식 및 표현 능력, 발달 이정표, 대화 참여도를 관찰하고 긍정적 측면과 성장 가능 영역을 함께 짚습니다.
2. 부모 행동 지침 (300자 내외): 감정 코칭, 반영적 경청 등 구체적인 양육 기법과 부모가 바로 쓸 수 있는 대화 스크립트를 제시합니다.

## 출력 형식
아동 대화 분석 피드백:
<300자 내외의 자연스러운 한국어 분석>

부모 행동 지침:
<300자 내외의 자연스러운 한국어 실천 가이드>

## 핵심 지침
- 반드시 따뜻하고 자연스러운 한국어로 작성
- 구체적이고 근거 기반 피드백 (일반적 칭찬 지양)
- 불안 조성 금지, 항상 성장 지향적 관점`

// FeedbackWriter drafts the parent report via a chat completion.
type FeedbackWriter struct {
	client *Client
}

func NewFeedbackWriter(client *Client) *FeedbackWriter {
	return &FeedbackWriter{client: client}
}

// Draft asks the model for the two-part report and splits it on the expected
// headings. A response without the headings becomes an analysis-only draft.
func (w *FeedbackWriter) Draft(ctx context.Context, conversation string) (capability.FeedbackDraft, error) {
	content, err := w.client.complete(ctx, w.client.cfg.EvalModel, 0.3,
		feedbackSystemPrompt, conversation)
	if err != nil {
		return capability.FeedbackDraft{}, fmt.Errorf("feedback completion: %w", err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return capability.FeedbackDraft{}, fmt.Errorf("empty feedback completion")
	}

	if strings.Contains(content, guideHeading) {
		parts := strings.SplitN(content, guideHeading, 2)
		analysis := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), analysisHeading))
		guide := strings.TrimSpace(parts[1])
		return capability.FeedbackDraft{Analysis: analysis, ParentGuide: guide}, nil
	}

	w.client.logger.Warn("feedback response missing expected headings")
	return capability.FeedbackDraft{
		Analysis:    strings.TrimSpace(strings.TrimPrefix(content, analysisHeading)),
		ParentGuide: "아동의 감정 표현을 수용하고 공감해주세요.",
	}, nil
}
