package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/namurok/dialogue-engine/internal/capability"
	"github.com/namurok/dialogue-engine/internal/domain"
)

// judgeCriteria holds the per-stage evaluation rubric handed to the model.
// The rubrics are deliberately example-heavy: a short answer that matches
// the question beats a long answer that drifts off it.
var judgeCriteria = map[domain.Stage]string{
	domain.StageEmotionLabeling: `평가 기준:
- 감정 단어(행복, 슬픔, 화남, 무서움, 놀라움 등)를 말했는가?
- 숫자(1번, 2번 등)로 감정을 선택했는가?
- 표정이나 기분을 설명하려고 했는가?
- "에베베베", "으아아" 같은 무의미한 소리는 실패
- "몰라", "글쎄", "음" 같은 회피성 답변은 실패
중요: 정확한 감정이 아니어도 감정을 표현하려 시도했다면 성공.`,

	domain.StageAskReason: `질문: "왜 그런 감정을 느꼈을까?" - 이유/원인을 묻는 질문.
[성공 조건]
- "~해서", "~니까", "~라서" 등의 이유 표현이 있으면 성공
- 동화 속 상황(물, 항아리, 새엄마, 일, 혼자 등)을 언급하면 성공
- 2지선다 질문이었다면 둘 중 하나만 언급해도 성공
[실패 예시]
- "슬펐을 것 같아", "화났어요" → 실패 (감정만 반복, 이유 없음)
- "몰라", "글쎄" → 실패 (회피)
중요: 감정 단어만 말했다면 실패. 반드시 "왜"에 대한 답이 있어야 성공.`,

	domain.StageAskExperience: `질문: "너도 그런 경험이 있어?" - 경험 유무를 묻는 질문.
[성공 조건 - 하나라도 충족하면 성공]
1. 명확한 경험 유무 답변: "있어", "없어", "봤어", "했어", "기억나"
2. 구체적인 경험 설명: 사람("친구", "엄마"), 장소("학교", "집"),
   시간("어제", "지난번"), 행동("울었어", "싸웠어") 중 하나라도 언급
[실패 예시]
- "속상했을 것 같아" 등 "~것 같아" 추측 표현만 있으면 실패
- "몰라", "글쎄", "아마도" → 실패
중요: 과거 사실 진술이면 짧아도 성공.`,

	domain.StageRealWorldEmotion: `[성공 조건]
- 감정 단어(슬픔, 화남, 행복 등)를 말했는가?
- 표정이나 기분을 설명하려고 했는가?
- 2지선다 감정 질문이었다면 둘 중 하나만 말해도 성공
[실패]
- "몰라", "글쎄" 같은 회피성 답변, 무의미한 소리는 실패
[성공 예시]
- "기분이 안 좋았을 것 같아", "속상했을 거야" → 성공`,

	domain.StageRealWorldReason: `[성공 조건 - 하나만 충족해도 성공]
1. 제시된 상황의 핵심 키워드를 언급 (어미 형태 무관: "혼자", "혼자라서", "혼자잖아")
2. 이유 연결어 사용: "~니까", "~해서", "~라서", "~때문에", "~잖아", "~거든"
3. 상황 관련 원인 표현 (연결어 없어도 됨)
4. 상황이 추상적이어도 감정에 합리적으로 연결되는 이유면 성공
5. 2지선다 질문에서 둘 중 하나만 선택해도 성공
[즉시 실패]
- 감정 단어만 단독 사용하고 이유 없음 ("슬퍼", "화나")
- 상황과 완전히 무관한 내용, 무의미한 소리, "몰라"/"글쎄" 회피`,
}

// Judge evaluates whether an answer satisfies the stage's success criterion
// using a low-temperature completion.
type Judge struct {
	client *Client
}

// NewJudge wraps the shared client as an answer judge.
func NewJudge(client *Client) *Judge {
	return &Judge{client: client}
}

// Evaluate renders a binary success verdict. Errors are returned as-is; the
// evaluator applies its own conservative default on failure.
func (j *Judge) Evaluate(ctx context.Context, req capability.JudgeRequest) (domain.Evaluation, error) {
	criteria, ok := judgeCriteria[req.Stage]
	if !ok {
		return domain.Evaluation{}, fmt.Errorf("no judge criteria for stage %s", req.Stage)
	}

	var history strings.Builder
	if len(req.Moments) > 0 {
		history.WriteString("\n이전 대화 기록:\n")
		for _, m := range req.Moments {
			fmt.Fprintf(&history, "- %s: %s\n", m.Stage, m.Content)
		}
	}
	scenario := ""
	if req.ScenarioText != "" {
		scenario = "\n제시된 상황: " + req.ScenarioText + "\n"
	}

	system := fmt.Sprintf(`너는 6살~9살 아이의 답변을 평가하는 전문가야.
%s%s
현재 질문의 목표: %s
아이의 답변: %q

평가 기준:
%s

중요:
1. 답변의 길이가 아닌, 질문과의 맥락적 연관성을 중심으로 평가
2. "에베베", "으아아" 같은 무의미한 소리는 무조건 실패
3. "몰라", "글쎄", "음", "어" 같은 회피성 단답은 실패
4. 짧더라도 질문에 직접적으로 관련된 답변이면 성공
5. 틀린 답변이어도 동화 내용 기반으로 설명했다면 성공

출력 형식: "성공" 또는 "실패" 한 단어만 출력`,
		history.String(), scenario, req.Criterion, req.Answer, criteria)

	content, err := j.client.complete(ctx, j.client.cfg.EvalModel, 0.3,
		system, "평가 결과를 '성공' 또는 '실패'로만 출력해.")
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("judge completion: %w", err)
	}

	verdict := strings.TrimSpace(content)
	return domain.Evaluation{
		Success: strings.Contains(verdict, "성공"),
		Reason:  verdict,
	}, nil
}
