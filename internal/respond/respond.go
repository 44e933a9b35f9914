// Package respond turns a stage, a ladder tier, and the session context into
// the scripted Korean utterance spoken to the child. Everything here is pure:
// no clocks, no external calls.
package respond

import (
	"fmt"
	"strings"

	"github.com/namurok/dialogue-engine/internal/domain"
	"github.com/namurok/dialogue-engine/internal/stage"
)

// DefaultScenario is offered when the child could not recall an experience of
// their own; it doubles as the stored scenario for the reasoning stage.
const DefaultScenario = "체육 시간에 짝을 지어야 하는데 모두 이미 짝이 정해져 있어서, 한 아이만 운동장 한쪽에서 조용히 서 있는 상황"

// defaultEmotionAnswer is the model answer disclosed on a forced advance out
// of an emotion stage.
const defaultEmotionAnswer = "슬픔"

// personKeywords maps mentions in a child's experience to the display form
// used when asking about that person. Order matters: first hit wins.
var personKeywords = [][2]string{
	{"엄마", "엄마"},
	{"아빠", "아빠"},
	{"부모님", "부모님"},
	{"선생님", "선생님"},
	{"형", "형"},
	{"누나", "누나"},
	{"언니", "언니"},
	{"오빠", "오빠"},
	{"동생", "동생"},
	{"할머니", "할머니"},
	{"할아버지", "할아버지"},
	{"이모", "이모"},
	{"삼촌", "삼촌"},
	{"고모", "고모"},
	{"친구", "그 친구"},
}

// Prompt is a generated utterance plus the input mode the client should offer.
type Prompt struct {
	Text    string
	Action  domain.ActionItem
	Options []string
}

// Generator renders the scripted conversation lines.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Intro is the opening line of a new session: a greeting plus the story's
// first emotion question.
func (g *Generator) Intro(story domain.Story, childName string) string {
	return fmt.Sprintf("안녕, %s! 나는 %s야. %s",
		Vocative(FirstName(childName)), story.CharacterName, story.Intro)
}

// MentionedPerson extracts who the child's experience is about, in display
// form without a particle.
func (g *Generator) MentionedPerson(text string) string {
	for _, kv := range personKeywords {
		if strings.Contains(text, kv[0]) {
			return kv[1]
		}
	}
	return "그 친구"
}

// Scenario is the text stored for the reasoning stage: the child's own
// experience when they shared one, the stock scenario otherwise.
func (g *Generator) Scenario(experienceText string) string {
	if strings.TrimSpace(experienceText) != "" {
		return strings.TrimSpace(experienceText)
	}
	return DefaultScenario
}

// Ask builds the question that moves the conversation into (tier 0) or keeps
// it at (tier 1+) the given stage.
func (g *Generator) Ask(s domain.Stage, tier stage.Tier, sess *domain.Session, story domain.Story) Prompt {
	name := FirstName(sess.ChildName)
	voc := Vocative(name)
	char := story.CharacterName
	person := g.MentionedPerson(sess.Context.ExperienceText)

	switch s {
	case domain.StageEmotionLabeling:
		switch tier {
		case stage.TierOpenRetry:
			return open(fmt.Sprintf("%s, 그 장면을 보고 어떤 기분이 들었는지 다시 한 번 말해줄래?", voc))
		case stage.TierChoiceRetry:
			return choice(
				fmt.Sprintf("%s, %s 슬펐을까, 아니면 화났을까?", voc, Subject(char)),
				"슬펐을 거야", "화났을 거야",
			)
		default:
			return open(story.Intro)
		}

	case domain.StageAskReason:
		switch tier {
		case stage.TierOpenRetry:
			return open(fmt.Sprintf("%s, %s 왜 그렇게 느꼈을 것 같아?", voc, Subject(char)))
		case stage.TierChoiceRetry:
			return choice(
				fmt.Sprintf("%s, %s 힘든 일이 생겨서였을까, 아니면 마음대로 되지 않아서였을까?", voc, Subject(char)),
				"힘든 일이 생겨서", "마음대로 되지 않아서",
			)
		default:
			return open("그랬구나. 왜 그런 감정을 느꼈을 것 같아?")
		}

	case domain.StageAskExperience:
		switch tier {
		case stage.TierOpenRetry:
			return open(fmt.Sprintf("%s, 괜찮아. %s 힘들어하고 슬퍼했잖아, 그런 것처럼 다른 사람이 힘들어하는 걸 본 적이 있었을까?", voc, Subject(char)))
		case stage.TierChoiceRetry:
			return choice(
				fmt.Sprintf("%s, 혹시 너 친구가 힘들어하는 걸 본 적이 있었을까? 아니면 친구가 혼자 힘든 일을 하는 걸 본 적이 있어?", voc),
				"본 적 있어", "본 적 없어",
			)
		default:
			return open(fmt.Sprintf("그랬구나. %s도 그런 경험이 있어?", Subject(name)))
		}

	case domain.StageRealWorldEmotion:
		switch tier {
		case stage.TierOpenRetry:
			return open(fmt.Sprintf("%s, 좀 더 쉽게 말해줄게. %s 어떤 기분이었을 것 같았어?", voc, Subject(person)))
		case stage.TierChoiceRetry:
			return choice(
				fmt.Sprintf("%s, %s 화났을까, 아니면 슬펐을까?", voc, Topic(person)),
				"화났을 거야", "슬펐을 거야",
			)
		default:
			if strings.TrimSpace(sess.Context.ExperienceText) != "" {
				return open(fmt.Sprintf("아아, 그런 일을 네가 봤구나. 그때 %s 어떤 마음이었을 것 같아?", Topic(person)))
			}
			return open(fmt.Sprintf("그럼 예시 상황을 말해줄게. %s. 그 아이는 어떤 마음이었을까?", DefaultScenario))
		}

	case domain.StageRealWorldReason:
		switch tier {
		case stage.TierOpenRetry:
			return open(fmt.Sprintf("%s, 괜찮아. %s 왜 그렇게 느꼈을 것 같아?", voc, Subject(person)))
		case stage.TierChoiceRetry:
			return choice(
				fmt.Sprintf("%s, 혼자 남아서 속상했을까, 아니면 같이 하고 싶어서 아쉬웠을까?", voc),
				"혼자 남아서 속상했을 거야", "같이 하고 싶어서 아쉬웠을 거야",
			)
		default:
			return open(fmt.Sprintf("그때 %s 왜 그렇게 느꼈을 것 같아?", Topic(person)))
		}

	case domain.StageClosing:
		// Entering the closing stage: a bridge line toward the action card.
		// The closing line itself is spoken on the terminal turn.
		return open(fmt.Sprintf("%s 친구의 마음을 잘 이해했구나. 그럼 이제 %s 다른 친구를 더 잘 이해할 수 있는 방법을 알려줄게!", Subject(name), voc))
	}

	return open(fmt.Sprintf("%s, 난 너의 친구야. 편하게 이야기해줘.", voc))
}

// ForcedAdvance is the compensatory line spoken when a stage's attempt budget
// runs out: it consoles, discloses an answer where one exists, and leads into
// the next stage's question in the same breath.
func (g *Generator) ForcedAdvance(from domain.Stage, sess *domain.Session, story domain.Story) Prompt {
	name := FirstName(sess.ChildName)
	voc := Vocative(name)
	person := g.MentionedPerson(sess.Context.ExperienceText)

	switch from {
	case domain.StageEmotionLabeling:
		return open(fmt.Sprintf("%s, 괜찮아! %s %s을 느꼈을 거야. 왜 %s을 느꼈을 것 같아?",
			voc, Subject(story.CharacterName), defaultEmotionAnswer, defaultEmotionAnswer))
	case domain.StageAskReason:
		return open(fmt.Sprintf("그렇구나, %s. 이유를 대답하는 게 쉽지 않지? 좀 더 쉽게 대답할 수 있게 내가 도와줄게! 너는 혹시 누가 힘들어서 울고 있거나 속상해하는 걸 본 적 있어?", voc))
	case domain.StageAskExperience:
		return open(fmt.Sprintf("그럼 예시 상황을 말해줄게. %s. 그 아이는 어떤 마음이었을까?", DefaultScenario))
	case domain.StageRealWorldEmotion:
		return open(fmt.Sprintf("괜찮아, %s! %s %s을 느꼈을 거야. 왜 %s을 느꼈을 것 같아?",
			voc, Topic(person), defaultEmotionAnswer, defaultEmotionAnswer))
	case domain.StageRealWorldReason:
		return open(fmt.Sprintf("%s, 조금 어려웠지? 괜찮아! 그럼 이제 내가 %s에게 특별한 행동카드를 줄게. 이 카드를 보면서 연습해보자!", voc, name))
	}
	return open(fmt.Sprintf("%s, 우리 다음 이야기로 넘어가보자!", voc))
}

// Closing is the single terminal line of the conversation.
func (g *Generator) Closing(childName string) string {
	return fmt.Sprintf("%s, 오늘 너랑 대화하는 거 즐거웠어! 다음장을 넘기면 너를 위한 특별한 행동카드가 나타날거야! 자주 사용해보자! 안녕~!",
		Vocative(FirstName(childName)))
}

// SafetyRedirect addresses the child by name and steers them away from the
// flagged topic. The category is the first flagged moderation category.
func (g *Generator) SafetyRedirect(childName, category string, story domain.Story) string {
	voc := Vocative(FirstName(childName))
	switch category {
	case "self_harm":
		return fmt.Sprintf("%s, 많이 힘들구나. 그런 생각이 들 때는 어른에게 꼭 말해야 해. 지금은 나랑 이야기하면서 마음을 풀어보자. 어떤 일이 있었는지 천천히 말해줄래?", voc)
	case "violence", "harassment_threatening", "hate_threatening":
		return fmt.Sprintf("%s, 화가 많이 났구나. 하지만 그런 표현보다는 '화가 났어', '속상했어'라고 말하면 더 좋을 것 같아. 무슨 일이 있었는지 다시 말해줄래?", voc)
	case "hate":
		return fmt.Sprintf("%s, 속상한 마음은 이해해. 하지만 친구나 다른 사람을 미워하는 말은 사용하지 않는 게 좋아. 대신 어떤 점이 속상했는지 말해볼까?", voc)
	case "harassment":
		return fmt.Sprintf("%s, 누군가를 괴롭히는 말은 듣는 사람도 말하는 사람도 마음이 아파. 다른 방식으로 이야기해볼 수 있을까?", voc)
	case "sexual":
		return fmt.Sprintf("%s, 그 이야기는 조금 어려운 주제야. 우리는 %s의 이야기로 돌아가자. 어떤 기분이 들었는지 말해줄래?", voc, story.CharacterName)
	}
	return fmt.Sprintf("%s, 조금 다르게 말해볼 수 있을까?", voc)
}

func open(text string) Prompt {
	return Prompt{Text: text, Action: domain.ActionOpenQuestion}
}

func choice(text string, options ...string) Prompt {
	return Prompt{Text: text, Action: domain.ActionChoiceSelection, Options: options}
}
