package domain

import "fmt"

// ActionCard is the behavioral take-away attached to a story, handed to the
// child when the conversation completes.
type ActionCard struct {
	Title      string   `json:"title"`
	Strategies []string `json:"strategies"`
}

// Story is the folk-tale metadata a conversation is anchored to.
type Story struct {
	ID            string     `json:"story_id"`
	CharacterName string     `json:"character_name"`
	Scene         string     `json:"scene"`
	Intro         string     `json:"intro"`
	SELSkill      string     `json:"sel_skill"`
	SafeTags      []string   `json:"safe_tags"`
	Lesson        string     `json:"lesson"`
	ActionCard    ActionCard `json:"action_card"`
}

// storyCatalog holds the registered folk tales, keyed by title.
var storyCatalog = map[string]Story{
	"콩쥐팥쥐": {
		ID:            "콩쥐팥쥐",
		CharacterName: "콩쥐",
		Scene:         "새어머니가 콩쥐에게 구멍 난 항아리에 물을 다 채우라고 시키며 괴롭히는 상황",
		Intro:         "새어머니가 나한테 구멍 난 항아리에 물을 채우라고 했어. 이 장면을 보고 어떤 기분이 들었어?",
		SELSkill:      "자기인식 (자신과 타인의 감정을 분별하고 인식하기)",
		SafeTags:      []string{"Sequenced", "Focused"},
		Lesson:        "감정을 표현하고 이해하는 것이 중요해요",
		ActionCard: ActionCard{
			Title:      "지금 감정 말로 표현하기",
			Strategies: []string{"속상해 말하기", "좋았던 일 말하기", "감정 그림으로 그리기"},
		},
	},
	"가난한 유산": {
		ID:            "가난한 유산",
		CharacterName: "아버지",
		Scene:         "가난하지만 자식에게 마음의 유산을 남기려는 아버지가 고민하는 상황",
		Intro:         "우리 집은 가진 게 많지 않단다. 다른 사람들은 금덩이나 논밭을 남기지만, 나는 너에게 줄 게 이 낡은 나무상자 하나뿐이구나. 너라면 이 말을 들었을 때 어떤 기분이 들 것 같아?",
		SELSkill:      "자기인식 (물질보다 마음의 유산이 더 소중함을 느끼며, 자신이 소중히 여기는 감정을 인식하기)",
		SafeTags:      []string{"Explicit"},
		Lesson:        "마음의 선물이 가장 소중한 선물이에요",
		ActionCard: ActionCard{
			Title:      "오늘 고마운 사람에게 \"고마워요\", \"사랑해요\" 한마디 해보기",
			Strategies: []string{"감사 카드 만들기", "고마운 사람에게 말하기", "하루 감사일기쓰기"},
		},
	},
	"삼년 고개": {
		ID:            "삼년 고개",
		CharacterName: "노인",
		Scene:         "노인이 약속을 지키기 위해 삼년 고개를 오르며 힘든 길을 참아내는 상황",
		Intro:         "나는 약속을 지키기 위해 무거운 돌을 지고 삼년 고개를 오르고 있어. 어떤 마음이 들 것 같아?",
		SELSkill:      "자기관리 (어려운 상황에서도 감정을 다스리고, 약속을 지키는 힘을 기르기)",
		SafeTags:      []string{"Sequenced", "Active"},
		Lesson:        "힘들어도 약속을 지키는 것이 중요해요",
		ActionCard: ActionCard{
			Title:      "작은 약속 지키기 연습하기",
			Strategies: []string{"5분 약속 지키기", "오늘 숙제 먼저하기", "작은 목표 체크리스트"},
		},
	},
	"해님 달님": {
		ID:            "해님 달님",
		CharacterName: "누나",
		Scene:         "호랑이가 오누이를 쫓아와 누나가 동생과 함께 도망치는 긴박한 순간",
		Intro:         "호랑이가 우리를 쫓아와서 동생 손을 꼭 잡고 달렸어. 그때 내 마음은 어땠을까?",
		SELSkill:      "사회적 인식 (타인이 어떻게 느끼는지 판단하기 위해 사회적 단서 해석하기)",
		SafeTags:      []string{"Active", "Focused"},
		Lesson:        "위험할 때 서로 도와야 해요",
		ActionCard: ActionCard{
			Title:      "도움 필요한 친구 살펴보기",
			Strategies: []string{"친구 얼굴 살펴보기", "도와줄래 물어보기", "같이 놀아주기"},
		},
	},
	"금도끼 은도끼": {
		ID:            "금도끼 은도끼",
		CharacterName: "나무꾼",
		Scene:         "나무꾼이 연못에 빠진 도끼를 되찾으려 할 때 산신령이 금도끼와 은도끼를 내밀며 시험하는 순간",
		Intro:         "내 도끼가 강물에 빠졌는데 산신령이 금도끼와 은도끼를 내밀었어. 너라면 뭐라고 대답했을까?",
		SELSkill:      "책임 있는 의사결정 (도덕적·규범적 기준을 고려하여 판단하고 결정하기)",
		SafeTags:      []string{"Explicit", "Active"},
		Lesson:        "정직하게 행동하면 좋은 일이 생겨요",
		ActionCard: ActionCard{
			Title:      "사실대로 말하기 연습하기",
			Strategies: []string{"진실 말하기 연습", "잘못했을 때 사과하기", "정직 칭찬받기"},
		},
	},
}

// StoryByID looks a story up by its title key.
func StoryByID(id string) (Story, error) {
	story, ok := storyCatalog[id]
	if !ok {
		return Story{}, fmt.Errorf("unknown story %q", id)
	}
	return story, nil
}

// AllStories returns every registered story in unspecified order.
func AllStories() []Story {
	out := make([]Story, 0, len(storyCatalog))
	for _, s := range storyCatalog {
		out = append(out, s)
	}
	return out
}
