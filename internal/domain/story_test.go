package domain

import "testing"

func TestStoryByID(t *testing.T) {
	story, err := StoryByID("콩쥐팥쥐")
	if err != nil {
		t.Fatalf("StoryByID: %v", err)
	}
	if story.CharacterName != "콩쥐" {
		t.Errorf("character = %s, want 콩쥐", story.CharacterName)
	}
	if story.Intro == "" || story.Scene == "" {
		t.Error("story is missing intro or scene text")
	}

	if _, err := StoryByID("흥부놀부"); err == nil {
		t.Error("expected error for unregistered story")
	}
}

func TestStoryCatalogComplete(t *testing.T) {
	stories := AllStories()
	if len(stories) != 5 {
		t.Fatalf("catalog has %d stories, want 5", len(stories))
	}
	for _, s := range stories {
		if s.ID == "" || s.CharacterName == "" || s.Lesson == "" {
			t.Errorf("story %q is missing required fields", s.ID)
		}
		if s.ActionCard.Title == "" || len(s.ActionCard.Strategies) == 0 {
			t.Errorf("story %q has no action card content", s.ID)
		}
	}
}
