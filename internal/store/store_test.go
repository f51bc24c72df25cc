package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/quizgenius/backend/internal/models"
)

func testRedisFactory(t *testing.T) *RedisFactory {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisFactory(client)
}

func runStoreTests(t *testing.T, st Store) {
	t.Helper()

	// Everything empty at first.
	if hist, err := st.LoadHistory(); err != nil || len(hist) != 0 {
		t.Fatalf("fresh history = %v, %v", hist, err)
	}
	if streak, err := st.LoadStreak(); err != nil || streak != 0 {
		t.Fatalf("fresh streak = %d, %v", streak, err)
	}
	if _, found, err := st.LoadPreferences(); err != nil || found {
		t.Fatalf("fresh preferences found=%v, %v", found, err)
	}
	if _, found, err := st.LoadProfile(); err != nil || found {
		t.Fatalf("fresh profile found=%v, %v", found, err)
	}

	// History appends in order.
	first := models.QuizResult{QuizID: "r1", TotalQuestions: 5, CorrectAnswers: 4, EndTime: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	second := models.QuizResult{QuizID: "r2", TotalQuestions: 3, CorrectAnswers: 3, EndTime: time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)}
	if err := st.AppendHistory(first); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := st.AppendHistory(second); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	hist, err := st.LoadHistory()
	if err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if len(hist) != 2 || hist[0].QuizID != "r1" || hist[1].QuizID != "r2" {
		t.Fatalf("history out of order: %+v", hist)
	}

	// Streak round trip.
	if err := st.SaveStreak(4); err != nil {
		t.Fatalf("save streak: %v", err)
	}
	if streak, _ := st.LoadStreak(); streak != 4 {
		t.Errorf("streak = %d, want 4", streak)
	}

	// Profile round trip.
	if err := st.SaveProfile(models.Profile{Username: "casey", Avatar: "fox"}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	profile, found, err := st.LoadProfile()
	if err != nil || !found {
		t.Fatalf("load profile found=%v, %v", found, err)
	}
	if profile.Username != "casey" || profile.Avatar != "fox" {
		t.Errorf("profile = %+v", profile)
	}

	// Preferences round trip.
	prefs := models.Preferences{
		EnableSound:          true,
		DefaultDifficulty:    models.DifficultyHard,
		DefaultQuestionTypes: []models.QuestionType{models.TypeTrueFalse},
	}
	if err := st.SavePreferences(prefs); err != nil {
		t.Fatalf("save preferences: %v", err)
	}
	got, found, err := st.LoadPreferences()
	if err != nil || !found {
		t.Fatalf("load preferences found=%v, %v", found, err)
	}
	if got.DefaultDifficulty != models.DifficultyHard || !got.EnableSound {
		t.Errorf("preferences = %+v", got)
	}

	// Flashcards and notes replace whole collections.
	cards := []models.FlashCard{{ID: "c1", Front: "H2O", Back: "Water", Topic: "science"}}
	if err := st.SaveFlashCards(cards); err != nil {
		t.Fatalf("save flashcards: %v", err)
	}
	loaded, err := st.LoadFlashCards()
	if err != nil || len(loaded) != 1 || loaded[0].Front != "H2O" {
		t.Fatalf("flashcards = %+v, %v", loaded, err)
	}

	notes := []models.StudyNote{{QuestionID: "q1", Note: "Review this"}}
	if err := st.SaveStudyNotes(notes); err != nil {
		t.Fatalf("save notes: %v", err)
	}
	if ns, _ := st.LoadStudyNotes(); len(ns) != 1 || ns[0].Note != "Review this" {
		t.Fatalf("notes = %+v", ns)
	}

	// Achievements round trip keeps unlock flags.
	achievements := []models.Achievement{
		{ID: "first_quiz", Name: "First Steps", Icon: "award", Unlocked: true},
		{ID: "perfect_score", Name: "Perfect Score", Icon: "trophy"},
	}
	if err := st.SaveAchievements(achievements); err != nil {
		t.Fatalf("save achievements: %v", err)
	}
	as, err := st.LoadAchievements()
	if err != nil || len(as) != 2 {
		t.Fatalf("achievements = %+v, %v", as, err)
	}
	if !as[0].Unlocked || as[1].Unlocked {
		t.Errorf("unlock flags lost: %+v", as)
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryFactory().ForUser("u1"))
}

func TestRedisStore(t *testing.T) {
	runStoreTests(t, testRedisFactory(t).ForUser("u1"))
}

func TestStoresAreUserScoped(t *testing.T) {
	factories := map[string]Factory{
		"memory": NewMemoryFactory(),
		"redis":  testRedisFactory(t),
	}
	for name, f := range factories {
		t.Run(name, func(t *testing.T) {
			if err := f.ForUser("alice").SaveStreak(7); err != nil {
				t.Fatalf("save streak: %v", err)
			}
			streak, err := f.ForUser("bob").LoadStreak()
			if err != nil {
				t.Fatalf("load streak: %v", err)
			}
			if streak != 0 {
				t.Errorf("bob sees alice's streak: %d", streak)
			}
			streak, _ = f.ForUser("alice").LoadStreak()
			if streak != 7 {
				t.Errorf("alice's streak = %d, want 7", streak)
			}
		})
	}
}

func TestMemoryStoreCopiesOnLoad(t *testing.T) {
	st := NewMemoryFactory().ForUser("u1")
	if err := st.AppendHistory(models.QuizResult{QuizID: "r1"}); err != nil {
		t.Fatal(err)
	}

	hist, _ := st.LoadHistory()
	hist[0].QuizID = "mutated"

	again, _ := st.LoadHistory()
	if again[0].QuizID != "r1" {
		t.Error("stored history mutated through a loaded copy")
	}
}
