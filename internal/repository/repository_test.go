package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/db"
	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func createAccount(t *testing.T, repo *AccountRepository, username string) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), username, username+"@example.com", "hash")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return id
}

func TestAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newTestDB(t))

	id := createAccount(t, repo, "alice")

	byName, err := repo.GetByUsername(ctx, "alice")
	if err != nil || byName == nil {
		t.Fatalf("get by username: %v, %v", byName, err)
	}
	if byName.ID != id || byName.Email != "alice@example.com" || byName.PasswordHash != "hash" {
		t.Errorf("unexpected account %+v", byName)
	}
	if byName.CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing account, got %v, %v", missing, err)
	}

	if _, err := repo.Create(ctx, "alice", "other@example.com", "hash"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate username: expected ErrDuplicate, got %v", err)
	}
	if _, err := repo.Create(ctx, "alice2", "alice@example.com", "hash"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate email: expected ErrDuplicate, got %v", err)
	}

	if err := repo.UpdatePassword(ctx, id, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	a, _ := repo.GetByID(ctx, id)
	if a.PasswordHash != "new-hash" {
		t.Errorf("password hash = %q", a.PasswordHash)
	}

	createAccount(t, repo, "bob")
	if err := repo.UpdateEmail(ctx, id, "bob@example.com"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("email collision: expected ErrDuplicate, got %v", err)
	}
}

func TestProfileRepository(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	accounts := NewAccountRepository(database)
	profiles := NewProfileRepository(database)

	id := createAccount(t, accounts, "carol")

	p, err := profiles.Get(ctx, id)
	if err != nil || p == nil {
		t.Fatalf("get: %v, %v", p, err)
	}
	if p.ActivityLevel != metabolic.Sedentary || p.Goal != metabolic.Maintain {
		t.Errorf("unexpected defaults %+v", p)
	}
	if _, ok := p.BiometricInput(); ok {
		t.Error("empty profile should not be complete")
	}

	err = profiles.Update(ctx, id, map[string]any{
		"height_cm":      172.5,
		"weight_kg":      64.0,
		"age":            31,
		"sex":            "female",
		"activity_level": "light",
		"goal":           "lose",
		"calorie_goal":   1900,
		"password_hash":  "ignored",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	p, _ = profiles.Get(ctx, id)
	in, ok := p.BiometricInput()
	if !ok {
		t.Fatalf("profile should be complete: %+v", p)
	}
	want := metabolic.BiometricInput{WeightKg: 64, HeightCm: 172.5, Age: 31, Sex: metabolic.Female, ActivityLevel: metabolic.Light, Goal: metabolic.Lose}
	if in != want {
		t.Errorf("input = %+v, want %+v", in, want)
	}
	if p.CalorieGoal == nil || *p.CalorieGoal != 1900 {
		t.Errorf("calorie goal = %v", p.CalorieGoal)
	}

	if err := profiles.Update(ctx, id, map[string]any{"calorie_goal": nil}); err != nil {
		t.Fatalf("clear goal: %v", err)
	}
	p, _ = profiles.Get(ctx, id)
	if p.CalorieGoal != nil {
		t.Errorf("calorie goal should be cleared, got %d", *p.CalorieGoal)
	}
}

func TestFoodLogRepository(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	accounts := NewAccountRepository(database)
	logs := NewFoodLogRepository(database)

	alice := createAccount(t, accounts, "alice")
	bob := createAccount(t, accounts, "bob")

	entries := []domain.FoodLog{
		{AccountID: alice, Date: "2026-10-18", MealType: domain.Dinner, FoodName: "Rice", ServingSize: 1, ServingUnit: "cup", Nutrients: domain.Nutrients{Calories: 200}},
		{AccountID: alice, Date: "2026-10-19", MealType: domain.Breakfast, FoodName: "Oats", ServingSize: 1.5, ServingUnit: "serving", Nutrients: domain.Nutrients{Calories: 150, Protein: 5}},
		{AccountID: alice, Date: "2026-10-19", MealType: domain.Lunch, FoodName: "Salad", ServingSize: 1, ServingUnit: "bowl", Nutrients: domain.Nutrients{Calories: 320, Sodium: 410}},
		{AccountID: bob, Date: "2026-10-19", MealType: domain.Snack, FoodName: "Apple", ServingSize: 1, ServingUnit: "each", Nutrients: domain.Nutrients{Calories: 95}},
	}
	var ids []int64
	for i := range entries {
		id, err := logs.Create(ctx, &entries[i])
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, id)
	}

	day, err := logs.ListByDate(ctx, alice, "2026-10-19")
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(day) != 2 || day[0].FoodName != "Oats" || day[1].FoodName != "Salad" {
		t.Fatalf("unexpected day entries %+v", day)
	}
	if day[0].ServingSize != 1.5 || day[0].Protein != 5 || day[1].Sodium != 410 {
		t.Errorf("fields not round-tripped: %+v", day)
	}

	rng, err := logs.ListRange(ctx, alice, "2026-10-01", "2026-10-31")
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(rng) != 3 || rng[0].Date != "2026-10-18" {
		t.Errorf("unexpected range %+v", rng)
	}

	// bob cannot delete alice's entry
	ok, err := logs.Delete(ctx, bob, ids[0])
	if err != nil || ok {
		t.Errorf("cross-account delete = %v, %v", ok, err)
	}
	ok, err = logs.Delete(ctx, alice, ids[0])
	if err != nil || !ok {
		t.Errorf("owner delete = %v, %v", ok, err)
	}
	rng, _ = logs.ListRange(ctx, alice, "2026-10-01", "2026-10-31")
	if len(rng) != 2 {
		t.Errorf("expected 2 entries after delete, got %d", len(rng))
	}
}

func TestSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	accounts := NewAccountRepository(database)
	snapshots := NewSnapshotRepository(database)

	id := createAccount(t, accounts, "dave")

	latest, err := snapshots.Latest(ctx, id)
	if err != nil || latest != nil {
		t.Fatalf("expected no snapshot, got %v, %v", latest, err)
	}

	in := metabolic.BiometricInput{WeightKg: 80, HeightCm: 180, Age: 40, Sex: metabolic.Male, ActivityLevel: metabolic.Active, Goal: metabolic.Gain}
	res, err := metabolic.Compute(in)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	first := &domain.ProfileSnapshot{AccountID: id, Date: "2026-10-01", Input: in, Result: res, CreatedAt: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)}
	if _, err := snapshots.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	diff := -1.5
	in.WeightKg = 78.5
	second := &domain.ProfileSnapshot{AccountID: id, Date: "2026-10-08", Input: in, Result: res, WeightDiff: &diff, CreatedAt: time.Date(2026, 10, 8, 8, 0, 0, 0, time.UTC)}
	if _, err := snapshots.Create(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}

	latest, err = snapshots.Latest(ctx, id)
	if err != nil || latest == nil {
		t.Fatalf("latest: %v, %v", latest, err)
	}
	if latest.Input.WeightKg != 78.5 || latest.WeightDiff == nil || *latest.WeightDiff != -1.5 {
		t.Errorf("unexpected latest %+v", latest)
	}
	if latest.Result != res {
		t.Errorf("result = %+v, want %+v", latest.Result, res)
	}

	all, err := snapshots.ListByAccount(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Date != "2026-10-01" || all[0].WeightDiff != nil {
		t.Errorf("unexpected history %+v", all)
	}
}

func TestSnapshotRepository_Record(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	accounts := NewAccountRepository(database)
	profiles := NewProfileRepository(database)
	snapshots := NewSnapshotRepository(database)

	id := createAccount(t, accounts, "hana")
	in := metabolic.BiometricInput{WeightKg: 61, HeightCm: 165, Age: 29, Sex: metabolic.Female, ActivityLevel: metabolic.Light, Goal: metabolic.Lose}
	res, err := metabolic.Compute(in)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	fields := domain.BiometricFields(in)
	fields["calorie_goal"] = 1650
	snap := &domain.ProfileSnapshot{AccountID: id, Date: "2026-10-19", Input: in, Result: res}
	snapID, err := snapshots.Record(ctx, snap, fields)
	if err != nil || snapID == 0 {
		t.Fatalf("record: %d, %v", snapID, err)
	}
	p, _ := profiles.Get(ctx, id)
	if p.WeightKg == nil || *p.WeightKg != 61 || p.CalorieGoal == nil || *p.CalorieGoal != 1650 {
		t.Errorf("profile not updated: %+v", p)
	}

	if _, err := database.Exec(`DROP TABLE profile_snapshots`); err != nil {
		t.Fatalf("drop snapshots: %v", err)
	}
	heavier := in
	heavier.WeightKg = 90
	fields = domain.BiometricFields(heavier)
	fields["calorie_goal"] = 2400
	if _, err := snapshots.Record(ctx, &domain.ProfileSnapshot{AccountID: id, Date: "2026-10-20", Input: heavier, Result: res}, fields); err == nil {
		t.Fatal("expected record to fail without the snapshots table")
	}
	p, _ = profiles.Get(ctx, id)
	if *p.WeightKg != 61 || *p.CalorieGoal != 1650 {
		t.Errorf("failed record must not change the profile, got weight %v goal %v", *p.WeightKg, *p.CalorieGoal)
	}
}

func TestResetTokenRepository(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	accounts := NewAccountRepository(database)
	tokens := NewResetTokenRepository(database)

	id := createAccount(t, accounts, "erin")
	now := time.Now().UTC()

	if err := tokens.Create(ctx, id, "123456", now.Add(15*time.Minute)); err != nil {
		t.Fatalf("create: %v", err)
	}

	tok, err := tokens.GetValid(ctx, "erin@example.com", "123456", now)
	if err != nil || tok == nil {
		t.Fatalf("get valid: %v, %v", tok, err)
	}
	if tok.AccountID != id {
		t.Errorf("account id = %d, want %d", tok.AccountID, id)
	}

	expired, err := tokens.GetValid(ctx, "erin@example.com", "123456", now.Add(time.Hour))
	if err != nil || expired != nil {
		t.Errorf("expected expired token to be rejected, got %v, %v", expired, err)
	}

	if err := tokens.MarkUsed(ctx, tok.ID); err != nil {
		t.Fatalf("mark used: %v", err)
	}
	used, _ := tokens.GetValid(ctx, "erin@example.com", "123456", now)
	if used != nil {
		t.Error("used token should not be valid")
	}

	if err := tokens.DeleteByAccountID(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestResetTokenRepository_FailedAttempts(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	accounts := NewAccountRepository(database)
	tokens := NewResetTokenRepository(database)

	id := createAccount(t, accounts, "fay")
	other := createAccount(t, accounts, "gus")
	now := time.Now().UTC()

	if err := tokens.Create(ctx, id, "654321", now.Add(15*time.Minute)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tokens.Create(ctx, other, "654321", now.Add(15*time.Minute)); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < domain.MaxResetAttempts-1; i++ {
		if err := tokens.RecordFailedAttempt(ctx, "fay@example.com"); err != nil {
			t.Fatalf("record attempt: %v", err)
		}
	}
	tok, err := tokens.GetValid(ctx, "fay@example.com", "654321", now)
	if err != nil || tok == nil {
		t.Fatalf("token should still be valid: %v, %v", tok, err)
	}
	if tok.Attempts != domain.MaxResetAttempts-1 {
		t.Errorf("attempts = %d, want %d", tok.Attempts, domain.MaxResetAttempts-1)
	}

	if err := tokens.RecordFailedAttempt(ctx, "fay@example.com"); err != nil {
		t.Fatalf("record attempt: %v", err)
	}
	locked, err := tokens.GetValid(ctx, "fay@example.com", "654321", now)
	if err != nil || locked != nil {
		t.Errorf("expected token locked after %d attempts, got %v, %v", domain.MaxResetAttempts, locked, err)
	}

	untouched, err := tokens.GetValid(ctx, "gus@example.com", "654321", now)
	if err != nil || untouched == nil || untouched.Attempts != 0 {
		t.Errorf("other account's token affected: %v, %v", untouched, err)
	}
}
