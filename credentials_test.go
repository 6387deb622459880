package authkit

import (
	"errors"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/nrednav/authkit/internal"
	"github.com/nrednav/authkit/password"
)

type recordingSaver struct {
	mu    sync.Mutex
	saves []State
	fail  bool
}

func (r *recordingSaver) Save(state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("backing store unavailable")
	}
	r.saves = append(r.saves, state)
	return nil
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func newTestCredentials(t *testing.T, state State, saver StateSaver) *Credentials {
	t.Helper()

	hasher, err := password.NewHasher(password.Config{Cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	creds, err := newCredentials(state, hasher, DefaultValidator{}, saver, internal.MinPasswordLength)
	if err != nil {
		t.Fatalf("newCredentials error: %v", err)
	}
	return creds
}

func seededState(t *testing.T) State {
	t.Helper()

	hasher, err := password.NewHasher(password.Config{Cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	hash, err := hasher.Hash("pw1")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	return State{
		Users: []UserRecord{
			{Username: "alice", Name: "Alice A", Email: "a@x.com", PasswordHash: hash},
		},
		PreauthorizedEmails: []string{"invited@x.com"},
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	creds := newTestCredentials(t, seededState(t), nil)

	for _, username := range []string{"alice", "Alice", "ALICE", " alice "} {
		rec, ok := creds.Lookup(username)
		if !ok {
			t.Fatalf("Lookup(%q): not found", username)
		}
		if rec.Username != "alice" {
			t.Fatalf("Lookup(%q): username = %q", username, rec.Username)
		}
	}

	if _, ok := creds.Lookup("bob"); ok {
		t.Fatal("expected unknown username to miss")
	}
}

func TestStateKeyNormalization(t *testing.T) {
	state := seededState(t)
	state.Users[0].Username = "Alice"
	creds := newTestCredentials(t, state, nil)

	rec, ok := creds.Lookup("alice")
	if !ok || rec.Username != "alice" {
		t.Fatalf("expected normalized key, got %+v ok=%v", rec, ok)
	}
}

func TestStateDuplicateUsernameRejected(t *testing.T) {
	hasher, err := password.NewHasher(password.Config{Cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	state := State{Users: []UserRecord{
		{Username: "alice", PasswordHash: "h1"},
		{Username: "Alice", PasswordHash: "h2"},
	}}
	if _, err := newCredentials(state, hasher, DefaultValidator{}, nil, internal.MinPasswordLength); err == nil {
		t.Fatal("expected duplicate username to be rejected")
	}
}

func TestVerifyPassword(t *testing.T) {
	creds := newTestCredentials(t, seededState(t), nil)

	ok, err := creds.VerifyPassword("alice", "pw1")
	if err != nil || !ok {
		t.Fatalf("VerifyPassword = %v, %v; want true, nil", ok, err)
	}

	ok, err = creds.VerifyPassword("alice", "wrong")
	if err != nil || ok {
		t.Fatalf("VerifyPassword wrong = %v, %v; want false, nil", ok, err)
	}

	// Unknown username fails closed without an error.
	ok, err = creds.VerifyPassword("nobody", "pw1")
	if err != nil || ok {
		t.Fatalf("VerifyPassword unknown = %v, %v; want false, nil", ok, err)
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	state := seededState(t)
	state.Users[0].PasswordHash = "plaintext-left-on-disk"
	creds := newTestCredentials(t, state, nil)

	if _, err := creds.VerifyPassword("alice", "pw1"); !errors.Is(err, password.ErrHashFormat) {
		t.Fatalf("expected ErrHashFormat, got %v", err)
	}

	// The bad record must not poison other lookups.
	if _, ok := creds.Lookup("alice"); !ok {
		t.Fatal("record should remain visible")
	}
}

func TestRegister(t *testing.T) {
	saver := &recordingSaver{}
	creds := newTestCredentials(t, seededState(t), saver)

	if err := creds.Register("bob", "Bob B", "b@x.com", "secret", false); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	rec, ok := creds.Lookup("bob")
	if !ok {
		t.Fatal("registered user not found")
	}
	if rec.PasswordHash == "secret" || rec.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	ok, err := creds.VerifyPassword("bob", "secret")
	if err != nil || !ok {
		t.Fatalf("VerifyPassword after register = %v, %v", ok, err)
	}

	if saver.count() != 1 {
		t.Fatalf("saver invoked %d times, want 1", saver.count())
	}

	if err := creds.Register("Bob", "Bob B", "b2@x.com", "secret", false); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if saver.count() != 1 {
		t.Fatal("failed registration must not trigger a save")
	}
}

func TestRegisterValidation(t *testing.T) {
	creds := newTestCredentials(t, State{}, nil)

	cases := []struct {
		name     string
		username string
		display  string
		email    string
		pw       string
		want     error
	}{
		{"bad username", "has spaces!", "Bob B", "b@x.com", "pw", ErrUsernameInvalid},
		{"long username", "abcdefghijklmnopqrstu", "Bob B", "b@x.com", "pw", ErrUsernameInvalid},
		{"bad name", "bob", "Bob4 B@d", "b@x.com", "pw", ErrNameInvalid},
		{"bad email", "bob", "Bob B", "not-an-email", "pw", ErrEmailInvalid},
		{"empty password", "bob", "Bob B", "b@x.com", "", ErrPasswordEmpty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := creds.Register(tc.username, tc.display, tc.email, tc.pw, false); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRegisterPreauthorization(t *testing.T) {
	creds := newTestCredentials(t, seededState(t), nil)

	if err := creds.Register("carol", "Carol C", "stranger@x.com", "pw", true); !errors.Is(err, ErrNotPreauthorized) {
		t.Fatalf("expected ErrNotPreauthorized, got %v", err)
	}

	if err := creds.Register("carol", "Carol C", "invited@x.com", "pw", true); err != nil {
		t.Fatalf("preauthorized Register error: %v", err)
	}
	if creds.IsPreauthorized("invited@x.com") {
		t.Fatal("preauthorized email must be consumed on use")
	}

	// Repeating the same registration now fails on uniqueness, not on
	// re-consumption of the allow-list entry.
	if err := creds.Register("carol", "Carol C", "invited@x.com", "pw", true); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterConcurrentDuplicate(t *testing.T) {
	creds := newTestCredentials(t, State{}, nil)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- creds.Register("dave", "Dave D", "d@x.com", "pw", false)
		}()
	}
	wg.Wait()
	close(errs)

	var successes, taken int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrUsernameTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || taken != attempts-1 {
		t.Fatalf("successes=%d taken=%d, want 1 and %d", successes, taken, attempts-1)
	}
}

func TestRegisterConcurrentPreauthorization(t *testing.T) {
	state := State{PreauthorizedEmails: []string{"once@x.com"}}
	creds := newTestCredentials(t, state, nil)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			username := string(rune('a'+n)) + "user"
			errs <- creds.Register(username, "Some User", "once@x.com", "pw", true)
		}(i)
	}
	wg.Wait()
	close(errs)

	var successes int
	for err := range errs {
		if err == nil {
			successes++
		} else if !errors.Is(err, ErrNotPreauthorized) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("preauthorized email consumed %d times, want 1", successes)
	}
}

func TestResetPassword(t *testing.T) {
	creds := newTestCredentials(t, seededState(t), nil)

	if err := creds.ResetPassword("alice", "wrongold", "newpw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := creds.ResetPassword("alice", "pw1", "pw1"); !errors.Is(err, ErrPasswordUnchanged) {
		t.Fatalf("expected ErrPasswordUnchanged, got %v", err)
	}
	if err := creds.ResetPassword("alice", "pw1", ""); !errors.Is(err, ErrPasswordEmpty) {
		t.Fatalf("expected ErrPasswordEmpty, got %v", err)
	}
	if err := creds.ResetPassword("nobody", "pw1", "newpw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	if err := creds.ResetPassword("alice", "pw1", "newpw"); err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}
	if ok, _ := creds.VerifyPassword("alice", "newpw"); !ok {
		t.Fatal("new password not accepted")
	}
	if ok, _ := creds.VerifyPassword("alice", "pw1"); ok {
		t.Fatal("old password still accepted")
	}
}

func TestSetRandomPassword(t *testing.T) {
	creds := newTestCredentials(t, seededState(t), nil)

	plaintext, err := creds.SetRandomPassword("alice")
	if err != nil {
		t.Fatalf("SetRandomPassword error: %v", err)
	}
	if len(plaintext) < internal.MinPasswordLength {
		t.Fatalf("generated password too short: %d", len(plaintext))
	}
	if ok, _ := creds.VerifyPassword("alice", plaintext); !ok {
		t.Fatal("generated password not accepted")
	}
	if rec, _ := creds.Lookup("alice"); rec.PasswordHash == plaintext {
		t.Fatal("plaintext must never be stored")
	}

	if _, err := creds.SetRandomPassword("nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateField(t *testing.T) {
	creds := newTestCredentials(t, seededState(t), nil)

	if err := creds.UpdateField("alice", FieldName, ""); !errors.Is(err, ErrValueEmpty) {
		t.Fatalf("expected ErrValueEmpty, got %v", err)
	}
	if err := creds.UpdateField("alice", FieldName, "Alice A"); !errors.Is(err, ErrValueUnchanged) {
		t.Fatalf("expected ErrValueUnchanged, got %v", err)
	}
	if err := creds.UpdateField("alice", Field("username"), "eve"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := creds.UpdateField("alice", FieldEmail, "not-an-email"); !errors.Is(err, ErrEmailInvalid) {
		t.Fatalf("expected ErrEmailInvalid, got %v", err)
	}
	if err := creds.UpdateField("nobody", FieldName, "New Name"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := creds.UpdateField("alice", FieldName, "Alice B"); err != nil {
		t.Fatalf("UpdateField name error: %v", err)
	}
	if err := creds.UpdateField("alice", FieldEmail, "alice@new.com"); err != nil {
		t.Fatalf("UpdateField email error: %v", err)
	}

	rec, _ := creds.Lookup("alice")
	if rec.Name != "Alice B" || rec.Email != "alice@new.com" {
		t.Fatalf("record not updated: %+v", rec)
	}
}

func TestUsernameByEmail(t *testing.T) {
	creds := newTestCredentials(t, seededState(t), nil)

	username, found := creds.UsernameByEmail("a@x.com")
	if !found || username != "alice" {
		t.Fatalf("UsernameByEmail = %q, %v", username, found)
	}

	if _, found := creds.UsernameByEmail("nomatch@x.com"); found {
		t.Fatal("expected no match")
	}
}

func TestSaveFailureRollsBack(t *testing.T) {
	saver := &recordingSaver{fail: true}
	creds := newTestCredentials(t, seededState(t), saver)

	err := creds.Register("bob", "Bob B", "invited@x.com", "pw", true)
	if !errors.Is(err, ErrStateSaveFailed) {
		t.Fatalf("expected ErrStateSaveFailed, got %v", err)
	}
	if _, ok := creds.Lookup("bob"); ok {
		t.Fatal("failed save must roll back the inserted record")
	}
	if !creds.IsPreauthorized("invited@x.com") {
		t.Fatal("failed save must restore the consumed preauthorized email")
	}

	err = creds.ResetPassword("alice", "pw1", "newpw")
	if !errors.Is(err, ErrStateSaveFailed) {
		t.Fatalf("expected ErrStateSaveFailed, got %v", err)
	}
	if ok, _ := creds.VerifyPassword("alice", "pw1"); !ok {
		t.Fatal("failed save must keep the previous password hash")
	}

	err = creds.UpdateField("alice", FieldName, "Alice B")
	if !errors.Is(err, ErrStateSaveFailed) {
		t.Fatalf("expected ErrStateSaveFailed, got %v", err)
	}
	if rec, _ := creds.Lookup("alice"); rec.Name != "Alice A" {
		t.Fatalf("failed save must keep the previous name, got %q", rec.Name)
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	creds := newTestCredentials(t, seededState(t), nil)
	if err := creds.Register("bob", "Bob B", "b@x.com", "pw", false); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	snap := creds.Snapshot()
	if len(snap.Users) != 2 {
		t.Fatalf("snapshot users = %d, want 2", len(snap.Users))
	}
	if snap.Users[0].Username != "alice" || snap.Users[1].Username != "bob" {
		t.Fatalf("snapshot not sorted: %+v", snap.Users)
	}
	if len(snap.PreauthorizedEmails) != 1 || snap.PreauthorizedEmails[0] != "invited@x.com" {
		t.Fatalf("snapshot emails = %+v", snap.PreauthorizedEmails)
	}

	// Mutating the snapshot must not reach the store.
	snap.Users[0].Name = "Tampered"
	if rec, _ := creds.Lookup("alice"); rec.Name != "Alice A" {
		t.Fatal("snapshot aliases live store state")
	}
}
