package factory

import (
	"time"

	"github.com/mcoot/eloladder/internal/dependencies/mocks"
	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/identity"
	"github.com/mcoot/eloladder/internal/services/ladder"
	"github.com/mcoot/eloladder/internal/storage/memory"
	"github.com/mcoot/eloladder/internal/testutil"
)

// TestTokenSecret signs tokens for apps built by NewTestApp
const TestTokenSecret = "test-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// adminKeyHash may be empty to disable admin routes.
func NewTestApp(adminKeyHash string) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(store, mockClock, ladder.DefaultConfig(), identity.Config{
		Secret:       TestTokenSecret,
		TokenTTL:     time.Hour,
		AdminKeyHash: adminKeyHash,
	}, nil, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}

// Token issues a bearer token for the given player id, panicking on failure
func (t *TestApp) Token(id string) string {
	token, err := t.Identity.Issue(model.PlayerID(id))
	if err != nil {
		panic(err)
	}
	return token
}
