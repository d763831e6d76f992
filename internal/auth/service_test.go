package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eslam-almahdy/RSS-1.0/internal"
	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	"github.com/eslam-almahdy/RSS-1.0/internal/auth"
	"github.com/eslam-almahdy/RSS-1.0/internal/core/events"
	coreuser "github.com/eslam-almahdy/RSS-1.0/internal/core/user"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Module Suite")
}

// Mock user repository for testing
type mockUserRepository struct {
	usersByName map[string]*coreuser.User
	usersByID   map[int64]*coreuser.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		usersByName: make(map[string]*coreuser.User),
		usersByID:   make(map[int64]*coreuser.User),
	}
}

func (m *mockUserRepository) add(u *coreuser.User) {
	m.usersByName[u.Username] = u
	m.usersByID[u.ID] = u
}

func (m *mockUserRepository) GetByUsername(username string) (*coreuser.User, error) {
	u, ok := m.usersByName[username]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) GetByID(id int64) (*coreuser.User, error) {
	u, ok := m.usersByID[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepository) RecordLoginSuccess(tx *gorm.DB, userID int64, at time.Time) error {
	u, ok := m.usersByID[userID]
	if !ok {
		return internal.ErrUserNotFound
	}
	u.FailedLoginAttempts = 0
	u.LastLogin = &at
	return nil
}

func (m *mockUserRepository) RecordLoginFailure(tx *gorm.DB, userID int64, attempts int, locked bool) error {
	u, ok := m.usersByID[userID]
	if !ok {
		return internal.ErrUserNotFound
	}
	u.FailedLoginAttempts = attempts
	u.AccountLocked = locked
	return nil
}

// Mock session repository for testing
type mockSessionRepository struct {
	sessions map[string]*auth.Session
	users    *mockUserRepository
}

func newMockSessionRepository(users *mockUserRepository) *mockSessionRepository {
	return &mockSessionRepository{
		sessions: make(map[string]*auth.Session),
		users:    users,
	}
}

func (m *mockSessionRepository) Create(tx *gorm.DB, session *auth.Session) error {
	copied := *session
	m.sessions[session.Token] = &copied
	return nil
}

func (m *mockSessionRepository) GetWithUser(token string) (*auth.Session, *coreuser.User, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, nil, errors.New("session not found")
	}
	u, err := m.users.GetByID(s.UserID)
	if err != nil {
		return nil, nil, err
	}
	copied := *s
	return &copied, u, nil
}

func (m *mockSessionRepository) Invalidate(tx *gorm.DB, token string) error {
	if s, ok := m.sessions[token]; ok {
		s.IsActive = false
	}
	return nil
}

// Mock audit ledger for testing
type mockLedger struct {
	entries []*audit.Entry
}

func (m *mockLedger) Append(tx *gorm.DB, entry *audit.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockLedger) Trail(filter audit.TrailFilter) ([]*audit.Entry, error) {
	return m.entries, nil
}

func (m *mockLedger) byAction(action string) []*audit.Entry {
	var out []*audit.Entry
	for _, e := range m.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func testDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	Expect(err).ToNot(HaveOccurred())
	return db
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		users    *mockUserRepository
		sessions *mockSessionRepository
		ledger   *mockLedger
		vault    *auth.CredentialVault
		logger   *slog.Logger
		account  *coreuser.User
	)

	const password = "correct-horse-battery"

	BeforeEach(func() {
		users = newMockUserRepository()
		sessions = newMockSessionRepository(users)
		ledger = &mockLedger{}
		vault = auth.NewCredentialVault(1000)
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		hash, salt, err := vault.Hash(password, "")
		Expect(err).ToNot(HaveOccurred())

		account = &coreuser.User{
			ID:           1,
			Username:     "maria",
			PasswordHash: hash,
			Salt:         salt,
			FullName:     "Maria Keller",
			Role:         internal.RoleContributor,
			Department:   "Trading",
			IsActive:     true,
		}
		users.add(account)

		service = auth.NewService(testDB(), users, sessions, vault, ledger, events.NewEventBus(logger), logger)
	})

	login := func(pass string) (*auth.AuthResult, error) {
		return service.Authenticate(auth.LoginDTO{Username: "maria", Password: pass}, "10.0.0.5", "test-agent")
	}

	Describe("Authenticate", func() {
		Context("with valid credentials", func() {
			It("should issue a session and write exactly one LOGIN entry", func() {
				result, err := login(password)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Token).ToNot(BeEmpty())
				Expect(result.User.Username).To(Equal("maria"))
				Expect(result.User.FailedLoginAttempts).To(BeZero())
				Expect(result.User.LastLogin).ToNot(BeNil())

				Expect(ledger.byAction(audit.ActionLogin)).To(HaveLen(1))
				Expect(ledger.entries).To(HaveLen(1))
			})

			It("should reset the failed-attempt counter", func() {
				_, err := login("wrong")
				Expect(err).To(MatchError(internal.ErrInvalidCredentials))
				Expect(users.usersByID[1].FailedLoginAttempts).To(Equal(1))

				_, err = login(password)
				Expect(err).ToNot(HaveOccurred())
				Expect(users.usersByID[1].FailedLoginAttempts).To(BeZero())
			})
		})

		Context("with an unknown username", func() {
			It("should answer exactly like a bad password", func() {
				_, err := service.Authenticate(auth.LoginDTO{Username: "ghost", Password: password}, "", "")
				Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			})
		})

		Context("with an inactive account", func() {
			It("should reject before checking the password", func() {
				users.usersByID[1].IsActive = false

				_, err := login(password)
				Expect(err).To(MatchError(internal.ErrInactiveAccount))
			})
		})

		Context("account lockout", func() {
			It("should lock after the fifth consecutive failure", func() {
				for i := 1; i <= coreuser.MaxFailedLogins; i++ {
					_, err := login("wrong")
					Expect(err).To(MatchError(internal.ErrInvalidCredentials))
				}

				Expect(users.usersByID[1].AccountLocked).To(BeTrue())

				// Only the lockout transition is audited, not the earlier misses.
				Expect(ledger.byAction(audit.ActionLockout)).To(HaveLen(1))
				Expect(ledger.entries).To(HaveLen(1))
			})

			It("should reject the correct password once locked", func() {
				for i := 1; i <= coreuser.MaxFailedLogins; i++ {
					_, _ = login("wrong")
				}

				_, err := login(password)
				Expect(err).To(MatchError(internal.ErrAccountLocked))
			})

			It("should not lock one attempt before the threshold", func() {
				for i := 1; i < coreuser.MaxFailedLogins; i++ {
					_, _ = login("wrong")
				}

				Expect(users.usersByID[1].AccountLocked).To(BeFalse())

				result, err := login(password)
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Token).ToNot(BeEmpty())
			})
		})
	})

	Describe("ValidateSession", func() {
		var token string

		BeforeEach(func() {
			result, err := login(password)
			Expect(err).ToNot(HaveOccurred())
			token = result.Token
		})

		It("should resolve a fresh token to its user", func() {
			resolved, err := service.ValidateSession(token)
			Expect(err).ToNot(HaveOccurred())
			Expect(resolved.Username).To(Equal("maria"))
		})

		It("should reject an unknown token", func() {
			_, err := service.ValidateSession("no-such-token")
			Expect(err).To(MatchError(internal.ErrSessionInvalid))
		})

		It("should accept a session one second before its fixed expiry", func() {
			sessions.sessions[token].ExpiresAt = time.Now().Add(time.Second)

			_, err := service.ValidateSession(token)
			Expect(err).ToNot(HaveOccurred())
		})

		It("should reject a session past its fixed expiry", func() {
			sessions.sessions[token].ExpiresAt = time.Now().Add(-time.Second)

			_, err := service.ValidateSession(token)
			Expect(err).To(MatchError(internal.ErrSessionExpired))
		})

		It("should reject an invalidated session", func() {
			Expect(service.Logout(token)).To(Succeed())

			_, err := service.ValidateSession(token)
			Expect(err).To(MatchError(internal.ErrSessionInvalid))
		})

		It("should reject a session whose user was deactivated", func() {
			users.usersByID[1].IsActive = false

			_, err := service.ValidateSession(token)
			Expect(err).To(MatchError(internal.ErrInactiveAccount))
		})
	})

	Describe("Logout", func() {
		var token string

		BeforeEach(func() {
			result, err := login(password)
			Expect(err).ToNot(HaveOccurred())
			token = result.Token
		})

		It("should invalidate the session and audit once", func() {
			Expect(service.Logout(token)).To(Succeed())
			Expect(sessions.sessions[token].IsActive).To(BeFalse())
			Expect(ledger.byAction(audit.ActionLogout)).To(HaveLen(1))
		})

		It("should be idempotent and not audit a second time", func() {
			Expect(service.Logout(token)).To(Succeed())
			Expect(service.Logout(token)).To(Succeed())
			Expect(ledger.byAction(audit.ActionLogout)).To(HaveLen(1))
		})

		It("should never reactivate an invalidated session", func() {
			Expect(service.Logout(token)).To(Succeed())

			_, err := login(password)
			Expect(err).ToNot(HaveOccurred())

			Expect(sessions.sessions[token].IsActive).To(BeFalse())
		})
	})
})

var _ = Describe("Session", func() {
	It("should expire exactly at issued-at plus the fixed duration", func() {
		issued := time.Now()
		session := &auth.Session{
			CreatedAt: issued,
			ExpiresAt: issued.Add(auth.SessionDuration),
		}

		Expect(session.Expired(issued.Add(auth.SessionDuration - time.Second))).To(BeFalse())
		Expect(session.Expired(issued.Add(auth.SessionDuration))).To(BeTrue())
		Expect(session.Expired(issued.Add(auth.SessionDuration + time.Second))).To(BeTrue())
	})

	It("should use an eight hour lifetime", func() {
		Expect(auth.SessionDuration).To(Equal(8 * time.Hour))
	})
})

var _ = Describe("LoginDTO", func() {
	It("should require both username and password", func() {
		Expect(auth.LoginDTO{}.Validate()).To(HaveOccurred())
		Expect(auth.LoginDTO{Username: "maria"}.Validate()).To(HaveOccurred())
		Expect(auth.LoginDTO{Username: "maria", Password: "x"}.Validate()).To(Succeed())
	})
})
