package postgres_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	authPostgres "github.com/frahmantamala/bizanalytics/internal/auth/postgres"
	userDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/user"
	"github.com/frahmantamala/bizanalytics/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAuthPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Postgres Suite")
}

var _ = Describe("Auth Repository", func() {
	var (
		repo auth.UserRepository
		ctx  context.Context
	)

	phone := "+15550100"

	BeforeEach(func() {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		repo = authPostgres.NewRepository(db)
		ctx = context.Background()

		Expect(repo.Create(ctx, &user.User{
			ID:           "u1",
			Username:     "ada",
			Email:        "Ada@Example.com",
			Phone:        &phone,
			PasswordHash: "hash",
			FirstName:    "Ada",
			LastName:     "Lovelace",
		})).To(Succeed())
	})

	DescribeTable("GetByLogin",
		func(login string) {
			u, err := repo.GetByLogin(ctx, login)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(Equal("u1"))
		},
		Entry("by username", "ada"),
		Entry("by email", "Ada@Example.com"),
		Entry("by email in another case", "ada@example.com"),
	)

	It("should report an unknown login", func() {
		_, err := repo.GetByLogin(ctx, "grace")
		Expect(err).To(MatchError(internal.ErrUserNotFound))

		_, err = repo.GetByID(ctx, "missing")
		Expect(err).To(MatchError(internal.ErrUserNotFound))
	})

	DescribeTable("FindConflict",
		func(email, username string, phone *string, expected error) {
			err := repo.FindConflict(ctx, email, username, phone)
			if expected == nil {
				Expect(err).NotTo(HaveOccurred())
				return
			}
			Expect(err).To(MatchError(expected))
		},
		Entry("no clash", "grace@example.com", "grace", nil, nil),
		Entry("email in another case", "ADA@example.com", "grace", nil, internal.ErrDuplicateEmail),
		Entry("username", "grace@example.com", "ada", nil, internal.ErrDuplicateUsername),
		Entry("phone", "grace@example.com", "grace", &phone, internal.ErrDuplicatePhone),
	)

	It("should reject a second account with the same email", func() {
		err := repo.Create(ctx, &user.User{
			ID:           "u2",
			Username:     "ada2",
			Email:        "Ada@Example.com",
			PasswordHash: "hash",
			FirstName:    "Ada",
			LastName:     "Again",
		})

		Expect(err).To(HaveOccurred())
	})
})
