package cmd

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/frahmantamala/bizanalytics/internal/auth"
	authPostgres "github.com/frahmantamala/bizanalytics/internal/auth/postgres"
	"github.com/frahmantamala/bizanalytics/internal/company"
	companyPostgres "github.com/frahmantamala/bizanalytics/internal/company/postgres"
	analyticsDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/analytics"
	userDatamodel "github.com/frahmantamala/bizanalytics/internal/core/datamodel/user"
	"github.com/frahmantamala/bizanalytics/internal/dashboard"
	dashboardPostgres "github.com/frahmantamala/bizanalytics/internal/dashboard/postgres"
	"github.com/frahmantamala/bizanalytics/internal/user"
	userPostgres "github.com/frahmantamala/bizanalytics/internal/user/postgres"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedPassword = "password123"

type seedUser struct {
	username, email, first, last string
	role                         auth.Role
}

var seedUsers = []seedUser{
	{"owner", "owner@demo.io", "Olivia", "Owner", auth.RoleOwner},
	{"admin", "admin@demo.io", "Adam", "Admin", auth.RoleAdmin},
	{"manager", "manager@demo.io", "Mona", "Manager", auth.RoleManager},
	{"employee", "employee@demo.io", "Evan", "Employee", auth.RoleEmployee},
	{"viewer", "viewer@demo.io", "Vera", "Viewer", auth.RoleViewer},
}

var seedMetrics = map[string]float64{
	"revenue":   12500,
	"orders":    140,
	"customers": 35,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo company, one member per role, template dashboards and sixty days of metric snapshots.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initGorm(cfg.Database, logger.LoggerWrapper())
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		ctx := context.Background()
		if clearData {
			if err := clearSeedData(ctx, db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := seed(ctx, db, cfg.Security.BCryptCost); err != nil {
			log.Fatalf("failed to seed: %v", err)
		}
	},
}

func clearSeedData(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"metric_snapshots", "activity_logs", "dashboards", "company_members", "companies", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func seed(ctx context.Context, db *gorm.DB, cost int) error {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&userDatamodel.User{}).Where("email = ?", seedUsers[0].email).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		fmt.Println("demo data already present; run with --clear to reseed")
		return nil
	}

	now := time.Now().UTC()
	users := authPostgres.NewRepository(db)
	members := make([]*user.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u := &user.User{
			ID:           uuid.NewString(),
			Username:     su.username,
			Email:        su.email,
			PasswordHash: string(hash),
			FirstName:    su.first,
			LastName:     su.last,
			Role:         user.GlobalRoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user %s: %w", su.email, err)
		}
		members = append(members, u)
		fmt.Printf("Seeded user: %s <%s> as %s\n", u.FullName(), su.email, su.role)
	}

	owner := members[0]
	c := company.New(uuid.NewString(), owner, "Demo Analytics", "hello@demo.io", now)
	c.Industry = company.IndustryTechnology
	c.Size = "11-50"
	c.Subscription.Plan = company.PlanPro
	for i, u := range members[1:] {
		if _, err := c.AddMember(u, seedUsers[i+1].role, now); err != nil {
			return fmt.Errorf("add member %s: %w", u.Email, err)
		}
	}
	if err := companyPostgres.NewCompanyRepository(db).Create(ctx, c); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	userRepo := userPostgres.NewUserRepository(db)
	for _, u := range members {
		if err := userRepo.SetCompany(ctx, u.ID, c.ID); err != nil {
			return fmt.Errorf("link %s to company: %w", u.Email, err)
		}
	}
	fmt.Println("Seeded company:", c.Name, "plan:", c.Subscription.Plan)

	if err := seedDashboards(ctx, db, owner.ID, c.ID, now); err != nil {
		return err
	}
	if err := seedSnapshots(ctx, db, c.ID, now); err != nil {
		return err
	}

	fmt.Printf("Demo login: %s / %s\n", owner.Email, seedPassword)
	return nil
}

func seedDashboards(ctx context.Context, db *gorm.DB, ownerID, companyID string, now time.Time) error {
	repo := dashboardPostgres.NewDashboardRepository(db)

	templates := []struct {
		name, category string
		widgets        []dashboard.Widget
	}{
		{"Sales Overview", "sales", []dashboard.Widget{
			{Type: dashboard.WidgetKPI, Title: "Revenue", Config: dashboard.WidgetConfig{Metrics: []string{"revenue"}}},
			{Type: dashboard.WidgetChart, Title: "Orders", Config: dashboard.WidgetConfig{ChartType: "line", Metrics: []string{"orders"}}, Position: dashboard.Position{X: 4}},
		}},
		{"Executive Summary", "executive", []dashboard.Widget{
			{Type: dashboard.WidgetKPI, Title: "Customers", Config: dashboard.WidgetConfig{Metrics: []string{"customers"}}},
			{Type: dashboard.WidgetAIInsights, Title: "Insights", Position: dashboard.Position{X: 4}},
		}},
	}

	for _, t := range templates {
		d := dashboard.New(ownerID, companyID, t.name, now)
		d.IsTemplate = true
		d.TemplateCategory = t.category
		for _, w := range t.widgets {
			if _, err := d.AddWidget(w); err != nil {
				return fmt.Errorf("template %s: %w", t.name, err)
			}
		}
		if err := repo.Create(ctx, d); err != nil {
			return fmt.Errorf("create template %s: %w", t.name, err)
		}
		fmt.Println("Seeded template:", t.name)
	}

	d := dashboard.New(ownerID, companyID, "Company Pulse", now)
	d.Type = dashboard.TypeCompany
	d.IsDefault = true
	if _, err := d.AddWidget(dashboard.Widget{Type: dashboard.WidgetKPI, Title: "Revenue", Config: dashboard.WidgetConfig{Metrics: []string{"revenue"}}}); err != nil {
		return err
	}
	if err := repo.Create(ctx, d); err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	fmt.Println("Seeded dashboard:", d.Name)
	return nil
}

// seedSnapshots writes one value per metric per day for sixty days, so both
// KPI windows of the default thirty-day summary have data.
func seedSnapshots(ctx context.Context, db *gorm.DB, companyID string, now time.Time) error {
	rng := rand.New(rand.NewSource(now.UnixNano()))
	rows := make([]analyticsDatamodel.MetricSnapshot, 0, 60*len(seedMetrics))

	for day := 0; day < 60; day++ {
		at := now.AddDate(0, 0, -day)
		// the recent window trends upward
		growth := 1.0
		if day < 30 {
			growth = 1.15
		}
		for metric, base := range seedMetrics {
			jitter := 0.9 + rng.Float64()*0.2
			rows = append(rows, analyticsDatamodel.MetricSnapshot{
				ID:         uuid.NewString(),
				CompanyID:  companyID,
				Metric:     metric,
				Value:      decimal.NewFromFloat(base * growth * jitter).Round(2),
				RecordedAt: at,
			})
		}
	}

	if err := db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("create snapshots: %w", err)
	}
	fmt.Println("Seeded metric snapshots:", len(rows))
	return nil
}
