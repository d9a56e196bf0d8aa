package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studiohub/internal/config"
	"studiohub/internal/database"
	"studiohub/internal/domain"
	"studiohub/internal/pkg/logger"
	"studiohub/internal/repository"
)

const seedPassword = "password123"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}
	log := logger.New(cfg.AppEnv)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	if err := database.Migrate(ctx, db, log, domain.Models()...); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	log.Info("cleaning old data")
	for _, table := range []string{"attendance", "payments", "enrollments", "classes", "rooms", "branches", "studios", "users", "identity_accounts"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatal("cleanup failed", zap.String("table", table), zap.Error(err))
		}
	}

	identities := repository.NewIdentityRepository(db)
	users := repository.NewUserRepository(db)
	studios := repository.NewStudioRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("hash password", zap.Error(err))
	}
	register := func(email, name string, role domain.UserRole) *domain.User {
		acct := &domain.IdentityAccount{
			Email:        email,
			PasswordHash: string(hash),
			AppMetadata:  domain.AppMetadata{Role: role}.ToJSONMap(),
		}
		u := &domain.User{FullName: name, Role: role}
		if err := identities.Register(ctx, acct, u); err != nil {
			log.Fatal("register user", zap.String("email", email), zap.Error(err))
		}
		return u
	}

	// ================== STUDIO ==================
	admin := register("admin@studiohub.dev", "Dana Admin", domain.RoleStudent)
	studio := &domain.Studio{
		Name:         "Harmony Movement Studio",
		SerialNumber: "HARMONY1",
		AdminID:      admin.ID,
		Email:        "hello@harmony.dev",
		Address:      "12 Dizengoff St, Tel Aviv",
	}
	if err := studios.CreateForAdmin(ctx, studio); err != nil {
		log.Fatal("create studio", zap.Error(err))
	}

	branch := &domain.Branch{StudioID: studio.ID, Name: "Main", Address: studio.Address}
	db.Create(branch)
	roomA := &domain.Room{StudioID: studio.ID, BranchID: branch.ID, Name: "Hall A", Capacity: 20}
	roomB := &domain.Room{StudioID: studio.ID, BranchID: branch.ID, Name: "Hall B", Capacity: 8}
	db.Create(roomA)
	db.Create(roomB)

	// ================== PEOPLE ==================
	instructor := register("noa@studiohub.dev", "Noa Instructor", domain.RoleInstructor)
	students := make([]*domain.User, 0, 4)
	for i := 1; i <= 4; i++ {
		students = append(students, register(fmt.Sprintf("student%d@studiohub.dev", i), fmt.Sprintf("Student %d", i), domain.RoleStudent))
	}
	for _, u := range append([]*domain.User{admin, instructor}, students...) {
		role := u.Role
		if u.ID == admin.ID {
			role = domain.RoleAdmin
		}
		if err := users.UpdateRoleAndStudio(ctx, u.ID, role, &studio.ID); err != nil {
			log.Fatal("assign studio", zap.Int64("user_id", u.ID), zap.Error(err))
		}
		if err := identities.UpdateAppMetadata(ctx, u.ID, domain.AppMetadata{Role: role, StudioID: &studio.ID}.ToJSONMap()); err != nil {
			log.Fatal("sync identity metadata", zap.Int64("user_id", u.ID), zap.Error(err))
		}
	}

	// ================== CLASSES ==================
	classes := []*domain.Class{
		{Name: "Morning Vinyasa", DayOfWeek: 0, StartTime: "08:00", EndTime: "09:00", MaxCapacity: 15, PriceILS: decimal.NewFromInt(60), RoomID: &roomA.ID},
		{Name: "Pilates Reformer", DayOfWeek: 2, StartTime: "18:30", EndTime: "19:20", MaxCapacity: 6, PriceILS: decimal.NewFromInt(110), RoomID: &roomB.ID},
		{Name: "Community Stretch", DayOfWeek: 5, StartTime: "10:00", EndTime: "11:00", MaxCapacity: 25, PriceILS: decimal.Zero, RoomID: &roomA.ID},
	}
	for _, c := range classes {
		c.StudioID = studio.ID
		c.InstructorID = instructor.ID
		c.IsActive = true
		if err := db.Create(c).Error; err != nil {
			log.Fatal("create class", zap.String("name", c.Name), zap.Error(err))
		}
	}

	// ================== ENROLLMENTS ==================
	now := time.Now().UTC()
	for i, s := range students {
		class := classes[i%len(classes)]
		e := &domain.Enrollment{
			StudioID:      studio.ID,
			StudentID:     s.ID,
			ClassID:       class.ID,
			Status:        domain.EnrollmentActive,
			PaymentStatus: domain.EnrollmentPaymentPaid,
			EnrolledAt:    now,
		}
		if !class.IsFree() && i%2 == 1 {
			e.Status = domain.EnrollmentPending
			e.PaymentStatus = domain.EnrollmentPaymentPending
		}
		if err := enrollments.CreateWithSeat(ctx, e); err != nil {
			log.Fatal("create enrollment", zap.Error(err))
		}
		if e.PaymentStatus == domain.EnrollmentPaymentPaid && !class.IsFree() {
			paidAt := now
			db.Create(&domain.Payment{
				StudioID:     studio.ID,
				EnrollmentID: e.ID,
				StudentID:    s.ID,
				Amount:       class.PriceILS,
				Currency:     "ILS",
				Method:       domain.PaymentMethodCash,
				Status:       domain.PaymentSucceeded,
				Description:  class.Name,
				PaidAt:       &paidAt,
			})
		}
	}

	log.Info("seed completed",
		zap.String("studio_serial", studio.SerialNumber),
		zap.String("admin", "admin@studiohub.dev"),
		zap.String("instructor", "noa@studiohub.dev"),
		zap.String("password", seedPassword),
		zap.Int("students", len(students)),
	)
}
