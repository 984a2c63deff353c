package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	m "PeopleFlow-backend/internal/model"
	"PeopleFlow-backend/internal/utilities"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported test users & profiles
var (
	TestAdminUser     m.User
	TestUserHR        m.User
	TestUserEmployee1 m.User
	TestUserEmployee2 m.User
	TestEmployee1     m.Employee
	TestEmployee2     m.Employee

	TestDeptEngineering m.Department
	TestDeptFinance     m.Department

	TestCandidate1 m.Candidate

	// Shared plain password for all seeded users
	TestSeedPassword = "SeedPass123!"
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {
	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:latest",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName),
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// seedTestData inserts sample users, departments and employee profiles if empty.
func seedTestData(db *DBinstanceStruct) error {
	var userCount int64
	if err := db.Model(&m.User{}).Count(&userCount).Error; err != nil {
		return err
	}

	// Ignore admin user that got create during NewDBInstance
	if userCount > 1 {
		return loadTestData(db)
	}

	tels := []*string{ptr("0100000001"), ptr("0100000002"), ptr("0100000003"), ptr("0200000001")}
	emails := []*string{ptr("hr@example.com"), ptr("alice@example.com"), ptr("bob@example.com"), ptr("admin@example.com")}
	userSpecs := []struct {
		username string
		email    *string
		tel      *string
		role     string
	}{
		{"hr_staff_1", emails[0], tels[0], m.RoleHR},
		{"employee_1", emails[1], tels[1], m.RoleEmployee},
		{"employee_2", emails[2], tels[2], m.RoleEmployee},
		{"admin_user", emails[3], tels[3], m.RoleAdmin},
	}

	// Pre-hash shared password for all seeded users
	hashedPwd, errHash := utilities.HashPassword(TestSeedPassword)
	if errHash != nil {
		return errHash
	}

	users := make([]m.User, 0, len(userSpecs))
	for _, s := range userSpecs {
		users = append(users, m.User{
			ID:       uuid.New(),
			Username: s.username,
			Role:     s.role,
			Password: hashedPwd,
			ContactInfo: m.ContactInfo{
				Email: s.email,
				Tel:   s.tel,
			},
		})
	}

	if err := db.Create(&users).Error; err != nil {
		return err
	}

	for _, u := range users {
		switch u.Username {
		case "hr_staff_1":
			TestUserHR = u
		case "employee_1":
			TestUserEmployee1 = u
		case "employee_2":
			TestUserEmployee2 = u
		case "admin_user":
			TestAdminUser = u
		}
	}

	departments := []m.Department{
		{Name: "Engineering", Description: "Product development"},
		{Name: "Finance", Description: "Accounting and payroll"},
	}
	if err := db.Create(&departments).Error; err != nil {
		return err
	}
	TestDeptEngineering = departments[0]
	TestDeptFinance = departments[1]

	employees := []m.Employee{
		{
			UserID:       TestUserEmployee1.ID,
			EmployeeCode: "EMP-0001",
			Position:     "Backend Engineer",
			DepartmentID: &TestDeptEngineering.ID,
			HireDate:     time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC),
			BaseSalary:   decimal.NewFromInt(30000),
			Allowance:    decimal.NewFromInt(2500),
			Deduction:    decimal.NewFromInt(1200),
			EditableEmployeeInfo: m.EditableEmployeeInfo{
				FirstName:   "Alice",
				LastName:    "Nguyen",
				BankAccount: ptr("111-222-333"),
				SoftSkill:   pq.StringArray{"Teamwork", "Communication"},
			},
		},
		{
			UserID:       TestUserEmployee2.ID,
			EmployeeCode: "EMP-0002",
			Position:     "Accountant",
			DepartmentID: &TestDeptFinance.ID,
			HireDate:     time.Date(2022, 9, 15, 0, 0, 0, 0, time.UTC),
			BaseSalary:   decimal.NewFromInt(25000),
			Allowance:    decimal.NewFromInt(1500),
			Deduction:    decimal.NewFromInt(800),
			EditableEmployeeInfo: m.EditableEmployeeInfo{
				FirstName:   "Bob",
				LastName:    "Somsak",
				BankAccount: ptr("444-555-666"),
				SoftSkill:   pq.StringArray{"Problem Solving", "Adaptability"},
			},
		},
	}
	if err := db.Create(&employees).Error; err != nil {
		return err
	}
	TestEmployee1 = employees[0]
	TestEmployee2 = employees[1]

	candidate := m.Candidate{
		FullName:  "Charlie Prasert",
		Position:  "Data Analyst",
		Education: "BSc Statistics",
		AppliedAt: time.Now(),
		Status:    m.CandidateStatusNew,
		ContactInfo: m.ContactInfo{
			Email: ptr("charlie@example.com"),
		},
	}
	if err := db.Create(&candidate).Error; err != nil {
		return err
	}
	TestCandidate1 = candidate

	return nil
}

// loadTestData populates exported variables when records already exist.
func loadTestData(db *DBinstanceStruct) error {
	var users []m.User
	if err := db.Where("username IN ?", []string{
		"hr_staff_1", "employee_1", "employee_2", "admin_user",
	}).Find(&users).Error; err != nil {
		return err
	}
	for _, u := range users {
		switch u.Username {
		case "hr_staff_1":
			TestUserHR = u
		case "employee_1":
			TestUserEmployee1 = u
		case "employee_2":
			TestUserEmployee2 = u
		case "admin_user":
			TestAdminUser = u
		}
	}

	_ = db.First(&TestEmployee1, "user_id = ?", TestUserEmployee1.ID).Error
	_ = db.First(&TestEmployee2, "user_id = ?", TestUserEmployee2.ID).Error
	_ = db.First(&TestDeptEngineering, "name = ?", "Engineering").Error
	_ = db.First(&TestDeptFinance, "name = ?", "Finance").Error
	_ = db.Preload("Documents").First(&TestCandidate1, "full_name = ?", "Charlie Prasert").Error

	return nil
}

// ptr helper
func ptr[T any](v T) *T { return &v }
