package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/portal-auth-service/internal/config"
	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
	"github.com/SAP-F-2025/portal-auth-service/internal/validator"
)

const rosterSheet = "Students"

var rosterHeader = []string{"username", "password", "email"}

type provisioningService struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
	admin     config.AdminSeedConfig
}

func NewProvisioningService(repo repositories.Repository, validator *validator.Validator, logger *slog.Logger, admin config.AdminSeedConfig) ProvisioningService {
	return &provisioningService{
		repo:      repo,
		validator: validator,
		logger:    logger,
		admin:     admin,
	}
}

func (s *provisioningService) EnsureSchema(ctx context.Context) error {
	migrator, ok := s.repo.(repositories.Migrator)
	if !ok {
		return nil
	}
	if err := migrator.Migrate(ctx); err != nil {
		return asStoreFault("migrate schema", err)
	}
	s.logger.Info("Schema is up to date")
	return nil
}

func (s *provisioningService) EnsureDefaultAdmin(ctx context.Context) (bool, error) {
	admins, err := s.repo.User().CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, asStoreFault("count admins", err)
	}
	if admins > 0 {
		return false, nil
	}

	user, err := s.CreateUser(ctx, CreateUserInput{
		Username: s.admin.Username,
		Password: s.admin.Password,
		Email:    s.admin.Email,
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, ErrUsernameTaken) {
		// lost a race with another instance, or the name belongs to a student
		s.logger.Warn("Default admin username already taken, skipping seed", "username", s.admin.Username)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if s.admin.Password == config.DefaultAdminPassword {
		s.logger.Warn("Default admin seeded with the built-in password, change it", "username", user.Username)
	} else {
		s.logger.Info("Default admin seeded", "username", user.Username)
	}
	return true, nil
}

func (s *provisioningService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := s.validator.Validate(&input); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     input.Username,
		PasswordHash: hash,
		Role:         input.Role,
		Email:        input.Email,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, asStoreFault("create user", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *provisioningService) ListUsers(ctx context.Context, filters repositories.UserFilters) ([]*models.User, error) {
	users, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, asStoreFault("list users", err)
	}
	return users, nil
}

// ImportRoster creates a student for every valid row of the first sheet.
// Rows whose username exists are skipped; a store fault aborts the import
// and returns what was done so far.
func (s *provisioningService) ImportRoster(ctx context.Context, r io.Reader) (*RosterImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open roster workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("roster workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read roster rows: %w", err)
	}

	result := &RosterImportResult{
		Created: []string{},
		Skipped: []string{},
		Invalid: []RosterRowError{},
	}

	for i, row := range rows {
		rowNum := i + 1
		if i == 0 && isRosterHeader(row) {
			continue
		}
		if isBlankRow(row) {
			continue
		}

		entry := validator.RosterRow{
			Username: cell(row, 0),
			Password: cell(row, 1),
			Email:    cell(row, 2),
		}
		if err := s.validator.Validate(&entry); err != nil {
			result.Invalid = append(result.Invalid, RosterRowError{Row: rowNum, Username: entry.Username, Reason: err.Error()})
			continue
		}

		_, err := s.CreateUser(ctx, CreateUserInput{
			Username: entry.Username,
			Password: entry.Password,
			Email:    entry.Email,
			Role:     models.RoleStudent,
		})
		switch {
		case err == nil:
			result.Created = append(result.Created, entry.Username)
		case errors.Is(err, ErrUsernameTaken):
			result.Skipped = append(result.Skipped, entry.Username)
		case IsStoreFault(err):
			return result, err
		default:
			result.Invalid = append(result.Invalid, RosterRowError{Row: rowNum, Username: entry.Username, Reason: err.Error()})
		}
	}

	s.logger.Info("Roster imported",
		"created", len(result.Created),
		"skipped", len(result.Skipped),
		"invalid", len(result.Invalid))
	return result, nil
}

// ExportRoster writes all students to an xlsx workbook. Passwords are not
// exported; the password column is left for the admin to fill in.
func (s *provisioningService) ExportRoster(ctx context.Context, w io.Writer) error {
	role := models.RoleStudent
	students, err := s.ListUsers(ctx, repositories.UserFilters{Role: &role})
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return fmt.Errorf("name roster sheet: %w", err)
	}

	header := []interface{}{rosterHeader[0], rosterHeader[1], rosterHeader[2]}
	if err := f.SetSheetRow(rosterSheet, "A1", &header); err != nil {
		return fmt.Errorf("write roster header: %w", err)
	}

	for i, u := range students {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{u.Username, "", u.Email}
		if err := f.SetSheetRow(rosterSheet, axis, &row); err != nil {
			return fmt.Errorf("write roster row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write roster workbook: %w", err)
	}
	return nil
}

func isRosterHeader(row []string) bool {
	return strings.EqualFold(cell(row, 0), rosterHeader[0])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// GetRows trims trailing empty cells, so short rows are expected
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
