package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Unit constants for body measurements.
const (
	UnitCM = "cm"
	UnitFt = "ft"
	UnitKG = "kg"
	UnitLb = "lb"
)

// Profile holds the personal details for one user scope.
type Profile struct {
	UserID          string
	Username        string
	FullName        string
	Email           string
	Gender          string
	Age             int
	HeightValue     float64
	HeightUnit      string
	WeightValue     float64
	WeightUnit      string
	ProfileImage    string
	NeedsOnboarding bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the fields constrained by the schema.
func (p *Profile) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	}
	if p.Age < 0 || p.HeightValue < 0 || p.WeightValue < 0 {
		return fmt.Errorf("%w: measurements must not be negative", ErrInvalidRecord)
	}
	if p.HeightUnit == "" {
		p.HeightUnit = UnitCM
	}
	if p.WeightUnit == "" {
		p.WeightUnit = UnitKG
	}
	if p.HeightUnit != UnitCM && p.HeightUnit != UnitFt {
		return fmt.Errorf("%w: height unit %q", ErrInvalidRecord, p.HeightUnit)
	}
	if p.WeightUnit != UnitKG && p.WeightUnit != UnitLb {
		return fmt.Errorf("%w: weight unit %q", ErrInvalidRecord, p.WeightUnit)
	}
	return nil
}

// ProfileRepository provides CRUD operations for profiles.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

// Save inserts the profile or replaces the details of an existing one.
func (r *ProfileRepository) Save(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	now := time.Now()
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO profiles (user_id, username, full_name, email, gender, age,
			height_value, height_unit, weight_value, weight_unit, profile_image,
			needs_onboarding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			full_name = excluded.full_name,
			email = excluded.email,
			gender = excluded.gender,
			age = excluded.age,
			height_value = excluded.height_value,
			height_unit = excluded.height_unit,
			weight_value = excluded.weight_value,
			weight_unit = excluded.weight_unit,
			profile_image = excluded.profile_image,
			needs_onboarding = excluded.needs_onboarding,
			updated_at = excluded.updated_at`,
		p.UserID, p.Username, p.FullName, p.Email, p.Gender, p.Age,
		p.HeightValue, p.HeightUnit, p.WeightValue, p.WeightUnit, p.ProfileImage,
		p.NeedsOnboarding, now, now,
	)
	if err != nil {
		return err
	}

	return nil
}

// Get retrieves the profile for userID.
func (r *ProfileRepository) Get(userID string) (*Profile, error) {
	p := &Profile{}
	err := r.db.QueryRow(
		`SELECT user_id, username, full_name, email, gender, age,
			height_value, height_unit, weight_value, weight_unit, profile_image,
			needs_onboarding, created_at, updated_at
		 FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.Username, &p.FullName, &p.Email, &p.Gender, &p.Age,
		&p.HeightValue, &p.HeightUnit, &p.WeightValue, &p.WeightUnit, &p.ProfileImage,
		&p.NeedsOnboarding, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return p, nil
}

// List retrieves all profiles ordered by user id.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(
		`SELECT user_id, username, full_name, email, gender, age,
			height_value, height_unit, weight_value, weight_unit, profile_image,
			needs_onboarding, created_at, updated_at
		 FROM profiles ORDER BY user_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p := &Profile{}
		if err := rows.Scan(&p.UserID, &p.Username, &p.FullName, &p.Email, &p.Gender, &p.Age,
			&p.HeightValue, &p.HeightUnit, &p.WeightValue, &p.WeightUnit, &p.ProfileImage,
			&p.NeedsOnboarding, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// CompleteOnboarding clears the onboarding flag for userID.
func (r *ProfileRepository) CompleteOnboarding(userID string) error {
	result, err := r.db.Exec(
		`UPDATE profiles SET needs_onboarding = 0, updated_at = ? WHERE user_id = ?`,
		time.Now(), userID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// Delete removes a profile together with its records and settings.
func (r *ProfileRepository) Delete(userID string) error {
	result, err := r.db.Exec(`DELETE FROM profiles WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}
