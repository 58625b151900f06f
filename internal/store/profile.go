package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/handray/internal/stabilizer"
)

// Profile is a named stabilizer tuning.
type Profile struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Tuning    stabilizer.Tuning `json:"tuning"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ProfileRepository provides CRUD operations for profiles. Tunings are
// stored as YAML, the same form they take in the config file.
type ProfileRepository struct {
	db *sql.DB
}

// Profiles returns the profile repository for this store.
func (s *Store) Profiles() *ProfileRepository {
	return &ProfileRepository{db: s.db}
}

const profileColumns = `id, name, tuning, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	var tuning string
	if err := row.Scan(&p.ID, &p.Name, &tuning, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	// Missing fields keep their defaults.
	p.Tuning = stabilizer.DefaultTuning()
	if err := yaml.Unmarshal([]byte(tuning), &p.Tuning); err != nil {
		return nil, fmt.Errorf("profile %s: decode tuning: %w", p.ID, err)
	}
	return p, nil
}

func encodeTuning(t stabilizer.Tuning) (string, error) {
	b, err := yaml.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode tuning: %w", err)
	}
	return string(b), nil
}

// Create inserts p, assigning an ID when it has none. A taken name returns
// ErrDuplicate.
func (r *ProfileRepository) Create(p *Profile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	tuning, err := encodeTuning(p.Tuning)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = r.db.Exec(
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, tuning, p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("profile %q: %w", p.Name, ErrDuplicate)
	}
	return err
}

// GetByID retrieves a profile by its ID.
func (r *ProfileRepository) GetByID(id string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetByName retrieves a profile by its name.
func (r *ProfileRepository) GetByName(name string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns all profiles ordered by name.
func (r *ProfileRepository) List() ([]*Profile, error) {
	rows, err := r.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Update stores the name and tuning of an existing profile.
func (r *ProfileRepository) Update(p *Profile) error {
	tuning, err := encodeTuning(p.Tuning)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	result, err := r.db.Exec(
		`UPDATE profiles SET name = ?, tuning = ?, updated_at = ? WHERE id = ?`,
		p.Name, tuning, p.UpdatedAt, p.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("profile %q: %w", p.Name, ErrDuplicate)
	}
	if err != nil {
		return err
	}
	return rowsAffected(result)
}

// Delete removes a profile. Deleting the active profile clears the active
// setting.
func (r *ProfileRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := rowsAffected(result); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM settings WHERE key = ? AND value = ?`, SettingActiveProfile, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Activate marks profile id as the active one.
func (r *ProfileRepository) Activate(id string) error {
	if _, err := r.GetByID(id); err != nil {
		return err
	}
	return (&SettingsRepository{db: r.db}).Set(SettingActiveProfile, id)
}

// Active returns the active profile, or ErrNotFound when none is set.
func (r *ProfileRepository) Active() (*Profile, error) {
	id, err := (&SettingsRepository{db: r.db}).Get(SettingActiveProfile)
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}
