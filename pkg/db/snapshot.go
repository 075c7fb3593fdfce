package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/duty-roster/pkg/core/clock"
	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// Snapshot is the on-disk form of a MemoryDB.
// Persons and discipline records are produced by the external roster import.
type Snapshot struct {
	Persons           []PersonRow     `yaml:"persons" validate:"dive"`
	DisciplineRecords []DisciplineRow `yaml:"disciplineRecords" validate:"dive"`
	Assignments       []AssignmentRow `yaml:"assignments" validate:"dive"`
}

// PersonRow represents a snapshot person record
type PersonRow struct {
	ID                string `yaml:"id" validate:"required"`
	PersonnelNo       string `yaml:"personnelNo" validate:"required"`
	Name              string `yaml:"name" validate:"required"`
	Unit              string `yaml:"unit"`
	DefaultKind       string `yaml:"defaultKind,omitempty" validate:"omitempty,oneof=On-site Remote"`
	DefaultCostSource string `yaml:"defaultCostSource,omitempty"`
}

// DisciplineRow represents a snapshot discipline record
type DisciplineRow struct {
	PersonnelNo string `yaml:"personnelNo" validate:"required"`
	Attendance  int    `yaml:"attendance" validate:"min=0,max=100"`
	Roster      int    `yaml:"roster" validate:"min=0,max=100"`
	DailyLog    int    `yaml:"dailyLog" validate:"min=0,max=100"`
	Reporting   int    `yaml:"reporting" validate:"min=0,max=100"`
}

// AssignmentRow represents a snapshot assignment record
type AssignmentRow struct {
	ID                string `yaml:"id" validate:"required"`
	PersonnelNo       string `yaml:"personnelNo" validate:"required"`
	PersonName        string `yaml:"personName"`
	StartDate         string `yaml:"startDate" validate:"required"`
	EndDate           string `yaml:"endDate" validate:"required"`
	Kind              string `yaml:"kind" validate:"required,oneof=On-site Remote"`
	ReportSubmitted   bool   `yaml:"reportSubmitted"`
	ReportSubmittedAt string `yaml:"reportSubmittedAt,omitempty"`
	CreatedAt         string `yaml:"createdAt,omitempty"`
}

var validate = validator.New()

// ReadSnapshot parses a YAML snapshot file without validating it
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return snap, nil
}

// LoadSnapshot reads a YAML snapshot into a new MemoryDB
func LoadSnapshot(path string) (*MemoryDB, error) {
	snap, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(snap)
}

// FromSnapshot validates the snapshot rows and builds a MemoryDB from them
func FromSnapshot(snap Snapshot) (*MemoryDB, error) {
	persons, records, err := snap.Roster()
	if err != nil {
		return nil, err
	}

	assignments := make([]model.Assignment, 0, len(snap.Assignments))
	for i, row := range snap.Assignments {
		a, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("assignments[%d]: %w", i, err)
		}
		assignments = append(assignments, a)
	}

	return NewMemoryDB(persons, assignments, records), nil
}

// Roster validates the snapshot and returns its persons and discipline records
func (snap Snapshot) Roster() ([]model.Person, []model.DisciplineRecord, error) {
	if err := validate.Struct(snap); err != nil {
		return nil, nil, fmt.Errorf("snapshot validation failed: %w", err)
	}

	persons := make([]model.Person, 0, len(snap.Persons))
	for i, row := range snap.Persons {
		no, err := model.NewPersonnelNo(row.PersonnelNo)
		if err != nil {
			return nil, nil, fmt.Errorf("persons[%d]: %w", i, err)
		}
		persons = append(persons, model.Person{
			ID:                row.ID,
			PersonnelNo:       no,
			Name:              row.Name,
			Unit:              row.Unit,
			DefaultKind:       model.Kind(row.DefaultKind),
			DefaultCostSource: row.DefaultCostSource,
		})
	}

	records := make([]model.DisciplineRecord, 0, len(snap.DisciplineRecords))
	for i, row := range snap.DisciplineRecords {
		no, err := model.NewPersonnelNo(row.PersonnelNo)
		if err != nil {
			return nil, nil, fmt.Errorf("disciplineRecords[%d]: %w", i, err)
		}
		records = append(records, model.DisciplineRecord{
			PersonnelNo: no,
			Attendance:  row.Attendance,
			Roster:      row.Roster,
			DailyLog:    row.DailyLog,
			Reporting:   row.Reporting,
		})
	}

	return persons, records, nil
}

func (row AssignmentRow) toModel() (model.Assignment, error) {
	no, err := model.NewPersonnelNo(row.PersonnelNo)
	if err != nil {
		return model.Assignment{}, err
	}
	start, err := clock.ParseDate(row.StartDate)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("startDate: %w", err)
	}
	end, err := clock.ParseDate(row.EndDate)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("endDate: %w", err)
	}

	a := model.Assignment{
		ID:              row.ID,
		PersonnelNo:     no,
		PersonName:      row.PersonName,
		StartDate:       start,
		EndDate:         end,
		Kind:            model.Kind(row.Kind),
		ReportSubmitted: row.ReportSubmitted,
	}

	if row.ReportSubmittedAt != "" {
		at, err := time.Parse(time.RFC3339, row.ReportSubmittedAt)
		if err != nil {
			return model.Assignment{}, fmt.Errorf("failed to parse reportSubmittedAt: %w", err)
		}
		a.ReportSubmittedAt = &at
	}
	if row.CreatedAt != "" {
		at, err := time.Parse(time.RFC3339, row.CreatedAt)
		if err != nil {
			return model.Assignment{}, fmt.Errorf("failed to parse createdAt: %w", err)
		}
		a.CreatedAt = at
	}

	return a, nil
}

// Snapshot captures the current contents of the store
func (db *MemoryDB) Snapshot() Snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var snap Snapshot
	for _, p := range db.persons {
		snap.Persons = append(snap.Persons, PersonRow{
			ID:                p.ID,
			PersonnelNo:       p.PersonnelNo.String(),
			Name:              p.Name,
			Unit:              p.Unit,
			DefaultKind:       string(p.DefaultKind),
			DefaultCostSource: p.DefaultCostSource,
		})
	}
	// Records are kept in a map; emit them in person order first so files diff cleanly
	seen := make(map[model.PersonnelNo]bool, len(db.records))
	for _, p := range db.persons {
		if r, ok := db.records[p.PersonnelNo]; ok && !seen[p.PersonnelNo] {
			snap.DisciplineRecords = append(snap.DisciplineRecords, disciplineRow(r))
			seen[p.PersonnelNo] = true
		}
	}
	for no, r := range db.records {
		if !seen[no] {
			snap.DisciplineRecords = append(snap.DisciplineRecords, disciplineRow(r))
		}
	}
	for _, a := range db.assignments {
		row := AssignmentRow{
			ID:              a.ID,
			PersonnelNo:     a.PersonnelNo.String(),
			PersonName:      a.PersonName,
			StartDate:       clock.FormatDate(a.StartDate),
			EndDate:         clock.FormatDate(a.EndDate),
			Kind:            string(a.Kind),
			ReportSubmitted: a.ReportSubmitted,
		}
		if a.ReportSubmittedAt != nil {
			row.ReportSubmittedAt = a.ReportSubmittedAt.UTC().Format(time.RFC3339)
		}
		if !a.CreatedAt.IsZero() {
			row.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
		}
		snap.Assignments = append(snap.Assignments, row)
	}
	return snap
}

func disciplineRow(r model.DisciplineRecord) DisciplineRow {
	return DisciplineRow{
		PersonnelNo: r.PersonnelNo.String(),
		Attendance:  r.Attendance,
		Roster:      r.Roster,
		DailyLog:    r.DailyLog,
		Reporting:   r.Reporting,
	}
}

// SaveSnapshot writes the store back to a YAML file and clears the dirty flag
func (db *MemoryDB) SaveSnapshot(path string) error {
	data, err := yaml.Marshal(db.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	db.mu.Lock()
	db.dirty = false
	db.mu.Unlock()
	return nil
}

// writeFileAtomic writes to a temp file next to path and renames it into place,
// so readers see either the old file or the new one, never a partial write.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
