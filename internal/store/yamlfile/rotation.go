// Package yamlfile reads and writes the rotation schedule and member pool
// YAML files.
package yamlfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/oncall/internal/core/rotation"
	"github.com/colonyops/oncall/pkg/utils"
)

// ScheduleFile is the root of rotation.yaml.
type ScheduleFile struct {
	Rotations rotation.Schedule `yaml:"rotations"`
}

// MembersFile is the root of rotation-members.yaml.
type MembersFile struct {
	Members rotation.Pool `yaml:"members"`
}

// LoadSchedule parses and validates a schedule file. A file that does not
// exist yet is an empty schedule.
func LoadSchedule(path string) (rotation.Schedule, error) {
	var file ScheduleFile
	if err := decodeFile(path, &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	if err := file.Rotations.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule %s: %w", path, err)
	}
	return file.Rotations, nil
}

// LoadMembers parses and validates a member pool file.
func LoadMembers(path string) (rotation.Pool, error) {
	var file MembersFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}

	if err := file.Members.Validate(); err != nil {
		return nil, fmt.Errorf("invalid members file %s: %w", path, err)
	}
	return file.Members, nil
}

// EncodeSchedule renders a schedule in the on-disk format.
func EncodeSchedule(schedule rotation.Schedule) ([]byte, error) {
	out := make(rotation.Schedule, len(schedule))
	for i, shift := range schedule {
		out[i] = rotation.Shift{Start: shift.Start.UTC(), Members: shift.Members}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ScheduleFile{Rotations: out}); err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveSchedule validates and atomically replaces the schedule file. A failure
// at any point leaves the previous file intact.
func SaveSchedule(path string, schedule rotation.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid schedule: %w", err)
	}

	data, err := EncodeSchedule(schedule)
	if err != nil {
		return err
	}

	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write schedule %s: %w", path, err)
	}
	return nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
