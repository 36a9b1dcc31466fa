package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	courseInfoFile     = "infoCourse.json"
	questionInfoFile   = "info.json"
	instanceInfoFile   = "infoCourseInstance.json"
	assessmentInfoFile = "infoAssessment.json"

	questionsDir   = "questions"
	instancesDir   = "courseInstances"
	assessmentsDir = "assessments"
)

// DiskLoader reads course directories laid out as
//
//	infoCourse.json
//	questions/<qid>/info.json
//	courseInstances/<name>/infoCourseInstance.json
//	courseInstances/<name>/assessments/<tid>/infoAssessment.json
//
// qids and tids may contain slashes when the definitions are nested.
type DiskLoader struct{}

func NewDiskLoader() *DiskLoader {
	return &DiskLoader{}
}

// LoadFullCourse loads every definition in courseDir.
func (l *DiskLoader) LoadFullCourse(ctx context.Context, courseDir string) (*Tree, error) {
	info := &Info{}
	if err := readJSON(filepath.Join(courseDir, courseInfoFile), info); err != nil {
		return nil, err
	}
	if err := canonicalUUID(courseInfoFile, &info.UUID); err != nil {
		return nil, err
	}

	tree := &Tree{
		Dir:        courseDir,
		CourseInfo: info,
		Instances:  make(map[string]*Instance),
		Questions:  make(map[string]*Question),
	}

	err := walkInfoFiles(ctx, filepath.Join(courseDir, questionsDir), questionInfoFile, func(id, path string) error {
		q, err := loadQuestion(path, id)
		if err != nil {
			return err
		}
		tree.Questions[id] = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(courseDir, instancesDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", instancesDir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		instDir := filepath.Join(courseDir, instancesDir, e.Name())
		if _, err := os.Stat(filepath.Join(instDir, instanceInfoFile)); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		inst, err := loadInstance(ctx, instDir, e.Name())
		if err != nil {
			return nil, err
		}
		tree.Instances[inst.ShortName] = inst
	}

	return tree, nil
}

// LoadSingleQuestion loads questions/<qid>/info.json only.
func (l *DiskLoader) LoadSingleQuestion(ctx context.Context, courseDir, qid string) (*Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if qid == "" || strings.Contains(qid, "..") {
		return nil, fmt.Errorf("invalid qid %q", qid)
	}
	path := filepath.Join(courseDir, questionsDir, filepath.FromSlash(qid), questionInfoFile)
	return loadQuestion(path, qid)
}

func loadQuestion(path, qid string) (*Question, error) {
	q := &Question{}
	if err := readJSON(path, q); err != nil {
		return nil, err
	}
	q.QID = qid
	if err := canonicalUUID("question "+qid, &q.UUID); err != nil {
		return nil, err
	}
	return q, nil
}

func loadInstance(ctx context.Context, dir, shortName string) (*Instance, error) {
	inst := &Instance{}
	if err := readJSON(filepath.Join(dir, instanceInfoFile), inst); err != nil {
		return nil, err
	}
	inst.ShortName = shortName
	inst.Assessments = make(map[string]*Assessment)
	if err := canonicalUUID("course instance "+shortName, &inst.UUID); err != nil {
		return nil, err
	}

	err := walkInfoFiles(ctx, filepath.Join(dir, assessmentsDir), assessmentInfoFile, func(tid, path string) error {
		a := &Assessment{}
		if err := readJSON(path, a); err != nil {
			return err
		}
		a.TID = tid
		if err := canonicalUUID(fmt.Sprintf("assessment %s/%s", shortName, tid), &a.UUID); err != nil {
			return err
		}
		inst.Assessments[tid] = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// walkInfoFiles calls fn for every directory under root that contains
// infoName. The id is the directory path relative to root in slash form.
// Directories below a matched one are not descended into.
func walkInfoFiles(ctx context.Context, root, infoName string, fn func(id, path string) error) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() || path == root {
			return nil
		}
		infoPath := filepath.Join(path, infoName)
		if _, err := os.Stat(infoPath); err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if err := fn(filepath.ToSlash(rel), infoPath); err != nil {
			return err
		}
		return fs.SkipDir
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// canonicalUUID validates *s and rewrites it in lowercase hyphenated form,
// the only form the store and the duplicate checks compare.
func canonicalUUID(what string, s *string) error {
	if *s == "" {
		return fmt.Errorf("%s: missing uuid", what)
	}
	u, err := uuid.Parse(*s)
	if err != nil {
		return fmt.Errorf("%s: invalid uuid %q: %w", what, *s, err)
	}
	*s = u.String()
	return nil
}
