// Package course holds the in-memory form of a course directory and the
// loader that reads it from disk.
package course

import "sort"

// Tree is the loaded state of one course directory. A pipeline run owns its
// Tree and never mutates it after loading.
type Tree struct {
	Dir        string
	CourseInfo *Info
	Instances  map[string]*Instance // keyed by course instance short name
	Questions  map[string]*Question // keyed by qid
}

// Info is infoCourse.json.
type Info struct {
	UUID           string          `json:"uuid"`
	Name           string          `json:"name"`
	Title          string          `json:"title"`
	Timezone       string          `json:"timezone"`
	Topics         []Topic         `json:"topics"`
	Tags           []Tag           `json:"tags"`
	AssessmentSets []AssessmentSet `json:"assessmentSets"`
}

type Topic struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

type Tag struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

type AssessmentSet struct {
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
	Heading      string `json:"heading"`
	Color        string `json:"color"`
}

// Question is questions/<qid>/info.json.
type Question struct {
	QID   string   `json:"-"`
	UUID  string   `json:"uuid"`
	Title string   `json:"title"`
	Topic string   `json:"topic"`
	Tags  []string `json:"tags"`
	Type  string   `json:"type"`
}

// Instance is courseInstances/<name>/infoCourseInstance.json plus the
// assessments found beneath it.
type Instance struct {
	ShortName   string                 `json:"-"`
	UUID        string                 `json:"uuid"`
	LongName    string                 `json:"longName"`
	UserRoles   map[string]string      `json:"userRoles"`
	Assessments map[string]*Assessment `json:"-"` // keyed by tid
}

// Assessment is assessments/<tid>/infoAssessment.json.
type Assessment struct {
	TID    string `json:"-"`
	UUID   string `json:"uuid"`
	Type   string `json:"type"`
	Set    string `json:"set"`
	Number string `json:"number"`
	Title  string `json:"title"`
	Zones  []Zone `json:"zones"`
}

type Zone struct {
	Title     string         `json:"title"`
	Questions []ZoneQuestion `json:"questions"`
}

// ZoneQuestion references a question by id, or a pool of alternatives.
type ZoneQuestion struct {
	ID           string        `json:"id"`
	Alternatives []Alternative `json:"alternatives"`
	Points       float64       `json:"points"`
}

type Alternative struct {
	ID     string  `json:"id"`
	Points float64 `json:"points"`
}

// QIDs returns every question id referenced by the assessment, in zone order.
func (a *Assessment) QIDs() []string {
	var out []string
	for _, z := range a.Zones {
		for _, zq := range z.Questions {
			if zq.ID != "" {
				out = append(out, zq.ID)
			}
			for _, alt := range zq.Alternatives {
				if alt.ID != "" {
					out = append(out, alt.ID)
				}
			}
		}
	}
	return out
}

// InstanceNames returns the course instance short names in sorted order so
// sequential runs are deterministic.
func (t *Tree) InstanceNames() []string {
	names := make([]string, 0, len(t.Instances))
	for name := range t.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedQIDs returns the question ids in sorted order.
func (t *Tree) SortedQIDs() []string {
	qids := make([]string, 0, len(t.Questions))
	for qid := range t.Questions {
		qids = append(qids, qid)
	}
	sort.Strings(qids)
	return qids
}
