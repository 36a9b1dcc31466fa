package handler

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/maraichr/coursesync/pkg/apierr"
)

func validateCoursePath(p string) *apierr.Error {
	if p == "" {
		return apierr.CoursePathRequired()
	}
	if !filepath.IsAbs(p) || filepath.Clean(p) != p {
		return apierr.CoursePathInvalid()
	}
	return nil
}

// validateQID accepts slash separated qids such as "algebra/q1".
func validateQID(qid string) *apierr.Error {
	if qid == "" {
		return apierr.QIDRequired()
	}
	if strings.HasPrefix(qid, "/") || strings.Contains(qid, `\`) || path.Clean(qid) != qid {
		return apierr.QIDInvalid()
	}
	for _, part := range strings.Split(qid, "/") {
		if part == ".." || part == "." {
			return apierr.QIDInvalid()
		}
	}
	return nil
}
