package cert

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Submission is what a recipient fills in on the self-service page.
type Submission struct {
	Category   string `json:"category" form:"category"`
	Name       string `json:"name" form:"name" validate:"required" label:"Full Name"`
	Department string `json:"department" form:"department" validate:"required" label:"Department"`
	Batch      string `json:"batch" form:"batch" validate:"required" label:"Batch"`
	RollNo     string `json:"roll_no" form:"roll_no" validate:"required" label:"Roll No"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
		return f.Name
	})
	return v
}

// Trim returns s with surrounding whitespace removed from every field.
func (s Submission) Trim() Submission {
	s.Category = strings.TrimSpace(s.Category)
	s.Name = strings.TrimSpace(s.Name)
	s.Department = strings.TrimSpace(s.Department)
	s.Batch = strings.TrimSpace(s.Batch)
	s.RollNo = strings.TrimSpace(s.RollNo)
	return s
}

// ValidateSubmission trims s and returns the labels of the required fields
// left blank, in form order. A nil result means s is complete.
func ValidateSubmission(s Submission) (Submission, []string) {
	s = s.Trim()
	err := validate.Struct(s)
	if err == nil {
		return s, nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return s, []string{err.Error()}
	}
	missing := make([]string, 0, len(ve))
	for _, fe := range ve {
		missing = append(missing, fe.Field())
	}
	return s, missing
}

// Record builds the log record for a validated submission.
func (s Submission) Record(event string, stamp Record) Record {
	stamp.Name = s.Name
	stamp.Department = s.Department
	stamp.Batch = s.Batch
	stamp.RollNo = s.RollNo
	stamp.Category = s.Category
	stamp.Event = event
	return stamp
}
