// Package seed loads the FAQ/department dataset into a store and repairs
// duplicate FAQ rows left by older imports.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/gat-college/faqbot/internal/errors"
	"github.com/gat-college/faqbot/internal/storage"
)

//go:embed data/default.yaml
var defaultDataset []byte

// Dataset is the YAML document read by faqctl seed.
type Dataset struct {
	FAQs        []FAQEntry        `yaml:"faqs"`
	Departments []DepartmentEntry `yaml:"departments"`
	Contacts    []ContactEntry    `yaml:"contacts"`
}

// FAQEntry is one question/answer pair.
type FAQEntry struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
	Source   string   `yaml:"source"`
}

// DepartmentEntry describes a department and its head.
type DepartmentEntry struct {
	ID      string         `yaml:"dept_id"`
	Name    string         `yaml:"name"`
	Aliases []string       `yaml:"aliases"`
	HOD     storage.Person `yaml:"hod"`
	Address string         `yaml:"address"`
	MapsURL string         `yaml:"maps_url"`
	Notes   string         `yaml:"notes"`
}

// ContactEntry is a role-keyed contact.
type ContactEntry struct {
	Role  string `yaml:"role"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

// Default returns the embedded dataset.
func Default() (*Dataset, error) {
	ds, err := parse(defaultDataset)
	if err != nil {
		return nil, fmt.Errorf("embedded dataset: %w", err)
	}
	return ds, nil
}

// Load reads a dataset. Unknown keys are rejected so typos surface early.
func Load(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return parse(data)
}

// LoadFile reads a dataset from path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

func parse(data []byte) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		// an empty document is an empty dataset
		if errors.Is(err, io.EOF) {
			return &ds, nil
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// validate checks the optional fields that end up as links on the site.
// Missing ids and roles are not errors; the seeder skips those entries.
func (ds *Dataset) validate() error {
	var errs []error
	for i, d := range ds.Departments {
		if d.MapsURL != "" {
			if u, err := url.Parse(d.MapsURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, apperrors.NewValidationError(
					fmt.Sprintf("departments[%d].maps_url", i), "must be an absolute http(s) URL"))
			}
		}
		if !validEmail(d.HOD.Email) {
			errs = append(errs, apperrors.NewValidationError(
				fmt.Sprintf("departments[%d].hod.email", i), "is not an email address"))
		}
	}
	for i, c := range ds.Contacts {
		if !validEmail(c.Email) {
			errs = append(errs, apperrors.NewValidationError(
				fmt.Sprintf("contacts[%d].email", i), "is not an email address"))
		}
	}
	return errors.Join(errs...)
}

// validEmail accepts an empty value.
func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
